package query

import "github.com/phrazzld/resource-api/internal/domain"

// PageMeta describes the page returned to the client. It is always present
// in list responses, including empty ones.
type PageMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	// Total is the number of records matching the query before pagination.
	Total int `json:"total"`
	// Count is the number of records on this page.
	Count int `json:"count"`
}

// Paginate returns records[offset:offset+limit]. An offset past the end
// yields an empty page, not an error.
func Paginate(records []*domain.Record, page Page) ([]*domain.Record, PageMeta) {
	page.Offset = max(page.Offset, 0)
	meta := PageMeta{
		Limit:  page.Limit,
		Offset: page.Offset,
		Total:  len(records),
	}

	if page.Offset >= len(records) || page.Limit <= 0 {
		return []*domain.Record{}, meta
	}

	end := min(page.Offset+page.Limit, len(records))
	out := records[page.Offset:end]
	meta.Count = len(out)
	return out, meta
}
