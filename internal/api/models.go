package api

import "github.com/phrazzld/resource-api/internal/query"

// ListResponse is the body of a list request.
type ListResponse struct {
	Data []map[string]any `json:"data"`
	Meta ListMeta         `json:"meta"`
}

// ListMeta carries the pagination metadata of a list response.
type ListMeta struct {
	Page query.PageMeta `json:"page"`
}

// DataResponse is the body of a single-record response.
type DataResponse struct {
	Data map[string]any `json:"data"`
}
