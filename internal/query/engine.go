package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/resource"
)

// Apply filters, searches and sorts records according to d. The input slice
// is not modified; the result keeps the relative input order for records
// that compare equal. Pagination is applied separately by Paginate.
func Apply(records []*domain.Record, d *Descriptor, t *resource.Type) []*domain.Record {
	matched := make([]*domain.Record, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if !matchesFilters(rec, d.Filters) {
			continue
		}
		if !matchesSearch(rec, d.Terms, t.Searchable) {
			continue
		}
		matched = append(matched, rec)
	}

	if len(d.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j], d.Sort)
		})
	}
	return matched
}

func matchesFilters(rec *domain.Record, filters []Filter) bool {
	for _, f := range filters {
		v, ok := rec.Attributes.Get(f.Path)
		if !ok {
			return false
		}
		s, ok := scalarString(v)
		if !ok {
			return false
		}
		if !contains(f.Values, s) {
			return false
		}
	}
	return true
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// matchesSearch requires every term to appear, case-insensitively, in at
// least one searchable field. Terms may match different fields.
func matchesSearch(rec *domain.Record, terms, searchable []string) bool {
	if len(terms) == 0 {
		return true
	}
	if len(searchable) == 0 {
		return false
	}

	haystack := make([]string, 0, len(searchable))
	for _, path := range searchable {
		v, ok := rec.Attributes.Get(path)
		if !ok {
			continue
		}
		if s, ok := scalarString(v); ok {
			haystack = append(haystack, Fold(s))
		}
	}

	for _, term := range terms {
		found := false
		for _, field := range haystack {
			if strings.Contains(field, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// scalarString renders a stored scalar in its canonical string form.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Type ranks for ordering values of different kinds. Missing and null
// values rank lowest, so they sort first ascending and last descending.
const (
	rankMissing = iota
	rankNumber
	rankString
	rankBool
	rankOther
)

func rank(v any, ok bool) int {
	if !ok || v == nil {
		return rankMissing
	}
	switch v.(type) {
	case float64, int, int64:
		return rankNumber
	case string:
		return rankString
	case bool:
		return rankBool
	default:
		return rankOther
	}
}

func less(a, b *domain.Record, keys []SortKey) bool {
	for _, key := range keys {
		c := compareAt(a, b, key.Path)
		if c == 0 {
			continue
		}
		if key.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareAt(a, b *domain.Record, path string) int {
	av, aok := a.Attributes.Get(path)
	bv, bok := b.Attributes.Get(path)

	ra, rb := rank(av, aok), rank(bv, bok)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case rankNumber:
		return compareFloat(toFloat(av), toFloat(bv))
	case rankString:
		return strings.Compare(av.(string), bv.(string))
	case rankBool:
		return compareBool(av.(bool), bv.(bool))
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
