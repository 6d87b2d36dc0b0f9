// Package query turns raw list request parameters into a query Descriptor
// and evaluates it against a record set: filtering, free text search,
// stable multi-key sorting and limit/offset pagination.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/phrazzld/resource-api/internal/domain"
	"github.com/phrazzld/resource-api/internal/resource"
	"golang.org/x/text/cases"
)

// Pagination defaults used when the caller does not supply its own.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query parameter names.
const (
	paramSort        = "sort"
	paramSearch      = "q"
	paramPageLimit   = "page[limit]"
	paramPageOffset  = "page[offset]"
	filterPrefix     = "filter["
	filterSuffix     = "]"
	valueSeparator   = ","
	descendingPrefix = "-"
)

// Filter retains records whose value at Path equals one of Values.
type Filter struct {
	Path   string
	Values []string
}

// SortKey orders records by the value at Path.
type SortKey struct {
	Path string
	Desc bool
}

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Descriptor is the parsed, request-scoped form of a list query.
// Filters combine with AND, the values of one filter with OR, and every
// search term must match.
type Descriptor struct {
	Filters []Filter
	Sort    []SortKey
	Terms   []string
	Page    Page
}

// Options configures Parse.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultOptions returns the documented pagination defaults.
func DefaultOptions() Options {
	return Options{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// Parse builds a Descriptor from query parameters, translating external
// field names through t's field map. Invalid page parameters produce a
// domain validation error; unknown parameters are ignored.
func Parse(values url.Values, t *resource.Type, opts Options) (*Descriptor, error) {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxLimit
	}

	d := &Descriptor{
		Filters: parseFilters(values, t.Fields),
		Sort:    parseSort(values[paramSort], t.Fields),
		Terms:   ParseTerms(strings.Join(values[paramSearch], " ")),
		Page:    Page{Limit: opts.DefaultLimit},
	}

	limit, ok, err := parseNonNegative(values, paramPageLimit)
	if err != nil {
		return nil, err
	}
	if ok {
		d.Page.Limit = min(limit, opts.MaxLimit)
	}

	offset, ok, err := parseNonNegative(values, paramPageOffset)
	if err != nil {
		return nil, err
	}
	if ok {
		d.Page.Offset = offset
	}

	return d, nil
}

func parseFilters(values url.Values, fields *resource.FieldMap) []Filter {
	type keyed struct {
		field string
		Filter
	}
	var parsed []keyed
	for key, raw := range values {
		if !strings.HasPrefix(key, filterPrefix) || !strings.HasSuffix(key, filterSuffix) {
			continue
		}
		field := strings.TrimSuffix(strings.TrimPrefix(key, filterPrefix), filterSuffix)
		if field == "" {
			continue
		}
		var vals []string
		for _, r := range raw {
			for _, v := range strings.Split(r, valueSeparator) {
				if v = strings.TrimSpace(v); v != "" {
					vals = appendUnique(vals, v)
				}
			}
		}
		if len(vals) == 0 {
			continue
		}
		// Each key is its own condition, even when two spellings name the
		// same internal path.
		parsed = append(parsed, keyed{field: field, Filter: Filter{Path: fields.InternalPath(field), Values: vals}})
	}

	sort.Slice(parsed, func(i, j int) bool {
		if parsed[i].Path != parsed[j].Path {
			return parsed[i].Path < parsed[j].Path
		}
		return parsed[i].field < parsed[j].field
	})
	filters := make([]Filter, 0, len(parsed))
	for _, p := range parsed {
		filters = append(filters, p.Filter)
	}
	return filters
}

func appendUnique(vals []string, v string) []string {
	for _, existing := range vals {
		if existing == v {
			return vals
		}
	}
	return append(vals, v)
}

func parseSort(raw []string, fields *resource.FieldMap) []SortKey {
	var keys []SortKey
	for _, r := range raw {
		for _, field := range strings.Split(r, valueSeparator) {
			field = strings.TrimSpace(field)
			desc := strings.HasPrefix(field, descendingPrefix)
			field = strings.TrimPrefix(field, descendingPrefix)
			if field == "" {
				continue
			}
			keys = append(keys, SortKey{Path: fields.InternalPath(field), Desc: desc})
		}
	}
	return keys
}

// ParseTerms splits free text on whitespace and "+" and case folds each
// term. Empty input yields no terms.
func ParseTerms(q string) []string {
	parts := strings.FieldsFunc(q, func(r rune) bool {
		return r == '+' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		terms = append(terms, Fold(p))
	}
	return terms
}

// Fold returns the case folded form of s used for case-insensitive matching.
// A Caser is stateful, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

func parseNonNegative(values url.Values, key string) (int, bool, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, domain.NewValidationError(key, "must be an integer", domain.ErrValidation)
	}
	if n < 0 {
		return 0, false, domain.NewValidationError(key, "must not be negative", domain.ErrValidation)
	}
	return n, true, nil
}
