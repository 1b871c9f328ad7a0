// Package query turns a committed filter and a pagination cursor into the
// parameters of the invoice query endpoint.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"einvoice/internal/filter"
)

const (
	// DefaultPageSize is used when a caller passes a non-positive page size.
	DefaultPageSize = 10

	PageKey  = "page"
	LimitKey = "limit"
)

// Params is an ordered list of query parameters: filter fields in grid column
// order, then page, then limit.
type Params []filter.Param

// Build renders the query parameters for one page of the grid. It is pure:
// identical inputs always give identical output. Absent fields, unknown fields
// and values that fail their field's type never appear in the result.
func Build(committed filter.Filter, page, pageSize int) Params {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	params := make(Params, 0, len(committed)+2)
	for _, field := range filter.Fields {
		v, ok := committed[field]
		if !ok {
			continue
		}
		params = append(params, filter.Encode(field, v)...)
	}
	return append(params,
		filter.Param{Key: PageKey, Value: strconv.Itoa(page)},
		filter.Param{Key: LimitKey, Value: strconv.Itoa(pageSize)},
	)
}

// Get returns the first value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Keys lists parameter keys in order.
func (p Params) Keys() []string {
	keys := make([]string, len(p))
	for i, kv := range p {
		keys[i] = kv.Key
	}
	return keys
}

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Add(kv.Key, kv.Value)
	}
	return v
}

// Encode renders p as a URL query string, keeping parameter order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}
