package api

import (
	"context"
	"encoding/json"
	"net/http"

	"einvoice/internal/query"
)

// QueryResponse is the body of GET /invoice. Items are left raw; their shape
// varies and is resolved by the transform package.
type QueryResponse struct {
	Items  []json.RawMessage `json:"items"`
	Total  int               `json:"total"`
	Totals map[string]int    `json:"totals"`
}

// QueryInvoices fetches one page of invoice rows.
func (c *Client) QueryInvoices(ctx context.Context, params query.Params) (*QueryResponse, error) {
	const op = "QueryInvoices"

	data, err := c.do(ctx, op, http.MethodGet, c.endpoint(params.Encode(), "invoice"), nil)
	if err != nil {
		return nil, err
	}

	var resp QueryResponse
	if err := decode(op, data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
