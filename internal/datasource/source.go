// Package datasource fetches pages of invoices from the backend and keeps
// only the most recently requested page.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"einvoice/internal/api"
	"einvoice/internal/logger"
	"einvoice/internal/query"
	"einvoice/internal/transform"
	"einvoice/pkg/models"

	"github.com/rs/zerolog"
)

// ErrFetchFailed marks a page fetch that ended in a transport error, a non-2xx
// status or an undecodable body. The page returned alongside it is empty.
var ErrFetchFailed = errors.New("invoice page fetch failed")

// Querier is the slice of the API client the source needs.
type Querier interface {
	QueryInvoices(ctx context.Context, params query.Params) (*api.QueryResponse, error)
}

// Fetcher loads one page for a set of query parameters.
type Fetcher interface {
	Fetch(ctx context.Context, params query.Params) (models.Page, error)
}

// Source is the Fetcher backed by the invoice query endpoint.
type Source struct {
	querier Querier
	log     zerolog.Logger
}

var _ Fetcher = (*Source)(nil)

// NewSource creates a Source reading through q.
func NewSource(q Querier) *Source {
	return &Source{
		querier: q,
		log:     logger.WithComponent("datasource"),
	}
}

// Fetch queries the backend and transforms the rows. It never panics on bad
// responses: failures return an empty page and an error wrapping ErrFetchFailed.
func (s *Source) Fetch(ctx context.Context, params query.Params) (models.Page, error) {
	const op = "Fetch"

	resp, err := s.querier.QueryInvoices(ctx, params)
	if err != nil {
		s.log.Warn().Err(err).Str("query", params.Encode()).Msg("Invoice page fetch failed")
		return models.Page{}, fmt.Errorf("%s: %w: %w", op, ErrFetchFailed, err)
	}

	page := models.Page{
		Invoices: transform.Transform(resp.Items),
		Total:    resp.Total,
		Totals:   parseTotals(resp.Totals),
	}
	if page.Total < len(page.Invoices) {
		page.Total = len(page.Invoices)
	}

	s.log.Debug().
		Str("query", params.Encode()).
		Int("rows", len(resp.Items)).
		Int("invoices", len(page.Invoices)).
		Int("total", page.Total).
		Msg("Invoice page fetched")

	return page, nil
}

func parseTotals(raw map[string]int) map[models.Status]int {
	if len(raw) == 0 {
		return nil
	}
	totals := make(map[models.Status]int, len(raw))
	for k, n := range raw {
		if s, ok := models.ParseStatus(k); ok {
			totals[s] += n
		}
	}
	return totals
}
