package datasource

import (
	"context"
	"sync"
	"time"

	"einvoice/internal/logger"
	"einvoice/internal/metrics"
	"einvoice/internal/query"
	"einvoice/pkg/models"

	"github.com/rs/zerolog"
)

// Result is the outcome of one issued fetch.
type Result struct {
	Generation uint64
	Params     query.Params
	Page       models.Page
	Err        error
}

// Loader runs fetches in the background and delivers only the result of the
// most recently issued one. Superseded requests are not cancelled; their
// results are dropped when they arrive.
type Loader struct {
	fetcher Fetcher
	metrics *metrics.FetchMetrics
	log     zerolog.Logger

	mu  sync.Mutex
	gen uint64
	wg  sync.WaitGroup
}

// NewLoader creates a Loader around f. m may be nil.
func NewLoader(f Fetcher, m *metrics.FetchMetrics) *Loader {
	return &Loader{
		fetcher: f,
		metrics: m,
		log:     logger.WithComponent("loader"),
	}
}

// Issue starts a fetch for params and returns its generation. deliver is
// called from the fetch goroutine if no later Issue happened by the time the
// fetch resolved. A caller that issues while holding its own lock must
// confirm IsCurrent under that lock before applying the result.
func (l *Loader) Issue(ctx context.Context, params query.Params, deliver func(Result)) uint64 {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	l.metrics.Issued(gen)
	l.log.Debug().Uint64("generation", gen).Str("query", params.Encode()).Msg("Fetch issued")

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		start := time.Now()
		page, err := l.fetcher.Fetch(ctx, params)
		res := Result{Generation: gen, Params: params, Page: page, Err: err}

		if !l.IsCurrent(gen) {
			l.metrics.Resolved(metrics.OutcomeStale, time.Since(start), 0)
			l.log.Debug().Uint64("generation", gen).Msg("Discarding superseded fetch result")
			return
		}

		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		l.metrics.Resolved(outcome, time.Since(start), len(page.Invoices))
		l.log.Debug().Uint64("generation", gen).Str("outcome", outcome).Msg("Fetch resolved")

		if deliver != nil {
			deliver(res)
		}
	}()

	return gen
}

// Generation returns the generation of the most recent Issue.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// IsCurrent reports whether gen is still the most recent generation.
func (l *Loader) IsCurrent(gen uint64) bool {
	return l.Generation() == gen
}

// Wait blocks until every issued fetch has resolved.
func (l *Loader) Wait() {
	l.wg.Wait()
}
