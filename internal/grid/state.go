package grid

import (
	"einvoice/internal/filter"
	"einvoice/pkg/models"
)

// State is the load state of the grid.
type State uint8

const (
	// Idle is the state before the first load.
	Idle State = iota
	// Loading means a fetch for the current generation is in flight.
	Loading
	// Ready means the current page holds the latest successful fetch.
	Ready
	// Error means the latest fetch failed; the page is empty.
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

// Snapshot is a consistent copy of the grid state handed to subscribers.
type Snapshot struct {
	// Version increases with every change; subscribers called from different
	// goroutines can drop snapshots older than one they already rendered.
	Version    uint64
	State      State
	Generation uint64

	Local     filter.Filter
	Committed filter.Filter

	Page     int
	PageSize int
	Rows     models.Page
	Err      error

	Selected           []string
	AllVisibleSelected bool
	PendingCommit      bool
}

// PageCount returns the number of pages for the current total.
func (s Snapshot) PageCount() int {
	if s.PageSize < 1 || s.Rows.Total == 0 {
		return 1
	}
	return (s.Rows.Total + s.PageSize - 1) / s.PageSize
}
