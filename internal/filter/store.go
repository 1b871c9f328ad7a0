package filter

import (
	"sync"

	"einvoice/internal/logger"

	"github.com/rs/zerolog"
)

// CommitFunc receives every committed filter, in commit order, with its own
// copy. Commits are serialised around it, so it must not commit to the same
// Store.
type CommitFunc func(committed Filter)

// Store holds the local and committed filters of one grid.
type Store struct {
	// commitMu is held from the update of committed until onCommit returns.
	commitMu sync.Mutex

	mu        sync.Mutex
	local     Filter
	committed Filter
	mounted   bool
	epoch     uint64 // bumped by every commit

	debounce *Debouncer
	onCommit CommitFunc
	log      zerolog.Logger
}

// NewStore creates an empty store. A nil debouncer gets the default window on
// the wall clock.
func NewStore(debounce *Debouncer, onCommit CommitFunc) *Store {
	if debounce == nil {
		debounce = NewDebouncer(DefaultDebounce, nil)
	}
	return &Store{
		local:     Filter{},
		committed: Filter{},
		debounce:  debounce,
		onCommit:  onCommit,
		log:       logger.WithComponent("filter-store"),
	}
}

// SetLocal normalises raw and stores it in the local filter right away, then
// restarts the debounce window. Unknown fields are ignored.
func (s *Store) SetLocal(field Field, raw any) Value {
	if !field.Known() {
		s.log.Debug().Str("field", string(field)).Msg("Ignoring unknown filter field")
		return Absent()
	}
	v := Normalize(field, raw)

	s.mu.Lock()
	s.local.Set(field, v)
	epoch := s.epoch
	s.mu.Unlock()

	s.debounce.Trigger(func() { s.flush(epoch) })
	return v
}

// CommitNow replaces both filters with f and commits immediately, dropping
// any pending debounced commit.
func (s *Store) CommitNow(f Filter) {
	s.debounce.Cancel()

	next := f.Normalized()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	s.local = next.Clone()
	s.committed = next.Clone()
	s.epoch++
	s.mu.Unlock()

	s.log.Debug().Str("filter", next.String()).Msg("Filter committed")
	s.notify(next)
}

// Clear removes every constraint and commits synchronously.
func (s *Store) Clear() {
	s.CommitNow(nil)
}

// OnExternalChange merges a patch from an external source. The first call is
// the mount-time seed: it initialises both filters without committing, and
// it returns false. Later calls merge the patch into the local filter (local
// edits still in their debounce window survive), cancel the pending debounce
// and commit the merged filter; they return true.
func (s *Store) OnExternalChange(p Patch) bool {
	s.debounce.Cancel()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	merged := MergeExternal(s.local, p)
	s.local = merged.Clone()
	s.committed = merged.Clone()
	s.epoch++
	seeding := !s.mounted
	s.mounted = true
	s.mu.Unlock()

	if seeding {
		s.log.Debug().Str("filter", merged.String()).Msg("Filter seeded")
		return false
	}
	s.log.Debug().Str("filter", merged.String()).Msg("External filter change committed")
	s.notify(merged)
	return true
}

// Cancel drops a pending debounced commit, e.g. when the grid goes away.
func (s *Store) Cancel() bool {
	return s.debounce.Cancel()
}

// Pending reports whether a debounced commit is scheduled.
func (s *Store) Pending() bool {
	return s.debounce.Pending()
}

// Local returns a copy of the local filter.
func (s *Store) Local() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Clone()
}

// Committed returns a copy of the committed filter.
func (s *Store) Committed() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.Clone()
}

// flush commits the local filter unless another commit happened since the
// edit that scheduled it; that commit already carried the edit.
func (s *Store) flush(epoch uint64) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug().Msg("Debounced commit superseded")
		return
	}
	next := s.local.Clone()
	s.committed = next.Clone()
	s.epoch++
	s.mu.Unlock()

	s.log.Debug().Str("filter", next.String()).Msg("Debounced filter committed")
	s.notify(next)
}

func (s *Store) notify(f Filter) {
	if s.onCommit != nil {
		s.onCommit(f.Clone())
	}
}
