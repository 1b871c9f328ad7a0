// Package selection tracks which invoices the user has selected in the grid.
package selection

import "sync"

// Tracker is a set of selected invoice ids that remembers selection order.
// The zero value is an empty, ready to use tracker.
type Tracker struct {
	mu    sync.RWMutex
	order []string
	set   map[string]struct{}
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// Toggle flips the selection of id and reports whether it is now selected.
func (t *Tracker) Toggle(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.set[id]; ok {
		t.remove(id)
		return false
	}
	t.add(id)
	return true
}

// SelectAll adds every visible id to the selection.
func (t *Tracker) SelectAll(visible []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range visible {
		if _, ok := t.set[id]; !ok {
			t.add(id)
		}
	}
}

// Clear empties the selection.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = nil
	t.set = nil
}

// IsAllSelected reports whether visible is non-empty and every id in it is
// selected.
func (t *Tracker) IsAllSelected(visible []string) bool {
	if len(visible) == 0 {
		return false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, id := range visible {
		if _, ok := t.set[id]; !ok {
			return false
		}
	}
	return true
}

// IsSelected reports whether id is selected.
func (t *Tracker) IsSelected(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.set[id]
	return ok
}

// IDs returns the selected ids in the order they were selected.
func (t *Tracker) IDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]string(nil), t.order...)
}

// Len returns the number of selected ids.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.order)
}

func (t *Tracker) add(id string) {
	if t.set == nil {
		t.set = make(map[string]struct{})
	}
	t.set[id] = struct{}{}
	t.order = append(t.order, id)
}

func (t *Tracker) remove(id string) {
	delete(t.set, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			return
		}
	}
}
