package filter_test

import (
	"sync"
	"testing"
	"time"

	"einvoice/internal/filter"
	"einvoice/internal/filter/filtertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commitRecorder struct {
	mu      sync.Mutex
	commits []filter.Filter
}

func (r *commitRecorder) record(f filter.Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, f)
}

func (r *commitRecorder) all() []filter.Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]filter.Filter(nil), r.commits...)
}

func newTestStore() (*filter.Store, *filtertest.ManualScheduler, *commitRecorder) {
	sched := filtertest.NewManualScheduler()
	rec := &commitRecorder{}
	store := filter.NewStore(filter.NewDebouncer(filter.DefaultDebounce, sched), rec.record)
	return store, sched, rec
}

func TestStore_SetLocalIsImmediateCommitIsDebounced(t *testing.T) {
	store, sched, rec := newTestStore()

	store.SetLocal(filter.FieldCustomerName, "AC")
	assert.Equal(t, "AC", store.Local().Get(filter.FieldCustomerName).Text())
	assert.Empty(t, store.Committed())
	assert.True(t, store.Pending())

	sched.Advance(499 * time.Millisecond)
	assert.Empty(t, rec.all())

	sched.Advance(time.Millisecond)
	commits := rec.all()
	require.Len(t, commits, 1)
	assert.Equal(t, "AC", commits[0].Get(filter.FieldCustomerName).Text())
	assert.Equal(t, "AC", store.Committed().Get(filter.FieldCustomerName).Text())
	assert.False(t, store.Pending())
}

func TestStore_OnlyLastValueInWindowIsCommitted(t *testing.T) {
	store, sched, rec := newTestStore()

	for _, s := range []string{"A", "AC", "ACM", "ACME"} {
		store.SetLocal(filter.FieldCustomerName, s)
		sched.Advance(300 * time.Millisecond) // each edit lands inside the window
	}
	assert.Empty(t, rec.all(), "no commit while edits keep arriving")

	sched.Advance(200 * time.Millisecond)
	commits := rec.all()
	require.Len(t, commits, 1)
	assert.Equal(t, "ACME", commits[0].Get(filter.FieldCustomerName).Text())

	sched.Advance(time.Second)
	assert.Len(t, rec.all(), 1, "superseded timers never fire")
}

func TestStore_EditsAcrossFieldsShareOneWindow(t *testing.T) {
	store, sched, rec := newTestStore()

	store.SetLocal(filter.FieldCustomerName, "ACME")
	store.SetLocal(filter.FieldAmount, "100")
	sched.Advance(filter.DefaultDebounce)

	commits := rec.all()
	require.Len(t, commits, 1)
	assert.Len(t, commits[0], 2)
}

func TestStore_ClearingAFieldRemovesIt(t *testing.T) {
	store, sched, rec := newTestStore()

	store.SetLocal(filter.FieldComment, "late")
	sched.Advance(filter.DefaultDebounce)
	store.SetLocal(filter.FieldComment, "")
	sched.Advance(filter.DefaultDebounce)

	commits := rec.all()
	require.Len(t, commits, 2)
	assert.Empty(t, commits[1])
}

func TestStore_CommitNowCancelsPending(t *testing.T) {
	store, sched, rec := newTestStore()

	store.SetLocal(filter.FieldCustomerName, "ACME")
	store.CommitNow(filter.Filter{filter.FieldStatus: filter.StringValue("ERROR")})

	commits := rec.all()
	require.Len(t, commits, 1)
	assert.Equal(t, "ERROR", commits[0].Get(filter.FieldStatus).Text())
	assert.False(t, store.Pending())

	sched.Advance(time.Second)
	assert.Len(t, rec.all(), 1)
	assert.True(t, store.Local().Equal(store.Committed()))
}

func TestStore_ClearCommitsSynchronously(t *testing.T) {
	store, sched, rec := newTestStore()

	store.SetLocal(filter.FieldCustomerName, "ACME")
	sched.Advance(filter.DefaultDebounce)
	store.SetLocal(filter.FieldComment, "pending edit")

	store.Clear()

	commits := rec.all()
	require.Len(t, commits, 2)
	assert.Empty(t, commits[1])
	assert.Empty(t, store.Local())
	assert.Empty(t, store.Committed())

	sched.Advance(time.Second)
	assert.Len(t, rec.all(), 2)
}

func TestStore_FirstExternalChangeIsSeed(t *testing.T) {
	store, _, rec := newTestStore()

	committed := store.OnExternalChange(filter.Patch{filter.FieldStatus: filter.StringValue("PENDING")})
	assert.False(t, committed)
	assert.Empty(t, rec.all(), "seed must not trigger a commit")
	assert.Equal(t, "PENDING", store.Committed().Get(filter.FieldStatus).Text())

	committed = store.OnExternalChange(filter.Patch{filter.FieldStatus: filter.StringValue("ERROR")})
	assert.True(t, committed)
	require.Len(t, rec.all(), 1)
	assert.Equal(t, "ERROR", rec.all()[0].Get(filter.FieldStatus).Text())
}

func TestStore_ExternalChangeDuringDebounceKeepsLocalEdit(t *testing.T) {
	store, sched, rec := newTestStore()
	store.OnExternalChange(nil) // mount

	store.SetLocal(filter.FieldCustomerName, "ACME")
	sched.Advance(200 * time.Millisecond)
	store.OnExternalChange(filter.Patch{filter.FieldStatus: filter.StringValue("ERROR")})
	sched.Advance(time.Second)

	commits := rec.all()
	require.NotEmpty(t, commits)
	final := commits[len(commits)-1]
	assert.Equal(t, "ERROR", final.Get(filter.FieldStatus).Text())
	assert.Equal(t, "ACME", final.Get(filter.FieldCustomerName).Text())
	assert.True(t, final.Equal(store.Committed()))
}

func TestStore_ExternalViewAllClearsStatus(t *testing.T) {
	store, _, rec := newTestStore()
	store.OnExternalChange(filter.Patch{filter.FieldStatus: filter.StringValue("PENDING")})

	store.OnExternalChange(filter.Patch{filter.FieldStatus: filter.Normalize(filter.FieldStatus, "viewAll")})

	require.Len(t, rec.all(), 1)
	_, ok := store.Committed()[filter.FieldStatus]
	assert.False(t, ok)
}

func TestStore_UnknownFieldIgnored(t *testing.T) {
	store, sched, rec := newTestStore()

	v := store.SetLocal(filter.Field("warehouse"), "W1")
	assert.True(t, v.IsAbsent())
	assert.Empty(t, store.Local())
	assert.False(t, store.Pending())

	sched.Advance(time.Second)
	assert.Empty(t, rec.all())
}

func TestStore_CancelDropsPendingCommit(t *testing.T) {
	store, sched, rec := newTestStore()

	store.SetLocal(filter.FieldCustomerName, "ACME")
	assert.True(t, store.Cancel())
	assert.False(t, store.Cancel())

	sched.Advance(time.Second)
	assert.Empty(t, rec.all())
}

func TestDebouncer_WallClock(t *testing.T) {
	d := filter.NewDebouncer(10*time.Millisecond, nil)
	fired := make(chan int, 4)

	for i := 1; i <= 3; i++ {
		i := i
		d.Trigger(func() { fired <- i })
	}

	select {
	case got := <-fired:
		assert.Equal(t, 3, got)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}

	select {
	case extra := <-fired:
		t.Fatalf("unexpected extra callback %d", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_CommitsAreDeliveredInCommitOrder(t *testing.T) {
	sched := filtertest.NewManualScheduler()
	rec := &commitRecorder{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	store := filter.NewStore(filter.NewDebouncer(filter.DefaultDebounce, sched), func(f filter.Filter) {
		if !f.Get(filter.FieldCustomerName).IsAbsent() {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		rec.record(f)
	})

	store.SetLocal(filter.FieldCustomerName, "ACME")
	flushed := make(chan struct{})
	go func() {
		sched.Advance(filter.DefaultDebounce)
		close(flushed)
	}()
	<-entered

	cleared := make(chan struct{})
	go func() {
		store.Clear()
		close(cleared)
	}()
	select {
	case <-cleared:
		t.Fatal("Clear committed while the debounced commit was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-flushed
	<-cleared

	commits := rec.all()
	require.Len(t, commits, 2)
	assert.Equal(t, "ACME", commits[0].Get(filter.FieldCustomerName).Text())
	assert.Empty(t, commits[1])
	assert.Empty(t, store.Committed())
}
