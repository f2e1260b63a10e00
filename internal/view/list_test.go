package view

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/store"
)

type row struct {
	OrgID uuid.UUID
	Name  string
}

// backend is a fake collection keyed by organization whose fetches can be held.
type backend struct {
	mu      sync.Mutex
	rows    map[uuid.UUID][]row
	gates   map[string]chan struct{} // query -> gate
	calls   atomic.Int32
	queries []string
	failure error
}

func newBackend() *backend {
	return &backend{rows: map[uuid.UUID][]row{}, gates: map[string]chan struct{}{}}
}

func (b *backend) hold(query string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	gate := make(chan struct{})
	b.gates[query] = gate
	return gate
}

func (b *backend) fetch(ctx context.Context, orgID uuid.UUID, query string) ([]row, error) {
	b.mu.Lock()
	b.queries = append(b.queries, query)
	gate := b.gates[query]
	b.mu.Unlock()
	b.calls.Add(1)

	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failure != nil {
		return nil, b.failure
	}
	var out []row
	for _, r := range b.rows[orgID] {
		if strings.Contains(r.Name, query) {
			out = append(out, r)
		}
	}
	return out, nil
}

func names(rows []row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestListIdleWithoutOrganization(t *testing.T) {
	b := newBackend()
	l := NewList("members", b.fetch)

	snap, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Idle, snap.State)
	assert.Zero(t, b.calls.Load(), "no fetch without an organization")

	require.ErrorIs(t, l.MutateRefetch(context.Background(), func(context.Context) error { return nil }), ErrNoOrganization)
}

func TestListLoad(t *testing.T) {
	b := newBackend()
	orgA := uuid.New()
	b.rows[orgA] = []row{{orgA, "Ana"}, {orgA, "Bruno"}}

	l := NewList("members", b.fetch)
	var states []State
	l.Subscribe(func(s Snapshot[row, string]) { states = append(states, s.State) })

	l.SetOrg(orgA)
	snap, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Loaded, snap.State)
	assert.Equal(t, []string{"Ana", "Bruno"}, names(snap.Items))
	assert.Equal(t, []State{Idle, Loading, Loaded}, states)

	snap, err = l.Search(context.Background(), "Br")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bruno"}, names(snap.Items))
}

func TestListFetchError(t *testing.T) {
	b := newBackend()
	b.failure = store.ErrUnavailable
	l := NewList("suppliers", b.fetch)
	l.SetOrg(uuid.New())

	snap, err := l.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, Failed, snap.State)
	assert.True(t, apperr.IsKind(snap.Err, apperr.KindUnavailable))

	b.mu.Lock()
	b.failure = nil
	b.mu.Unlock()

	snap, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Loaded, snap.State)
	assert.NoError(t, snap.Err)
}

func TestListOrganizationSwitchDiscardsStaleFetch(t *testing.T) {
	b := newBackend()
	orgA, orgB := uuid.New(), uuid.New()
	b.rows[orgA] = []row{{orgA, "from A"}}
	b.rows[orgB] = []row{{orgB, "from B"}}

	l := NewList("members", b.fetch)
	l.SetOrg(orgA)

	gate := b.hold("")
	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return b.calls.Load() == 1 }, time.Second, time.Millisecond)

	l.SetOrg(orgB)
	snap := l.Snapshot()
	assert.Empty(t, snap.Items, "nothing from A is visible after the switch")
	assert.Equal(t, orgB, snap.OrgID)

	// B's fetch goes through while A's is still held
	b.mu.Lock()
	delete(b.gates, "")
	b.mu.Unlock()
	snap, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"from B"}, names(snap.Items))

	close(gate)
	require.ErrorIs(t, <-done, ErrSuperseded)

	snap = l.Snapshot()
	assert.Equal(t, orgB, snap.OrgID)
	assert.Equal(t, []string{"from B"}, names(snap.Items))
	for _, r := range snap.Items {
		assert.Equal(t, orgB, r.OrgID)
	}
}

func TestListLastIssuedQueryWins(t *testing.T) {
	b := newBackend()
	orgA := uuid.New()
	b.rows[orgA] = []row{{orgA, "maria"}, {orgA, "mario"}}

	l := NewList("members", b.fetch)
	l.SetOrg(orgA)

	slow := b.hold("mar")
	done := make(chan error, 1)
	go func() {
		_, err := l.Search(context.Background(), "mar")
		done <- err
	}()
	require.Eventually(t, func() bool { return b.calls.Load() == 1 }, time.Second, time.Millisecond)

	snap, err := l.Search(context.Background(), "maria")
	require.NoError(t, err)
	assert.Equal(t, []string{"maria"}, names(snap.Items))

	close(slow)
	require.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, []string{"maria"}, names(l.Snapshot().Items))
}

func TestListDebouncedQuery(t *testing.T) {
	b := newBackend()
	orgA := uuid.New()
	b.rows[orgA] = []row{{orgA, "maria"}, {orgA, "joao"}}

	l := NewList("members", b.fetch, WithDebounce(20*time.Millisecond))
	defer l.Close()
	l.SetOrg(orgA)

	for _, q := range []string{"m", "ma", "mar", "mari", "maria"} {
		l.SetQuery(context.Background(), q)
	}

	require.Eventually(t, func() bool {
		return l.Snapshot().State == Loaded
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), b.calls.Load())
	b.mu.Lock()
	assert.Equal(t, []string{"maria"}, b.queries)
	b.mu.Unlock()
	assert.Equal(t, []string{"maria"}, names(l.Snapshot().Items))
}

func TestListAutoLoad(t *testing.T) {
	b := newBackend()
	orgA := uuid.New()
	b.rows[orgA] = []row{{orgA, "x"}}

	l := NewList("assets", b.fetch, WithAutoLoad(context.Background()))
	l.SetOrg(orgA)

	require.Eventually(t, func() bool {
		s := l.Snapshot()
		return s.State == Loaded && len(s.Items) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestListMutateOptimistic(t *testing.T) {
	b := newBackend()
	orgA := uuid.New()
	b.rows[orgA] = []row{{orgA, "a"}, {orgA, "b"}, {orgA, "c"}}

	l := NewList("members", b.fetch)
	l.SetOrg(orgA)
	before, err := l.Load(context.Background())
	require.NoError(t, err)

	removeB := func(items []row) []row {
		return slices.DeleteFunc(items, func(r row) bool { return r.Name == "b" })
	}

	t.Run("rolls back exactly on failure", func(t *testing.T) {
		var during []string
		err := l.MutateOptimistic(context.Background(), removeB, func(context.Context) error {
			during = names(l.Snapshot().Items)
			return errors.New("rejected")
		})
		require.Error(t, err)
		assert.Equal(t, []string{"a", "c"}, during)
		assert.Equal(t, before.Items, l.Snapshot().Items)
		assert.False(t, l.Snapshot().Mutating)
	})

	t.Run("keeps the change on success", func(t *testing.T) {
		err := l.MutateOptimistic(context.Background(), removeB, func(context.Context) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, names(l.Snapshot().Items))
	})

	t.Run("one mutation at a time", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- l.MutateOptimistic(context.Background(), func(items []row) []row { return items }, func(context.Context) error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started

		assert.True(t, l.Snapshot().Mutating)
		err := l.MutateRefetch(context.Background(), func(context.Context) error { return nil })
		require.ErrorIs(t, err, ErrMutationInFlight)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("no rollback into another organization", func(t *testing.T) {
		orgB := uuid.New()
		err := l.MutateOptimistic(context.Background(), removeB, func(context.Context) error {
			l.SetOrg(orgB)
			return errors.New("rejected")
		})
		require.Error(t, err)
		snap := l.Snapshot()
		assert.Equal(t, orgB, snap.OrgID)
		assert.Empty(t, snap.Items)
	})
}

// snapshotFetcher reads the rows first and only then waits on its gate, like a
// query that ran before a concurrent write committed.
type snapshotFetcher struct {
	mu    sync.Mutex
	rows  []row
	gate  chan struct{}
	calls atomic.Int32
}

func (f *snapshotFetcher) fetch(ctx context.Context, orgID uuid.UUID, query string) ([]row, error) {
	f.mu.Lock()
	read := slices.Clone(f.rows)
	gate := f.gate
	f.mu.Unlock()
	f.calls.Add(1)

	if gate != nil {
		<-gate
	}
	return read, nil
}

func (f *snapshotFetcher) remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = slices.DeleteFunc(f.rows, func(r row) bool { return r.Name == name })
}

func (f *snapshotFetcher) hold() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *snapshotFetcher) open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = nil
}

func TestListOptimisticChangeOutlivesOlderFetch(t *testing.T) {
	orgA := uuid.New()
	removeB := func(items []row) []row {
		return slices.DeleteFunc(items, func(r row) bool { return r.Name == "b" })
	}

	setup := func(t *testing.T) (*snapshotFetcher, *List[row, string]) {
		f := &snapshotFetcher{rows: []row{{orgA, "a"}, {orgA, "b"}, {orgA, "c"}}}
		l := NewList("members", f.fetch)
		l.SetOrg(orgA)
		_, err := l.Load(context.Background())
		require.NoError(t, err)
		return f, l
	}

	t.Run("fetch started before the change", func(t *testing.T) {
		f, l := setup(t)

		gate := f.hold()
		done := make(chan error, 1)
		go func() {
			_, err := l.Load(context.Background())
			done <- err
		}()
		require.Eventually(t, func() bool { return f.calls.Load() == 2 }, time.Second, time.Millisecond)

		err := l.MutateOptimistic(context.Background(), removeB, func(context.Context) error {
			f.remove("b")
			f.open()
			return nil
		})
		require.NoError(t, err)

		close(gate)
		require.ErrorIs(t, <-done, ErrSuperseded)

		snap := l.Snapshot()
		assert.Equal(t, Loaded, snap.State)
		assert.Equal(t, []string{"a", "c"}, names(snap.Items))
	})

	t.Run("fetch started while the change is saved", func(t *testing.T) {
		f, l := setup(t)

		gate := f.hold()
		done := make(chan error, 1)
		err := l.MutateOptimistic(context.Background(), removeB, func(context.Context) error {
			go func() {
				_, err := l.Load(context.Background())
				done <- err
			}()
			require.Eventually(t, func() bool { return f.calls.Load() == 2 }, time.Second, time.Millisecond)
			f.remove("b")
			f.open()
			return nil
		})
		require.NoError(t, err)

		close(gate)
		require.ErrorIs(t, <-done, ErrSuperseded)
		assert.Equal(t, []string{"a", "c"}, names(l.Snapshot().Items))
	})
}

func TestListMutateRefetch(t *testing.T) {
	b := newBackend()
	orgA := uuid.New()
	b.rows[orgA] = []row{{orgA, "a"}}

	l := NewList("documents", b.fetch)
	l.SetOrg(orgA)
	_, err := l.Load(context.Background())
	require.NoError(t, err)

	err = l.MutateRefetch(context.Background(), func(context.Context) error {
		b.mu.Lock()
		b.rows[orgA] = append(b.rows[orgA], row{orgA, "b"})
		b.mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(l.Snapshot().Items))

	calls := b.calls.Load()
	err = l.MutateRefetch(context.Background(), func(context.Context) error { return errors.New("rejected") })
	require.Error(t, err)
	assert.Equal(t, calls, b.calls.Load(), "no reload after a failed change")
	assert.Equal(t, []string{"a", "b"}, names(l.Snapshot().Items))
}
