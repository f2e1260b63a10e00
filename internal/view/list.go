// Package view implements the data views that follow the active organization.
//
// A List fetches one collection for the organization it is pointed at. Every
// fetch is numbered when issued; a response is applied only if no fetch was
// issued and no organization change happened after it, so a slow response can
// never overwrite a newer one or leak into another tenant.
package view

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/debounce"
	"github.com/contacerta/contacerta/internal/telemetry"
)

var (
	// ErrMutationInFlight is returned when a mutation is started while another is running.
	ErrMutationInFlight = errors.New("another change is still being saved")
	// ErrNoOrganization is returned for mutations while no organization is active.
	ErrNoOrganization = errors.New("no active organization")
	// ErrSuperseded is returned by Load when its response was discarded.
	ErrSuperseded = errors.New("fetch superseded by a newer one")
)

// State of a List.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	}
	return "idle"
}

// Fetcher loads the collection of orgID matching query.
type Fetcher[T, Q any] func(ctx context.Context, orgID uuid.UUID, query Q) ([]T, error)

// Snapshot is a copy of a List's state.
type Snapshot[T, Q any] struct {
	State    State
	OrgID    uuid.UUID
	Query    Q
	Items    []T
	Err      error
	Mutating bool
}

// Option configures a List.
type Option func(*options)

type options struct {
	delay    time.Duration
	autoLoad context.Context
}

// WithDebounce sets the quiet period before a query change triggers a fetch.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithAutoLoad makes SetOrg start a fetch in the background, using ctx.
func WithAutoLoad(ctx context.Context) Option {
	return func(o *options) { o.autoLoad = ctx }
}

// List is a dependent data view over one collection.
type List[T, Q any] struct {
	name      string
	fetch     Fetcher[T, Q]
	debouncer *debounce.Debouncer
	autoLoad  context.Context

	mu       sync.Mutex
	orgID    uuid.UUID
	query    Q
	state    State
	items    []T
	err      error
	seq      uint64 // last issued fetch, bumped on organization change too
	gen      uint64 // bumped whenever a fetch result replaces items
	mutating bool

	subsMu  sync.Mutex
	subs    []subscriber[T, Q]
	nextSub int
}

type subscriber[T, Q any] struct {
	id int
	fn func(Snapshot[T, Q])
}

// NewList creates an idle list named name (used in logs and metrics).
func NewList[T, Q any](name string, fetch Fetcher[T, Q], opts ...Option) *List[T, Q] {
	o := options{delay: debounce.DefaultDelay}
	for _, opt := range opts {
		opt(&o)
	}
	return &List[T, Q]{
		name:      name,
		fetch:     fetch,
		debouncer: debounce.New(o.delay),
		autoLoad:  o.autoLoad,
	}
}

// Name returns the view name.
func (l *List[T, Q]) Name() string { return l.name }

// SetOrg points the list at orgID. Items of the previous organization are
// dropped immediately and fetches still in flight for it are discarded when
// they return. uuid.Nil leaves the list idle.
func (l *List[T, Q]) SetOrg(orgID uuid.UUID) {
	l.mu.Lock()
	if l.orgID == orgID {
		l.mu.Unlock()
		return
	}
	l.orgID = orgID
	l.items = nil
	l.err = nil
	l.state = Idle
	l.seq++
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.debouncer.Cancel()
	l.emit(snap)

	log.Debug().Str("view", l.name).Str("org_id", orgID.String()).Msg("View organization changed")

	if l.autoLoad != nil && orgID != uuid.Nil {
		go func() { _, _ = l.Load(l.autoLoad) }()
	}
}

// SetQuery replaces the query and schedules a fetch once input settles.
func (l *List[T, Q]) SetQuery(ctx context.Context, query Q) {
	l.mu.Lock()
	l.query = query
	hasOrg := l.orgID != uuid.Nil
	l.mu.Unlock()

	if !hasOrg {
		return
	}
	l.debouncer.Do(ctx, func(ctx context.Context) {
		_, _ = l.Load(ctx)
	})
}

// Search replaces the query and fetches right away.
func (l *List[T, Q]) Search(ctx context.Context, query Q) (Snapshot[T, Q], error) {
	l.mu.Lock()
	l.query = query
	l.mu.Unlock()

	l.debouncer.Cancel()
	return l.Load(ctx)
}

// Load fetches the collection for the current organization and query. With no
// organization it returns the idle snapshot without fetching. ErrSuperseded
// means a newer fetch or an organization change made this response obsolete.
func (l *List[T, Q]) Load(ctx context.Context) (Snapshot[T, Q], error) {
	metrics := telemetry.GetMetrics()

	l.mu.Lock()
	if l.orgID == uuid.Nil {
		l.state = Idle
		snap := l.snapshotLocked()
		l.mu.Unlock()
		return snap, nil
	}
	l.seq++
	seq, orgID, query := l.seq, l.orgID, l.query
	l.state = Loading
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)

	ctx, span := telemetry.StartSpan(ctx, "view.fetch")
	started := time.Now()
	items, err := l.fetch(ctx, orgID, query)
	telemetry.EndSpan(span, err)

	attrs := telemetry.ViewAttr(l.name)
	telemetry.Incr(ctx, metrics.ViewFetchesTotal, attrs)
	metrics.ViewFetchDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	l.mu.Lock()
	if seq != l.seq || orgID != l.orgID {
		current := l.snapshotLocked()
		l.mu.Unlock()
		telemetry.Incr(ctx, metrics.StaleResponsesDiscarded, attrs)
		log.Debug().Str("view", l.name).Str("org_id", orgID.String()).Msg("Discarded stale response")
		return current, ErrSuperseded
	}

	if err != nil {
		telemetry.Incr(ctx, metrics.ViewFetchErrorsTotal, attrs)
		l.state = Failed
		l.err = apperr.FromStore(err)
	} else {
		l.state = Loaded
		l.err = nil
		l.items = items
		l.gen++
	}
	snap = l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)

	if err != nil {
		log.Warn().Err(err).Str("view", l.name).Str("org_id", orgID.String()).Msg("Fetch failed")
		return snap, snap.Err
	}
	return snap, nil
}

// Snapshot returns a copy of the current state.
func (l *List[T, Q]) Snapshot() Snapshot[T, Q] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// MutateOptimistic applies change to the rendered items, then runs call. When
// call fails the items are restored exactly as they were, unless a fetch or an
// organization change replaced them in the meantime.
//
// Fetches in flight when the mutation starts, or issued while call runs, may
// have read the backend before the change landed. They are superseded and the
// collection is reloaded once call returns.
func (l *List[T, Q]) MutateOptimistic(ctx context.Context, change func([]T) []T, call func(ctx context.Context) error) error {
	l.mu.Lock()
	if err := l.beginLocked(); err != nil {
		l.mu.Unlock()
		return err
	}
	inFlight := l.state == Loading
	l.seq++
	prev := slices.Clone(l.items)
	orgID, gen, seq := l.orgID, l.gen, l.seq
	l.items = change(slices.Clone(l.items))
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)

	err := call(ctx)

	metrics := telemetry.GetMetrics()
	telemetry.Incr(ctx, metrics.MutationsTotal, telemetry.ViewAttr(l.name))

	l.mu.Lock()
	l.mutating = false
	raced := inFlight || l.seq != seq
	l.seq++
	if err != nil && l.orgID == orgID && l.gen == gen {
		l.items = prev
		telemetry.Incr(ctx, metrics.OptimisticRollbacksTotal, telemetry.ViewAttr(l.name))
		log.Debug().Str("view", l.name).Err(err).Msg("Rolled back optimistic change")
	}
	snap = l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)

	if raced {
		if _, lerr := l.Load(ctx); lerr != nil && !errors.Is(lerr, ErrSuperseded) {
			log.Warn().Err(lerr).Str("view", l.name).Msg("Reload after change failed")
		}
	}
	return err
}

// MutateRefetch runs call and, when it succeeds, reloads the collection.
// On failure the items are left untouched.
func (l *List[T, Q]) MutateRefetch(ctx context.Context, call func(ctx context.Context) error) error {
	l.mu.Lock()
	if err := l.beginLocked(); err != nil {
		l.mu.Unlock()
		return err
	}
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)

	err := call(ctx)
	telemetry.Incr(ctx, telemetry.GetMetrics().MutationsTotal, telemetry.ViewAttr(l.name))

	l.mu.Lock()
	l.mutating = false
	snap = l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)

	if err != nil {
		return err
	}

	if _, err := l.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		// the change was saved; only the reload failed
		log.Warn().Err(err).Str("view", l.name).Msg("Reload after change failed")
	}
	return nil
}

func (l *List[T, Q]) beginLocked() error {
	if l.orgID == uuid.Nil {
		return ErrNoOrganization
	}
	if l.mutating {
		return ErrMutationInFlight
	}
	l.mutating = true
	return nil
}

// Subscribe registers fn for state changes and returns a func that unregisters it.
func (l *List[T, Q]) Subscribe(fn func(Snapshot[T, Q])) func() {
	l.subsMu.Lock()
	defer l.subsMu.Unlock()

	l.nextSub++
	id := l.nextSub
	l.subs = append(l.subs, subscriber[T, Q]{id: id, fn: fn})

	return func() {
		l.subsMu.Lock()
		defer l.subsMu.Unlock()
		l.subs = slices.DeleteFunc(l.subs, func(s subscriber[T, Q]) bool { return s.id == id })
	}
}

// Close cancels any pending debounced fetch.
func (l *List[T, Q]) Close() {
	l.debouncer.Cancel()
}

func (l *List[T, Q]) emit(snap Snapshot[T, Q]) {
	l.subsMu.Lock()
	subs := slices.Clone(l.subs)
	l.subsMu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}

func (l *List[T, Q]) snapshotLocked() Snapshot[T, Q] {
	return Snapshot[T, Q]{
		State:    l.state,
		OrgID:    l.orgID,
		Query:    l.query,
		Items:    slices.Clone(l.items),
		Err:      l.err,
		Mutating: l.mutating,
	}
}
