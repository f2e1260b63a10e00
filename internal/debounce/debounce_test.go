package debounce

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerRunsLastCall(t *testing.T) {
	d := New(20 * time.Millisecond)

	var calls atomic.Int32
	var last atomic.Value
	done := make(chan struct{}, 1)

	for _, q := range []string{"m", "ma", "mar", "mari", "maria"} {
		d.Do(context.Background(), func(ctx context.Context) {
			calls.Add(1)
			last.Store(q)
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}

	// Give any wrongly scheduled earlier call a chance to show up.
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, "maria", last.Load())
}

func TestDebouncerCancel(t *testing.T) {
	d := New(20 * time.Millisecond)

	var calls atomic.Int32
	d.Do(context.Background(), func(ctx context.Context) { calls.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestDebouncerCancelsSupersededRun(t *testing.T) {
	d := New(10 * time.Millisecond)

	started := make(chan struct{})
	cancelled := make(chan struct{})
	d.Do(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first call never ran")
	}

	d.Do(context.Background(), func(ctx context.Context) {})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running call was not cancelled when superseded")
	}
}

func TestDebouncerParentContext(t *testing.T) {
	d := New(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	d.Do(ctx, func(ctx context.Context) { calls.Add(1) })
	cancel()

	time.Sleep(60 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestNewDefaultDelay(t *testing.T) {
	require.Equal(t, DefaultDelay, New(0).Delay())
	require.Equal(t, time.Second, New(time.Second).Delay())
}
