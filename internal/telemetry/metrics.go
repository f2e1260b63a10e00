package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/contacerta/contacerta"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Organization directory and selector
	DirectoryRefreshesTotal       metric.Int64Counter
	DirectoryRefreshErrorsTotal   metric.Int64Counter
	OrganizationSwitchesTotal     metric.Int64Counter
	StalePointersClearedTotal     metric.Int64Counter
	CorruptPointersDiscardedTotal metric.Int64Counter

	// Dependent views
	ViewFetchesTotal         metric.Int64Counter
	ViewFetchErrorsTotal     metric.Int64Counter
	ViewFetchDuration        metric.Float64Histogram
	StaleResponsesDiscarded  metric.Int64Counter
	MutationsTotal           metric.Int64Counter
	OptimisticRollbacksTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments are created from the global meter provider, so they start reporting
// once Init installs an exporter and are no-ops otherwise.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	m := &Metrics{}

	m.DirectoryRefreshesTotal, _ = meter.Int64Counter(
		"contacerta.directory.refreshes.total",
		metric.WithDescription("Total number of organization directory fetches"),
		metric.WithUnit("{fetch}"),
	)

	m.DirectoryRefreshErrorsTotal, _ = meter.Int64Counter(
		"contacerta.directory.refresh_errors.total",
		metric.WithDescription("Total number of failed organization directory fetches"),
		metric.WithUnit("{error}"),
	)

	m.OrganizationSwitchesTotal, _ = meter.Int64Counter(
		"contacerta.session.switches.total",
		metric.WithDescription("Total number of active organization changes"),
		metric.WithUnit("{switch}"),
	)

	m.StalePointersClearedTotal, _ = meter.Int64Counter(
		"contacerta.session.stale_pointers_cleared.total",
		metric.WithDescription("Active organization pointers cleared because the membership disappeared"),
		metric.WithUnit("{pointer}"),
	)

	m.CorruptPointersDiscardedTotal, _ = meter.Int64Counter(
		"contacerta.session.corrupt_pointers_discarded.total",
		metric.WithDescription("Persisted active organization values discarded as unreadable"),
		metric.WithUnit("{pointer}"),
	)

	m.ViewFetchesTotal, _ = meter.Int64Counter(
		"contacerta.views.fetches.total",
		metric.WithDescription("Total number of view collection fetches"),
		metric.WithUnit("{fetch}"),
	)

	m.ViewFetchErrorsTotal, _ = meter.Int64Counter(
		"contacerta.views.fetch_errors.total",
		metric.WithDescription("Total number of failed view collection fetches"),
		metric.WithUnit("{error}"),
	)

	m.ViewFetchDuration, _ = meter.Float64Histogram(
		"contacerta.views.fetch.duration",
		metric.WithDescription("Duration of view collection fetches"),
		metric.WithUnit("ms"),
	)

	m.StaleResponsesDiscarded, _ = meter.Int64Counter(
		"contacerta.views.stale_responses.total",
		metric.WithDescription("Fetch responses dropped because a newer fetch or organization change superseded them"),
		metric.WithUnit("{response}"),
	)

	m.MutationsTotal, _ = meter.Int64Counter(
		"contacerta.views.mutations.total",
		metric.WithDescription("Total number of view mutations"),
		metric.WithUnit("{mutation}"),
	)

	m.OptimisticRollbacksTotal, _ = meter.Int64Counter(
		"contacerta.views.rollbacks.total",
		metric.WithDescription("Optimistic updates rolled back after a failed mutation"),
		metric.WithUnit("{rollback}"),
	)

	return m
}

// ViewAttr tags a view measurement with the view name.
func ViewAttr(view string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("view", view))
}

// Incr adds one to counter with the given options.
func Incr(ctx context.Context, counter metric.Int64Counter, opts ...metric.AddOption) {
	counter.Add(ctx, 1, opts...)
}
