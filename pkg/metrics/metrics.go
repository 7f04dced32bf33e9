package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder holds batch job collectors on a private registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry          *prometheus.Registry
	migrationsApplied prometheus.Counter
	migrationsSkipped prometheus.Counter
	migrationDuration *prometheus.HistogramVec
	failures          *prometheus.CounterVec
	lastSuccess       *prometheus.GaugeVec
	tableRows         *prometheus.GaugeVec
}

// NewRecorder registers the schema tooling collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	migrationsApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wesmun_migrations_applied_total",
		Help: "Migrations executed and recorded by this run",
	})

	migrationsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wesmun_migrations_skipped_total",
		Help: "Migrations already recorded before this run",
	})

	migrationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wesmun_migration_duration_seconds",
		Help:    "Execution time of a single migration",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 30},
	}, []string{"migration"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wesmun_job_failures_total",
		Help: "Failed runs by error code",
	}, []string{"job", "code"})

	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wesmun_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	}, []string{"job"})

	tableRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wesmun_table_rows",
		Help: "Row count per table at inventory time",
	}, []string{"table"})

	registry.MustRegister(
		migrationsApplied,
		migrationsSkipped,
		migrationDuration,
		failures,
		lastSuccess,
		tableRows,
	)

	return &Recorder{
		registry:          registry,
		migrationsApplied: migrationsApplied,
		migrationsSkipped: migrationsSkipped,
		migrationDuration: migrationDuration,
		failures:          failures,
		lastSuccess:       lastSuccess,
		tableRows:         tableRows,
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// MigrationApplied counts an executed migration and observes its duration.
func (r *Recorder) MigrationApplied(label string, d time.Duration) {
	if r == nil {
		return
	}
	r.migrationsApplied.Inc()
	r.migrationDuration.WithLabelValues(label).Observe(d.Seconds())
}

// MigrationSkipped counts a migration that was already recorded.
func (r *Recorder) MigrationSkipped() {
	if r == nil {
		return
	}
	r.migrationsSkipped.Inc()
}

// Failure counts a failed run of job with the given error code.
func (r *Recorder) Failure(job, code string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(job, code).Inc()
}

// Success stamps the completion time of job.
func (r *Recorder) Success(job string, at time.Time) {
	if r == nil {
		return
	}
	r.lastSuccess.WithLabelValues(job).Set(float64(at.Unix()))
}

// TableRows records the row count of table.
func (r *Recorder) TableRows(table string, rows int64) {
	if r == nil {
		return
	}
	r.tableRows.WithLabelValues(table).Set(float64(rows))
}

// Push sends the registry to a Pushgateway. Grouping labels identify the instance.
func (r *Recorder) Push(ctx context.Context, gatewayURL, job string, grouping map[string]string) error {
	if r == nil || gatewayURL == "" {
		return nil
	}
	pusher := push.New(gatewayURL, job).Gatherer(r.registry)
	for name, value := range grouping {
		pusher = pusher.Grouping(name, value)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
