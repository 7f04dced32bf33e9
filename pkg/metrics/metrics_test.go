package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.MigrationApplied("0001_enum_types", 20*time.Millisecond)
	r.MigrationApplied("0002_roles", 5*time.Millisecond)
	r.MigrationSkipped()
	r.Failure("migrate", "MIGRATION_FAILED")
	r.TableRows("roles", 4)
	r.Success("inventory", time.Unix(1700000000, 0))

	assert.Equal(t, float64(2), testutil.ToFloat64(r.migrationsApplied))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.migrationsSkipped))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.failures.WithLabelValues("migrate", "MIGRATION_FAILED")))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.tableRows.WithLabelValues("roles")))
	assert.Equal(t, float64(1700000000), testutil.ToFloat64(r.lastSuccess.WithLabelValues("inventory")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.migrationDuration))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.MigrationApplied("x", time.Second)
		r.MigrationSkipped()
		r.Failure("migrate", "X")
		r.Success("migrate", time.Now())
		r.TableRows("users", 1)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.Push(context.Background(), "http://localhost:9091", "job", nil))
}

func TestPushSendsToGateway(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.MigrationSkipped()

	err := r.Push(context.Background(), srv.URL, "wesmun_schema", map[string]string{"tool": "migrate"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/metrics/job/wesmun_schema"))
	assert.Contains(t, path, "/tool/migrate")
	assert.NotEmpty(t, body)
}

func TestPushSkippedWithoutURL(t *testing.T) {
	assert.NoError(t, NewRecorder().Push(context.Background(), "", "job", nil))
}
