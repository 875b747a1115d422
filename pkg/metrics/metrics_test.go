package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fileflow/pkg/metrics"
)

func TestRecorder_ObserveUpload(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.New("test", reg)
	require.NoError(t, err)

	rec.ObserveUpload("image", 10*time.Millisecond, 2048, nil)
	rec.ObserveUpload("image", 5*time.Millisecond, 0, errors.New("boom"))

	count, err := testutil.GatherAndCount(reg, "test_uploads_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rr := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `test_uploads_total{family="image",status="error"} 1`)
	assert.Contains(t, rr.Body.String(), "test_uploaded_bytes_total 2048")
}

func TestRecorder_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New("dup", reg)
	require.NoError(t, err)

	_, err = metrics.New("dup", reg)

	assert.NoError(t, err)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *metrics.Recorder

	assert.NotPanics(t, func() { rec.ObserveUpload("other", time.Second, 1, nil) })
}
