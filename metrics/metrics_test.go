package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	rec := NewRecorder()
	rec.SearchPage("nunoa")
	rec.SearchPage("nunoa")
	rec.Links("nunoa", 3)
	rec.Links("nunoa", 0)
	rec.Record("maipu")
	rec.Error("navigation")
	rec.LoopExpired("links")
	rec.ObservePage("detail", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.searchPages.WithLabelValues("nunoa")))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.links.WithLabelValues("nunoa")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.records.WithLabelValues("maipu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.errors.WithLabelValues("navigation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.loopsExpired.WithLabelValues("links")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.SearchPage("x")
		rec.Links("x", 1)
		rec.Record("x")
		rec.Error("parse")
		rec.LoopExpired("rows")
		rec.ObservePage("search", time.Now())
	})
	assert.Nil(t, rec.Registry())
}

func TestRouter(t *testing.T) {
	rec := NewRecorder()
	rec.Record("providencia")
	srv := httptest.NewServer(NewRouter(rec))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `portal_records_total{comuna="providencia"} 1`)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	resp, err = http.Post(srv.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
