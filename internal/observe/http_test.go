package observe

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "observe_test_total",
	Help: "Counter registered by the observe tests",
})

func init() {
	prometheus.MustRegister(testCounter)
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHTTPServer_Healthz(t *testing.T) {
	srv := NewHTTPServer(":0")
	code, body := get(t, srv.Handler, "/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok\n", body)
}

func TestHTTPServer_Metrics(t *testing.T) {
	testCounter.Inc()
	srv := NewHTTPServer(":0")
	code, body := get(t, srv.Handler, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "# TYPE observe_test_total counter")
}
