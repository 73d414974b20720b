package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTPRequest(t *testing.T) {
	Init()

	ObserveHTTPRequest("POST", "/v1/runs", 201, 5*time.Millisecond)
	ObserveHTTPRequest("POST", "/v1/runs", 201, 7*time.Millisecond)

	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "201")); val != 2 {
		t.Errorf("expected httpRequestsTotal for POST 201 to be 2, got %f", val)
	}
	if val := testutil.CollectAndCount(httpRequestDurationSeconds); val <= 0 {
		t.Errorf("expected httpRequestDurationSeconds to be observed, got %d", val)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	ObserveHTTPRequest("GET", "/v1/activity", 404, 3*time.Millisecond)

	ts := httptest.NewServer(Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if errInner := resp.Body.Close(); errInner != nil {
			t.Log(errInner)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "http_requests_total") {
		t.Error("expected exposition to include http_requests_total")
	}
}
