package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveHTTP("GET /api/dashboard", http.MethodGet, 200, 15*time.Millisecond)
	m.ObserveHTTP("GET /api/dashboard", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveUpstream("list_transactions", 0, time.Second)
	m.ShareIssued()
	m.ShareViewed("expired")
	m.SharePurged(3)
	m.Export("published")

	out := scrape(t, m)
	for _, want := range []string{
		`hisab_http_requests_total{code="200",method="GET",route="GET /api/dashboard"} 2`,
		`hisab_wordpress_requests_total{code="0",op="list_transactions"} 1`,
		`hisab_share_links_issued_total 1`,
		`hisab_share_link_views_total{outcome="expired"} 1`,
		`hisab_share_links_purged_total 3`,
		`hisab_report_exports_total{stage="published"} 1`,
		`hisab_http_request_duration_seconds_count{route="GET /api/dashboard"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.RateLimited()
	if strings.Contains(scrape(t, b), "hisab_rate_limited_requests_total 1") {
		t.Error("separate instances share state")
	}
	if !strings.Contains(scrape(t, a), "hisab_rate_limited_requests_total 1") {
		t.Error("counter not recorded")
	}
}
