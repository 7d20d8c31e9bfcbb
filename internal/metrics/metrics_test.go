package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/boards/", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/boards/", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `kanmind_http_requests_total{method="GET",route="/boards/",status="200"} 2`)
	assert.Contains(t, body, `kanmind_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `kanmind_http_request_duration_seconds_count{method="GET",route="/boards/"} 2`)
}

func TestObserveDenial(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   struct {
			present string
			absent  string
		}
	}{
		{
			name:   "unauthenticated",
			status: http.StatusUnauthorized,
			want: struct {
				present string
				absent  string
			}{present: `kanmind_auth_denials_total{kind="unauthenticated"} 1`, absent: `kind="forbidden"`},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			want: struct {
				present string
				absent  string
			}{present: `kanmind_auth_denials_total{kind="forbidden"} 1`, absent: `kind="unauthenticated"`},
		},
		{
			name:   "other statuses are ignored",
			status: http.StatusNotFound,
			want: struct {
				present string
				absent  string
			}{present: "go_goroutines", absent: "kanmind_auth_denials_total{"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.ObserveDenial(tt.status)
			body := scrape(t, m)
			assert.Contains(t, body, tt.want.present)
			assert.NotContains(t, body, tt.want.absent)
		})
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	first, second := New(), New()
	first.ObserveRateLimited("/auth/login/")

	assert.Contains(t, scrape(t, first), `kanmind_rate_limited_total{route="/auth/login/"} 1`)
	assert.NotContains(t, scrape(t, second), `kanmind_rate_limited_total{`)
}
