package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.MailMessages.WithLabelValues("imported").Inc()
	m.JobRuns.WithLabelValues("notify", "skipped").Add(2)

	require.Equal(t, 2.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("notify", "skipped")))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), `roteiro_mail_import_messages_total{outcome="imported"} 1`), rr.Body.String())
}

func TestNew_IndependentRegistries(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
