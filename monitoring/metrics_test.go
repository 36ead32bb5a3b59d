package monitoring

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("counters show up in the exposition", func(t *testing.T) {
		metrics := NewMetrics("switchboard")
		metrics.RecordRequest("openai-gpt4o", "completion", "success", 250*time.Millisecond)
		metrics.RecordRetry("openai-gpt4o")
		metrics.RecordFailover("openai-gpt4o")
		metrics.TrackInFlight("openai-gpt4o", 1)

		recorder := httptest.NewRecorder()
		metrics.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
		body := recorder.Body.String()

		assert.Contains(t, body, `switchboard_requests_total{endpoint="openai-gpt4o",kind="completion",outcome="success"} 1`)
		assert.Contains(t, body, `switchboard_retries_total{endpoint="openai-gpt4o"} 1`)
		assert.Contains(t, body, `switchboard_failovers_total{endpoint="openai-gpt4o"} 1`)
		assert.Contains(t, body, `switchboard_in_flight_requests{endpoint="openai-gpt4o"} 1`)
		assert.True(t, strings.Contains(body, "switchboard_request_duration_seconds_bucket"))
	})

	t.Run("in-flight gauge supports decrements", func(t *testing.T) {
		metrics := NewMetrics("switchboard")
		metrics.TrackInFlight("a", 1)
		metrics.TrackInFlight("a", -1)

		recorder := httptest.NewRecorder()
		metrics.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
		assert.Contains(t, recorder.Body.String(), `switchboard_in_flight_requests{endpoint="a"} 0`)
	})

	t.Run("nil metrics are safe", func(t *testing.T) {
		var metrics *Metrics
		require.NotPanics(t, func() {
			metrics.RecordRequest("a", "completion", "success", time.Second)
			metrics.RecordRetry("a")
			metrics.RecordFailover("a")
			metrics.TrackInFlight("a", 1)
		})
	})
}
