package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveResolve(OutcomeGranted, 3*time.Millisecond)
	ObserveQuery("recent", 10*time.Millisecond)
	TailSubscribed()
	TailDropped()
	TailUnsubscribed()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	body, _ := io.ReadAll(w.Body)
	out := string(body)

	assert.Contains(t, out, `logtrail_access_resolve_duration_seconds_count{outcome="granted"}`)
	assert.Contains(t, out, `logtrail_query_duration_seconds_count{mode="recent"}`)
	assert.Contains(t, out, "logtrail_tail_subscribers 0")
	assert.Contains(t, out, "logtrail_tail_dropped_total 1")
}
