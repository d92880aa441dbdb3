package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echiveai-alt/funnytime2-sub001/internal/pipeline"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

var _ pipeline.Metrics = (*Metrics)(nil)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncCache(true)
	m.IncCache(false)
	m.IncCache(false)
	m.IncRetry(types.StageExtracting)
	m.IncOutcome(pipeline.OutcomeDone)
	m.IncOutcome(pipeline.OutcomeDone)
	m.IncOutcome(pipeline.OutcomeFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues(string(types.StageExtracting))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues(pipeline.OutcomeDone)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues(pipeline.OutcomeFailed)))
}

func TestMetrics_Observations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveStage(types.StageMatching, 150*time.Millisecond)
	m.ObserveScore(72)
	m.ObserveRequest("POST", "/analyses", 200, 2*time.Second)

	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fitScore))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/analyses", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "jobfit_stage_duration_seconds")
	assert.Contains(t, names, "jobfit_fit_score")
	assert.Contains(t, names, "jobfit_http_requests_total")
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
