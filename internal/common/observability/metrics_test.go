package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ExportsThroughRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New("scholarship-engine-test", reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	ctx := context.Background()
	obs.RecordMatch(ctx, true, "available")
	obs.RecordJobProcessed(ctx, "completed")
	obs.RecordJobDuration(ctx, 15*time.Millisecond, "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "engine_matches")
	assert.Contains(t, joined, "engine_worker_jobs")
	assert.Contains(t, joined, "engine_worker_job_duration")
}

func TestObservability_ZeroValueIsNoop(t *testing.T) {
	var obs Observability
	ctx := context.Background()
	assert.NotPanics(t, func() {
		obs.RecordMatch(ctx, false, "not_applicable")
		obs.RecordJobProcessed(ctx, "failed")
		obs.RecordJobDuration(ctx, time.Second, "failed")
	})
	assert.NoError(t, obs.Shutdown(ctx))
}
