// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordStageDuration(ctx, "retrieve", time.Millisecond)
		o.RecordStageError(ctx, "rank", "INTERNAL_DEGRADATION")
		o.RecordJobProcessed(ctx, "completed")
		o.RecordJobDuration(ctx, time.Second, "completed")
		spanCtx, span := o.StartSpan(ctx, "recommend")
		span.End()
		require.NotNil(t, spanCtx)
		o.Shutdown()
	})
}

func TestNewRecords(t *testing.T) {
	o := New("food-recommender-test")
	require.NotNil(t, o)
	t.Cleanup(o.Shutdown)

	ctx, span := o.StartSpan(context.Background(), "filter")
	defer span.End()

	assert.NotPanics(t, func() {
		o.RecordStageDuration(ctx, "filter", 3*time.Millisecond)
		o.RecordStageError(ctx, "filter", "INTERNAL_DEGRADATION")
	})
}
