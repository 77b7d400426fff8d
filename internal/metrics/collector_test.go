package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector(zap.NewNop())

	c.RecordGeneration("gemini", "succeeded", 3*time.Second)
	c.RecordGeneration("gemini", "succeeded", time.Second)
	c.RecordGeneration("mock", "cancelled", time.Second)
	c.RecordAttempt("gemini-api", "transport")
	c.RecordAttempt("vertex-express", "success")
	c.RecordOutboxDrop()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("gemini", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues("mock", "cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.endpointAttempts.WithLabelValues("gemini-api", "transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outboxDropped))
	assert.Equal(t, 2, testutil.CollectAndCount(c.generationDuration))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordGeneration("p", "o", time.Second)
		c.RecordAttempt("e", "o")
		c.RecordOutboxDrop()
	})
	assert.Nil(t, c.Registry())
}
