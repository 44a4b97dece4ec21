package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CommandHandled("summarize", "ok")
	m.CommandHandled("summarize", "ok")
	m.CommandHandled("summarize", "upstream")
	m.ImageAnalyzed(true)
	m.ImageAnalyzed(false)
	m.CompletionObserved("text", 2*time.Second, nil)
	m.CompletionObserved("vision", time.Second, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("summarize", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("summarize", "upstream")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imagesAnalyzed.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.completion))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.CommandHandled("dailycount", "ok")
		m.ImageAnalyzed(true)
		m.CompletionObserved("text", time.Second, nil)
	})
}
