package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"facepay/pkg/platform/circuit"
)

func TestUpstreamMetrics(t *testing.T) {
	m := NewUpstream(prometheus.NewRegistry())

	m.ObserveCall("luxand", "search", "ok", 120*time.Millisecond)
	m.ObserveCall("luxand", "search", "timeout", time.Second)
	m.ObserveCall("luxand", "search", "timeout", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallOutcomes.WithLabelValues("luxand", "search", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CallOutcomes.WithLabelValues("luxand", "search", "timeout")))

	m.BreakerListener()("aptos", circuit.StateOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("aptos")))
}

func TestNilUpstreamIsSafe(t *testing.T) {
	var m *Upstream
	m.ObserveCall("luxand", "search", "ok", time.Millisecond)
	m.BreakerListener()("aptos", circuit.StateClosed)
}
