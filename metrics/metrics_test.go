package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func TestLazyLoadCounterIncrements(t *testing.T) {
	counter := LazyLoadCounter("xln_test_counter_total")
	counter().Add(1)
	counter().Add(2)

	var m dto.Metric
	_ = counter().Write(&m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())
}

func TestLazyLoadCounterIsSingleton(t *testing.T) {
	a := LazyLoadCounter("xln_test_singleton_total")
	b := LazyLoadCounter("xln_test_singleton_total")
	assert.Same(t, a(), b())
}
