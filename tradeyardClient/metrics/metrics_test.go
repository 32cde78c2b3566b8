package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = New(reg)
	require.Error(t, err, "second registration on the same registry must fail")
}

func TestRecordInstructionBuilt(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordInstructionBuilt("sell")
	m.RecordInstructionBuilt("sell")
	m.RecordInstructionBuilt("buy")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.instructionsBuilt.WithLabelValues("sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.instructionsBuilt.WithLabelValues("buy")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.instructionsBuilt.WithLabelValues("cancel")))
}

func TestRecordSubmission(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordSubmission("sell", nil, 50*time.Millisecond)
	m.RecordSubmission("sell", errors.New("rejected"), 20*time.Millisecond)
	m.RecordSubmission("cancel", nil, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("sell", StatusConfirmed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("sell", StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("cancel", StatusConfirmed)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.submitDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordInstructionBuilt("sell")
		m.RecordSubmission("buy", nil, time.Second)
	})
}
