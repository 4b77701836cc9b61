package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/store/memory"
)

func newTestEvaluator(st *memory.Store, allow bool) (*Evaluator, *fakeGate, *fakeNotifier) {
	gate := &fakeGate{allow: allow}
	notifier := &fakeNotifier{}
	return NewEvaluator(st, gate, notifier, testLogger()), gate, notifier
}

func hrSettings() collar.Settings {
	return collar.Settings{
		HeartRateAlert: true,
		MinHeartRate:   60,
		MaxHeartRate:   180,
		TempAlert:      true,
		MinTemp:        37,
		MaxTemp:        39.5,
	}
}

func TestEvaluateMetric_NoSettingsIsNoOp(t *testing.T) {
	st := memory.New()
	e, gate, notifier := newTestEvaluator(st, true)

	e.EvaluateMetric(context.Background(), "u1", "p1", collar.MetricBPM, 500)

	assert.Empty(t, gate.asked)
	assert.Empty(t, notifier.calls)
}

func TestEvaluateMetric_DisabledToggleIsNoOp(t *testing.T) {
	st := memory.New()
	cfg := hrSettings()
	cfg.HeartRateAlert = false
	st.PutSettings("u1", "p1", cfg)
	e, gate, notifier := newTestEvaluator(st, true)

	e.EvaluateMetric(context.Background(), "u1", "p1", collar.MetricBPM, 500)

	assert.Empty(t, gate.asked)
	assert.Empty(t, gate.resets)
	assert.Empty(t, notifier.calls)
}

func TestEvaluateMetric_ValueAtBoundIsInRange(t *testing.T) {
	st := memory.New()
	st.PutSettings("u1", "p1", hrSettings())
	e, gate, notifier := newTestEvaluator(st, true)

	e.EvaluateMetric(context.Background(), "u1", "p1", collar.MetricBPM, 180)

	assert.Empty(t, notifier.calls)
	// In-range readings reset both cooldowns for the metric.
	assert.Equal(t, []string{"u1/p1/hr_high", "u1/p1/hr_low"}, gate.resets)
}

func TestEvaluateMetric_HighHeartRateAlerts(t *testing.T) {
	st := memory.New()
	st.PutSettings("u1", "p1", hrSettings())
	e, _, notifier := newTestEvaluator(st, true)

	e.EvaluateMetric(context.Background(), "u1", "p1", collar.MetricBPM, 181)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	assert.Equal(t, collar.KindHRHigh, call.Kind)
	assert.Equal(t, "p1", call.PetID)
	assert.Equal(t, "SmartCollar Alert: bpm", call.Title)
	assert.Contains(t, call.Body, "181")
	assert.Contains(t, call.Body, "180")
}

func TestEvaluateMetric_LowHeartRateAlerts(t *testing.T) {
	st := memory.New()
	st.PutSettings("u1", "p1", hrSettings())
	e, _, notifier := newTestEvaluator(st, true)

	e.EvaluateMetric(context.Background(), "u1", "p1", collar.MetricBPM, 42)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, collar.KindHRLow, notifier.calls[0].Kind)
	assert.Contains(t, notifier.calls[0].Body, "too low")
}

func TestEvaluateMetric_TemperatureBounds(t *testing.T) {
	st := memory.New()
	st.PutSettings("u1", "p1", hrSettings())
	e, gate, notifier := newTestEvaluator(st, true)
	ctx := context.Background()

	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricTemperature, 40.1)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, collar.KindTempHigh, notifier.calls[0].Kind)
	assert.Equal(t, "SmartCollar Alert: temperature", notifier.calls[0].Title)

	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricTemperature, 36.5)
	require.Len(t, notifier.calls, 2)
	assert.Equal(t, collar.KindTempLow, notifier.calls[1].Kind)

	// Back in range: both temperature cooldowns reset.
	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricTemperature, 38)
	assert.Equal(t, []string{"u1/p1/temp_high", "u1/p1/temp_low"}, gate.resets)
}

func TestEvaluateMetric_SuppressedByCooldown(t *testing.T) {
	st := memory.New()
	st.PutSettings("u1", "p1", hrSettings())
	e, gate, notifier := newTestEvaluator(st, false)

	e.EvaluateMetric(context.Background(), "u1", "p1", collar.MetricBPM, 200)

	assert.Equal(t, []string{"u1/p1/hr_high"}, gate.asked)
	assert.Empty(t, notifier.calls)
}

func TestEvaluateMetric_UnknownMetricIgnored(t *testing.T) {
	st := memory.New()
	st.PutSettings("u1", "p1", hrSettings())
	e, gate, notifier := newTestEvaluator(st, true)

	e.EvaluateMetric(context.Background(), "u1", "p1", "humidity", 55)

	assert.Empty(t, gate.asked)
	assert.Empty(t, notifier.calls)
}
