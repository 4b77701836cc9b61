package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/store/memory"
)

// Full pipeline: evaluator with a real Redis-backed gate and dispatcher.
func TestPipeline_CooldownSuppressesRepeatAlerts(t *testing.T) {
	mr, gate := setupTestGate(t, testCooldown)
	st := memory.New()
	st.PutSettings("u1", "p1", collar.Settings{
		HeartRateAlert: true,
		MinHeartRate:   60,
		MaxHeartRate:   180,
	})
	st.PutDeviceToken("u1", "token-abc")
	sender := &fakeSender{}
	dispatcher := NewDispatcher(st, sender, testLogger())
	e := NewEvaluator(st, gate, dispatcher, testLogger())
	ctx := context.Background()

	// First violation alerts.
	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricBPM, 200)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, collar.KindHRHigh, sender.sent[0].Data["type"])

	// Identical violation within the window is suppressed.
	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricBPM, 200)
	assert.Len(t, sender.sent, 1)

	// After the window elapses it alerts again.
	mr.FastForward(testCooldown)
	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricBPM, 200)
	assert.Len(t, sender.sent, 2)

	// The log has every send, suppressions excluded.
	recs, err := st.Notifications(ctx, "u1", "p1", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

// Return-to-normal clears the cooldown, so an immediate re-violation
// alerts without waiting out the window.
func TestPipeline_RecoveryResetsCooldown(t *testing.T) {
	_, gate := setupTestGate(t, testCooldown)
	st := memory.New()
	st.PutSettings("u1", "p1", collar.Settings{
		HeartRateAlert: true,
		MinHeartRate:   60,
		MaxHeartRate:   180,
	})
	st.PutDeviceToken("u1", "token-abc")
	sender := &fakeSender{}
	e := NewEvaluator(st, gate, NewDispatcher(st, sender, testLogger()), testLogger())
	ctx := context.Background()

	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricBPM, 200)
	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricBPM, 120) // recovered
	e.EvaluateMetric(ctx, "u1", "p1", collar.MetricBPM, 200)

	assert.Len(t, sender.sent, 2)
}
