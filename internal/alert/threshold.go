package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/store"
)

// Evaluator runs telemetry readings through the per-pet alert rules and
// drives the cooldown gate and dispatcher. One Evaluator serves all pets;
// evaluations for different pets may run concurrently.
type Evaluator struct {
	store    store.Store
	gate     Gate
	notifier Notifier
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(st store.Store, gate Gate, notifier Notifier, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		store:    st,
		gate:     gate,
		notifier: notifier,
		logger:   logger,
	}
}

// EvaluateMetric checks a bpm or temperature reading against the pet's
// configured bounds. Values exactly at a bound are in range; only strict
// violations alert. A reading back in range resets both cooldowns for the
// metric so the next violation is not suppressed by a stale window.
func (e *Evaluator) EvaluateMetric(ctx context.Context, uid, petID, metric string, value float64) {
	settings, err := e.store.Settings(ctx, uid, petID)
	if err != nil {
		e.logger.Warn("load settings failed, skipping evaluation",
			"uid", uid, "pet_id", petID, "error", err)
		return
	}
	if settings == nil {
		return
	}

	var kind, message string
	switch metric {
	case collar.MetricBPM:
		if !settings.HeartRateAlert {
			return
		}
		switch {
		case value > settings.MaxHeartRate:
			kind = collar.KindHRHigh
			message = fmt.Sprintf("Heart rate too high: %g bpm (max %g)", value, settings.MaxHeartRate)
		case value < settings.MinHeartRate:
			kind = collar.KindHRLow
			message = fmt.Sprintf("Heart rate too low: %g bpm (min %g)", value, settings.MinHeartRate)
		default:
			e.gate.Reset(ctx, uid, petID, collar.KindHRHigh)
			e.gate.Reset(ctx, uid, petID, collar.KindHRLow)
			return
		}

	case collar.MetricTemperature:
		if !settings.TempAlert {
			return
		}
		switch {
		case value > settings.MaxTemp:
			kind = collar.KindTempHigh
			message = fmt.Sprintf("Temperature too high: %g°C (max %g°C)", value, settings.MaxTemp)
		case value < settings.MinTemp:
			kind = collar.KindTempLow
			message = fmt.Sprintf("Temperature too low: %g°C (min %g°C)", value, settings.MinTemp)
		default:
			e.gate.Reset(ctx, uid, petID, collar.KindTempHigh)
			e.gate.Reset(ctx, uid, petID, collar.KindTempLow)
			return
		}

	default:
		e.logger.Warn("unknown telemetry metric", "metric", metric)
		return
	}

	if e.gate.ShouldSend(ctx, uid, petID, kind) {
		e.notifier.Dispatch(ctx, uid, "SmartCollar Alert: "+metric, message, kind, petID)
	}
}
