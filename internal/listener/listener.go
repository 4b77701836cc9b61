// Package listener provides a Postgres LISTEN/NOTIFY consumer for collar
// telemetry. It holds a dedicated pgx connection (not from the pool)
// listening on the `collar_telemetry` channel.
//
// The collar sync service writes readings into collar_data; a trigger
// fires pg_notify and this consumer receives the event and runs the same
// evaluators the direct telemetry endpoints use, so both paths converge
// on identical alerting behavior.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kohizeri/smartcollar-api/internal/alert"
	"github.com/kohizeri/smartcollar-api/internal/collar"
)

const (
	channel          = "collar_telemetry"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// TelemetryEvent is the JSON payload from pg_notify('collar_telemetry', ...).
// Field is "bpm", "temperature", or "location"; Value carries the reading
// for the metric fields, Latitude/Longitude for location.
type TelemetryEvent struct {
	UID       string  `json:"uid"`
	PetID     string  `json:"pet_id"`
	Field     string  `json:"field"`
	Value     float64 `json:"value"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Start opens a dedicated connection and listens on the collar_telemetry
// channel. It reconnects automatically on connection loss. Blocks until
// ctx is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, evaluator *alert.Evaluator, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, evaluator, logger)
		if ctx.Err() != nil {
			logger.Info("telemetry listener stopped (context cancelled)")
			return
		}

		logger.Error("telemetry listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection
// drops or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, evaluator *alert.Evaluator, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("telemetry listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event TelemetryEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn("failed to parse telemetry event",
				"payload", notification.Payload, "error", err)
			continue
		}
		if event.UID == "" || event.PetID == "" {
			logger.Warn("telemetry event missing pet identity",
				"payload", notification.Payload)
			continue
		}

		logger.Debug("telemetry event received",
			"uid", event.UID, "pet_id", event.PetID, "field", event.Field)

		// Evaluate asynchronously to avoid blocking the listener.
		go handleEvent(ctx, evaluator, event, logger)
	}
}

func handleEvent(ctx context.Context, evaluator *alert.Evaluator, event TelemetryEvent, logger *slog.Logger) {
	switch event.Field {
	case collar.MetricBPM, collar.MetricTemperature:
		evaluator.EvaluateMetric(ctx, event.UID, event.PetID, event.Field, event.Value)
	case "location":
		evaluator.EvaluateLocation(ctx, event.UID, event.PetID, event.Latitude, event.Longitude)
	default:
		logger.Warn("unknown telemetry field", "field", event.Field)
	}
}
