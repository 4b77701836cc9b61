// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kohizeri/smartcollar-api/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and alerting
// layers use. Prepared statements eliminate parse overhead on the telemetry
// hot path, where every collar update triggers settings or geofence reads.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Per-pet configuration
		"pet_settings": `
			SELECT heart_rate_alert, min_heart_rate, max_heart_rate,
			       temp_alert, min_temp, max_temp
			FROM notification_settings WHERE uid = $1 AND pet_id = $2`,
		"pet_geofence": `
			SELECT latitude, longitude, radius_m
			FROM geofences WHERE uid = $1 AND pet_id = $2`,

		// Delivery targeting
		"owner_device_token": "SELECT token FROM device_tokens WHERE uid = $1",

		// Notification log
		"insert_notification": `
			INSERT INTO notifications (id, uid, pet_id, title, message, type, source, sent_at_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		"pet_notifications": `
			SELECT id, title, message, sent_at_ms, type, pet_id, source
			FROM notifications
			WHERE uid = $1 AND pet_id = $2
			ORDER BY sent_at_ms DESC
			LIMIT $3`,

		// Reminders
		"active_reminders": `
			SELECT uid, pet_id, id, title, COALESCE(notes, ''), due_at, completed,
			       one_hour_notif_sent, day_notif_sent, tomorrow_notif_sent
			FROM reminders
			WHERE NOT completed`,
		"reminder_flag_one_hour": `
			UPDATE reminders SET one_hour_notif_sent = true
			WHERE uid = $1 AND pet_id = $2 AND id = $3`,
		"reminder_flag_day": `
			UPDATE reminders SET day_notif_sent = true
			WHERE uid = $1 AND pet_id = $2 AND id = $3`,
		"reminder_flag_tomorrow": `
			UPDATE reminders SET tomorrow_notif_sent = true
			WHERE uid = $1 AND pet_id = $2 AND id = $3`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
