// Package postgres implements the store contract on pgx/v5. Queries go
// through prepared statements registered in internal/db; settings and
// geofence reads go through a short-TTL cache since they sit on the
// telemetry hot path.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kohizeri/smartcollar-api/internal/cache"
	"github.com/kohizeri/smartcollar-api/internal/collar"
)

// Store is the Postgres-backed store adapter.
type Store struct {
	pool  *pgxpool.Pool
	cache *cache.Cache
}

// New creates a Store. Pass a disabled cache to bypass read caching.
func New(pool *pgxpool.Pool, c *cache.Cache) *Store {
	return &Store{pool: pool, cache: c}
}

// Settings returns the pet's alert thresholds, or nil when none exist.
func (s *Store) Settings(ctx context.Context, uid, petID string) (*collar.Settings, error) {
	key := "settings:" + uid + ":" + petID
	if v, ok := s.cache.Get(key); ok {
		return v.(*collar.Settings), nil
	}

	var cfg collar.Settings
	err := s.pool.QueryRow(ctx, "pet_settings", uid, petID).Scan(
		&cfg.HeartRateAlert, &cfg.MinHeartRate, &cfg.MaxHeartRate,
		&cfg.TempAlert, &cfg.MinTemp, &cfg.MaxTemp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings %s/%s: %w", uid, petID, err)
	}

	s.cache.Set(key, &cfg, cache.TTLSettings)
	return &cfg, nil
}

// Geofence returns the pet's fence, or nil when none exists.
func (s *Store) Geofence(ctx context.Context, uid, petID string) (*collar.Geofence, error) {
	key := "geofence:" + uid + ":" + petID
	if v, ok := s.cache.Get(key); ok {
		return v.(*collar.Geofence), nil
	}

	var fence collar.Geofence
	err := s.pool.QueryRow(ctx, "pet_geofence", uid, petID).Scan(
		&fence.Latitude, &fence.Longitude, &fence.Radius,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load geofence %s/%s: %w", uid, petID, err)
	}

	s.cache.Set(key, &fence, cache.TTLGeofence)
	return &fence, nil
}

// DeviceToken returns the owner's push token, or "" when none is registered.
func (s *Store) DeviceToken(ctx context.Context, uid string) (string, error) {
	var token string
	err := s.pool.QueryRow(ctx, "owner_device_token", uid).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load device token %s: %w", uid, err)
	}
	return token, nil
}

// AppendNotification appends a record to the owner's notification log.
func (s *Store) AppendNotification(ctx context.Context, uid string, rec collar.NotificationRecord) error {
	_, err := s.pool.Exec(ctx, "insert_notification",
		rec.ID, uid, rec.PetID, rec.Title, rec.Message, rec.Type, rec.Source, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert notification %s: %w", uid, err)
	}
	return nil
}

// Notifications returns the most recent log entries for a pet, newest first.
func (s *Store) Notifications(ctx context.Context, uid, petID string, limit int) ([]collar.NotificationRecord, error) {
	rows, err := s.pool.Query(ctx, "pet_notifications", uid, petID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications %s/%s: %w", uid, petID, err)
	}
	defer rows.Close()

	var records []collar.NotificationRecord
	for rows.Next() {
		var rec collar.NotificationRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Message, &rec.Timestamp,
			&rec.Type, &rec.PetID, &rec.Source); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ActiveReminders snapshots all non-completed reminders across all owners.
func (s *Store) ActiveReminders(ctx context.Context) ([]collar.PetReminder, error) {
	rows, err := s.pool.Query(ctx, "active_reminders")
	if err != nil {
		return nil, fmt.Errorf("list active reminders: %w", err)
	}
	defer rows.Close()

	var reminders []collar.PetReminder
	for rows.Next() {
		var r collar.PetReminder
		if err := rows.Scan(&r.UID, &r.PetID, &r.ID, &r.Title, &r.Notes, &r.Due,
			&r.Completed, &r.OneHourNotifSent, &r.DayNotifSent, &r.TomorrowNotifSent); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// SetReminderFlag flips one of the three one-shot sent-flags to true.
func (s *Store) SetReminderFlag(ctx context.Context, uid, petID, reminderID string, flag collar.ReminderFlag) error {
	var stmt string
	switch flag {
	case collar.FlagOneHour:
		stmt = "reminder_flag_one_hour"
	case collar.FlagDay:
		stmt = "reminder_flag_day"
	case collar.FlagTomorrow:
		stmt = "reminder_flag_tomorrow"
	default:
		return fmt.Errorf("unknown reminder flag %q", flag)
	}

	tag, err := s.pool.Exec(ctx, stmt, uid, petID, reminderID)
	if err != nil {
		return fmt.Errorf("set reminder flag %s on %s/%s/%s: %w", flag, uid, petID, reminderID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminder %s/%s/%s not found", uid, petID, reminderID)
	}
	return nil
}

// PurgeNotifications deletes log entries older than the retention period.
func (s *Store) PurgeNotifications(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UnixMilli()
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM notifications WHERE sent_at_ms < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
