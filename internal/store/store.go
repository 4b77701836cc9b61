// Package store defines the persistence contract the alerting engine and
// reminder scheduler run against. The production adapter is Postgres
// (store/postgres); tests use the in-memory adapter (store/memory).
package store

import (
	"context"
	"time"

	"github.com/kohizeri/smartcollar-api/internal/collar"
)

// Store is the read/write surface the core needs from the backing store.
//
// Lookups for records that may legitimately not exist (settings, geofence,
// device token) return the zero value with a nil error when absent;
// "feature not configured for this pet" is not an error condition.
type Store interface {
	// Settings returns the pet's alert thresholds, or nil when none are
	// configured.
	Settings(ctx context.Context, uid, petID string) (*collar.Settings, error)

	// Geofence returns the pet's fence, or nil when none is configured.
	Geofence(ctx context.Context, uid, petID string) (*collar.Geofence, error)

	// DeviceToken returns the owner's push token, or "" when none is
	// registered.
	DeviceToken(ctx context.Context, uid string) (string, error)

	// AppendNotification appends a record to the owner's notification log.
	AppendNotification(ctx context.Context, uid string, rec collar.NotificationRecord) error

	// Notifications returns the most recent log entries for a pet, newest
	// first.
	Notifications(ctx context.Context, uid, petID string, limit int) ([]collar.NotificationRecord, error)

	// ActiveReminders snapshots all non-completed reminders across all
	// owners and pets.
	ActiveReminders(ctx context.Context) ([]collar.PetReminder, error)

	// SetReminderFlag flips one of the three one-shot sent-flags to true.
	SetReminderFlag(ctx context.Context, uid, petID, reminderID string, flag collar.ReminderFlag) error

	// PurgeNotifications deletes log entries older than the retention
	// period and reports how many were removed.
	PurgeNotifications(ctx context.Context, retention time.Duration) (int64, error)
}
