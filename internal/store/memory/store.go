// Package memory implements the store contract in memory. It backs unit
// tests and doubles as setters for fixtures the Postgres adapter receives
// from the mobile app in production.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kohizeri/smartcollar-api/internal/collar"
)

var ErrNotFound = errors.New("not found")

type petKey struct {
	uid   string
	petID string
}

// Store is an in-memory store adapter.
type Store struct {
	mu            sync.RWMutex
	settings      map[petKey]collar.Settings
	geofences     map[petKey]collar.Geofence
	tokens        map[string]string
	notifications map[string][]collar.NotificationRecord
	reminders     map[petKey][]collar.Reminder

	// FailFlagWrites makes SetReminderFlag fail, for testing the
	// at-least-once retry behavior of the reminder sweep.
	FailFlagWrites bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		settings:      make(map[petKey]collar.Settings),
		geofences:     make(map[petKey]collar.Geofence),
		tokens:        make(map[string]string),
		notifications: make(map[string][]collar.NotificationRecord),
		reminders:     make(map[petKey][]collar.Reminder),
	}
}

// --- fixture setters ---

func (s *Store) PutSettings(uid, petID string, cfg collar.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[petKey{uid, petID}] = cfg
}

func (s *Store) PutGeofence(uid, petID string, fence collar.Geofence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geofences[petKey{uid, petID}] = fence
}

func (s *Store) PutDeviceToken(uid, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[uid] = token
}

func (s *Store) PutReminder(uid, petID string, r collar.Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := petKey{uid, petID}
	for i, existing := range s.reminders[key] {
		if existing.ID == r.ID {
			s.reminders[key][i] = r
			return
		}
	}
	s.reminders[key] = append(s.reminders[key], r)
}

// Reminder returns a reminder by id, for assertions on flag state.
func (s *Store) Reminder(uid, petID, reminderID string) (collar.Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reminders[petKey{uid, petID}] {
		if r.ID == reminderID {
			return r, true
		}
	}
	return collar.Reminder{}, false
}

// --- store contract ---

func (s *Store) Settings(ctx context.Context, uid, petID string) (*collar.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cfg, ok := s.settings[petKey{uid, petID}]; ok {
		out := cfg
		return &out, nil
	}
	return nil, nil
}

func (s *Store) Geofence(ctx context.Context, uid, petID string) (*collar.Geofence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fence, ok := s.geofences[petKey{uid, petID}]; ok {
		out := fence
		return &out, nil
	}
	return nil, nil
}

func (s *Store) DeviceToken(ctx context.Context, uid string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[uid], nil
}

func (s *Store) AppendNotification(ctx context.Context, uid string, rec collar.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[uid] = append(s.notifications[uid], rec)
	return nil
}

func (s *Store) Notifications(ctx context.Context, uid, petID string, limit int) ([]collar.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []collar.NotificationRecord
	log := s.notifications[uid]
	for i := len(log) - 1; i >= 0 && len(out) < limit; i-- {
		if petID == "" || log[i].PetID == petID {
			out = append(out, log[i])
		}
	}
	return out, nil
}

func (s *Store) ActiveReminders(ctx context.Context) ([]collar.PetReminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []collar.PetReminder
	for key, list := range s.reminders {
		for _, r := range list {
			if !r.Completed {
				out = append(out, collar.PetReminder{UID: key.uid, PetID: key.petID, Reminder: r})
			}
		}
	}
	return out, nil
}

func (s *Store) SetReminderFlag(ctx context.Context, uid, petID, reminderID string, flag collar.ReminderFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailFlagWrites {
		return errors.New("flag write failed")
	}

	key := petKey{uid, petID}
	for i, r := range s.reminders[key] {
		if r.ID != reminderID {
			continue
		}
		switch flag {
		case collar.FlagOneHour:
			s.reminders[key][i].OneHourNotifSent = true
		case collar.FlagDay:
			s.reminders[key][i].DayNotifSent = true
		case collar.FlagTomorrow:
			s.reminders[key][i].TomorrowNotifSent = true
		default:
			return errors.New("unknown reminder flag")
		}
		return nil
	}
	return ErrNotFound
}

func (s *Store) PurgeNotifications(ctx context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention).UnixMilli()
	var purged int64
	for uid, log := range s.notifications {
		kept := log[:0]
		for _, rec := range log {
			if rec.Timestamp >= cutoff {
				kept = append(kept, rec)
			} else {
				purged++
			}
		}
		s.notifications[uid] = kept
	}
	return purged, nil
}
