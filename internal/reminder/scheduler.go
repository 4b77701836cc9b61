// Package reminder runs the periodic sweep that fires time-windowed
// reminder notifications: one hour before the due time, on the due day,
// and on the day before.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/kohizeri/smartcollar-api/internal/alert"
	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/store"
)

// Calendar-day comparisons use UTC. The mobile app stores due dates as
// UTC instants, so a single day boundary keeps "today"/"tomorrow"
// deterministic regardless of where the server runs.
const dayLayout = "2006-01-02"

// Scheduler sweeps all non-completed reminders on a fixed interval. Each
// reminder carries three independent one-shot triggers; a trigger that
// fires sets its sent-flag so later sweeps skip it. A failed flag write is
// only logged; the trigger re-fires next sweep, which is the accepted
// at-least-once behavior.
type Scheduler struct {
	store    store.Store
	notifier alert.Notifier
	interval time.Duration
	logger   *slog.Logger

	// now is the sweep clock, swappable in tests.
	now func() time.Time
}

// New creates a Scheduler sweeping at the given interval.
func New(st store.Store, notifier alert.Notifier, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    st,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the sweep loop. Blocks until ctx is cancelled. Intended to be
// called with `go`.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("reminder scheduler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fired, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("reminder sweep failed", "error", err)
			} else if fired > 0 {
				s.logger.Info("reminder sweep complete", "fired", fired)
			}
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped")
			return
		}
	}
}

// Sweep evaluates every active reminder once and returns the number of
// notifications fired.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	reminders, err := s.store.ActiveReminders(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	today := now.UTC().Format(dayLayout)
	tomorrow := now.UTC().Add(24 * time.Hour).Format(dayLayout)

	fired := 0
	for _, r := range reminders {
		if r.Completed {
			continue
		}
		fired += s.evaluate(ctx, r, now, today, tomorrow)
	}
	return fired, nil
}

// evaluate fires any of the three triggers whose window contains now. The
// triggers are independent and non-exclusive: a reminder due within the
// hour on its due day fires both the one-hour and same-day triggers in
// the same sweep.
func (s *Scheduler) evaluate(ctx context.Context, r collar.PetReminder, now time.Time, today, tomorrow string) int {
	dueDay := r.Due.UTC().Format(dayLayout)
	fired := 0

	if !r.OneHourNotifSent && !now.Before(r.Due.Add(-time.Hour)) && now.Before(r.Due) {
		s.fire(ctx, r, "Your pet has an upcoming task in 1 hour: "+r.Notes, collar.FlagOneHour)
		fired++
	}

	if !r.DayNotifSent && dueDay == today {
		s.fire(ctx, r, "Today's task for your pet: "+r.Notes, collar.FlagDay)
		fired++
	}

	if !r.TomorrowNotifSent && dueDay == tomorrow {
		s.fire(ctx, r, "Reminder for tomorrow: "+r.Notes, collar.FlagTomorrow)
		fired++
	}

	return fired
}

func (s *Scheduler) fire(ctx context.Context, r collar.PetReminder, body string, flag collar.ReminderFlag) {
	s.notifier.Dispatch(ctx, r.UID, "Reminder: "+r.Title, body, collar.KindReminder, r.PetID)

	if err := s.store.SetReminderFlag(ctx, r.UID, r.PetID, r.ID, flag); err != nil {
		s.logger.Warn("reminder flag write failed, will re-fire next sweep",
			"uid", r.UID, "pet_id", r.PetID, "reminder_id", r.ID, "flag", flag, "error", err)
	}
}
