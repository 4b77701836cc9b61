package reminder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/store/memory"
)

type dispatchCall struct {
	UID, Title, Body, Kind, PetID string
}

type fakeNotifier struct {
	calls []dispatchCall
}

func (n *fakeNotifier) Dispatch(ctx context.Context, uid, title, body, kind, petID string) {
	n.calls = append(n.calls, dispatchCall{uid, title, body, kind, petID})
}

var sweepNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestScheduler(st *memory.Store) (*Scheduler, *fakeNotifier) {
	notifier := &fakeNotifier{}
	s := New(st, notifier, 10*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return sweepNow }
	return s, notifier
}

func TestSweep_OneHourTrigger(t *testing.T) {
	st := memory.New()
	st.PutReminder("u1", "p1", collar.Reminder{
		ID:           "r1",
		Title:        "Vet visit",
		Notes:        "bring vaccination card",
		Due:          sweepNow.Add(30 * time.Minute),
		DayNotifSent: true, // same-day already fired this morning
	})
	s, notifier := newTestScheduler(st)

	fired, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	assert.Equal(t, "Reminder: Vet visit", call.Title)
	assert.Contains(t, call.Body, "1 hour")
	assert.Contains(t, call.Body, "bring vaccination card")
	assert.Equal(t, collar.KindReminder, call.Kind)

	r, ok := st.Reminder("u1", "p1", "r1")
	require.True(t, ok)
	assert.True(t, r.OneHourNotifSent)

	// One-shot: the next sweep does nothing.
	fired, err = s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Len(t, notifier.calls, 1)
}

func TestSweep_OneHourWindowBounds(t *testing.T) {
	st := memory.New()
	// Due exactly now: the [due-1h, due) window is half-open, no fire.
	st.PutReminder("u1", "p1", collar.Reminder{
		ID: "r-now", Title: "a", Due: sweepNow, DayNotifSent: true,
	})
	// Due exactly one hour out: window start is inclusive, fires.
	st.PutReminder("u1", "p1", collar.Reminder{
		ID: "r-edge", Title: "b", Due: sweepNow.Add(time.Hour), DayNotifSent: true,
	})
	s, notifier := newTestScheduler(st)

	fired, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Reminder: b", notifier.calls[0].Title)
}

func TestSweep_SameDayTrigger(t *testing.T) {
	st := memory.New()
	st.PutReminder("u1", "p1", collar.Reminder{
		ID:    "r1",
		Title: "Grooming",
		Notes: "nail trim",
		Due:   time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
	})
	s, notifier := newTestScheduler(st)

	fired, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, notifier.calls, 1)
	assert.Contains(t, notifier.calls[0].Body, "Today's task")

	r, _ := st.Reminder("u1", "p1", "r1")
	assert.True(t, r.DayNotifSent)
	assert.False(t, r.OneHourNotifSent)
	assert.False(t, r.TomorrowNotifSent)
}

func TestSweep_NextDayTrigger(t *testing.T) {
	st := memory.New()
	st.PutReminder("u1", "p1", collar.Reminder{
		ID:    "r1",
		Title: "Medication",
		Due:   time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
	})
	s, notifier := newTestScheduler(st)

	fired, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	require.Len(t, notifier.calls, 1)
	assert.Contains(t, notifier.calls[0].Body, "tomorrow")

	r, _ := st.Reminder("u1", "p1", "r1")
	assert.True(t, r.TomorrowNotifSent)
}

func TestSweep_TriggersAreNonExclusive(t *testing.T) {
	st := memory.New()
	// Due in 30 minutes on the due day with no flags set: both the
	// one-hour and same-day triggers fire in the same sweep.
	st.PutReminder("u1", "p1", collar.Reminder{
		ID:    "r1",
		Title: "Walk",
		Due:   sweepNow.Add(30 * time.Minute),
	})
	s, notifier := newTestScheduler(st)

	fired, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fired)
	assert.Len(t, notifier.calls, 2)

	r, _ := st.Reminder("u1", "p1", "r1")
	assert.True(t, r.OneHourNotifSent)
	assert.True(t, r.DayNotifSent)
}

func TestSweep_CompletedRemindersNeverFire(t *testing.T) {
	st := memory.New()
	st.PutReminder("u1", "p1", collar.Reminder{
		ID:        "r1",
		Title:     "Done already",
		Due:       sweepNow.Add(30 * time.Minute),
		Completed: true,
	})
	s, notifier := newTestScheduler(st)

	fired, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Empty(t, notifier.calls)
}

func TestSweep_FlagWriteFailureRefiresNextSweep(t *testing.T) {
	st := memory.New()
	st.PutReminder("u1", "p1", collar.Reminder{
		ID:    "r1",
		Title: "Feed",
		Due:   time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC),
	})
	s, notifier := newTestScheduler(st)

	// First sweep fires but the flag write fails.
	st.FailFlagWrites = true
	fired, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// At-least-once: the flag is still false, so the next sweep re-fires.
	st.FailFlagWrites = false
	fired, err = s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
	assert.Len(t, notifier.calls, 2)

	// Flag finally set; third sweep is quiet.
	fired, err = s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, fired)
}
