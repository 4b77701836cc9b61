package alert

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/push"
	"github.com/kohizeri/smartcollar-api/internal/store"
)

// Notifier is the dispatch side of the pipeline as the evaluators and the
// reminder scheduler see it.
type Notifier interface {
	Dispatch(ctx context.Context, uid, title, body, kind, petID string)
}

// Dispatcher formats and delivers notifications: it appends a record to
// the owner's notification log, resolves the device token, and pushes
// through the delivery channel. Dispatch is fire-and-forget: every
// failure is logged, none propagate.
type Dispatcher struct {
	store  store.Store
	sender push.Sender
	logger *slog.Logger
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(st store.Store, sender push.Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  st,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Dispatch logs the notification and attempts delivery. The log write
// comes first: the in-app notification list must show the alert even when
// push delivery fails. A missing device token is a no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, uid, title, body, kind, petID string) {
	timestamp := d.now().UnixMilli()

	rec := collar.NotificationRecord{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   body,
		Timestamp: timestamp,
		Type:      kind,
		PetID:     petID,
		Source:    "server",
	}
	if err := d.store.AppendNotification(ctx, uid, rec); err != nil {
		d.logger.Error("append notification record failed",
			"uid", uid, "pet_id", petID, "kind", kind, "error", err)
	}

	token, err := d.store.DeviceToken(ctx, uid)
	if err != nil {
		d.logger.Error("device token lookup failed", "uid", uid, "error", err)
		return
	}
	if token == "" {
		d.logger.Info("skipping push delivery: no device token", "uid", uid)
		return
	}

	data := map[string]string{
		"type":      kind,
		"petId":     petID,
		"timestamp": strconv.FormatInt(timestamp, 10),
	}
	if err := d.sender.Send(ctx, token, title, body, data); err != nil {
		d.logger.Error("push delivery failed",
			"uid", uid, "pet_id", petID, "kind", kind, "error", err)
	}
}
