// Package alert is the alerting engine: the cooldown gate, the threshold
// and geofence evaluators, and the notification dispatcher.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// Gate decides whether an alert notification of a given kind may be sent
// for a pet, enforcing at most one send per cooldown window.
type Gate interface {
	// ShouldSend returns true when no send of this kind happened within
	// the cooldown window, atomically recording the new send time.
	ShouldSend(ctx context.Context, uid, petID, kind string) bool

	// Reset clears the cooldown record so the next violation alerts
	// immediately. Used when a metric returns to range or the pet
	// re-enters its fence.
	Reset(ctx context.Context, uid, petID, kind string)
}

// RedisGate implements Gate on Redis. SET NX PX makes the check-and-record
// a single atomic operation, so concurrent evaluations of the same
// (pet, kind) cannot double-send; key expiry implements the window.
//
// The gate fails open: if Redis is unreachable the alert is permitted.
type RedisGate struct {
	rdb      *redis.Client
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewRedisGate creates a gate with the given cooldown window.
func NewRedisGate(rdb *redis.Client, cooldown time.Duration, logger *slog.Logger) *RedisGate {
	return &RedisGate{
		rdb:      rdb,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}
}

// ShouldSend permits the send iff no unexpired cooldown record exists,
// recording the send time in the same operation.
func (g *RedisGate) ShouldSend(ctx context.Context, uid, petID, kind string) bool {
	key := lastAlertKey(uid, petID, kind)

	ok, err := g.rdb.SetNX(ctx, key, g.now().UnixMilli(), g.cooldown).Result()
	if err != nil {
		g.logger.Warn("cooldown check failed, permitting send",
			"uid", uid, "pet_id", petID, "kind", kind, "error", err)
		return true
	}
	if !ok {
		g.logger.Debug("notification suppressed (cooldown)",
			"uid", uid, "pet_id", petID, "kind", kind)
	}
	return ok
}

// Reset deletes the cooldown record unconditionally. Failures are logged
// and non-fatal: the record expires on its own anyway.
func (g *RedisGate) Reset(ctx context.Context, uid, petID, kind string) {
	key := lastAlertKey(uid, petID, kind)
	if err := g.rdb.Del(ctx, key).Err(); err != nil {
		g.logger.Warn("cooldown reset failed",
			"uid", uid, "pet_id", petID, "kind", kind, "error", err)
	}
}

// lastAlertKey mirrors the per-pet record hierarchy of the mobile data
// model: users/{uid}/pets/{petID}/last_alerts/{kind}.
func lastAlertKey(uid, petID, kind string) string {
	return fmt.Sprintf("smartcollar:users:%s:pets:%s:last_alerts:%s", uid, petID, kind)
}
