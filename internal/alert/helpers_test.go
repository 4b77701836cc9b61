package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestGate(t *testing.T, cooldown time.Duration) (*miniredis.Miniredis, *RedisGate) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewRedisGate(rdb, cooldown, testLogger())
}

// fakeGate records gate traffic and permits or suppresses everything.
type fakeGate struct {
	allow  bool
	asked  []string
	resets []string
}

func (g *fakeGate) ShouldSend(ctx context.Context, uid, petID, kind string) bool {
	g.asked = append(g.asked, fmt.Sprintf("%s/%s/%s", uid, petID, kind))
	return g.allow
}

func (g *fakeGate) Reset(ctx context.Context, uid, petID, kind string) {
	g.resets = append(g.resets, fmt.Sprintf("%s/%s/%s", uid, petID, kind))
}

// dispatchCall captures one Notifier.Dispatch invocation.
type dispatchCall struct {
	UID, Title, Body, Kind, PetID string
}

// fakeNotifier records dispatches without touching store or push channel.
type fakeNotifier struct {
	calls []dispatchCall
}

func (n *fakeNotifier) Dispatch(ctx context.Context, uid, title, body, kind, petID string) {
	n.calls = append(n.calls, dispatchCall{uid, title, body, kind, petID})
}

// sentPush captures one Sender.Send invocation.
type sentPush struct {
	Token, Title, Body string
	Data               map[string]string
}

// fakeSender records pushes and optionally fails them.
type fakeSender struct {
	sent []sentPush
	fail bool
}

func (s *fakeSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	s.sent = append(s.sent, sentPush{token, title, body, data})
	if s.fail {
		return errors.New("delivery failed")
	}
	return nil
}
