package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/siteship/internal/foundation/errors"
)

type fakeConn struct {
	subject  string
	payload  []byte
	pubErr   error
	flushErr error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.payload = data
	return f.pubErr
}

func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }
func (f *fakeConn) Close()                                 { f.closed = true }

func TestNATSNotifierPublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	n := newNATSNotifier(fc, "siteship.runs", slog.Default())
	started := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	err := n.Notify(context.Background(), RunEvent{
		RunID:        "abc",
		Outcome:      "published",
		StartedAt:    started,
		FinishedAt:   started.Add(time.Second),
		ChecksPassed: 4,
		Artifacts:    2,
	})
	require.NoError(t, err)
	require.Equal(t, "siteship.runs", fc.subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payload, &got))
	require.Equal(t, "abc", got["run_id"])
	require.Equal(t, "published", got["outcome"])
	require.InDelta(t, 4, got["checks_passed"], 0)
	require.NotContains(t, got, "failed_step")

	require.NoError(t, n.Close())
	require.True(t, fc.closed)
}

func TestNATSNotifierErrors(t *testing.T) {
	tests := []struct {
		name     string
		conn     *fakeConn
		contains []string
	}{
		{"publish", &fakeConn{pubErr: errors.New("connection closed")}, []string{"failed to publish event", "connection closed"}},
		{"flush", &fakeConn{flushErr: errors.New("timeout")}, []string{"failed to flush event", "timeout"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newNATSNotifier(tt.conn, "s", slog.Default()).Notify(context.Background(), RunEvent{})
			require.Error(t, err)
			for _, want := range tt.contains {
				require.ErrorContains(t, err, want)
			}
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))
			subject, ok := ferrors.ContextString(err, "subject")
			require.True(t, ok)
			require.Equal(t, "s", subject)
		})
	}
}

func TestNewNATSNotifierUnreachable(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "siteship.runs", nil)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = Noop{}
	require.NoError(t, n.Notify(context.Background(), RunEvent{}))
	require.NoError(t, n.Close())
}
