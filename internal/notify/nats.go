package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/logfields"
)

const flushTimeout = 5 * time.Second

// conn is the subset of *nats.Conn the notifier uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes run events on a NATS subject.
type NATSNotifier struct {
	conn    conn
	subject string
	logger  *slog.Logger
}

// NewNATSNotifier connects to url and returns a notifier publishing on subject.
func NewNATSNotifier(url, subject string, logger *slog.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("siteship"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, errors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	logger.Info("NATS notifier initialized", logfields.URL(url), slog.String("subject", subject))
	return newNATSNotifier(nc, subject, logger), nil
}

func newNATSNotifier(c conn, subject string, logger *slog.Logger) *NATSNotifier {
	return &NATSNotifier{conn: c, subject: subject, logger: logger}
}

// Notify publishes event and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, event RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.InternalError("failed to marshal event").WithCause(err).Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.NotifyError("failed to publish event").
			WithCause(err).
			WithContext("subject", n.subject).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.NotifyError("failed to flush event").
			WithCause(err).
			WithContext("subject", n.subject).
			Build()
	}

	n.logger.Debug("Published run event",
		logfields.RunID(event.RunID),
		logfields.Outcome(event.Outcome),
		slog.String("subject", n.subject))
	return nil
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}

var _ Notifier = (*NATSNotifier)(nil)
