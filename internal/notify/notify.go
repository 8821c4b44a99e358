// Package notify announces finished publish runs on NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/siteconfig/internal/config"
	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
	"git.home.luguber.info/inful/siteconfig/internal/logfields"
)

// RunReport is the message published after each run.
type RunReport struct {
	RunID     string          `json:"run_id"`
	Run       string          `json:"run"`
	Status    string          `json:"status"`
	Files     []string        `json:"files"`
	Report    json.RawMessage `json:"report,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notifier publishes run reports.
type Notifier interface {
	Notify(ctx context.Context, report RunReport) error
	Close()
}

// Noop discards reports.
type Noop struct{}

func (Noop) Notify(context.Context, RunReport) error { return nil }
func (Noop) Close()                                  {}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes reports as JSON on a subject.
type NATSNotifier struct {
	conn    conn
	subject string
}

// New connects to NATS when configured and returns Noop otherwise.
func New(cfg config.NotifyConfig) (Notifier, error) {
	if cfg.NATSURL == "" {
		return Noop{}, nil
	}
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("siteconfig"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", cfg.NATSURL).
			Retryable().
			Build()
	}
	slog.Info("NATS notifier initialized", logfields.URL(cfg.NATSURL), slog.String("subject", cfg.Subject))
	return &NATSNotifier{conn: nc, subject: cfg.Subject}, nil
}

// Notify publishes the report and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, report RunReport) error {
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(report)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to marshal run report").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to publish run report").
			WithContext("subject", n.subject).
			Retryable().
			Build()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to flush NATS connection").Retryable().Build()
	}
	slog.Debug("Published run report", logfields.RunID(report.RunID), slog.String("subject", n.subject))
	return nil
}

// Close closes the connection.
func (n *NATSNotifier) Close() {
	n.conn.Close()
}
