package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "assetpipe.reload"

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes reload events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	pub     publisher
	subject string
}

// NewNATSPublisher connects to url. The connection keeps reconnecting in the
// background, so a NATS restart does not require restarting watch.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("assetpipe"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryExternal, "connect to NATS").
			WithContext("url", url).Build()
	}
	slog.Info("NATS reload notifications enabled", slog.String("url", url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, pub: conn, subject: subject}, nil
}

// Subject returns the subject events are published on.
func (p *NATSPublisher) Subject() string { return p.subject }

func (p *NATSPublisher) Reload(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal reload event").Build()
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryExternal, "publish reload event").
			WithContext("subject", p.subject).Build()
	}
	slog.DebugContext(ctx, "Published reload event", logfields.Task(ev.Task), logfields.BuildID(ev.BuildID))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
