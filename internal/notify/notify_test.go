package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

type capturePublisher struct {
	subject string
	data    []byte
	err     error
}

func (c *capturePublisher) Publish(subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return c.err
}

func TestNATSPublisherPayload(t *testing.T) {
	capture := &capturePublisher{}
	p := &NATSPublisher{pub: capture, subject: "site.reload"}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Reload(t.Context(), Event{Task: "css", BuildID: "b-1", At: at}))

	assert.Equal(t, "site.reload", capture.subject)
	var got map[string]any
	require.NoError(t, json.Unmarshal(capture.data, &got))
	assert.Equal(t, "css", got["task"])
	assert.Equal(t, "b-1", got["build_id"])
	assert.Equal(t, "2024-05-01T12:00:00Z", got["at"])
}

func TestNATSPublisherError(t *testing.T) {
	p := &NATSPublisher{pub: &capturePublisher{err: errors.New("no responders")}, subject: DefaultSubject}
	err := p.Reload(t.Context(), NewEvent("js", ""))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryExternal))
	require.NoError(t, p.Close())
}

func TestMultiCallsEveryReloader(t *testing.T) {
	var calls []string
	record := func(name string, err error) Reloader {
		return ReloaderFunc(func(_ context.Context, ev Event) error {
			calls = append(calls, name+":"+ev.Task)
			return err
		})
	}
	m := Multi{record("a", errors.New("down")), nil, record("b", nil), record("c", errors.New("gone"))}

	err := m.Reload(t.Context(), NewEvent("images", "id"))
	assert.Equal(t, []string{"a:images", "b:images", "c:images"}, calls)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestNewEventStampsTime(t *testing.T) {
	before := time.Now()
	ev := NewEvent("css", "x")
	assert.False(t, ev.At.Before(before.UTC().Add(-time.Second)))
	assert.Equal(t, time.UTC, ev.At.Location())
}
