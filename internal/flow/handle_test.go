package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_CompletesAsynchronously(t *testing.T) {
	release := make(chan struct{})
	task := NewTask("slow", "", func(ctx context.Context) error {
		<-release
		return nil
	})

	h := NewEngine().Start(t.Context(), task)
	assert.Equal(t, "slow", h.Name())

	select {
	case <-h.Done():
		t.Fatal("handle completed before the task returned")
	case <-time.After(20 * time.Millisecond):
	}
	assert.NoError(t, h.Err(), "no error while running")

	close(release)
	require.NoError(t, h.Wait())
	assert.Greater(t, h.Duration(), time.Duration(0))
}

func TestHandle_ReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	h := NewEngine().Start(t.Context(), NewTask("bad", "", func(context.Context) error { return boom }))

	err := h.Wait()
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, h.Err(), boom)
}

func TestHandle_WaitContextReturnsEarly(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	h := NewEngine().Start(t.Context(), NewTask("blocked", "", func(ctx context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.WaitContext(ctx), context.DeadlineExceeded)
}

func TestHandle_NilNode(t *testing.T) {
	h := NewEngine().Start(t.Context(), nil)
	assert.Error(t, h.Wait())
}
