package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	mu     sync.Mutex
	calls  int
	maxAge time.Duration
	err    error
}

func (s *stubSweeper) SweepStale(_ context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.maxAge = maxAge
	return 1, s.err
}

func (s *stubSweeper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestLogger() (*logrus.Logger, *bytes.Buffer) {
	logger := logrus.New()
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	return logger, buf
}

func TestScheduler_RunsSweep(t *testing.T) {
	sweeper := &stubSweeper{}
	logger, _ := newTestLogger()
	s := NewScheduler(sweeper, 10*time.Minute, logger)

	require.NoError(t, s.Start("@every 1s"))
	defer s.Stop()

	assert.Eventually(t, func() bool { return sweeper.Calls() > 0 }, 3*time.Second, 20*time.Millisecond)
	sweeper.mu.Lock()
	assert.Equal(t, 10*time.Minute, sweeper.maxAge)
	sweeper.mu.Unlock()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	logger, _ := newTestLogger()
	s := NewScheduler(&stubSweeper{}, time.Minute, logger)

	assert.Error(t, s.Start("every now and then"))
}

func TestScheduler_SweepErrorIsLogged(t *testing.T) {
	logger, logs := newTestLogger()
	s := NewScheduler(&stubSweeper{err: errors.New("store down")}, time.Minute, logger)

	s.sweepStaleResponders()

	assert.Contains(t, logs.String(), "Responder sweep failed")
}
