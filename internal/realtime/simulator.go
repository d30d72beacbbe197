package realtime

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/geo"
	"github.com/shenikar/resq_dispatch/internal/mockdata"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMinInterval = 10 * time.Second
	DefaultMaxInterval = 30 * time.Second
)

var simulatedTypes = []models.EventType{
	models.EventIncidentStatusChanged,
	models.EventResponderLocationUpdate,
	models.EventResponderStatusChanged,
}

// Simulator публикует случайное событие в шину через случайные интервалы
type Simulator struct {
	bus    *Bus
	clock  clockwork.Clock
	rng    *rand.Rand
	logger *logrus.Logger
	min    time.Duration
	max    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSimulator(bus *Bus, clock clockwork.Clock, rng *rand.Rand, logger *logrus.Logger, minInterval, maxInterval time.Duration) *Simulator {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	return &Simulator{
		bus:    bus,
		clock:  clock,
		rng:    rng,
		logger: logger,
		min:    minInterval,
		max:    maxInterval,
	}
}

// Start идемпотентен
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.logger.WithFields(logrus.Fields{
		"min_interval": s.min,
		"max_interval": s.max,
	}).Info("Starting realtime simulator...")

	go s.run(ctx, s.done)
}

func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Stopping realtime simulator.")
}

func (s *Simulator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		timer := s.clock.NewTimer(s.nextInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
			s.generateEvent()
		}
	}
}

func (s *Simulator) nextInterval() time.Duration {
	spread := s.max - s.min
	if spread <= 0 {
		return s.min
	}
	return s.min + time.Duration(s.rng.Int64N(int64(spread)+1))
}

func (s *Simulator) generateEvent() {
	if !s.bus.IsConnected() {
		return
	}

	now := s.clock.Now()
	switch simulatedTypes[s.rng.IntN(len(simulatedTypes))] {
	case models.EventIncidentStatusChanged:
		s.bus.Emit(models.EventIncidentStatusChanged, models.IncidentStatusChange{
			IncidentID: mockdata.IncidentID(s.rng.IntN(mockdata.SeedCount) + 1),
			OldStatus:  models.StatusAssigned,
			NewStatus:  models.StatusEnRoute,
			UpdatedBy:  "Responder",
			Timestamp:  now,
		})
	case models.EventResponderLocationUpdate:
		s.bus.Emit(models.EventResponderLocationUpdate, models.ResponderLocationUpdate{
			ResponderID: mockdata.ResponderID(s.rng.IntN(20) + 1),
			Location:    geo.Jitter(s.rng, 0.1),
			Timestamp:   now,
		})
	case models.EventResponderStatusChanged:
		s.bus.Emit(models.EventResponderStatusChanged, models.ResponderStatusChange{
			ResponderID: mockdata.ResponderID(s.rng.IntN(20) + 1),
			OldStatus:   models.ResponderAvailable,
			NewStatus:   models.ResponderStatuses[s.rng.IntN(len(models.ResponderStatuses))],
			Timestamp:   now,
		})
	}
}
