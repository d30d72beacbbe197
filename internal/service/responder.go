package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/geo"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

var ErrResponderNotFound = models.ErrResponderNotFound

type ResponderRepository interface {
	List(ctx context.Context) ([]*models.Responder, error)
	GetByID(ctx context.Context, id string) (*models.Responder, error)
	Update(ctx context.Context, responder *models.Responder) error
}

// ResponderNotifier показывает уведомление о смене статуса экипажа
type ResponderNotifier interface {
	ResponderNotification(ctx context.Context, name string, status models.ResponderStatus) string
}

type ResponderService interface {
	ListResponders(ctx context.Context) ([]*models.Responder, error)
	GetResponder(ctx context.Context, id string) (*models.Responder, error)
	UpdateLocation(ctx context.Context, id string, location models.Coordinates) (*models.Responder, error)
	UpdateStatus(ctx context.Context, id string, status models.ResponderStatus) (*models.Responder, error)
	Nearest(ctx context.Context, point models.Coordinates, limit int) ([]*models.Responder, error)
	SweepStale(ctx context.Context, maxAge time.Duration) (int, error)
	Follow(subscribe func(eventType models.EventType, fn func(models.Event)) func()) (unsubscribe func())
}

type responderService struct {
	repo     ResponderRepository
	logger   *logrus.Logger
	clock    clockwork.Clock
	events   EventPublisher
	notifier ResponderNotifier

	mu sync.Mutex
}

func NewResponderService(
	repo ResponderRepository,
	logger *logrus.Logger,
	clock clockwork.Clock,
	events EventPublisher,
	notifier ResponderNotifier,
) ResponderService {
	return &responderService{
		repo:     repo,
		logger:   logger,
		clock:    clock,
		events:   events,
		notifier: notifier,
	}
}

// Follow применяет к реестру события об экипажах, пришедшие из шины
// (например, от симулятора). Новые события при этом не публикуются.
func (s *responderService) Follow(subscribe func(eventType models.EventType, fn func(models.Event)) func()) (unsubscribe func()) {
	unsubLocation := subscribe(models.EventResponderLocationUpdate, func(e models.Event) {
		update, ok := e.Data.(models.ResponderLocationUpdate)
		if !ok {
			return
		}
		s.applyLocation(context.Background(), update)
	})
	unsubStatus := subscribe(models.EventResponderStatusChanged, func(e models.Event) {
		change, ok := e.Data.(models.ResponderStatusChange)
		if !ok {
			return
		}
		s.applyStatus(context.Background(), change)
	})
	return func() {
		unsubLocation()
		unsubStatus()
	}
}

func (s *responderService) applyLocation(ctx context.Context, update models.ResponderLocationUpdate) {
	_, err := s.modify(ctx, update.ResponderID, func(resp *models.Responder) error {
		resp.Location = update.Location
		resp.LastPing = update.Timestamp
		resp.Distance = geo.Distance(geo.CityCenter(), update.Location)
		return nil
	})
	if errors.Is(err, ErrResponderNotFound) {
		s.logger.WithField("responder_id", update.ResponderID).Debug("Ignoring location update for unknown responder")
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to apply responder location update")
	}
}

func (s *responderService) applyStatus(ctx context.Context, change models.ResponderStatusChange) {
	if !change.NewStatus.Valid() {
		return
	}
	_, err := s.modify(ctx, change.ResponderID, func(resp *models.Responder) error {
		resp.Status = change.NewStatus
		return nil
	})
	if errors.Is(err, ErrResponderNotFound) {
		s.logger.WithField("responder_id", change.ResponderID).Debug("Ignoring status change for unknown responder")
		return
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to apply responder status change")
	}
}

// modify читает запись, применяет fn и сохраняет ее под мьютексом сервиса
func (s *responderService) modify(ctx context.Context, id string, fn func(resp *models.Responder) error) (*models.Responder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(resp); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *responderService) ListResponders(ctx context.Context) ([]*models.Responder, error) {
	responders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not list responders: %w", err)
	}
	return responders, nil
}

func (s *responderService) GetResponder(ctx context.Context, id string) (*models.Responder, error) {
	resp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: could not get responder: %w", err)
	}
	return resp, nil
}

// UpdateLocation записывает координаты, время пинга и расстояние до центра города
func (s *responderService) UpdateLocation(ctx context.Context, id string, location models.Coordinates) (*models.Responder, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "responder",
		"method":       "UpdateLocation",
		"responder_id": id,
	})

	now := s.clock.Now()
	resp, err := s.modify(ctx, id, func(resp *models.Responder) error {
		resp.Location = location
		resp.LastPing = now
		resp.Distance = geo.Distance(geo.CityCenter(), location)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to update responder location")
		return nil, fmt.Errorf("service: could not update responder location: %w", err)
	}

	log.Debug("Responder location updated")
	s.events.Emit(models.EventResponderLocationUpdate, models.ResponderLocationUpdate{
		ResponderID: id,
		Location:    location,
		Timestamp:   now,
	})
	return resp, nil
}

func (s *responderService) UpdateStatus(ctx context.Context, id string, status models.ResponderStatus) (*models.Responder, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "responder",
		"method":       "UpdateStatus",
		"responder_id": id,
		"status":       status,
	})

	if _, err := models.ParseResponderStatus(string(status)); err != nil {
		return nil, fmt.Errorf("service: could not update responder status: %w", err)
	}

	var old models.ResponderStatus
	resp, err := s.modify(ctx, id, func(resp *models.Responder) error {
		old = resp.Status
		resp.Status = status
		resp.LastPing = s.clock.Now()
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to update responder status")
		return nil, fmt.Errorf("service: could not update responder status: %w", err)
	}

	log.WithField("old_status", old).Info("Responder status updated")
	s.events.Emit(models.EventResponderStatusChanged, models.ResponderStatusChange{
		ResponderID: id,
		OldStatus:   old,
		NewStatus:   status,
		Timestamp:   resp.LastPing,
	})
	s.notifier.ResponderNotification(ctx, resp.Name, status)
	return resp, nil
}

// Nearest сортирует экипажи: сначала доступные, затем по расстоянию до point.
// Distance в результате считается от point.
func (s *responderService) Nearest(ctx context.Context, point models.Coordinates, limit int) ([]*models.Responder, error) {
	responders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not find nearest responders: %w", err)
	}

	for _, r := range responders {
		r.Distance = geo.Distance(point, r.Location)
	}
	slices.SortStableFunc(responders, func(a, b *models.Responder) int {
		aAvail := a.Status == models.ResponderAvailable
		bAvail := b.Status == models.ResponderAvailable
		switch {
		case aAvail && !bAvail:
			return -1
		case !aAvail && bAvail:
			return 1
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	if limit > 0 && len(responders) > limit {
		responders = responders[:limit]
	}
	return responders, nil
}

// SweepStale переводит в offline экипажи, которые не выходили на связь дольше maxAge
func (s *responderService) SweepStale(ctx context.Context, maxAge time.Duration) (int, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "responder",
		"method":  "SweepStale",
	})

	responders, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: could not sweep responders: %w", err)
	}

	cutoff := s.clock.Now().Add(-maxAge)
	swept := 0
	for _, r := range responders {
		var old models.ResponderStatus
		stale := false
		_, err := s.modify(ctx, r.ID, func(resp *models.Responder) error {
			if resp.Status == models.ResponderOffline || !resp.LastPing.Before(cutoff) {
				return nil
			}
			old, stale = resp.Status, true
			resp.Status = models.ResponderOffline
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrResponderNotFound) {
				continue
			}
			return swept, fmt.Errorf("service: could not sweep responder %s: %w", r.ID, err)
		}
		if !stale {
			continue
		}
		swept++
		log.WithField("responder_id", r.ID).Info("Responder marked offline")
		s.events.Emit(models.EventResponderStatusChanged, models.ResponderStatusChange{
			ResponderID: r.ID,
			OldStatus:   old,
			NewStatus:   models.ResponderOffline,
			Timestamp:   s.clock.Now(),
		})
	}
	return swept, nil
}
