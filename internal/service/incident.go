package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/mockdata"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultActor          = "Current User"
	defaultReportNotes    = "Emergency call received and incident created"
	assignmentEvent       = "Responder Assigned"
	assignmentActor       = "Dispatcher"
	incidentReportedEvent = "Incident Reported"
)

var (
	ErrIncidentNotFound  = models.ErrIncidentNotFound
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IncidentRepository определяет контракт для работы с хранилищем инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id string) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	NextSequence(ctx context.Context) (int, error)
}

// EventPublisher публикует события в шину реального времени
type EventPublisher interface {
	Emit(eventType models.EventType, data any)
}

// IncidentNotifier показывает уведомления об изменениях инцидентов
type IncidentNotifier interface {
	IncidentNotification(ctx context.Context, incidentID string, status models.IncidentStatus, message string) string
}

// IncidentService определяет контракт для бизнес-логики диспетчерской
type IncidentService interface {
	AddIncident(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error)
	UpdateStatus(ctx context.Context, id string, status models.IncidentStatus, actor string) (*models.Incident, error)
	AssignResponder(ctx context.Context, id, responderID, responderName, unit string) (*models.Incident, error)
	AddTimelineEvent(ctx context.Context, id, event, description, actor string) (*models.Incident, error)
	GetIncident(ctx context.Context, id string) (*models.Incident, error)
	ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error)
	SelectIncident(ctx context.Context, id string) (*models.Incident, error)
	SelectedIncident(ctx context.Context) (*models.Incident, error)
	Barangays(ctx context.Context) ([]string, error)
	Seed(ctx context.Context, incidents []*models.Incident) error
}

type incidentService struct {
	repo     IncidentRepository
	logger   *logrus.Logger
	clock    clockwork.Clock
	policy   models.TransitionPolicy
	events   EventPublisher
	notifier IncidentNotifier
	gen      *mockdata.Generator

	// mu сериализует мутации: каждая выполняется целиком
	mu         sync.Mutex
	selectedID string
}

func NewIncidentService(
	repo IncidentRepository,
	logger *logrus.Logger,
	clock clockwork.Clock,
	policy models.TransitionPolicy,
	events EventPublisher,
	notifier IncidentNotifier,
	gen *mockdata.Generator,
) IncidentService {
	return &incidentService{
		repo:     repo,
		logger:   logger,
		clock:    clock,
		policy:   policy,
		events:   events,
		notifier: notifier,
		gen:      gen,
	}
}

// AddIncident создает инцидент со статусом new и одной записью в хронологии
func (s *incidentService) AddIncident(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "AddIncident",
		"type":     draft.Type,
		"barangay": draft.Barangay,
	})
	log.Info("Attempting to create a new incident")

	if _, err := models.ParseIncidentType(string(draft.Type)); err != nil {
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	if _, err := models.ParseIncidentPriority(string(draft.Priority)); err != nil {
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	s.mu.Lock()
	seq, err := s.repo.NextSequence(ctx)
	if err != nil {
		s.mu.Unlock()
		log.WithError(err).Error("Failed to allocate incident id")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	now := s.clock.Now()
	coords := s.gen.Coordinates()
	if draft.Coordinates != nil {
		coords = *draft.Coordinates
	}
	notes := draft.Notes
	if notes == "" {
		notes = defaultReportNotes
	}

	incident := &models.Incident{
		ID:          mockdata.IncidentID(seq),
		Title:       s.gen.Title(draft.Type),
		Description: mockdata.Description(draft.Type),
		Type:        draft.Type,
		Status:      models.StatusNew,
		Priority:    draft.Priority,
		Location: models.Location{
			Address:     fmt.Sprintf("%s, %s", draft.Street, draft.Barangay),
			Barangay:    draft.Barangay,
			Coordinates: coords,
		},
		Reporter: models.Reporter{
			Name:  draft.CallerName,
			Phone: draft.CallerPhone,
			Email: draft.CallerEmail,
		},
		CreatedAt: now,
	}
	incident.AppendTimeline(now, incidentReportedEvent, notes, draft.CallerName)

	if err := s.repo.Create(ctx, incident); err != nil {
		s.mu.Unlock()
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	s.mu.Unlock()

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	s.events.Emit(models.EventIncidentCreated, incident.Clone())
	return incident, nil
}

// UpdateStatus меняет статус и дописывает запись в хронологию
func (s *incidentService) UpdateStatus(ctx context.Context, id string, status models.IncidentStatus, actor string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateStatus",
		"incident_id": id,
		"status":      status,
	})
	log.Info("Attempting to update incident status")

	if !status.Valid() {
		return nil, fmt.Errorf("service: could not update status: %w: %q", models.ErrInvalidStatus, status)
	}
	if actor == "" {
		actor = defaultActor
	}

	var oldStatus models.IncidentStatus
	updated, err := s.mutate(ctx, id, func(inc *models.Incident) error {
		if !s.policy.Allows(inc.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inc.Status, status)
		}
		oldStatus = inc.Status
		inc.Status = status
		inc.AppendTimeline(s.clock.Now(),
			"Status Changed to "+status.Label(),
			fmt.Sprintf("Incident status updated to %s", status),
			actor,
		)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to update incident status")
		return nil, fmt.Errorf("service: could not update status: %w", err)
	}

	log.WithField("old_status", oldStatus).Info("Incident status updated successfully")
	s.events.Emit(models.EventIncidentStatusChanged, models.IncidentStatusChange{
		IncidentID: id,
		OldStatus:  oldStatus,
		NewStatus:  status,
		UpdatedBy:  actor,
		Timestamp:  updated.UpdatedAt,
	})
	s.notifier.IncidentNotification(ctx, id, status, fmt.Sprintf("Incident status updated to %s", status))
	return updated, nil
}

// AssignResponder назначает экипаж и переводит инцидент в статус assigned
func (s *incidentService) AssignResponder(ctx context.Context, id, responderID, responderName, unit string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "incident",
		"method":       "AssignResponder",
		"incident_id":  id,
		"responder_id": responderID,
	})
	log.Info("Attempting to assign responder")

	updated, err := s.mutate(ctx, id, func(inc *models.Incident) error {
		if !s.policy.AllowsAssignment(inc.Status) {
			return fmt.Errorf("%w: cannot assign responder to %s incident", ErrInvalidTransition, inc.Status)
		}
		inc.AssignedResponder = &models.AssignedResponder{
			ID:   responderID,
			Name: responderName,
			Unit: unit,
		}
		inc.Status = models.StatusAssigned
		inc.AppendTimeline(s.clock.Now(),
			assignmentEvent,
			fmt.Sprintf("%s (%s) assigned to incident", responderName, unit),
			assignmentActor,
		)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to assign responder")
		return nil, fmt.Errorf("service: could not assign responder: %w", err)
	}

	log.Info("Responder assigned successfully")
	s.events.Emit(models.EventIncidentUpdated, updated.Clone())
	return updated, nil
}

// AddTimelineEvent дописывает событие в хронологию, статус не меняется
func (s *incidentService) AddTimelineEvent(ctx context.Context, id, event, description, actor string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "AddTimelineEvent",
		"incident_id": id,
		"event":       event,
	})
	if actor == "" {
		actor = defaultActor
	}

	updated, err := s.mutate(ctx, id, func(inc *models.Incident) error {
		inc.AppendTimeline(s.clock.Now(), event, description, actor)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Failed to add timeline event")
		return nil, fmt.Errorf("service: could not add timeline event: %w", err)
	}

	log.Info("Timeline event added")
	s.events.Emit(models.EventIncidentUpdated, updated.Clone())
	return updated, nil
}

// mutate копирует запись, применяет fn и записывает копию обратно
func (s *incidentService) mutate(ctx context.Context, id string, fn func(inc *models.Incident) error) (*models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// GetIncident получает инцидент по ID
func (s *incidentService) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Debug("Fetching incident by ID")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident in repository")
		return nil, fmt.Errorf("service: not get incident: %w", err)
	}
	return incident, nil
}

// ListIncidents возвращает инциденты в порядке коллекции, отфильтрованные по filter
func (s *incidentService) ListIncidents(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListIncidents",
	})

	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	filtered := FilterIncidents(incidents, filter)
	log.WithFields(logrus.Fields{
		"total":    len(incidents),
		"filtered": len(filtered),
	}).Debug("Incidents listed successfully")
	return filtered, nil
}

// SelectIncident запоминает выбранный инцидент, пустой id снимает выбор
func (s *incidentService) SelectIncident(ctx context.Context, id string) (*models.Incident, error) {
	if id == "" {
		s.mu.Lock()
		s.selectedID = ""
		s.mu.Unlock()
		return nil, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: could not select incident: %w", err)
	}

	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	return incident, nil
}

// SelectedIncident возвращает актуальное состояние выбранного инцидента или nil
func (s *incidentService) SelectedIncident(ctx context.Context) (*models.Incident, error) {
	s.mu.Lock()
	id := s.selectedID
	s.mu.Unlock()
	if id == "" {
		return nil, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIncidentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service: could not get selected incident: %w", err)
	}
	return incident, nil
}

// Barangays возвращает отсортированный список уникальных барангаев
func (s *incidentService) Barangays(ctx context.Context) ([]string, error) {
	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not list barangays: %w", err)
	}

	seen := make(map[string]struct{}, len(incidents))
	out := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		b := inc.Location.Barangay
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	slices.Sort(out)
	return out, nil
}

// Seed заполняет пустое хранилище начальными инцидентами (новые первыми)
func (s *incidentService) Seed(ctx context.Context, incidents []*models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "Seed",
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.ListIncidents(ctx)
	if err != nil {
		return fmt.Errorf("service: could not seed incidents: %w", err)
	}
	if len(existing) > 0 {
		log.WithField("count", len(existing)).Info("Incidents already present, skipping seed")
		return nil
	}

	// Хранилище добавляет в начало, поэтому идем от старых к новым
	for i := len(incidents) - 1; i >= 0; i-- {
		if err := s.repo.Create(ctx, incidents[i]); err != nil {
			return fmt.Errorf("service: could not seed incident %s: %w", incidents[i].ID, err)
		}
	}
	log.WithField("count", len(incidents)).Info("Seeded incidents")
	return nil
}
