package repository

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/service"
)

// MemoryIncidentRepository хранит инциденты в памяти процесса, новые в начале списка
type MemoryIncidentRepository struct {
	mu        sync.RWMutex
	incidents []*models.Incident
	maxSeq    int
}

func NewMemoryIncidentRepository() service.IncidentRepository {
	return &MemoryIncidentRepository{}
}

// Create добавляет копию инцидента в начало коллекции
func (r *MemoryIncidentRepository) Create(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(incident.ID) >= 0 {
		return fmt.Errorf("incident with id %s already exists", incident.ID)
	}
	r.incidents = slices.Insert(r.incidents, 0, incident.Clone())
	if seq := sequenceOf(incident.ID); seq > r.maxSeq {
		r.maxSeq = seq
	}
	return nil
}

func (r *MemoryIncidentRepository) GetByID(_ context.Context, id string) (*models.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
	}
	return r.incidents[idx].Clone(), nil
}

// Update заменяет запись целиком, остальные записи не трогает
func (r *MemoryIncidentRepository) Update(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(incident.ID)
	if idx < 0 {
		return fmt.Errorf("incident with id %s not found for update: %w", incident.ID, models.ErrIncidentNotFound)
	}
	r.incidents[idx] = incident.Clone()
	return nil
}

func (r *MemoryIncidentRepository) ListIncidents(_ context.Context) ([]*models.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Incident, len(r.incidents))
	for i, inc := range r.incidents {
		out[i] = inc.Clone()
	}
	return out, nil
}

// NextSequence возвращает следующий свободный номер для ID вида INC-0001
func (r *MemoryIncidentRepository) NextSequence(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxSeq + 1, nil
}

func (r *MemoryIncidentRepository) indexLocked(id string) int {
	return slices.IndexFunc(r.incidents, func(inc *models.Incident) bool { return inc.ID == id })
}

func sequenceOf(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "INC-"))
	if err != nil {
		return 0
	}
	return n
}
