package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/service"
)

// ResponderRepository держит реестр экипажей в памяти
type ResponderRepository struct {
	mu         sync.RWMutex
	responders []models.Responder
}

// NewResponderRepository создает реестр с начальным набором экипажей
func NewResponderRepository(seed []*models.Responder) service.ResponderRepository {
	r := &ResponderRepository{responders: make([]models.Responder, 0, len(seed))}
	for _, resp := range seed {
		r.responders = append(r.responders, *resp)
	}
	return r
}

func (r *ResponderRepository) List(_ context.Context) ([]*models.Responder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Responder, len(r.responders))
	for i := range r.responders {
		resp := r.responders[i]
		out[i] = &resp
	}
	return out, nil
}

func (r *ResponderRepository) GetByID(_ context.Context, id string) (*models.Responder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("responder with id %s: %w", id, models.ErrResponderNotFound)
	}
	resp := r.responders[idx]
	return &resp, nil
}

func (r *ResponderRepository) Update(_ context.Context, responder *models.Responder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(responder.ID)
	if idx < 0 {
		return fmt.Errorf("responder with id %s not found for update: %w", responder.ID, models.ErrResponderNotFound)
	}
	r.responders[idx] = *responder
	return nil
}

func (r *ResponderRepository) indexLocked(id string) int {
	return slices.IndexFunc(r.responders, func(resp models.Responder) bool { return resp.ID == id })
}
