package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/geo"
	"github.com/shenikar/resq_dispatch/internal/mockdata"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeResponderRepository struct {
	mu         sync.Mutex
	responders []models.Responder
}

func newFakeResponderRepository(seed []*models.Responder) *fakeResponderRepository {
	r := &fakeResponderRepository{}
	for _, resp := range seed {
		r.responders = append(r.responders, *resp)
	}
	return r
}

func (r *fakeResponderRepository) List(_ context.Context) ([]*models.Responder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Responder, len(r.responders))
	for i := range r.responders {
		resp := r.responders[i]
		out[i] = &resp
	}
	return out, nil
}

func (r *fakeResponderRepository) GetByID(_ context.Context, id string) (*models.Responder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responders {
		if resp.ID == id {
			return &resp, nil
		}
	}
	return nil, fmt.Errorf("responder with id %s: %w", id, models.ErrResponderNotFound)
}

func (r *fakeResponderRepository) Update(_ context.Context, responder *models.Responder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := slices.IndexFunc(r.responders, func(resp models.Responder) bool { return resp.ID == responder.ID })
	if idx < 0 {
		return models.ErrResponderNotFound
	}
	r.responders[idx] = *responder
	return nil
}

type responderFixture struct {
	service  ResponderService
	events   *mocks.MockEventPublisher
	notifier *mocks.MockResponderNotifier
	clock    *clockwork.FakeClock
	logs     *bytes.Buffer
}

func newTestResponderService(t *testing.T) *responderFixture {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockEventPublisher(ctrl)
	notifier := mocks.NewMockResponderNotifier(ctrl)

	logger := logrus.New()
	logs := &bytes.Buffer{}
	logger.SetOutput(logs)
	logger.SetLevel(logrus.DebugLevel)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	repo := newFakeResponderRepository(mockdata.Responders(clock.Now()))

	return &responderFixture{
		service:  NewResponderService(repo, logger, clock, events, notifier),
		events:   events,
		notifier: notifier,
		clock:    clock,
		logs:     logs,
	}
}

func TestUpdateLocation_Success(t *testing.T) {
	// Подготовка
	f := newTestResponderService(t)
	ctx := context.Background()
	point := models.Coordinates{Lat: 17.65, Lng: 121.75}

	// Ожидания
	f.events.EXPECT().Emit(models.EventResponderLocationUpdate, models.ResponderLocationUpdate{
		ResponderID: "RESP-001",
		Location:    point,
		Timestamp:   f.clock.Now(),
	})

	// Действие
	resp, err := f.service.UpdateLocation(ctx, "RESP-001", point)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, point, resp.Location)
	assert.Equal(t, f.clock.Now(), resp.LastPing)
	assert.InDelta(t, geo.Distance(geo.CityCenter(), point), resp.Distance, 1e-9)
}

func TestUpdateLocation_NotFound(t *testing.T) {
	f := newTestResponderService(t)

	_, err := f.service.UpdateLocation(context.Background(), "RESP-404", geo.CityCenter())

	assert.ErrorIs(t, err, ErrResponderNotFound)
}

func TestUpdateResponderStatus_NotifiesAndEmits(t *testing.T) {
	f := newTestResponderService(t)
	ctx := context.Background()

	f.events.EXPECT().Emit(models.EventResponderStatusChanged, models.ResponderStatusChange{
		ResponderID: "RESP-002",
		OldStatus:   models.ResponderBusy,
		NewStatus:   models.ResponderAvailable,
		Timestamp:   f.clock.Now(),
	})
	f.notifier.EXPECT().ResponderNotification(ctx, "Maria Cruz", models.ResponderAvailable).Return("n-1")

	resp, err := f.service.UpdateStatus(ctx, "RESP-002", models.ResponderAvailable)

	require.NoError(t, err)
	assert.Equal(t, models.ResponderAvailable, resp.Status)
}

func TestUpdateResponderStatus_Invalid(t *testing.T) {
	f := newTestResponderService(t)

	_, err := f.service.UpdateStatus(context.Background(), "RESP-002", "on-break")

	assert.ErrorIs(t, err, models.ErrInvalidResponderStatus)
}

func TestNearest_AvailableFirstThenByDistance(t *testing.T) {
	f := newTestResponderService(t)
	// Точка рядом с Maria Cruz (busy), но доступные идут первыми
	point := models.Coordinates{Lat: 17.6200, Lng: 121.7300}

	got, err := f.service.Nearest(context.Background(), point, 0)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.ResponderAvailable, got[0].Status)
	assert.Equal(t, models.ResponderAvailable, got[1].Status)
	assert.LessOrEqual(t, got[0].Distance, got[1].Distance)
	assert.Equal(t, "Maria Cruz", got[2].Name)
	assert.InDelta(t, 0, got[2].Distance, 1e-9)

	limited, err := f.service.Nearest(context.Background(), point, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSweepStale_MarksOldPingsOffline(t *testing.T) {
	f := newTestResponderService(t)
	ctx := context.Background()

	// Пинги: Juan 2 минуты назад, Maria 1 минуту, Pedro 30 секунд
	f.events.EXPECT().Emit(models.EventResponderStatusChanged, gomock.Any()).Times(2)

	swept, err := f.service.SweepStale(ctx, 45*time.Second)

	require.NoError(t, err)
	assert.Equal(t, 2, swept)
	all, err := f.service.ListResponders(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ResponderOffline, all[0].Status)
	assert.Equal(t, models.ResponderOffline, all[1].Status)
	assert.Equal(t, models.ResponderAvailable, all[2].Status)

	swept, err = f.service.SweepStale(ctx, 45*time.Second)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestFollow_AppliesBusEventsQuietly(t *testing.T) {
	f := newTestResponderService(t)
	ctx := context.Background()

	handlers := map[models.EventType]func(models.Event){}
	unsubscribed := 0
	subscribe := func(et models.EventType, fn func(models.Event)) func() {
		handlers[et] = fn
		return func() { unsubscribed++ }
	}

	unsub := f.service.Follow(subscribe)
	require.Len(t, handlers, 2)

	point := models.Coordinates{Lat: 17.62, Lng: 121.72}
	handlers[models.EventResponderLocationUpdate](models.Event{
		Type: models.EventResponderLocationUpdate,
		Data: models.ResponderLocationUpdate{ResponderID: "RESP-003", Location: point, Timestamp: f.clock.Now()},
	})
	handlers[models.EventResponderStatusChanged](models.Event{
		Type: models.EventResponderStatusChanged,
		Data: models.ResponderStatusChange{ResponderID: "RESP-003", NewStatus: models.ResponderBusy},
	})
	handlers[models.EventResponderStatusChanged](models.Event{
		Type: models.EventResponderStatusChanged,
		Data: models.ResponderStatusChange{ResponderID: "RESP-017", NewStatus: models.ResponderBusy},
	})

	resp, err := f.service.GetResponder(ctx, "RESP-003")
	require.NoError(t, err)
	assert.Equal(t, point, resp.Location)
	assert.Equal(t, models.ResponderBusy, resp.Status)
	assert.Contains(t, f.logs.String(), "Ignoring status change for unknown responder")

	unsub()
	assert.Equal(t, 2, unsubscribed)
}
