package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/mockdata"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeIncidentRepository - простое хранилище для тестов, где важна последовательность операций
type fakeIncidentRepository struct {
	mu        sync.Mutex
	incidents []*models.Incident
	writes    map[string]int
}

func newFakeIncidentRepository(seed ...*models.Incident) *fakeIncidentRepository {
	r := &fakeIncidentRepository{writes: make(map[string]int)}
	for _, inc := range seed {
		r.incidents = append(r.incidents, inc.Clone())
	}
	return r
}

func (r *fakeIncidentRepository) Create(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incidents = slices.Insert(r.incidents, 0, incident.Clone())
	r.writes[incident.ID]++
	return nil
}

func (r *fakeIncidentRepository) GetByID(_ context.Context, id string) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inc := range r.incidents {
		if inc.ID == id {
			return inc.Clone(), nil
		}
	}
	return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
}

func (r *fakeIncidentRepository) Update(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, inc := range r.incidents {
		if inc.ID == incident.ID {
			r.incidents[i] = incident.Clone()
			r.writes[incident.ID]++
			return nil
		}
	}
	return models.ErrIncidentNotFound
}

func (r *fakeIncidentRepository) ListIncidents(_ context.Context) ([]*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Incident, len(r.incidents))
	for i, inc := range r.incidents {
		out[i] = inc.Clone()
	}
	return out, nil
}

func (r *fakeIncidentRepository) NextSequence(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.incidents) + 1, nil
}

type incidentFixture struct {
	service  IncidentService
	repo     *fakeIncidentRepository
	events   *mocks.MockEventPublisher
	notifier *mocks.MockIncidentNotifier
	clock    *clockwork.FakeClock
}

// newTestIncidentService собирает сервис поверх фейкового хранилища и моков шины и уведомлений
func newTestIncidentService(t *testing.T, policy models.TransitionPolicy, seed ...*models.Incident) *incidentFixture {
	ctrl := gomock.NewController(t)
	events := mocks.NewMockEventPublisher(ctrl)
	notifier := mocks.NewMockIncidentNotifier(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	repo := newFakeIncidentRepository(seed...)
	gen := mockdata.NewGenerator(rand.New(rand.NewPCG(1, 2)))

	return &incidentFixture{
		service:  NewIncidentService(repo, logger, clock, policy, events, notifier, gen),
		repo:     repo,
		events:   events,
		notifier: notifier,
		clock:    clock,
	}
}

func seedIncidents(now time.Time) []*models.Incident {
	return mockdata.NewGenerator(rand.New(rand.NewPCG(7, 7))).Incidents(mockdata.SeedCount, now)
}

func findIncident(incidents []*models.Incident, id string) *models.Incident {
	for _, inc := range incidents {
		if inc.ID == id {
			return inc
		}
	}
	return nil
}

func TestAddIncident_Success(t *testing.T) {
	// Подготовка
	f := newTestIncidentService(t, models.PolicyAny, seedIncidents(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))...)
	ctx := context.Background()
	draft := models.IncidentDraft{
		Type:        models.IncidentTypeFire,
		Priority:    models.PriorityHigh,
		Barangay:    "Centro 1",
		Street:      "Rizal St",
		CallerName:  "Ana Reyes",
		CallerPhone: "+639171234567",
	}

	// Ожидания
	f.events.EXPECT().Emit(models.EventIncidentCreated, gomock.Any()).Times(1)

	// Действие
	inc, err := f.service.AddIncident(ctx, draft)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "INC-0013", inc.ID)
	assert.Equal(t, models.StatusNew, inc.Status)
	assert.Equal(t, "Rizal St, Centro 1", inc.Location.Address)
	assert.Equal(t, mockdata.Description(models.IncidentTypeFire), inc.Description)
	require.Len(t, inc.Timeline, 1)
	assert.Equal(t, "Incident Reported", inc.Timeline[0].Event)
	assert.Equal(t, "Emergency call received and incident created", inc.Timeline[0].Description)
	assert.Equal(t, "Ana Reyes", inc.Timeline[0].User)
	assert.Equal(t, f.clock.Now(), inc.CreatedAt)

	list, err := f.service.ListIncidents(ctx, models.IncidentFilter{})
	require.NoError(t, err)
	assert.Equal(t, inc.ID, list[0].ID, "new incident goes first")
}

func TestAddIncident_UsesDraftNotesAndCoordinates(t *testing.T) {
	f := newTestIncidentService(t, models.PolicyAny)
	coords := models.Coordinates{Lat: 17.6, Lng: 121.7}

	f.events.EXPECT().Emit(models.EventIncidentCreated, gomock.Any())

	inc, err := f.service.AddIncident(context.Background(), models.IncidentDraft{
		Type:        models.IncidentTypeMedical,
		Priority:    models.PriorityCritical,
		Barangay:    "Ugac Norte",
		Street:      "Luna St",
		CallerName:  "Leo",
		Notes:       "Elderly man collapsed",
		Coordinates: &coords,
	})

	require.NoError(t, err)
	assert.Equal(t, "INC-0001", inc.ID)
	assert.Equal(t, coords, inc.Location.Coordinates)
	assert.Equal(t, "Elderly man collapsed", inc.Timeline[0].Description)
}

func TestAddIncident_InvalidType(t *testing.T) {
	f := newTestIncidentService(t, models.PolicyAny)

	_, err := f.service.AddIncident(context.Background(), models.IncidentDraft{
		Type:     "flood",
		Priority: models.PriorityLow,
	})

	assert.ErrorIs(t, err, models.ErrInvalidType)
}

func TestUpdateStatus_Success(t *testing.T) {
	// Подготовка
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newTestIncidentService(t, models.PolicyAny, seedIncidents(now)...)
	ctx := context.Background()
	before, err := f.service.GetIncident(ctx, "INC-0002")
	require.NoError(t, err)

	// Ожидания
	f.events.EXPECT().
		Emit(models.EventIncidentStatusChanged, gomock.Any()).
		Do(func(_ models.EventType, data any) {
			change, ok := data.(models.IncidentStatusChange)
			require.True(t, ok)
			assert.Equal(t, "INC-0002", change.IncidentID)
			assert.Equal(t, before.Status, change.OldStatus)
			assert.Equal(t, models.StatusResolved, change.NewStatus)
			assert.Equal(t, "Maria", change.UpdatedBy)
		})
	f.notifier.EXPECT().
		IncidentNotification(ctx, "INC-0002", models.StatusResolved, "Incident status updated to resolved").
		Return("n-1")

	// Действие
	inc, err := f.service.UpdateStatus(ctx, "INC-0002", models.StatusResolved, "Maria")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, inc.Status)
	require.Len(t, inc.Timeline, len(before.Timeline)+1)
	last := inc.Timeline[len(inc.Timeline)-1]
	assert.Equal(t, "Status Changed to Resolved", last.Event)
	assert.Equal(t, "Incident status updated to resolved", last.Description)
	assert.Equal(t, "Maria", last.User)
	assert.Equal(t, last.Timestamp, inc.UpdatedAt)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newTestIncidentService(t, models.PolicyAny)

	_, err := f.service.UpdateStatus(context.Background(), "INC-9999", models.StatusAssigned, "")

	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newTestIncidentService(t, models.PolicyAny, seedIncidents(time.Now())...)

	_, err := f.service.UpdateStatus(context.Background(), "INC-0001", "cancelled", "")

	assert.ErrorIs(t, err, models.ErrInvalidStatus)
}

func TestUpdateStatus_ForwardPolicyRejectsRegression(t *testing.T) {
	seed := seedIncidents(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	var resolvedID string
	for _, inc := range seed {
		if inc.Status == models.StatusResolved {
			resolvedID = inc.ID
			break
		}
	}
	require.NotEmpty(t, resolvedID)
	f := newTestIncidentService(t, models.PolicyForward, seed...)

	_, err := f.service.UpdateStatus(context.Background(), resolvedID, models.StatusNew, "")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, f.repo.writes[resolvedID])
}

func TestAssignResponder_Success(t *testing.T) {
	// Подготовка
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newTestIncidentService(t, models.PolicyAny, seedIncidents(now)...)
	ctx := context.Background()
	before, err := f.service.GetIncident(ctx, "INC-0005")
	require.NoError(t, err)

	// Ожидания
	f.events.EXPECT().Emit(models.EventIncidentUpdated, gomock.Any()).Times(1)

	// Действие
	inc, err := f.service.AssignResponder(ctx, "INC-0005", "RESP-003", "Pedro Reyes", "Patrol Car 1")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, inc.Status)
	assert.Equal(t, &models.AssignedResponder{ID: "RESP-003", Name: "Pedro Reyes", Unit: "Patrol Car 1"}, inc.AssignedResponder)
	require.Len(t, inc.Timeline, len(before.Timeline)+1)
	last := inc.Timeline[len(inc.Timeline)-1]
	assert.Equal(t, "Responder Assigned", last.Event)
	assert.Equal(t, "Pedro Reyes (Patrol Car 1) assigned to incident", last.Description)
	assert.Equal(t, "Dispatcher", last.User)
}

func TestAssignResponder_OnlyTargetIsRewritten(t *testing.T) {
	seed := seedIncidents(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	f := newTestIncidentService(t, models.PolicyAny, seed...)
	f.events.EXPECT().Emit(gomock.Any(), gomock.Any()).AnyTimes()

	_, err := f.service.AssignResponder(context.Background(), "INC-0005", "RESP-003", "Pedro Reyes", "Patrol Car 1")
	require.NoError(t, err)

	for _, inc := range seed {
		want := 0
		if inc.ID == "INC-0005" {
			want = 1
		}
		assert.Equal(t, want, f.repo.writes[inc.ID], inc.ID)
	}
}

func TestTimeline_GrowsByOnePerOperationWithStrictTimestamps(t *testing.T) {
	// Часы не двигаются, метки все равно строго возрастают
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f := newTestIncidentService(t, models.PolicyAny, seedIncidents(now)...)
	ctx := context.Background()
	f.events.EXPECT().Emit(gomock.Any(), gomock.Any()).AnyTimes()
	f.notifier.EXPECT().IncidentNotification(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	before, err := f.service.GetIncident(ctx, "INC-0003")
	require.NoError(t, err)

	ops := []func() error{
		func() error { _, err := f.service.UpdateStatus(ctx, "INC-0003", models.StatusEnRoute, ""); return err },
		func() error { _, err := f.service.AddTimelineEvent(ctx, "INC-0003", "Note", "Backup requested", ""); return err },
		func() error {
			_, err := f.service.AssignResponder(ctx, "INC-0003", "RESP-001", "Juan Santos", "Fire Truck 1")
			return err
		},
		func() error { _, err := f.service.UpdateStatus(ctx, "INC-0003", models.StatusOnScene, ""); return err },
		func() error { _, err := f.service.UpdateStatus(ctx, "INC-0003", models.StatusResolved, ""); return err },
	}
	for _, op := range ops {
		require.NoError(t, op())
	}

	after, err := f.service.GetIncident(ctx, "INC-0003")
	require.NoError(t, err)
	assert.Len(t, after.Timeline, len(before.Timeline)+len(ops))
	for i := 1; i < len(after.Timeline); i++ {
		assert.True(t, after.Timeline[i].Timestamp.After(after.Timeline[i-1].Timestamp), "entry %d", i)
		assert.Equal(t, fmt.Sprintf("%d", i+1), after.Timeline[i].ID)
	}
}

func TestAddTimelineEvent_KeepsStatus(t *testing.T) {
	f := newTestIncidentService(t, models.PolicyAny, seedIncidents(time.Now())...)
	ctx := context.Background()
	before, err := f.service.GetIncident(ctx, "INC-0001")
	require.NoError(t, err)

	f.events.EXPECT().Emit(models.EventIncidentUpdated, gomock.Any())

	inc, err := f.service.AddTimelineEvent(ctx, "INC-0001", "Caller Update", "Smoke visible from the road", "")

	require.NoError(t, err)
	assert.Equal(t, before.Status, inc.Status)
	assert.Equal(t, "Current User", inc.Timeline[len(inc.Timeline)-1].User)
}

func TestSelectedIncident_FollowsMutations(t *testing.T) {
	f := newTestIncidentService(t, models.PolicyAny, seedIncidents(time.Now())...)
	ctx := context.Background()
	f.events.EXPECT().Emit(gomock.Any(), gomock.Any()).AnyTimes()
	f.notifier.EXPECT().IncidentNotification(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	sel, err := f.service.SelectedIncident(ctx)
	require.NoError(t, err)
	assert.Nil(t, sel)

	_, err = f.service.SelectIncident(ctx, "INC-0004")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, "INC-0004", models.StatusOnScene, "")
	require.NoError(t, err)

	sel, err = f.service.SelectedIncident(ctx)
	require.NoError(t, err)
	require.NotNil(t, sel)
	assert.Equal(t, models.StatusOnScene, sel.Status)

	_, err = f.service.SelectIncident(ctx, "")
	require.NoError(t, err)
	sel, err = f.service.SelectedIncident(ctx)
	require.NoError(t, err)
	assert.Nil(t, sel)

	_, err = f.service.SelectIncident(ctx, "INC-4040")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestBarangays_SortedUnique(t *testing.T) {
	seed := seedIncidents(time.Now())
	f := newTestIncidentService(t, models.PolicyAny, seed...)

	got, err := f.service.Barangays(context.Background())

	require.NoError(t, err)
	assert.True(t, slices.IsSorted(got))
	assert.Equal(t, len(got), len(slices.Compact(slices.Clone(got))))
	for _, inc := range seed {
		assert.Contains(t, got, inc.Location.Barangay)
	}
}

func TestSeed_SkipsWhenPopulated(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	seed := seedIncidents(now)
	f := newTestIncidentService(t, models.PolicyAny)
	ctx := context.Background()

	require.NoError(t, f.service.Seed(ctx, seed))
	require.NoError(t, f.service.Seed(ctx, seed))

	list, err := f.service.ListIncidents(ctx, models.IncidentFilter{})
	require.NoError(t, err)
	require.Len(t, list, len(seed))
	for i := range seed {
		assert.Equal(t, seed[i].ID, list[i].ID)
	}
}

func TestListIncidents_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIncidentRepository(ctrl)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	svc := NewIncidentService(repo, logger, clockwork.NewFakeClock(), models.PolicyAny,
		mocks.NewMockEventPublisher(ctrl), mocks.NewMockIncidentNotifier(ctrl), mockdata.NewGenerator(rand.New(rand.NewPCG(1, 1))))

	repo.EXPECT().ListIncidents(gomock.Any()).Return(nil, errors.New("db down"))

	_, err := svc.ListIncidents(context.Background(), models.IncidentFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service: could not list incidents")
}

func TestAddIncident_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIncidentRepository(ctrl)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	svc := NewIncidentService(repo, logger, clockwork.NewFakeClock(), models.PolicyAny,
		mocks.NewMockEventPublisher(ctrl), mocks.NewMockIncidentNotifier(ctrl), mockdata.NewGenerator(rand.New(rand.NewPCG(1, 1))))

	repo.EXPECT().NextSequence(gomock.Any()).Return(1, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))

	_, err := svc.AddIncident(context.Background(), models.IncidentDraft{
		Type:     models.IncidentTypeRescue,
		Priority: models.PriorityMedium,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}
