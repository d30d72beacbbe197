package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDisplayer struct {
	shown []models.Notification
	err   error
}

func (d *recordingDisplayer) Display(_ context.Context, n models.Notification) error {
	d.shown = append(d.shown, n)
	return d.err
}

func newTestRegistry(t *testing.T, store storage.KeyValueStore) (*Registry, *bytes.Buffer) {
	t.Helper()
	logger := logrus.New()
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	return NewRegistry(context.Background(), store, clockwork.NewFakeClock(), logger), buf
}

func TestRegistry_ShowPrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r, _ := newTestRegistry(t, store)

	first := r.Info(ctx, "First", "one", Options{})
	second := r.Warning(ctx, "Second", "two", Options{})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID)
	assert.Equal(t, first, all[1].ID)
	assert.Equal(t, 2, r.UnreadCount())

	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Contains(t, raw, second)
}

func TestRegistry_TransientIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r, _ := newTestRegistry(t, store)

	r.Info(ctx, "Ephemeral", "gone on restart", Options{Transient: true})

	_, err := store.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Len(t, r.All(), 1)
}

func TestRegistry_CapsAtFifty(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t, storage.NewMemoryStore())

	var last string
	for i := 0; i < MaxNotifications+10; i++ {
		last = r.Info(ctx, fmt.Sprintf("n%d", i), "", Options{})
	}

	all := r.All()
	assert.Len(t, all, MaxNotifications)
	assert.Equal(t, last, all[0].ID)
	assert.Equal(t, "n10", all[len(all)-1].Title)
}

func TestRegistry_ActionsSurviveReload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r, _ := newTestRegistry(t, store)

	r.IncidentNotification(ctx, "INC-0001", models.StatusResolved, "Incident resolved")

	reloaded, _ := newTestRegistry(t, store)
	all := reloaded.All()
	require.Len(t, all, 1)
	assert.Equal(t, models.NotificationSuccess, all[0].Type)
	assert.Equal(t, "Incident INC-0001", all[0].Title)
	require.Len(t, all[0].Actions, 1)
	assert.Equal(t, models.NotificationAction{
		Label:   "View Details",
		Variant: "primary",
		Command: "incident:view",
		Params:  map[string]string{"incidentId": "INC-0001"},
	}, all[0].Actions[0])
}

func TestRegistry_CorruptStorageStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, StorageKey, "{not json"))

	r, logs := newTestRegistry(t, store)

	assert.Empty(t, r.All())
	assert.Contains(t, logs.String(), "Failed to load stored notifications")
	_, err := store.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistry_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t, storage.NewMemoryStore())
	id := r.Info(ctx, "t", "m", Options{})

	var got []models.Notification
	r.Subscribe(func(n models.Notification) { got = append(got, n) })

	assert.True(t, r.MarkAsRead(ctx, id))
	assert.False(t, r.MarkAsRead(ctx, id))
	assert.False(t, r.MarkAsRead(ctx, "missing"))

	require.Len(t, got, 1)
	assert.True(t, got[0].Read)
	assert.Equal(t, 0, r.UnreadCount())
	assert.Empty(t, r.Unread())
}

func TestRegistry_MarkAllAsRead(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t, storage.NewMemoryStore())
	r.Info(ctx, "a", "", Options{})
	r.Info(ctx, "b", "", Options{})

	calls := 0
	r.Subscribe(func(models.Notification) { calls++ })

	assert.Equal(t, 2, r.MarkAllAsRead(ctx))
	assert.Equal(t, 2, calls)

	assert.Equal(t, 0, r.MarkAllAsRead(ctx))
	assert.Equal(t, 2, calls)
}

func TestRegistry_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r, _ := newTestRegistry(t, store)
	id := r.Info(ctx, "a", "", Options{})
	r.Info(ctx, "b", "", Options{})

	assert.True(t, r.Remove(ctx, id))
	assert.False(t, r.Remove(ctx, id))
	assert.Len(t, r.All(), 1)

	r.Clear(ctx)
	assert.Empty(t, r.All())
	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestRegistry_PanickingSubscriberIsIsolated(t *testing.T) {
	ctx := context.Background()
	r, logs := newTestRegistry(t, storage.NewMemoryStore())

	delivered := false
	r.Subscribe(func(models.Notification) { panic("boom") })
	unsub := r.Subscribe(func(models.Notification) { delivered = true })

	require.NotPanics(t, func() { r.Info(ctx, "t", "m", Options{}) })
	assert.True(t, delivered)
	assert.Contains(t, logs.String(), "Error in notification callback")

	delivered = false
	unsub()
	r.Info(ctx, "t", "m", Options{})
	assert.False(t, delivered)
}

func TestRegistry_Display(t *testing.T) {
	ctx := context.Background()
	r, logs := newTestRegistry(t, storage.NewMemoryStore())
	assert.Equal(t, PermissionDenied, r.Permission())

	d := &recordingDisplayer{err: errors.New("socket closed")}
	r.SetDisplayer(d)
	assert.Equal(t, PermissionGranted, r.Permission())

	r.Info(ctx, "shown", "", Options{})
	r.Info(ctx, "hidden", "", Options{NoDisplay: true})
	r.Error(ctx, "forced", "", Options{NoDisplay: true})

	require.Len(t, d.shown, 2)
	assert.Equal(t, "shown", d.shown[0].Title)
	assert.Equal(t, "forced", d.shown[1].Title)
	assert.Contains(t, logs.String(), "Failed to display notification")
}

func TestRegistry_ResponderNotification(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t, storage.NewMemoryStore())

	r.ResponderNotification(ctx, "Maria Cruz", models.ResponderBusy)
	r.ResponderNotification(ctx, "Juan Santos", models.ResponderAvailable)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, models.NotificationSuccess, all[0].Type)
	assert.Equal(t, "Juan Santos is now available", all[0].Message)
	assert.Equal(t, models.NotificationWarning, all[1].Type)
	assert.Equal(t, "Responder Update", all[1].Title)
}
