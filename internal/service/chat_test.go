package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestChatService(t *testing.T) (ChatService, *mocks.MockMessageSender, *clockwork.FakeClock) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockMessageSender(ctrl)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC))
	svc := NewChatService(sender, clock, 2*time.Second, logger)
	t.Cleanup(svc.Close)
	return svc, sender, clock
}

func TestChat_SeededMessages(t *testing.T) {
	svc, _, _ := newTestChatService(t)

	msgs := svc.Messages()

	require.Len(t, msgs, 2)
	assert.Equal(t, "Dispatcher", msgs[0].Sender)
	assert.Equal(t, "Responder Unit A", msgs[1].Sender)
	assert.Equal(t, 10, msgs[0].SentAt.Hour())
}

func TestChat_SendAndAutoReply(t *testing.T) {
	// Подготовка
	svc, sender, clock := newTestChatService(t)

	// Ожидания
	sender.EXPECT().SendMessage(ChatChannel, "Need backup at Centro 1").Times(1)

	// Действие
	msg, err := svc.Send("", "Need backup at Centro 1")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, 3, msg.ID)
	assert.Equal(t, DefaultChatSender, msg.Sender)
	assert.Len(t, svc.Messages(), 3)

	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)

	assert.Eventually(t, func() bool { return len(svc.Messages()) == 4 }, time.Second, 5*time.Millisecond)
	reply := svc.Messages()[3]
	assert.Equal(t, "Responder Unit A", reply.Sender)
	assert.Equal(t, "Message received.", reply.Text)
	assert.Equal(t, 4, reply.ID)
}

func TestChat_RejectsBlankText(t *testing.T) {
	svc, _, _ := newTestChatService(t)

	_, err := svc.Send("You", "   ")

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, svc.Messages(), 2)
}

func TestChat_CloseCancelsPendingReply(t *testing.T) {
	svc, sender, clock := newTestChatService(t)
	sender.EXPECT().SendMessage(ChatChannel, "hello")

	_, err := svc.Send("You", "hello")
	require.NoError(t, err)
	clock.BlockUntil(1)

	svc.Close()
	clock.Advance(5 * time.Second)

	assert.Len(t, svc.Messages(), 3)
}
