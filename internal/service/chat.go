package service

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	ChatChannel       = "dispatch"
	DefaultChatSender = "You"
	autoReplySender   = "Responder Unit A"
	autoReplyText     = "Message received."
)

var ErrEmptyMessage = errors.New("message is empty")

// MessageSender отправляет сообщение во внешний канал
type MessageSender interface {
	SendMessage(channel, message string)
}

type ChatService interface {
	Messages() []models.ChatMessage
	Send(sender, text string) (models.ChatMessage, error)
	Close()
}

type chatService struct {
	sender     MessageSender
	clock      clockwork.Clock
	replyDelay time.Duration
	logger     *logrus.Logger

	mu       sync.Mutex
	messages []models.ChatMessage
	done     chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewChatService(sender MessageSender, clock clockwork.Clock, replyDelay time.Duration, logger *logrus.Logger) ChatService {
	now := clock.Now()
	y, m, d := now.Date()
	at := func(h, min int) time.Time { return time.Date(y, m, d, h, min, 0, 0, now.Location()) }

	return &chatService{
		sender:     sender,
		clock:      clock,
		replyDelay: replyDelay,
		logger:     logger,
		done:       make(chan struct{}),
		messages: []models.ChatMessage{
			{ID: 1, Sender: "Dispatcher", Text: "Unit A, please respond to a medical emergency at Brgy. 7.", SentAt: at(10, 30)},
			{ID: 2, Sender: autoReplySender, Text: "Copy that. We are en route. ETA 5 minutes.", SentAt: at(10, 31)},
		},
	}
}

func (s *chatService) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Send добавляет сообщение и через replyDelay - автоответ экипажа
func (s *chatService) Send(sender, text string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if sender == "" {
		sender = DefaultChatSender
	}

	s.mu.Lock()
	msg := s.appendLocked(sender, text)
	closed := s.closed
	if !closed {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	s.sender.SendMessage(ChatChannel, text)
	s.logger.WithFields(logrus.Fields{
		"service": "chat",
		"method":  "Send",
		"sender":  sender,
	}).Debug("Chat message sent")

	if !closed {
		go s.autoReply()
	}
	return msg, nil
}

func (s *chatService) autoReply() {
	defer s.wg.Done()
	timer := s.clock.NewTimer(s.replyDelay)
	defer timer.Stop()

	select {
	case <-s.done:
		return
	case <-timer.Chan():
	}

	s.mu.Lock()
	s.appendLocked(autoReplySender, autoReplyText)
	s.mu.Unlock()
}

func (s *chatService) appendLocked(sender, text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:     len(s.messages) + 1,
		Sender: sender,
		Text:   text,
		SentAt: s.clock.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Close отменяет ожидающие автоответы
func (s *chatService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()
	s.wg.Wait()
}
