package models

import (
	"time"
)

type ChatMessage struct {
	ID     int       `json:"id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}
