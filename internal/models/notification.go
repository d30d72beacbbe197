package models

import (
	"time"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// NotificationAction сериализуемое описание команды. Клиент сам решает,
// что делать с Command (например, "incident:view") и Params.
type NotificationAction struct {
	Label   string            `json:"label"`
	Variant string            `json:"variant,omitempty"`
	Command string            `json:"command"`
	Params  map[string]string `json:"params,omitempty"`
}

type Notification struct {
	ID        string               `json:"id"`
	Type      NotificationType     `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
	Read      bool                 `json:"read"`
	Actions   []NotificationAction `json:"actions,omitempty"`
}

func (n Notification) Clone() Notification {
	if n.Actions == nil {
		return n
	}
	actions := make([]NotificationAction, len(n.Actions))
	for i, a := range n.Actions {
		actions[i] = a
		if a.Params != nil {
			params := make(map[string]string, len(a.Params))
			for k, v := range a.Params {
				params[k] = v
			}
			actions[i].Params = params
		}
	}
	n.Actions = actions
	return n
}
