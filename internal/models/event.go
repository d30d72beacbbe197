package models

import (
	"time"
)

type EventType string

const (
	EventIncidentCreated         EventType = "incident:created"
	EventIncidentUpdated         EventType = "incident:updated"
	EventIncidentStatusChanged   EventType = "incident:status_changed"
	EventResponderLocationUpdate EventType = "responder:location_updated"
	EventResponderStatusChanged  EventType = "responder:status_changed"
)

var EventTypes = []EventType{
	EventIncidentCreated,
	EventIncidentUpdated,
	EventIncidentStatusChanged,
	EventResponderLocationUpdate,
	EventResponderStatusChanged,
}

// Event конверт, который получают подписчики шины
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type IncidentStatusChange struct {
	IncidentID string         `json:"incidentId"`
	OldStatus  IncidentStatus `json:"oldStatus"`
	NewStatus  IncidentStatus `json:"newStatus"`
	UpdatedBy  string         `json:"updatedBy"`
	Timestamp  time.Time      `json:"timestamp"`
}

type ResponderLocationUpdate struct {
	ResponderID string      `json:"responderId"`
	Location    Coordinates `json:"location"`
	Timestamp   time.Time   `json:"timestamp"`
}

type ResponderStatusChange struct {
	ResponderID string          `json:"responderId"`
	OldStatus   ResponderStatus `json:"oldStatus"`
	NewStatus   ResponderStatus `json:"newStatus"`
	Timestamp   time.Time       `json:"timestamp"`
}
