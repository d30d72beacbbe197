package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrInvalidStatus    = errors.New("invalid incident status")
	ErrInvalidType      = errors.New("invalid incident type")
	ErrInvalidPriority  = errors.New("invalid incident priority")
)

type IncidentType string

const (
	IncidentTypeFire    IncidentType = "fire"
	IncidentTypeMedical IncidentType = "medical"
	IncidentTypePolice  IncidentType = "police"
	IncidentTypeRescue  IncidentType = "rescue"
	IncidentTypeTraffic IncidentType = "traffic"
	IncidentTypeOther   IncidentType = "other"
)

// IncidentTypes все типы в порядке отображения
var IncidentTypes = []IncidentType{
	IncidentTypeFire,
	IncidentTypeMedical,
	IncidentTypePolice,
	IncidentTypeRescue,
	IncidentTypeTraffic,
	IncidentTypeOther,
}

func ParseIncidentType(s string) (IncidentType, error) {
	for _, t := range IncidentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

type IncidentStatus string

const (
	StatusNew      IncidentStatus = "new"
	StatusAssigned IncidentStatus = "assigned"
	StatusEnRoute  IncidentStatus = "en-route"
	StatusOnScene  IncidentStatus = "on-scene"
	StatusResolved IncidentStatus = "resolved"
)

// IncidentStatuses упорядочены по жизненному циклу
var IncidentStatuses = []IncidentStatus{
	StatusNew,
	StatusAssigned,
	StatusEnRoute,
	StatusOnScene,
	StatusResolved,
}

func ParseIncidentStatus(s string) (IncidentStatus, error) {
	for _, st := range IncidentStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Rank возвращает позицию статуса в жизненном цикле или -1 для неизвестного
func (s IncidentStatus) Rank() int {
	for i, st := range IncidentStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

func (s IncidentStatus) Valid() bool { return s.Rank() >= 0 }

// Label делает первую букву заглавной: "en-route" -> "En-route"
func (s IncidentStatus) Label() string {
	if s == "" {
		return ""
	}
	str := string(s)
	return strings.ToUpper(str[:1]) + str[1:]
}

type IncidentPriority string

const (
	PriorityLow      IncidentPriority = "low"
	PriorityMedium   IncidentPriority = "medium"
	PriorityHigh     IncidentPriority = "high"
	PriorityCritical IncidentPriority = "critical"
)

var IncidentPriorities = []IncidentPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

func ParseIncidentPriority(s string) (IncidentPriority, error) {
	for _, p := range IncidentPriorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Address     string      `json:"address"`
	Barangay    string      `json:"barangay"`
	Coordinates Coordinates `json:"coordinates"`
}

type Reporter struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type AssignedResponder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// TimelineEntry запись в хронологии инцидента
type TimelineEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Event       string    `json:"event"`
	Description string    `json:"description"`
	User        string    `json:"user"`
}

type Incident struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Type              IncidentType       `json:"type"`
	Status            IncidentStatus     `json:"status"`
	Priority          IncidentPriority   `json:"priority"`
	Location          Location           `json:"location"`
	Reporter          Reporter           `json:"reporter"`
	AssignedResponder *AssignedResponder `json:"assignedResponder,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	Timeline          []TimelineEntry    `json:"timeline"`
}

// Clone возвращает глубокую копию: хронология и назначение не разделяются с хранилищем
func (i *Incident) Clone() *Incident {
	if i == nil {
		return nil
	}
	out := *i
	if i.AssignedResponder != nil {
		ar := *i.AssignedResponder
		out.AssignedResponder = &ar
	}
	out.Timeline = make([]TimelineEntry, len(i.Timeline))
	copy(out.Timeline, i.Timeline)
	return &out
}

// AppendTimeline добавляет запись в хронологию. Метки времени строго возрастают:
// если at не позже последней записи, берется последняя метка плюс микросекунда.
func (i *Incident) AppendTimeline(at time.Time, event, description, user string) TimelineEntry {
	if n := len(i.Timeline); n > 0 {
		last := i.Timeline[n-1].Timestamp
		if !at.After(last) {
			at = last.Add(time.Microsecond)
		}
	}
	entry := TimelineEntry{
		ID:          fmt.Sprintf("%d", len(i.Timeline)+1),
		Timestamp:   at,
		Event:       event,
		Description: description,
		User:        user,
	}
	i.Timeline = append(i.Timeline, entry)
	i.UpdatedAt = at
	return entry
}

// IncidentDraft поля формы приема вызова
type IncidentDraft struct {
	Type        IncidentType
	Priority    IncidentPriority
	Barangay    string
	Street      string
	CallerName  string
	CallerPhone string
	CallerEmail string
	Notes       string
	Coordinates *Coordinates
}
