package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrResponderNotFound      = errors.New("responder not found")
	ErrInvalidResponderStatus = errors.New("invalid responder status")
)

type ResponderStatus string

const (
	ResponderAvailable ResponderStatus = "available"
	ResponderBusy      ResponderStatus = "busy"
	ResponderOffline   ResponderStatus = "offline"
)

var ResponderStatuses = []ResponderStatus{
	ResponderAvailable,
	ResponderBusy,
	ResponderOffline,
}

func ParseResponderStatus(s string) (ResponderStatus, error) {
	for _, st := range ResponderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidResponderStatus, s)
}

type Responder struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Status   ResponderStatus `json:"status"`
	Location Coordinates     `json:"location"`
	LastPing time.Time       `json:"lastPing"`
	// Расстояние от центра города в км, пересчитывается при обновлении позиции
	Distance float64 `json:"distance"`
}

func (s ResponderStatus) Valid() bool {
	_, err := ParseResponderStatus(string(s))
	return err == nil
}
