package models

import (
	"fmt"
	"slices"
)

// TransitionPolicy определяет допустимые переходы между статусами
type TransitionPolicy string

const (
	// PolicyAny разрешает любой переход
	PolicyAny TransitionPolicy = "any"
	// PolicyForward разрешает только движение вперед по жизненному циклу
	PolicyForward TransitionPolicy = "forward"
)

var forwardTransitions = map[IncidentStatus][]IncidentStatus{
	StatusNew:      {StatusAssigned, StatusEnRoute, StatusOnScene, StatusResolved},
	StatusAssigned: {StatusEnRoute, StatusOnScene, StatusResolved},
	StatusEnRoute:  {StatusOnScene, StatusResolved},
	StatusOnScene:  {StatusResolved},
	StatusResolved: {},
}

func ParseTransitionPolicy(s string) (TransitionPolicy, error) {
	switch TransitionPolicy(s) {
	case PolicyAny, "":
		return PolicyAny, nil
	case PolicyForward:
		return PolicyForward, nil
	}
	return "", fmt.Errorf("unknown status policy %q", s)
}

// Allows сообщает, можно ли перевести инцидент из from в to
func (p TransitionPolicy) Allows(from, to IncidentStatus) bool {
	if !to.Valid() {
		return false
	}
	if p != PolicyForward {
		return true
	}
	return slices.Contains(forwardTransitions[from], to)
}

// AllowsAssignment сообщает, можно ли назначить экипаж. Назначение ставит статус
// assigned, поэтому при PolicyForward подходят только new и assigned.
func (p TransitionPolicy) AllowsAssignment(from IncidentStatus) bool {
	if p != PolicyForward {
		return true
	}
	return from == StatusNew || from == StatusAssigned
}
