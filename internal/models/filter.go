package models

import (
	"time"
)

// FilterAll значение "без фильтра", которое присылает консоль
const FilterAll = "all"

// IncidentFilter - условия объединяются по И, каждое заданное поле сужает выборку
type IncidentFilter struct {
	Status   string
	Type     string
	Barangay string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

func isSet(v string) bool { return v != "" && v != FilterAll }

func (f IncidentFilter) HasStatus() bool   { return isSet(f.Status) }
func (f IncidentFilter) HasType() bool     { return isSet(f.Type) }
func (f IncidentFilter) HasBarangay() bool { return isSet(f.Barangay) }

// Active сообщает, задано ли хотя бы одно условие
func (f IncidentFilter) Active() bool {
	return f.HasStatus() || f.HasType() || f.HasBarangay() ||
		f.Search != "" || f.DateFrom != nil || f.DateTo != nil
}
