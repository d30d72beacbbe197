package service

import (
	"slices"
	"strings"
	"time"

	"github.com/shenikar/resq_dispatch/internal/models"
)

// FilterIncidents последовательно сужает список: статус, тип, барангай,
// даты и поиск по тексту. Исходный порядок сохраняется.
func FilterIncidents(incidents []*models.Incident, f models.IncidentFilter) []*models.Incident {
	out := slices.Clone(incidents)

	if f.HasStatus() {
		out = keep(out, func(inc *models.Incident) bool { return string(inc.Status) == f.Status })
	}
	if f.HasType() {
		out = keep(out, func(inc *models.Incident) bool { return string(inc.Type) == f.Type })
	}
	if f.HasBarangay() {
		out = keep(out, func(inc *models.Incident) bool { return inc.Location.Barangay == f.Barangay })
	}
	if f.DateFrom != nil {
		from := startOfDay(*f.DateFrom)
		out = keep(out, func(inc *models.Incident) bool { return !inc.CreatedAt.Before(from) })
	}
	if f.DateTo != nil {
		to := startOfDay(*f.DateTo).AddDate(0, 0, 1).Add(-time.Nanosecond)
		out = keep(out, func(inc *models.Incident) bool { return !inc.CreatedAt.After(to) })
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		out = keep(out, func(inc *models.Incident) bool { return matches(inc, q) })
	}
	return out
}

func keep(in []*models.Incident, pred func(*models.Incident) bool) []*models.Incident {
	out := make([]*models.Incident, 0, len(in))
	for _, inc := range in {
		if pred(inc) {
			out = append(out, inc)
		}
	}
	return out
}

func matches(inc *models.Incident, q string) bool {
	for _, field := range []string{
		inc.Title,
		inc.Description,
		inc.Location.Address,
		inc.Location.Barangay,
		inc.Reporter.Name,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
