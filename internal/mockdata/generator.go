// Package mockdata генерирует стартовый набор инцидентов и экипажей
package mockdata

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/shenikar/resq_dispatch/internal/geo"
	"github.com/shenikar/resq_dispatch/internal/models"
)

const (
	// SeedCount число инцидентов при старте
	SeedCount = 12

	DefaultReportDescription = "Emergency call received and incident created"
)

var titles = map[models.IncidentType][]string{
	models.IncidentTypeFire:    {"House Fire", "Grass Fire", "Vehicle Fire", "Commercial Fire"},
	models.IncidentTypeMedical: {"Medical Emergency", "Cardiac Arrest", "Accident Victim", "Respiratory Distress"},
	models.IncidentTypePolice:  {"Theft Report", "Domestic Disturbance", "Traffic Violation", "Public Disturbance"},
	models.IncidentTypeRescue:  {"Water Rescue", "Building Collapse", "Animal Rescue", "High Angle Rescue"},
	models.IncidentTypeTraffic: {"Vehicle Accident", "Road Obstruction", "Traffic Jam", "Hit and Run"},
	models.IncidentTypeOther:   {"Power Outage", "Gas Leak", "Noise Complaint", "Welfare Check"},
}

var descriptions = map[models.IncidentType]string{
	models.IncidentTypeFire:    "Fire reported with visible smoke and flames. Multiple units dispatched.",
	models.IncidentTypeMedical: "Medical emergency requiring immediate attention. Ambulance en route.",
	models.IncidentTypePolice:  "Police assistance requested. Officers responding to scene.",
	models.IncidentTypeRescue:  "Rescue operation required. Specialized equipment may be needed.",
	models.IncidentTypeTraffic: "Traffic incident reported. Emergency responders dispatched.",
	models.IncidentTypeOther:   "General emergency requiring immediate attention and response.",
}

var units = map[models.IncidentType][]string{
	models.IncidentTypeFire:    {"Fire Truck 1", "Fire Truck 2", "Ladder 1", "Rescue 1"},
	models.IncidentTypeMedical: {"Ambulance 1", "Ambulance 2", "Paramedic Unit 1"},
	models.IncidentTypePolice:  {"Patrol Car 1", "Patrol Car 2", "Mobile Unit 1"},
	models.IncidentTypeRescue:  {"Rescue Unit 1", "Heavy Rescue 1", "Water Rescue 1"},
	models.IncidentTypeTraffic: {"Traffic Unit 1", "Patrol Car 3", "Motorcycle Unit 1"},
	models.IncidentTypeOther:   {"Utility Unit 1", "Support Vehicle 1", "Command Unit 1"},
}

var (
	firstNames = []string{"Juan", "Maria", "Jose", "Ana", "Pedro", "Carmen", "Luis", "Rosa", "Carlos", "Elena"}
	lastNames  = []string{"Santos", "Reyes", "Cruz", "Bautista", "Gonzales", "Garcia", "Martinez", "Lopez", "Hernandez", "Perez"}
	streets    = []string{"Rizal St", "Luna St", "Bonifacio Ave", "Mabini St", "Del Pilar St", "Quezon Ave", "Burgos St", "Aguinaldo St"}
)

// Generator не потокобезопасен
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}

func (g *Generator) Title(t models.IncidentType) string {
	opts, ok := titles[t]
	if !ok {
		opts = titles[models.IncidentTypeOther]
	}
	return pick(g.rng, opts)
}

func Description(t models.IncidentType) string {
	if d, ok := descriptions[t]; ok {
		return d
	}
	return descriptions[models.IncidentTypeOther]
}

func (g *Generator) Name() string {
	return pick(g.rng, firstNames) + " " + pick(g.rng, lastNames)
}

func (g *Generator) Street() string { return pick(g.rng, streets) }

func (g *Generator) Unit(t models.IncidentType) string {
	opts, ok := units[t]
	if !ok {
		opts = units[models.IncidentTypeOther]
	}
	return pick(g.rng, opts)
}

// Coordinates возвращает точку примерно в пяти км от центра
func (g *Generator) Coordinates() models.Coordinates {
	return geo.Jitter(g.rng, 0.1)
}

func IncidentID(seq int) string { return fmt.Sprintf("INC-%04d", seq) }

func ResponderID(seq int) string { return fmt.Sprintf("RESP-%03d", seq) }

// seedStatus воспроизводит фиксированное распределение статусов
func seedStatus(i int) models.IncidentStatus {
	switch {
	case i <= 3:
		return models.StatusNew
	case i <= 6:
		return models.StatusAssigned
	case i <= 9:
		return models.StatusEnRoute
	default:
		return models.StatusResolved
	}
}

// Incidents возвращает n инцидентов за неделю до now, новые первыми
func (g *Generator) Incidents(n int, now time.Time) []*models.Incident {
	out := make([]*models.Incident, 0, n)
	for i := 1; i <= n; i++ {
		barangay := pick(g.rng, geo.Barangays)
		typ := pick(g.rng, models.IncidentTypes)
		status := seedStatus(i)
		createdAt := now.Add(-time.Duration(g.rng.Float64() * float64(7*24*time.Hour)))

		inc := &models.Incident{
			ID:          IncidentID(i),
			Title:       g.Title(typ),
			Description: Description(typ),
			Type:        typ,
			Status:      status,
			Priority:    pick(g.rng, models.IncidentPriorities),
			Location: models.Location{
				Address:     fmt.Sprintf("%d %s, %s", g.rng.IntN(999)+1, g.Street(), barangay),
				Barangay:    barangay,
				Coordinates: g.Coordinates(),
			},
			Reporter: models.Reporter{
				Name:  g.Name(),
				Phone: fmt.Sprintf("+63%d", g.rng.IntN(900000000)+100000000),
			},
			CreatedAt: createdAt,
		}
		if g.rng.Float64() > 0.5 {
			inc.Reporter.Email = fmt.Sprintf("reporter%d@email.com", i)
		}
		if status != models.StatusNew {
			inc.AssignedResponder = &models.AssignedResponder{
				ID:   ResponderID(g.rng.IntN(20) + 1),
				Name: g.Name(),
				Unit: g.Unit(typ),
			}
		}
		inc.Timeline = Timeline(status, createdAt)
		inc.UpdatedAt = inc.Timeline[len(inc.Timeline)-1].Timestamp
		out = append(out, inc)
	}

	slices.SortFunc(out, func(a, b *models.Incident) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

type timelineStep struct {
	offset      time.Duration
	event       string
	description string
	user        string
	reached     models.IncidentStatus
}

var lifecycle = []timelineStep{
	{0, "Incident Reported", DefaultReportDescription, "System", models.StatusNew},
	{5 * time.Minute, "Responder Assigned", "Emergency responder assigned to incident", "Dispatcher", models.StatusAssigned},
	{10 * time.Minute, "En Route", "Responder is en route to the scene", "Responder", models.StatusEnRoute},
	{20 * time.Minute, "On Scene", "Responder has arrived at the scene", "Responder", models.StatusOnScene},
	{45 * time.Minute, "Resolved", "Incident has been resolved successfully", "Responder", models.StatusResolved},
}

// Timeline строит хронологию, которую накопил бы инцидент в статусе status
func Timeline(status models.IncidentStatus, createdAt time.Time) []models.TimelineEntry {
	inc := &models.Incident{}
	for _, step := range lifecycle {
		inc.AppendTimeline(createdAt.Add(step.offset), step.event, step.description, step.user)
		if step.reached == status {
			break
		}
	}
	return inc.Timeline
}

// Responders возвращает три стартовых экипажа
func Responders(now time.Time) []*models.Responder {
	center := geo.CityCenter()
	rs := []*models.Responder{
		{
			ID:       ResponderID(1),
			Name:     "Juan Santos",
			Unit:     "Fire Truck 1",
			Status:   models.ResponderAvailable,
			Location: models.Coordinates{Lat: 17.6132, Lng: 121.7270},
			LastPing: now.Add(-2 * time.Minute),
		},
		{
			ID:       ResponderID(2),
			Name:     "Maria Cruz",
			Unit:     "Ambulance 1",
			Status:   models.ResponderBusy,
			Location: models.Coordinates{Lat: 17.6200, Lng: 121.7300},
			LastPing: now.Add(-1 * time.Minute),
		},
		{
			ID:       ResponderID(3),
			Name:     "Pedro Reyes",
			Unit:     "Patrol Car 1",
			Status:   models.ResponderAvailable,
			Location: models.Coordinates{Lat: 17.6100, Lng: 121.7250},
			LastPing: now.Add(-30 * time.Second),
		},
	}
	for _, r := range rs {
		r.Distance = geo.Distance(center, r.Location)
	}
	return rs
}
