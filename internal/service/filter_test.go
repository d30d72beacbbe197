package service

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shenikar/resq_dispatch/internal/mockdata"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterFixture() []*models.Incident {
	day := func(d, h int) time.Time { return time.Date(2024, 5, d, h, 0, 0, 0, time.UTC) }
	mk := func(id string, status models.IncidentStatus, typ models.IncidentType, barangay, reporter string, created time.Time) *models.Incident {
		return &models.Incident{
			ID:          id,
			Title:       string(typ) + " call",
			Description: "details for " + id,
			Type:        typ,
			Status:      status,
			Location:    models.Location{Address: "1 Rizal St, " + barangay, Barangay: barangay},
			Reporter:    models.Reporter{Name: reporter},
			CreatedAt:   created,
		}
	}
	return []*models.Incident{
		mk("INC-0006", models.StatusNew, models.IncidentTypeFire, "Centro 1", "Ana Cruz", day(6, 23)),
		mk("INC-0005", models.StatusAssigned, models.IncidentTypeFire, "Centro 1", "Ben Lim", day(5, 12)),
		mk("INC-0004", models.StatusNew, models.IncidentTypeMedical, "Ugac Norte", "Carla Dy", day(4, 8)),
		mk("INC-0003", models.StatusNew, models.IncidentTypeMedical, "Centro 1", "Dan Uy", day(3, 0)),
		mk("INC-0002", models.StatusResolved, models.IncidentTypePolice, "Caggay", "Eva Go", day(2, 15)),
		mk("INC-0001", models.StatusNew, models.IncidentTypeTraffic, "Centro 1", "Fe Tan", day(1, 9)),
	}
}

func ids(incidents []*models.Incident) []string {
	out := make([]string, len(incidents))
	for i, inc := range incidents {
		out[i] = inc.ID
	}
	return out
}

func TestFilterIncidents_StatusAndBarangayKeepsSourceOrder(t *testing.T) {
	got := FilterIncidents(filterFixture(), models.IncidentFilter{Status: "new", Barangay: "Centro 1"})

	assert.Equal(t, []string{"INC-0006", "INC-0003", "INC-0001"}, ids(got))
	for _, inc := range got {
		assert.Equal(t, models.StatusNew, inc.Status)
		assert.Equal(t, "Centro 1", inc.Location.Barangay)
	}
}

func TestFilterIncidents_AllMeansNoNarrowing(t *testing.T) {
	src := filterFixture()
	f := models.IncidentFilter{Status: models.FilterAll, Type: models.FilterAll, Barangay: models.FilterAll}

	assert.False(t, f.Active())
	assert.Equal(t, ids(src), ids(FilterIncidents(src, f)))
}

func TestFilterIncidents_DateRangeIsInclusiveByDay(t *testing.T) {
	from := time.Date(2024, 5, 3, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	got := FilterIncidents(filterFixture(), models.IncidentFilter{DateFrom: &from, DateTo: &to})

	assert.Equal(t, []string{"INC-0006", "INC-0005", "INC-0004", "INC-0003"}, ids(got))
}

func TestFilterIncidents_SearchIsCaseInsensitive(t *testing.T) {
	src := filterFixture()

	assert.Equal(t, []string{"INC-0004"}, ids(FilterIncidents(src, models.IncidentFilter{Search: "CARLA"})))
	assert.Equal(t, []string{"INC-0002"}, ids(FilterIncidents(src, models.IncidentFilter{Search: "caggay"})))
	assert.Equal(t, []string{"INC-0005"}, ids(FilterIncidents(src, models.IncidentFilter{Search: "details for inc-0005"})))
	assert.Empty(t, FilterIncidents(src, models.IncidentFilter{Search: "no such thing"}))
}

func TestFilterIncidents_Idempotent(t *testing.T) {
	src := mockdata.NewGenerator(rand.New(rand.NewPCG(11, 12))).Incidents(40, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC))
	from := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)

	filters := []models.IncidentFilter{
		{Status: "new"},
		{Type: "medical", Search: "a"},
		{Barangay: src[0].Location.Barangay},
		{DateFrom: &from, Status: "resolved"},
		{},
	}
	for _, f := range filters {
		once := FilterIncidents(src, f)
		twice := FilterIncidents(once, f)
		require.Equal(t, ids(once), ids(twice))
	}
}

func TestFilterIncidents_DoesNotAliasInput(t *testing.T) {
	src := filterFixture()
	got := FilterIncidents(src, models.IncidentFilter{})
	got[0] = nil
	assert.NotNil(t, src[0])
}
