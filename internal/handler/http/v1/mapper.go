package v1

import (
	"time"

	"github.com/shenikar/resq_dispatch/internal/models"
)

const dateLayout = "2006-01-02"

// DTOToIncidentDraft преобразует форму регистрации вызова в черновик инцидента
func DTOToIncidentDraft(dto CreateIncidentRequest) models.IncidentDraft {
	draft := models.IncidentDraft{
		Type:        models.IncidentType(dto.Type),
		Priority:    models.IncidentPriority(dto.Priority),
		Barangay:    dto.Barangay,
		Street:      dto.Street,
		CallerName:  dto.CallerName,
		CallerPhone: dto.CallerPhone,
		CallerEmail: dto.CallerEmail,
		Notes:       dto.Notes,
	}
	if dto.Coordinates != nil {
		draft.Coordinates = &models.Coordinates{Lat: dto.Coordinates.Lat, Lng: dto.Coordinates.Lng}
	}
	return draft
}

// QueryToIncidentFilter преобразует параметры запроса в фильтр.
// Даты уже проверены валидатором.
func QueryToIncidentFilter(q ListIncidentsQuery) models.IncidentFilter {
	return models.IncidentFilter{
		Status:   q.Status,
		Type:     q.Type,
		Barangay: q.Barangay,
		Search:   q.Search,
		DateFrom: parseDate(q.DateFrom),
		DateTo:   parseDate(q.DateTo),
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:                model.ID,
		Title:             model.Title,
		Description:       model.Description,
		Type:              model.Type,
		Status:            model.Status,
		StatusLabel:       model.Status.Label(),
		Priority:          model.Priority,
		Location:          model.Location,
		Reporter:          model.Reporter,
		AssignedResponder: model.AssignedResponder,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
		Timeline:          model.Timeline,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(incidents []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, model := range incidents {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

func ModelToSessionResponse(session *models.Session) *SessionResponse {
	return &SessionResponse{Token: session.Token, User: session.User}
}
