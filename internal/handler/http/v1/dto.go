package v1

import (
	"time"

	"github.com/shenikar/resq_dispatch/internal/models"
)

// CoordinatesDTO DTO координат
// @Description Координаты точки
type CoordinatesDTO struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// CreateIncidentRequest DTO для регистрации вызова
// @Description DTO для регистрации вызова
type CreateIncidentRequest struct {
	Type        string          `json:"type" validate:"required,oneof=fire medical police rescue traffic other"`
	Priority    string          `json:"priority" validate:"required,oneof=low medium high critical"`
	Barangay    string          `json:"barangay" validate:"required"`
	Street      string          `json:"street" validate:"required"`
	CallerName  string          `json:"callerName" validate:"required,min=2,max=255"`
	CallerPhone string          `json:"callerPhone" validate:"required,phone"`
	CallerEmail string          `json:"callerEmail,omitempty" validate:"omitempty,email"`
	Notes       string          `json:"notes,omitempty"`
	Coordinates *CoordinatesDTO `json:"coordinates,omitempty"`
}

// UpdateStatusRequest DTO для смены статуса инцидента
// @Description DTO для смены статуса инцидента
type UpdateStatusRequest struct {
	Status    string `json:"status" validate:"required"`
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// AssignResponderRequest DTO для назначения экипажа. Имя и подразделение
// подставляются из реестра, если не указаны.
// @Description DTO для назначения экипажа
type AssignResponderRequest struct {
	ResponderID   string `json:"responderId" validate:"required"`
	ResponderName string `json:"responderName,omitempty"`
	Unit          string `json:"unit,omitempty"`
}

// TimelineEventRequest DTO для записи в хронологию
// @Description DTO для записи в хронологию
type TimelineEventRequest struct {
	Event       string `json:"event" validate:"required"`
	Description string `json:"description" validate:"required"`
	User        string `json:"user,omitempty"`
}

// ListIncidentsQuery параметры фильтрации списка инцидентов
type ListIncidentsQuery struct {
	Status   string `form:"status"`
	Type     string `form:"type"`
	Barangay string `form:"barangay"`
	Search   string `form:"search"`
	DateFrom string `form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Type              models.IncidentType       `json:"type"`
	Status            models.IncidentStatus     `json:"status"`
	StatusLabel       string                    `json:"statusLabel"`
	Priority          models.IncidentPriority   `json:"priority"`
	Location          models.Location           `json:"location"`
	Reporter          models.Reporter           `json:"reporter"`
	AssignedResponder *models.AssignedResponder `json:"assignedResponder,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
	Timeline          []models.TimelineEntry    `json:"timeline"`
}

// UpdateLocationRequest DTO для обновления позиции экипажа
// @Description DTO для обновления позиции экипажа
type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

// UpdateResponderStatusRequest DTO для смены статуса экипажа
// @Description DTO для смены статуса экипажа
type UpdateResponderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available busy offline"`
}

// NearestQuery параметры поиска ближайших экипажей
type NearestQuery struct {
	Lat   *float64 `form:"lat" validate:"required,latitude"`
	Lng   *float64 `form:"lng" validate:"required,longitude"`
	Limit int      `form:"limit" validate:"omitempty,min=1,max=50"`
}

// LoginRequest DTO для входа
// @Description DTO для входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=dispatcher responder admin"`
}

// SessionResponse DTO сессии
// @Description DTO сессии
type SessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// SendMessageRequest DTO сообщения в чат
// @Description DTO сообщения в чат
type SendMessageRequest struct {
	Sender string `json:"sender,omitempty" validate:"omitempty,max=100"`
	Text   string `json:"text" validate:"required,max=2000"`
}

// ReportQuery диапазон дат отчета
type ReportQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// DistanceQuery параметры расчета расстояния
type DistanceQuery struct {
	Lat1 *float64 `form:"lat1" validate:"required,latitude"`
	Lng1 *float64 `form:"lng1" validate:"required,longitude"`
	Lat2 *float64 `form:"lat2" validate:"required,latitude"`
	Lng2 *float64 `form:"lng2" validate:"required,longitude"`
}

// PointQuery координаты в строке запроса
type PointQuery struct {
	Lat *float64 `form:"lat" validate:"required,latitude"`
	Lng *float64 `form:"lng" validate:"required,longitude"`
}

// GeocodeQuery адрес для геокодирования
type GeocodeQuery struct {
	Address string `form:"address" validate:"required"`
}

// DistanceResponse DTO расстояния
// @Description Расстояние в километрах
type DistanceResponse struct {
	DistanceKm float64 `json:"distanceKm"`
}

// AddressResponse DTO адреса
// @Description Адрес точки
type AddressResponse struct {
	Address string `json:"address"`
}

// CountResponse DTO счетчика
// @Description Количество
type CountResponse struct {
	Count int `json:"count"`
}
