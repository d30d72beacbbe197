package v1

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/resq_dispatch/internal/config"
	"github.com/shenikar/resq_dispatch/internal/geo"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/service"
	"github.com/shenikar/resq_dispatch/internal/storage"
	"github.com/sirupsen/logrus"
)

var phonePattern = regexp.MustCompile(`^\+?\d{10,13}$`)

// Services набор сервисов, которые обслуживает HTTP API
type Services struct {
	Incidents     service.IncidentService
	Responders    service.ResponderService
	Notifications service.NotificationService
	Reports       service.ReportService
	Chat          service.ChatService
	Auth          service.AuthService
}

type Handler struct {
	incidents     service.IncidentService
	responders    service.ResponderService
	notifications service.NotificationService
	reports       service.ReportService
	chat          service.ChatService
	auth          service.AuthService
	locator       *geo.Locator
	hub           *Hub
	logger        *logrus.Logger
	validate      *validator.Validate
	cfg           *config.Config
}

func NewHandler(services Services, locator *geo.Locator, hub *Hub, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidents:     services.Incidents,
		responders:    services.Responders,
		notifications: services.Notifications,
		reports:       services.Reports,
		chat:          services.Chat,
		auth:          services.Auth,
		locator:       locator,
		hub:           hub,
		logger:        logger,
		validate:      newValidator(),
		cfg:           cfg,
	}
}

// newValidator регистрирует собственные теги валидации
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// bindJSON разбирает тело запроса и валидирует его. При ошибке ответ уже отправлен.
func (h *Handler) bindJSON(c *gin.Context, log *logrus.Entry, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return h.validateInput(c, log, dst)
}

// bindQuery то же, что bindJSON, для параметров строки запроса
func (h *Handler) bindQuery(c *gin.Context, log *logrus.Entry, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return false
	}
	return h.validateInput(c, log, dst)
}

func (h *Handler) validateInput(c *gin.Context, log *logrus.Entry, dst any) bool {
	if err := h.validate.Struct(dst); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validationMessages(err)})
		return false
	}
	return true
}

func validationMessages(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		if fe.Param() != "" {
			out[fe.Field()] = fe.Tag() + "=" + fe.Param()
		} else {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}

// respondError отображает ошибки сервисов на HTTP-статусы
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, service.ErrIncidentNotFound),
		errors.Is(err, service.ErrResponderNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, geo.ErrAddressNotFound):
		log.WithError(err).Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		log.WithError(err).Warn("Rejected status transition")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidType),
		errors.Is(err, models.ErrInvalidPriority),
		errors.Is(err, models.ErrInvalidResponderStatus),
		errors.Is(err, service.ErrEmptyMessage):
		log.WithError(err).Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound):
		log.WithError(err).Warn("Unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
