package v1

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/resq_dispatch/internal/models"
	"github.com/shenikar/resq_dispatch/internal/service"
	"github.com/sirupsen/logrus"
)

const sessionContextKey = "session"

// extractToken достает токен из заголовка Authorization или параметра token.
// Браузерный WebSocket не умеет передавать заголовки, поэтому нужен второй вариант.
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

// SessionAuthMiddleware - middleware для аутентификации по токену сессии
func SessionAuthMiddleware(auth service.AuthService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			log.Warn("Session token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Warn("Invalid session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// RequireRoles пропускает только пользователей с одной из ролей.
// Ставится после SessionAuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		if !slices.Contains(roles, session.User.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*models.Session)
	return session, ok && session != nil
}

// @Summary Log in
// @Description Any non-empty credentials are accepted; the role defaults to dispatcher.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]any "Validation error"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")

	if !h.bindJSON(c, log, &input) {
		return
	}

	session, err := h.auth.Login(c.Request.Context(), input.Email, input.Password, models.Role(input.Role))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToSessionResponse(session))
}

// @Summary Log out
// @Tags Auth
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	log := h.logger.WithField("method", "logout")

	session, _ := sessionFrom(c)
	if err := h.auth.Logout(c.Request.Context(), session.Token); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *Handler) me(c *gin.Context) {
	session, _ := sessionFrom(c)
	c.JSON(http.StatusOK, ModelToSessionResponse(session))
}
