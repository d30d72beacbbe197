package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Chat history
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChatMessage
// @Router /chat/messages [get]
func (h *Handler) listChatMessages(c *gin.Context) {
	c.JSON(http.StatusOK, h.chat.Messages())
}

// @Summary Send a chat message
// @Description The channel answers with an automatic acknowledgement shortly after.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body SendMessageRequest true "Message"
// @Success 201 {object} models.ChatMessage
// @Failure 400 {object} map[string]any "Validation error"
// @Router /chat/messages [post]
func (h *Handler) sendChatMessage(c *gin.Context) {
	var input SendMessageRequest
	log := h.logger.WithField("method", "sendChatMessage")

	if !h.bindJSON(c, log, &input) {
		return
	}

	msg, err := h.chat.Send(input.Sender, input.Text)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
