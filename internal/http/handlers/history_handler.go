// Chat history handler.
//
//   - POST /chat/history  (list a customer's chat log)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-agent/internal/utils"
)

// HistoryRequest is the JSON payload of a chat history query.
type HistoryRequest struct {
	Email string `json:"email" example:"a@x.com"`
}

// maxHistoryLimit bounds ?limit.
const maxHistoryLimit = 1000

// ChatHistory godoc
// @ID          chatHistory
// @Summary     List a customer's chat history
// @Description Returns the customer's chat log in append order, [] when there is none. limit keeps only the most recent entries.
// @Tags        Support
// @Accept      json
// @Produce     json
//
// @Param       body   body   handlers.HistoryRequest  true   "Customer"
// @Param       limit  query  int                      false  "Return only the last N entries"  minimum(1) maximum(1000)
//
// @Success     200  {array}   domain.ChatEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Missing email"
// @Failure     500  {object}  handlers.ErrorResponse  "Store failure"
// @Router      /chat/history [post]
func (h *Handlers) ChatHistory(c *gin.Context) {
	var req HistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), 0), 0, maxHistoryLimit)

	entries, err := h.history.List(c.Request.Context(), strings.TrimSpace(req.Email), limit)
	if err != nil {
		status, code := statusFor(err)
		fail(c, status, code, err.Error())
		return
	}
	ok(c, http.StatusOK, entries)
}
