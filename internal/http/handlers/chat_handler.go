// Support HTTP handlers.
//
// This file holds the service contracts, the Handlers wiring and the chat
// endpoint:
//   - POST /chat          (classify, record ticket and history, reply by mail)
//
// Handlers are transport-thin: they decode input, call the support services
// and translate outcomes and error kinds into HTTP responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/services"
)

// SupportService runs the inbound chat and email flows.
type SupportService interface {
	HandleChat(ctx context.Context, req services.ChatRequest) (services.Outcome, error)
	HandleEmail(ctx context.Context, req services.EmailRequest) (services.Outcome, error)
}

// HistoryService reads customer chat logs.
type HistoryService interface {
	List(ctx context.Context, email string, limit int) ([]domain.ChatEntry, error)
}

// Handlers groups the support endpoints.
type Handlers struct {
	support SupportService
	history HistoryService
}

// New constructs Handlers bound to the given services.
func New(support SupportService, history HistoryService) *Handlers {
	return &Handlers{support: support, history: history}
}

// ChatRequest is the JSON payload of a chat message.
type ChatRequest struct {
	Email   string `json:"email" example:"a@x.com"`
	Message string `json:"message" example:"my invoice is wrong"`
}

// ChatResponse carries the suggested reply shown to the customer.
type ChatResponse struct {
	Response string `json:"response" example:"We will review your invoice."`
}

// PostChat godoc
// @ID          postChat
// @Summary     Handle a chat message
// @Description Classifies the message, records or updates the customer's chat ticket, appends the chat history and emails the reply. Off-topic messages only get the reply text.
// @Tags        Support
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChatRequest  true  "Chat message"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing email or message"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Classifier, store or mail failure"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	out, err := h.support.HandleChat(c.Request.Context(), services.ChatRequest{
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		status, code := statusFor(err)
		fail(c, status, code, err.Error())
		return
	}
	ok(c, http.StatusOK, ChatResponse{Response: out.Response})
}
