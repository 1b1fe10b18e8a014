// Email webhook handler.
//
//   - POST /email         (classify, record ticket, reply by mail)
//
// The webhook caller expects plain-text bodies, so this endpoint does not use
// the JSON error envelope.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-agent/internal/services"
	"github.com/tbourn/go-support-agent/internal/sysutil"
)

// EmailAddress is the sender object of an inbound email.
type EmailAddress struct {
	Email string `json:"email" example:"c@x.com"`
}

// EmailRequest is the JSON payload posted by the inbound mail provider.
type EmailRequest struct {
	Subject string       `json:"subject" example:"Login issue"`
	HTML    string       `json:"html"`
	Text    string       `json:"text" example:"I cannot log in since yesterday."`
	From    EmailAddress `json:"from"`
}

// Plain-text webhook responses.
const (
	emailProcessed = "Ticket processed successfully!"
)

// PostEmail godoc
// @ID          postEmail
// @Summary     Handle an inbound support email
// @Description Classifies the email, records or updates the ticket for (sender, subject) and replies with "Re: <subject>". The html body is used when present, else text. Off-topic mail gets 200 with the reply text and nothing is stored.
// @Tags        Support
// @Accept      json
// @Produce     plain
//
// @Param       body  body  handlers.EmailRequest  true  "Inbound email"
//
// @Success     200  {string}  string  "Ticket processed successfully!"
// @Failure     400  {string}  string  "Error parsing request: ..."
// @Failure     500  {string}  string  "Error ..."
// @Router      /email [post]
func (h *Handlers) PostEmail(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		text(c, http.StatusBadRequest, "Error parsing request: "+err.Error())
		return
	}

	out, err := h.support.HandleEmail(c.Request.Context(), services.EmailRequest{
		From:    req.From.Email,
		Subject: req.Subject,
		Body:    sysutil.FirstNonEmpty(req.HTML, req.Text),
	})
	if err != nil {
		status, body := emailFailure(err)
		text(c, status, body)
		return
	}
	if out.NonSupport {
		text(c, http.StatusOK, out.Response)
		return
	}
	text(c, http.StatusOK, emailProcessed)
}

// emailFailure picks the status and plain-text body for a failed email.
func emailFailure(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "Error parsing request: " + err.Error()
	case errors.Is(err, services.ErrClassifier):
		return http.StatusInternalServerError, "Error from classifier: " + err.Error()
	case errors.Is(err, services.ErrStore):
		return http.StatusInternalServerError, "Error writing ticket: " + err.Error()
	case errors.Is(err, services.ErrNotification):
		return http.StatusInternalServerError, "Error sending email: " + err.Error()
	default:
		return http.StatusInternalServerError, "Error: " + err.Error()
	}
}
