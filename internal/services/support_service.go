// Package services – SupportService
//
// SupportService runs the inbound chat and email flows end to end:
// classify, short-circuit off-topic messages, resolve the ticket, record chat
// history (chat only) and reply by email. Each step's failure is returned
// wrapped in its error kind; earlier writes are not rolled back.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-support-agent/internal/classifier"
	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/notify"
	"github.com/tbourn/go-support-agent/internal/sysutil"
)

// Classifier is the contract SupportService needs from the classifier client.
type Classifier interface {
	Classify(ctx context.Context, in classifier.Input) (classifier.Result, error)
}

// ChatReplySubject is the subject of the email answering a chat message.
const ChatReplySubject = "Re: Support Chat"

// ChatRequest is an inbound chat message.
type ChatRequest struct {
	Email   string
	Message string
}

// EmailRequest is an inbound support email.
type EmailRequest struct {
	From    string
	Subject string
	Body    string
}

// Outcome describes how an inbound message was handled.
type Outcome struct {
	// Response is the model's suggested reply.
	Response string
	// NonSupport is set when the message was off-topic and nothing was stored.
	NonSupport bool
	// Ticket is the written ticket; zero when NonSupport.
	Ticket domain.Ticket
	Action Action
}

// SupportService coordinates classifier, tickets, history and mail.
type SupportService struct {
	Classifier Classifier
	Tickets    *TicketService
	History    *HistoryService
	Mailer     notify.Sender

	Now func() time.Time
}

// NewSupportService wires a SupportService.
func NewSupportService(c Classifier, t *TicketService, h *HistoryService, m notify.Sender) *SupportService {
	return &SupportService{
		Classifier: c,
		Tickets:    t,
		History:    h,
		Mailer:     m,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// HandleChat processes one chat message. Email and message are trimmed and
// both required.
func (s *SupportService) HandleChat(ctx context.Context, req ChatRequest) (Outcome, error) {
	ctx, span := otel.Tracer("services/SupportService").Start(ctx, "HandleChat")
	defer span.End()

	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)
	if email == "" || message == "" {
		return Outcome{}, fmt.Errorf("%w: email or message missing", ErrValidation)
	}

	res, err := s.classify(ctx, span, classifier.Input{Channel: classifier.ChannelChat, Body: message})
	if err != nil {
		return Outcome{}, err
	}
	if res.IsNonSupport() {
		return Outcome{Response: res.Response, NonSupport: true}, nil
	}

	resolved, err := s.Tickets.Resolve(ctx, Inbound{
		Channel:        string(classifier.ChannelChat),
		Email:          email,
		Subject:        domain.ChatSubject,
		Classification: res.Classification,
		Summary:        res.Summary,
		Response:       res.Response,
	})
	if err != nil {
		return s.fail(span, Outcome{}, err)
	}
	out := Outcome{Response: res.Response, Ticket: resolved.Ticket, Action: resolved.Action}

	err = s.History.Append(ctx, domain.ChatEntry{
		TicketID:       resolved.Ticket.ID,
		Timestamp:      domain.FormatTimestamp(s.Now()),
		Email:          email,
		Message:        message,
		Summary:        res.Summary,
		Classification: res.Classification,
		Status:         domain.StatusOpen,
		Response:       res.Response,
	})
	if err != nil {
		return s.fail(span, out, err)
	}

	if err := s.reply(ctx, email, ChatReplySubject, res.Response); err != nil {
		return s.fail(span, out, err)
	}

	sysutil.Logger(ctx).Info().
		Str("ticket_id", resolved.Ticket.ID).
		Str("action", string(resolved.Action)).
		Str("classification", res.Classification).
		Msg("chat handled")
	return out, nil
}

// HandleEmail processes one inbound email. The sender address is required;
// subject and body are trimmed and may be empty.
func (s *SupportService) HandleEmail(ctx context.Context, req EmailRequest) (Outcome, error) {
	ctx, span := otel.Tracer("services/SupportService").Start(ctx, "HandleEmail")
	defer span.End()

	from := strings.TrimSpace(req.From)
	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)
	if from == "" {
		return Outcome{}, fmt.Errorf("%w: customer email is missing", ErrValidation)
	}

	res, err := s.classify(ctx, span, classifier.Input{Channel: classifier.ChannelEmail, Subject: subject, Body: body})
	if err != nil {
		return Outcome{}, err
	}
	if res.IsNonSupport() {
		return Outcome{Response: res.Response, NonSupport: true}, nil
	}

	resolved, err := s.Tickets.Resolve(ctx, Inbound{
		Channel:        string(classifier.ChannelEmail),
		Email:          from,
		Subject:        subject,
		Classification: res.Classification,
		Summary:        res.Summary,
		Response:       res.Response,
	})
	if err != nil {
		return s.fail(span, Outcome{}, err)
	}
	out := Outcome{Response: res.Response, Ticket: resolved.Ticket, Action: resolved.Action}

	if err := s.reply(ctx, from, "Re: "+subject, res.Response); err != nil {
		return s.fail(span, out, err)
	}

	sysutil.Logger(ctx).Info().
		Str("ticket_id", resolved.Ticket.ID).
		Str("action", string(resolved.Action)).
		Str("classification", res.Classification).
		Msg("email handled")
	return out, nil
}

func (s *SupportService) classify(ctx context.Context, span trace.Span, in classifier.Input) (classifier.Result, error) {
	res, err := s.Classifier.Classify(ctx, in)
	if err != nil {
		globalSupportMetrics().recordClassification(string(in.Channel), "error")
		_, ferr := s.fail(span, Outcome{}, fmt.Errorf("%w: %w", ErrClassifier, err))
		return classifier.Result{}, ferr
	}
	outcome := "support"
	if res.IsNonSupport() {
		outcome = "non_support"
	}
	globalSupportMetrics().recordClassification(string(in.Channel), outcome)
	span.SetAttributes(attribute.String("support.classification", res.Classification))
	return res, nil
}

func (s *SupportService) reply(ctx context.Context, to, subject, body string) error {
	err := s.Mailer.Send(ctx, notify.Message{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("%w: send %q: %w", ErrNotification, subject, err)
	}
	return nil
}

func (s *SupportService) fail(span trace.Span, out Outcome, err error) (Outcome, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return out, err
}
