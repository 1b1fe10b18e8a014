// Package classifier turns an inbound chat message or email into a
// classification, a one-sentence summary and a suggested reply by prompting a
// generative model and parsing its line-oriented answer.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-support-agent/internal/domain"
	"github.com/tbourn/go-support-agent/internal/sysutil"
)

// Channel identifies where an inbound message came from.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// Input is the text handed to the model.
type Input struct {
	Channel Channel
	Subject string // email only
	Body    string
}

// Result is the parsed model answer.
type Result struct {
	Classification string
	Summary        string
	Response       string
}

// IsNonSupport reports whether the model flagged the message as outside tech
// support. Such messages produce no ticket, history entry or email.
func (r Result) IsNonSupport() bool { return r.Classification == domain.NonSupport }

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyReply is returned when the model answers with no text at all.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Client classifies messages with a Generator.
type Client struct {
	Gen     Generator
	Timeout time.Duration // per call; 0 means no extra deadline
}

// New returns a Client backed by gen.
func New(gen Generator, timeout time.Duration) *Client {
	return &Client{Gen: gen, Timeout: timeout}
}

// Classify prompts the model for in and parses the reply. Missing fields in
// the reply fall back to the defaults of Parse.
func (c *Client) Classify(ctx context.Context, in Input) (Result, error) {
	ctx, span := otel.Tracer("classifier").Start(ctx, "Classify")
	defer span.End()
	span.SetAttributes(attribute.String("support.channel", string(in.Channel)))

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	text, err := c.Gen.Generate(ctx, BuildPrompt(in))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		return Result{}, fmt.Errorf("generate: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		span.SetStatus(codes.Error, "empty reply")
		return Result{}, ErrEmptyReply
	}

	res := Parse(text)
	sysutil.Logger(ctx).Debug().
		Str("channel", string(in.Channel)).
		Str("classification", res.Classification).
		Msg("classified message")
	span.SetAttributes(attribute.String("support.classification", res.Classification))
	return res, nil
}
