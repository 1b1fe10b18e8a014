// Package events publishes ticket lifecycle events to Kafka. Publishing is
// best-effort: failures are logged and never reach the caller, and a producer
// built without brokers or topic is a no-op.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Event names.
const (
	TicketCreated    = "ticket.created"
	TicketUpdated    = "ticket.updated"
	TicketFollowedUp = "ticket.followed_up"
)

// TicketEvent is the JSON payload written to the topic.
type TicketEvent struct {
	Event          string    `json:"event"`
	TicketID       string    `json:"ticket_id"`
	Email          string    `json:"email"`
	Subject        string    `json:"subject"`
	Classification string    `json:"classification,omitempty"`
	Channel        string    `json:"channel,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher is implemented by Producer; services depend on it so tests can
// substitute a recorder.
type Publisher interface {
	Publish(ctx context.Context, ev TicketEvent)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes ticket events to a Kafka topic.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a producer. Writes are asynchronous so an unreachable
// broker never delays the request that published the event. With no brokers
// or an empty topic every method is a no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			Async:        true,
			Completion:   logCompletion(topic),
		},
	}
}

// logCompletion reports failed asynchronous batches. In async mode
// WriteMessages only enqueues, so delivery errors surface here.
func logCompletion(topic string) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("topic", topic).Int("messages", len(msgs)).Msg("kafka: deliver ticket events")
	}
}

// Enabled reports whether events are actually written.
func (p *Producer) Enabled() bool { return p.writer != nil }

// Publish writes ev keyed by ticket id.
func (p *Producer) Publish(ctx context.Context, ev TicketEvent) {
	if p.writer == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("event", ev.Event).Msg("kafka: marshal ticket event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.TicketID), Value: body}); err != nil {
		log.Warn().Err(err).Str("event", ev.Event).Str("topic", p.topic).Msg("kafka: write ticket event")
	}
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
