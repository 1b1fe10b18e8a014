// Package notify sends plain-text customer emails over SMTP. Messages are
// composed as RFC 5322 documents with go-message and delivered with net/smtp
// using implicit TLS, STARTTLS or a plain connection.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog/log"
)

// TLS modes.
const (
	TLSModeSMTPS    = "smtps"
	TLSModeSTARTTLS = "starttls"
	TLSModeNone     = "none"
)

// Message is a single plain-text email to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config configures SMTPSender.
type Config struct {
	Enabled    bool
	Host       string
	Port       int
	Username   string // auth identity; may differ from From
	Password   string
	From       string
	AuthType   string // plain|login
	TLSMode    string // smtps|starttls|none
	SkipVerify bool
	Timeout    time.Duration
}

// SMTPSender is a Sender that opens one SMTP session per message.
type SMTPSender struct {
	cfg Config
	now func() time.Time
}

// NewSMTPSender returns a sender for cfg.
func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &SMTPSender{cfg: cfg, now: time.Now}
}

// EffectiveTLSMode resolves an empty mode from the port: 465 means implicit
// TLS, 587 means STARTTLS, anything else a plain connection.
func (s *SMTPSender) EffectiveTLSMode() string {
	if s.cfg.TLSMode != "" {
		return s.cfg.TLSMode
	}
	switch s.cfg.Port {
	case 465:
		return TLSModeSMTPS
	case 587:
		return TLSModeSTARTTLS
	default:
		return TLSModeNone
	}
}

// Send composes and delivers msg. A disabled sender logs and returns nil.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Enabled {
		log.Debug().Str("subject", msg.Subject).Msg("smtp disabled, skipping email")
		return nil
	}
	if msg.To == "" {
		return errors.New("no recipient specified")
	}

	raw, err := s.compose(msg)
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth := s.auth(); auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", msg.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err = w.Write(raw); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}

	if err = client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}
	return nil
}

// compose renders msg as a single-part text/plain RFC 5322 message.
func (s *SMTPSender) compose(msg Message) ([]byte, error) {
	from, err := mail.ParseAddress(s.cfg.From)
	if err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}

	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dial connects according to the TLS mode and bounds the session by the
// context deadline or the configured timeout, whichever is earlier.
func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.SkipVerify, //nolint:gosec // opt-in for test relays
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	dialer := &net.Dialer{Deadline: deadline}

	mode := s.EffectiveTLSMode()
	var (
		conn net.Conn
		err  error
	)
	if mode == TLSModeSMTPS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start SMTP session: %w", err)
	}

	if mode == TLSModeSTARTTLS {
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return client, nil
}

func (s *SMTPSender) auth() smtp.Auth {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return nil
	}
	if s.cfg.AuthType == "login" {
		return &loginAuth{username: s.cfg.Username, password: s.cfg.Password}
	}
	return smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
}

// loginAuth implements SMTP LOGIN authentication
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		switch string(fromServer) {
		case "Username:":
			return []byte(a.username), nil
		case "Password:":
			return []byte(a.password), nil
		default:
			return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
		}
	}
	return nil, nil
}
