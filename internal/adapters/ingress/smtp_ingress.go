// Package ingress receives inbound mail and feeds it to the triage
// pipeline one message at a time.
package ingress

import (
	"bytes"
	"context"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/core"
)

// SMTPIngress accepts mail over SMTP, extracts EmailMessage values, and
// drains them sequentially. A fixed pause is inserted before every message
// after the first, to stay under the model provider's rate limits.
type SMTPIngress struct {
	service      *core.TriageService
	logger       *zap.Logger
	listenAddr   string
	mailbox      string
	messageDelay time.Duration

	server *smtp.Server
	queue  chan core.EmailMessage
	stopCh chan struct{}
	done   chan struct{}
}

// NewSMTPIngress creates an ingress. mailbox, when non-empty, restricts
// accepted recipients to that single address.
func NewSMTPIngress(
	service *core.TriageService,
	listenAddr string,
	mailbox string,
	messageDelay time.Duration,
	logger *zap.Logger,
) *SMTPIngress {
	return &SMTPIngress{
		service:      service,
		logger:       logger,
		listenAddr:   listenAddr,
		mailbox:      mailbox,
		messageDelay: messageDelay,
		queue:        make(chan core.EmailMessage, 64),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start starts the SMTP server and the processing worker.
func (i *SMTPIngress) Start() error {
	i.server = smtp.NewServer(&smtpBackend{ingress: i})
	i.server.Addr = i.listenAddr
	i.server.Domain = "localhost"
	i.server.ReadTimeout = 30 * time.Second
	i.server.WriteTimeout = 30 * time.Second
	i.server.MaxMessageBytes = 10 * 1024 * 1024 // 10MB
	i.server.MaxRecipients = 10
	i.server.AllowInsecureAuth = true

	i.logger.Info("Mail ingress starting",
		zap.String("address", i.listenAddr),
		zap.String("mailbox", i.mailbox))

	go i.worker()

	go func() {
		if err := i.server.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
			i.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop closes the server and waits for the worker to finish the message it
// is on. Queued but unprocessed messages are dropped.
func (i *SMTPIngress) Stop() error {
	var err error
	if i.server != nil {
		err = i.server.Close()
	}
	close(i.stopCh)
	<-i.done
	return err
}

// worker processes queued messages strictly one at a time. The pause runs
// before every message except the first, so the last message of a batch is
// never followed by an idle wait.
func (i *SMTPIngress) worker() {
	defer close(i.done)

	first := true
	for {
		select {
		case <-i.stopCh:
			return
		case email := <-i.queue:
			if !first {
				select {
				case <-i.stopCh:
					return
				case <-time.After(i.messageDelay):
				}
			}
			first = false

			result := i.service.ProcessEmail(context.Background(), email)
			i.logger.Info("Processed email",
				zap.String("processing_id", result.ProcessingID),
				zap.String("sender", email.Sender),
				zap.String("kind", string(result.Action.Kind)),
				zap.String("outcome", string(result.Outcome)),
				zap.String("ticket", result.TicketNumber))
		}
	}
}

// enqueue hands a parsed message to the worker, refusing with a temporary
// error when the queue is full.
func (i *SMTPIngress) enqueue(email core.EmailMessage) error {
	select {
	case i.queue <- email:
		return nil
	default:
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Ingress queue full, try again later",
		}
	}
}

// smtpBackend implements the go-smtp Backend interface.
type smtpBackend struct {
	ingress *SMTPIngress
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{ingress: b.ingress}, nil
}

// smtpSession implements the go-smtp Session interface.
type smtpSession struct {
	ingress *SMTPIngress
	sender  string
}

func (s *smtpSession) Reset() {
	s.sender = ""
}

func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt accepts only the triage mailbox when one is configured.
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if s.ingress.mailbox != "" && !strings.EqualFold(to, s.ingress.mailbox) {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "No such recipient",
		}
	}
	return nil
}

// Data parses the incoming message, extracts the plain-text body, and
// queues the result for sequential processing.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.ingress.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.ingress.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		s.ingress.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	sender := s.sender
	if from := msg.Header.Get("From"); from != "" {
		sender = senderAddress(decodeHeader(from))
	}

	email := core.EmailMessage{
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    body,
		Sender:  sender,
	}

	s.ingress.logger.Debug("Queued email",
		zap.String("sender", email.Sender),
		zap.String("subject", email.Subject))

	return s.ingress.enqueue(email)
}

func (s *smtpSession) Logout() error {
	return nil
}
