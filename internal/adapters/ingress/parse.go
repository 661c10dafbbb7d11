package ingress

import (
	"fmt"
	"io"
	"net/mail"

	"github.com/triagebot/llm-mail-triage/internal/core"
)

// ParseEmail reads one RFC 5322 message and reduces it to the normalized
// EmailMessage the pipeline consumes. Used by the one-shot CLI; the SMTP
// path goes through the session's Data handler.
func ParseEmail(r io.Reader) (core.EmailMessage, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return core.EmailMessage{}, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return core.EmailMessage{}, fmt.Errorf("failed to extract text content: %w", err)
	}

	return core.EmailMessage{
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    body,
		Sender:  senderAddress(decodeHeader(msg.Header.Get("From"))),
	}, nil
}
