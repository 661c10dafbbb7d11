package ingress

import (
	"strings"
	"testing"
)

func TestParseEmailPlainText(t *testing.T) {
	raw := "From: Alice <alice@example.com>\r\n" +
		"Subject: Printer on fire\r\n" +
		"\r\n" +
		"The printer in room 4 is smoking.\r\n"

	email, err := ParseEmail(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseEmail failed: %v", err)
	}

	if email.Subject != "Printer on fire" {
		t.Errorf("unexpected subject %q", email.Subject)
	}
	if email.Sender != "alice@example.com" {
		t.Errorf("unexpected sender %q", email.Sender)
	}
	if !strings.Contains(email.Body, "room 4 is smoking") {
		t.Errorf("unexpected body %q", email.Body)
	}
}

func TestParseEmailMultipartKeepsOnlyTextPlain(t *testing.T) {
	raw := "From: bob@example.com\r\n" +
		"Subject: weekly report\r\n" +
		"Content-Type: multipart/alternative; boundary=\"XYZ\"\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain part here\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html part here</p>\r\n" +
		"--XYZ--\r\n"

	email, err := ParseEmail(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseEmail failed: %v", err)
	}

	if !strings.Contains(email.Body, "plain part here") {
		t.Errorf("expected the text/plain part, got %q", email.Body)
	}
	if strings.Contains(email.Body, "html part") {
		t.Errorf("html part must be skipped, got %q", email.Body)
	}
}

func TestParseEmailDecodesEncodedHeaders(t *testing.T) {
	raw := "From: =?utf-8?q?Caf=C3=A9_Support?= <cafe@example.com>\r\n" +
		"Subject: =?utf-8?b?w5xiZXJwcsO8ZnVuZw==?=\r\n" +
		"\r\n" +
		"body\r\n"

	email, err := ParseEmail(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseEmail failed: %v", err)
	}

	if email.Subject != "Überprüfung" {
		t.Errorf("unexpected decoded subject %q", email.Subject)
	}
	if email.Sender != "cafe@example.com" {
		t.Errorf("unexpected sender %q", email.Sender)
	}
}

func TestParseEmailDecodesLatin1Header(t *testing.T) {
	// "Café" in ISO-8859-1 quoted-printable.
	raw := "From: sender@example.com\r\n" +
		"Subject: =?iso-8859-1?q?Caf=E9?=\r\n" +
		"\r\n" +
		"body\r\n"

	email, err := ParseEmail(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseEmail failed: %v", err)
	}

	if email.Subject != "Café" {
		t.Errorf("unexpected decoded subject %q", email.Subject)
	}
}

func TestSenderAddressFallsBackToRawValue(t *testing.T) {
	if got := senderAddress("not an address"); got != "not an address" {
		t.Errorf("unexpected fallback %q", got)
	}
	if got := senderAddress("Alice <alice@example.com>"); got != "alice@example.com" {
		t.Errorf("unexpected address %q", got)
	}
}

func TestParseEmailRejectsGarbage(t *testing.T) {
	if _, err := ParseEmail(strings.NewReader("")); err == nil {
		t.Error("expected an error for an empty reader")
	}
}
