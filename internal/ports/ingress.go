package ports

// MailIngress is the inbound boundary that feeds emails into the triage
// pipeline.
type MailIngress interface {
	// Start begins accepting mail. It must not block.
	Start() error

	// Stop shuts the ingress down and drains in-flight work.
	Stop() error
}
