package core

import (
	"context"
)

// TextModel is the transport boundary to a generative model. Adapters wrap
// provider SDKs and map their quota errors onto ErrRateLimited; prompt
// construction and response parsing stay in the classifier.
type TextModel interface {
	// Complete sends a prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the underlying model for logging.
	Name() string
}

// CreateTicketRequest is the payload for creating a ticket.
type CreateTicketRequest struct {
	ShortDescription string
	Description      string
	AssignmentGroup  string
	Urgency          string
	Impact           string
	State            string
	// Approval is set to "requested" on change-request creation and left
	// empty otherwise.
	Approval string
}

// UpdateTicketRequest is the payload for updating an existing ticket.
type UpdateTicketRequest struct {
	State    string
	Comment  string
	Priority string
	// Approval is set to "approved" when a change request moves to
	// In Progress and left empty otherwise.
	Approval string
}

// CreatedTicket is the backend's acknowledgement of a creation.
type CreatedTicket struct {
	SysID  string
	Number string
}

// TicketBackend is the boundary to the ticketing system.
type TicketBackend interface {
	CreateTicket(ctx context.Context, table Table, req CreateTicketRequest) (CreatedTicket, error)
	UpdateTicket(ctx context.Context, table Table, number string, req UpdateTicketRequest) error
}

// Notifier is the boundary to the outbound notification gateway.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Ledger records every ticket created by the pipeline. It is an advisory
// audit trail, not a dedup key: re-processing the same email creates a
// duplicate ticket and a second ledger entry.
type Ledger interface {
	Record(ctx context.Context, number, subject string) error
	Close() error
}
