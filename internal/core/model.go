package core

import (
	"time"
)

// EmailMessage is the normalized form of an inbound email. The ingress
// layer extracts it from whatever MIME structure the message arrived in;
// the triage pipeline consumes it read-only.
type EmailMessage struct {
	Subject string
	Body    string
	Sender  string
}

// ActionKind identifies what the triage pipeline decided to do with an email.
type ActionKind string

const (
	ActionCreateIncident ActionKind = "create_incident"
	ActionCreateChange   ActionKind = "create_change"
	ActionUpdateTicket   ActionKind = "update_ticket"
	ActionSetNew         ActionKind = "set_new"
	ActionSetInProgress  ActionKind = "set_in_progress"
	ActionSetOnHold      ActionKind = "set_on_hold"
	ActionSetResolved    ActionKind = "set_resolved"
	ActionSetClosed      ActionKind = "set_closed"
	ActionSetCancelled   ActionKind = "set_cancelled"
	ActionApprove        ActionKind = "approve"
	ActionDeny           ActionKind = "deny"
	ActionIgnore         ActionKind = "ignore"
)

// Priority is the urgency an action carries into the backend.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Table names the backend table an action targets.
type Table string

const (
	TableIncident Table = "incident"
	TableChange   Table = "change_request"
)

// Action is the canonical, validated intent derived from an email.
// TicketNumber and Comment are only populated for update_ticket actions.
type Action struct {
	Kind         ActionKind
	Priority     Priority
	Table        Table
	Status       Status
	TicketNumber string
	Comment      string
}

// SafeDefaultAction is the fallback produced whenever classification cannot
// yield a trustworthy result. It performs no side effects downstream.
func SafeDefaultAction() Action {
	return Action{
		Kind:     ActionIgnore,
		Priority: PriorityNormal,
		Table:    TableIncident,
		Status:   StatusNew,
	}
}

// Outcome summarizes what the dispatcher did with an action.
type Outcome string

const (
	// OutcomeIgnored means the action required no side effect.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeCreated means a ticket was created in the backend.
	OutcomeCreated Outcome = "created"
	// OutcomeUpdated means an existing ticket was updated.
	OutcomeUpdated Outcome = "updated"
	// OutcomeSkipped means the action could not be acted on, for example a
	// bare status transition with no ticket number to apply it to.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the backend rejected the request.
	OutcomeFailed Outcome = "failed"
)

// DispatchResult reports what happened to a single email's action.
type DispatchResult struct {
	ProcessingID string
	Action       Action
	Outcome      Outcome
	TicketNumber string
	Err          error
	CompletedAt  time.Time
}
