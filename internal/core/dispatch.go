package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Urgency and impact codes on the wire. High-priority actions take the
// most-urgent code on both axes.
const (
	urgencyHigh   = "1"
	urgencyNormal = "3"
)

const (
	approvalRequested = "requested"
	approvalApproved  = "approved"
)

// Dispatcher translates a validated Action into backend requests and
// notifications. Side effects are not transactional: backend failures are
// logged and surfaced as a failed DispatchResult, never retried.
type Dispatcher struct {
	backend         TicketBackend
	notifier        Notifier
	ledger          Ledger
	approver        string
	assignmentGroup string
	logger          *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	backend TicketBackend,
	notifier Notifier,
	ledger Ledger,
	approver string,
	assignmentGroup string,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		backend:         backend,
		notifier:        notifier,
		ledger:          ledger,
		approver:        approver,
		assignmentGroup: assignmentGroup,
		logger:          logger,
	}
}

// Dispatch performs the side effects an action calls for.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action, email EmailMessage) DispatchResult {
	result := DispatchResult{
		ProcessingID: uuid.NewString(),
		Action:       action,
	}

	switch action.Kind {
	case ActionIgnore:
		d.logger.Info("Ignoring email",
			zap.String("processing_id", result.ProcessingID),
			zap.String("sender", email.Sender),
			zap.String("subject", email.Subject))
		result.Outcome = OutcomeIgnored

	case ActionCreateIncident, ActionCreateChange:
		d.create(ctx, action, email, &result)

	case ActionUpdateTicket:
		d.update(ctx, action, &result)

	case ActionSetNew, ActionSetInProgress, ActionSetOnHold,
		ActionSetResolved, ActionSetClosed, ActionSetCancelled:
		// A bare transition intent carries no ticket number, so there is
		// nothing to apply it to.
		d.logger.Warn("Status transition without a ticket number, skipping",
			zap.String("processing_id", result.ProcessingID),
			zap.String("kind", string(action.Kind)),
			zap.String("sender", email.Sender))
		result.Outcome = OutcomeSkipped

	case ActionApprove, ActionDeny:
		// Free-text approval replies cannot be correlated back to their
		// change request yet; log and move on.
		d.logger.Warn("Approval reply cannot be correlated to a ticket, skipping",
			zap.String("processing_id", result.ProcessingID),
			zap.String("kind", string(action.Kind)),
			zap.String("sender", email.Sender))
		result.Outcome = OutcomeSkipped

	default:
		// The validator guarantees a known kind; anything else is treated
		// as noise.
		d.logger.Warn("Unknown action kind, ignoring",
			zap.String("processing_id", result.ProcessingID),
			zap.String("kind", string(action.Kind)))
		result.Outcome = OutcomeIgnored
	}

	result.CompletedAt = time.Now()
	return result
}

func (d *Dispatcher) create(ctx context.Context, action Action, email EmailMessage, result *DispatchResult) {
	urgency := urgencyNormal
	if action.Priority == PriorityHigh {
		urgency = urgencyHigh
	}

	req := CreateTicketRequest{
		ShortDescription: email.Subject,
		Description:      email.Body,
		AssignmentGroup:  d.assignmentGroup,
		Urgency:          urgency,
		Impact:           urgency,
		State:            StatusNew.WireCode(),
	}
	if action.Table == TableChange {
		req.Approval = approvalRequested
	}

	created, err := d.backend.CreateTicket(ctx, action.Table, req)
	if err != nil {
		d.logger.Error("Ticket creation failed",
			zap.String("processing_id", result.ProcessingID),
			zap.String("table", string(action.Table)),
			zap.Error(err))
		result.Outcome = OutcomeFailed
		result.Err = err
		return
	}

	d.logger.Info("Created ticket",
		zap.String("processing_id", result.ProcessingID),
		zap.String("table", string(action.Table)),
		zap.String("number", created.Number),
		zap.String("priority", string(action.Priority)))
	result.Outcome = OutcomeCreated
	result.TicketNumber = created.Number

	// The ledger is advisory; a write failure never fails the dispatch.
	if err := d.ledger.Record(ctx, created.Number, email.Subject); err != nil {
		d.logger.Error("Failed to record ledger entry",
			zap.String("number", created.Number),
			zap.Error(err))
	}

	if action.Table == TableChange {
		d.requestApproval(ctx, created.Number, email)
	}
}

// requestApproval notifies the approver about a freshly created change
// request. The change number is embedded in the subject so a future reply
// handler can correlate the answer back to its ticket.
func (d *Dispatcher) requestApproval(ctx context.Context, number string, email EmailMessage) {
	subject := fmt.Sprintf("[%s] Approval requested: %s", number, email.Subject)
	body := fmt.Sprintf(
		"A change request requires your approval.\n\nTicket: %s\nSubject: %s\n\nDescription:\n%s\n\nReply \"approve\" or \"deny\".\n",
		number, email.Subject, email.Body)

	if err := d.notifier.Send(ctx, d.approver, subject, body); err != nil {
		d.logger.Error("Failed to send approval request",
			zap.String("number", number),
			zap.String("approver", d.approver),
			zap.Error(err))
		return
	}
	d.logger.Info("Sent approval request",
		zap.String("number", number),
		zap.String("approver", d.approver))
}

func (d *Dispatcher) update(ctx context.Context, action Action, result *DispatchResult) {
	priority := urgencyNormal
	if action.Priority == PriorityHigh {
		priority = urgencyHigh
	}

	req := UpdateTicketRequest{
		State:    action.Status.WireCode(),
		Comment:  action.Comment,
		Priority: priority,
	}
	// Moving a change request to In Progress is how an approval becomes a
	// backend side effect.
	if action.Table == TableChange && action.Status == StatusInProgress {
		req.Approval = approvalApproved
	}

	if err := d.backend.UpdateTicket(ctx, action.Table, action.TicketNumber, req); err != nil {
		d.logger.Error("Ticket update failed",
			zap.String("processing_id", result.ProcessingID),
			zap.String("table", string(action.Table)),
			zap.String("number", action.TicketNumber),
			zap.Error(err))
		result.Outcome = OutcomeFailed
		result.Err = err
		return
	}

	d.logger.Info("Updated ticket",
		zap.String("processing_id", result.ProcessingID),
		zap.String("table", string(action.Table)),
		zap.String("number", action.TicketNumber),
		zap.String("status", string(action.Status)))
	result.Outcome = OutcomeUpdated
	result.TicketNumber = action.TicketNumber
}
