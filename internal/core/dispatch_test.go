package core

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeBackend struct {
	createTable Table
	createReq   CreateTicketRequest
	createCalls int
	createErr   error
	created     CreatedTicket

	updateTable  Table
	updateNumber string
	updateReq    UpdateTicketRequest
	updateCalls  int
	updateErr    error
}

func (b *fakeBackend) CreateTicket(_ context.Context, table Table, req CreateTicketRequest) (CreatedTicket, error) {
	b.createCalls++
	b.createTable = table
	b.createReq = req
	if b.createErr != nil {
		return CreatedTicket{}, b.createErr
	}
	return b.created, nil
}

func (b *fakeBackend) UpdateTicket(_ context.Context, table Table, number string, req UpdateTicketRequest) error {
	b.updateCalls++
	b.updateTable = table
	b.updateNumber = number
	b.updateReq = req
	return b.updateErr
}

type fakeNotifier struct {
	calls   int
	to      string
	subject string
	body    string
	err     error
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	n.calls++
	n.to = to
	n.subject = subject
	n.body = body
	return n.err
}

type fakeLedger struct {
	numbers  []string
	subjects []string
	err      error
}

func (l *fakeLedger) Record(_ context.Context, number, subject string) error {
	l.numbers = append(l.numbers, number)
	l.subjects = append(l.subjects, subject)
	return l.err
}

func (l *fakeLedger) Close() error { return nil }

func newTestDispatcher(backend *fakeBackend, notifier *fakeNotifier, ledger *fakeLedger) *Dispatcher {
	return NewDispatcher(backend, notifier, ledger, "approver@example.com", "service-desk", zap.NewNop())
}

func TestDispatchIgnore(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &fakeNotifier{}
	dispatcher := newTestDispatcher(backend, notifier, &fakeLedger{})

	result := dispatcher.Dispatch(context.Background(), SafeDefaultAction(), EmailMessage{Subject: "noise"})

	if result.Outcome != OutcomeIgnored {
		t.Errorf("expected ignored outcome, got %s", result.Outcome)
	}
	if backend.createCalls != 0 || backend.updateCalls != 0 {
		t.Error("ignore must not touch the backend")
	}
	if notifier.calls != 0 {
		t.Error("ignore must not send notifications")
	}
	if result.ProcessingID == "" {
		t.Error("expected a processing ID")
	}
}

func TestDispatchCreateIncidentHighPriority(t *testing.T) {
	backend := &fakeBackend{created: CreatedTicket{SysID: "abc", Number: "INC0010042"}}
	notifier := &fakeNotifier{}
	ledger := &fakeLedger{}
	dispatcher := newTestDispatcher(backend, notifier, ledger)

	action := Action{Kind: ActionCreateIncident, Priority: PriorityHigh, Table: TableIncident, Status: StatusNew}
	email := EmailMessage{Subject: "Prod database down", Body: "Nothing responds", Sender: "ops@example.com"}

	result := dispatcher.Dispatch(context.Background(), action, email)

	if result.Outcome != OutcomeCreated {
		t.Fatalf("expected created outcome, got %s (err %v)", result.Outcome, result.Err)
	}
	if result.TicketNumber != "INC0010042" {
		t.Errorf("expected ticket number from backend, got %q", result.TicketNumber)
	}
	if backend.createTable != TableIncident {
		t.Errorf("expected incident table, got %s", backend.createTable)
	}
	req := backend.createReq
	if req.Urgency != "1" || req.Impact != "1" {
		t.Errorf("high priority must map to urgency/impact 1, got %q/%q", req.Urgency, req.Impact)
	}
	if req.ShortDescription != email.Subject || req.Description != email.Body {
		t.Error("create payload must carry the email subject and body")
	}
	if req.State != "1" {
		t.Errorf("new tickets must start in state 1, got %q", req.State)
	}
	if req.Approval != "" {
		t.Errorf("incidents must not request approval, got %q", req.Approval)
	}
	if notifier.calls != 0 {
		t.Error("incident creation must not notify the approver")
	}
	if len(ledger.numbers) != 1 || ledger.numbers[0] != "INC0010042" || ledger.subjects[0] != email.Subject {
		t.Errorf("expected one ledger entry for the creation, got %v/%v", ledger.numbers, ledger.subjects)
	}
}

func TestDispatchCreateChangeRequestsApproval(t *testing.T) {
	backend := &fakeBackend{created: CreatedTicket{Number: "CHG0000123"}}
	notifier := &fakeNotifier{}
	dispatcher := newTestDispatcher(backend, notifier, &fakeLedger{})

	action := Action{Kind: ActionCreateChange, Priority: PriorityNormal, Table: TableChange, Status: StatusNew}
	email := EmailMessage{Subject: "Change: rotate TLS certs", Body: "Change: rotate TLS certs next window"}

	result := dispatcher.Dispatch(context.Background(), action, email)

	if result.Outcome != OutcomeCreated {
		t.Fatalf("expected created outcome, got %s", result.Outcome)
	}
	if backend.createReq.Approval != "requested" {
		t.Errorf("change creation must request approval, got %q", backend.createReq.Approval)
	}
	if backend.createReq.Urgency != "3" || backend.createReq.Impact != "3" {
		t.Errorf("normal priority must map to urgency/impact 3, got %q/%q",
			backend.createReq.Urgency, backend.createReq.Impact)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one approval notification, got %d", notifier.calls)
	}
	if notifier.to != "approver@example.com" {
		t.Errorf("notification must go to the approver, got %q", notifier.to)
	}
	if want := "[CHG0000123] Approval requested: Change: rotate TLS certs"; notifier.subject != want {
		t.Errorf("expected subject %q, got %q", want, notifier.subject)
	}
}

func TestDispatchCreateBackendFailure(t *testing.T) {
	backendErr := errors.New("backend rejected request: status 500")
	backend := &fakeBackend{createErr: backendErr}
	notifier := &fakeNotifier{}
	ledger := &fakeLedger{}
	dispatcher := newTestDispatcher(backend, notifier, ledger)

	action := Action{Kind: ActionCreateChange, Priority: PriorityNormal, Table: TableChange, Status: StatusNew}
	result := dispatcher.Dispatch(context.Background(), action, EmailMessage{Subject: "x"})

	if result.Outcome != OutcomeFailed {
		t.Errorf("expected failed outcome, got %s", result.Outcome)
	}
	if !errors.Is(result.Err, backendErr) {
		t.Errorf("expected the backend error surfaced, got %v", result.Err)
	}
	if len(ledger.numbers) != 0 {
		t.Error("failed creations must not be recorded in the ledger")
	}
	if notifier.calls != 0 {
		t.Error("failed creations must not notify the approver")
	}
}

func TestDispatchUpdateTicket(t *testing.T) {
	backend := &fakeBackend{}
	dispatcher := newTestDispatcher(backend, &fakeNotifier{}, &fakeLedger{})

	action := Action{
		Kind:         ActionUpdateTicket,
		Priority:     PriorityNormal,
		Table:        TableIncident,
		Status:       StatusResolved,
		TicketNumber: "INC0010111",
		Comment:      "fixed root cause",
	}

	result := dispatcher.Dispatch(context.Background(), action, EmailMessage{})

	if result.Outcome != OutcomeUpdated {
		t.Fatalf("expected updated outcome, got %s", result.Outcome)
	}
	if backend.updateNumber != "INC0010111" || backend.updateTable != TableIncident {
		t.Errorf("unexpected update target %s/%s", backend.updateTable, backend.updateNumber)
	}
	if backend.updateReq.State != "6" {
		t.Errorf("Resolved must map to state 6, got %q", backend.updateReq.State)
	}
	if backend.updateReq.Comment != "fixed root cause" {
		t.Errorf("expected comment carried through, got %q", backend.updateReq.Comment)
	}
	if backend.updateReq.Approval != "" {
		t.Errorf("incident updates must not set approval, got %q", backend.updateReq.Approval)
	}
}

func TestDispatchUpdateChangeInProgressApproves(t *testing.T) {
	backend := &fakeBackend{}
	dispatcher := newTestDispatcher(backend, &fakeNotifier{}, &fakeLedger{})

	action := Action{
		Kind:         ActionUpdateTicket,
		Priority:     PriorityNormal,
		Table:        TableChange,
		Status:       StatusInProgress,
		TicketNumber: "CHG0000123",
		Comment:      DefaultUpdateComment,
	}

	dispatcher.Dispatch(context.Background(), action, EmailMessage{})

	if backend.updateReq.Approval != "approved" {
		t.Errorf("moving a change to In Progress must approve it, got %q", backend.updateReq.Approval)
	}
}

func TestDispatchBareTransitionsAndApprovalsSkip(t *testing.T) {
	kinds := []ActionKind{
		ActionSetNew, ActionSetInProgress, ActionSetOnHold,
		ActionSetResolved, ActionSetClosed, ActionSetCancelled,
		ActionApprove, ActionDeny,
	}

	for _, kind := range kinds {
		backend := &fakeBackend{}
		notifier := &fakeNotifier{}
		dispatcher := newTestDispatcher(backend, notifier, &fakeLedger{})

		action := SafeDefaultAction()
		action.Kind = kind
		result := dispatcher.Dispatch(context.Background(), action, EmailMessage{Sender: "someone@example.com"})

		if result.Outcome != OutcomeSkipped {
			t.Errorf("%s: expected skipped outcome, got %s", kind, result.Outcome)
		}
		if backend.createCalls != 0 || backend.updateCalls != 0 {
			t.Errorf("%s: must not call the backend", kind)
		}
		if notifier.calls != 0 {
			t.Errorf("%s: must not notify", kind)
		}
	}
}

func TestDispatchLedgerFailureDoesNotFailDispatch(t *testing.T) {
	backend := &fakeBackend{created: CreatedTicket{Number: "INC0010001"}}
	ledger := &fakeLedger{err: errors.New("disk full")}
	dispatcher := newTestDispatcher(backend, &fakeNotifier{}, ledger)

	action := Action{Kind: ActionCreateIncident, Priority: PriorityNormal, Table: TableIncident, Status: StatusNew}
	result := dispatcher.Dispatch(context.Background(), action, EmailMessage{Subject: "x"})

	if result.Outcome != OutcomeCreated {
		t.Errorf("ledger failures are advisory, expected created outcome, got %s", result.Outcome)
	}
}
