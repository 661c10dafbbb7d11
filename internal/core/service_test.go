package core

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func newTestService(model TextModel, backend *fakeBackend, notifier *fakeNotifier, ignored []string) *TriageService {
	classifier := newTestClassifier(model, nil)
	dispatcher := newTestDispatcher(backend, notifier, &fakeLedger{})
	return NewTriageService(classifier, dispatcher, ignored, zap.NewNop())
}

func TestProcessEmailRuleBypassesClassifier(t *testing.T) {
	model := &fakeModel{responses: []string{`{"action": "ignore"}`}}
	backend := &fakeBackend{created: CreatedTicket{Number: "CHG0000007"}}
	service := newTestService(model, backend, &fakeNotifier{}, nil)

	email := EmailMessage{
		Subject: "Change: swap the core switch",
		Body:    "Change: swap the core switch during the maintenance window",
		Sender:  "netops@example.com",
	}

	result := service.ProcessEmail(context.Background(), email)

	if model.calls != 0 {
		t.Error("a rule match must never consult the model")
	}
	if result.Action.Kind != ActionCreateChange {
		t.Errorf("expected create_change, got %s", result.Action.Kind)
	}
	if result.Outcome != OutcomeCreated {
		t.Errorf("expected created outcome, got %s", result.Outcome)
	}
}

func TestProcessEmailEmptyBodyNoBackendCall(t *testing.T) {
	model := &fakeModel{responses: []string{`{"action": "create_incident"}`}}
	backend := &fakeBackend{}
	service := newTestService(model, backend, &fakeNotifier{}, nil)

	result := service.ProcessEmail(context.Background(), EmailMessage{
		Subject: "(no content)",
		Body:    "",
		Sender:  "user@example.com",
	})

	if result.Action.Kind != ActionIgnore {
		t.Errorf("expected ignore for an empty body, got %s", result.Action.Kind)
	}
	if result.Outcome != OutcomeIgnored {
		t.Errorf("expected ignored outcome, got %s", result.Outcome)
	}
	if backend.createCalls != 0 || backend.updateCalls != 0 {
		t.Error("an empty email must not touch the backend")
	}
}

func TestProcessEmailClassifierFallback(t *testing.T) {
	model := &fakeModel{responses: []string{
		`{"action": "update_ticket", "priority": "normal", "table": "incident", "status": "On Hold", "ticket_number": "INC0010005", "comment": "waiting on parts"}`,
	}}
	backend := &fakeBackend{}
	service := newTestService(model, backend, &fakeNotifier{}, nil)

	result := service.ProcessEmail(context.Background(), EmailMessage{
		Subject: "Re: INC0010005",
		Body:    "Please put that ticket on hold, the parts arrive next week.",
		Sender:  "tech@example.com",
	})

	if model.calls != 1 {
		t.Fatalf("expected the classifier to run once, got %d calls", model.calls)
	}
	if result.Outcome != OutcomeUpdated {
		t.Errorf("expected updated outcome, got %s", result.Outcome)
	}
	if backend.updateNumber != "INC0010005" {
		t.Errorf("expected update to INC0010005, got %q", backend.updateNumber)
	}
}

func TestProcessEmailIgnoredSender(t *testing.T) {
	model := &fakeModel{responses: []string{`{"action": "create_incident"}`}}
	backend := &fakeBackend{}
	service := newTestService(model, backend, &fakeNotifier{}, []string{"no-reply@vendor.com", "spam.example.org"})

	for _, sender := range []string{"no-reply@vendor.com", "alerts@spam.example.org", "NO-REPLY@VENDOR.COM"} {
		result := service.ProcessEmail(context.Background(), EmailMessage{
			Subject: "automated notice",
			Body:    "this would otherwise classify",
			Sender:  sender,
		})
		if result.Outcome != OutcomeIgnored {
			t.Errorf("sender %q: expected ignored outcome, got %s", sender, result.Outcome)
		}
	}
	if model.calls != 0 {
		t.Error("ignored senders must not reach the classifier")
	}
	if backend.createCalls != 0 {
		t.Error("ignored senders must not reach the backend")
	}
}
