package snow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/core"
)

func TestCreateTicket(t *testing.T) {
	var gotPath, gotMethod string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method

		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("unexpected basic auth: %q/%q ok=%v", user, pass, ok)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result": {"sys_id": "abc123", "number": "INC0010042"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin", "secret", 5*time.Second, zap.NewNop())

	created, err := client.CreateTicket(context.Background(), core.TableIncident, core.CreateTicketRequest{
		ShortDescription: "Printer on fire",
		Description:      "Printer on fire\n\nsmoke everywhere",
		AssignmentGroup:  "service-desk",
		Urgency:          "1",
		Impact:           "1",
		State:            "1",
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/incident" {
		t.Errorf("expected path /incident, got %q", gotPath)
	}
	if gotPayload["short_description"] != "Printer on fire" {
		t.Errorf("unexpected short_description: %v", gotPayload["short_description"])
	}
	if gotPayload["urgency"] != "1" || gotPayload["impact"] != "1" {
		t.Errorf("unexpected urgency/impact: %v/%v", gotPayload["urgency"], gotPayload["impact"])
	}
	if _, present := gotPayload["approval"]; present {
		t.Error("approval must be omitted when empty")
	}

	if created.SysID != "abc123" || created.Number != "INC0010042" {
		t.Errorf("unexpected created ticket: %+v", created)
	}
}

func TestCreateTicketSendsApprovalForChanges(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result": {"sys_id": "def456", "number": "CHG0010001"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin", "secret", 5*time.Second, zap.NewNop())

	_, err := client.CreateTicket(context.Background(), core.TableChange, core.CreateTicketRequest{
		ShortDescription: "change: rotate certs",
		State:            "1",
		Approval:         "requested",
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if gotPath != "/change_request" {
		t.Errorf("expected path /change_request, got %q", gotPath)
	}
	if gotPayload["approval"] != "requested" {
		t.Errorf("expected approval requested, got %v", gotPayload["approval"])
	}
}

func TestUpdateTicket(t *testing.T) {
	var gotPath, gotMethod string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"result": {}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin", "secret", 5*time.Second, zap.NewNop())

	err := client.UpdateTicket(context.Background(), core.TableIncident, "INC0010042", core.UpdateTicketRequest{
		State:   "6",
		Comment: "Fixed by replacing the fuser",
	})
	if err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/incident/INC0010042" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotPayload["state"] != "6" {
		t.Errorf("unexpected state %v", gotPayload["state"])
	}
	if gotPayload["comments"] != "Fixed by replacing the fuser" {
		t.Errorf("unexpected comments %v", gotPayload["comments"])
	}
}

func TestUnexpectedStatusBecomesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "insufficient rights"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin", "wrong", 5*time.Second, zap.NewNop())

	_, err := client.CreateTicket(context.Background(), core.TableIncident, core.CreateTicketRequest{
		ShortDescription: "hello",
	})
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected a BackendError, got %T: %v", err, err)
	}
	if backendErr.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected status code %d", backendErr.StatusCode)
	}
}

func TestCreateTicketRejectsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin", "secret", 5*time.Second, zap.NewNop())

	_, err := client.CreateTicket(context.Background(), core.TableIncident, core.CreateTicketRequest{})
	if err == nil {
		t.Fatal("expected an error for an unparseable create response")
	}
}
