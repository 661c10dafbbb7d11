// Package snow talks to the ticketing backend's table REST API.
package snow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/core"
)

// BackendError carries the status and body of a rejected backend request.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend rejected request: status %d: %s", e.StatusCode, e.Body)
}

// Client implements core.TicketBackend against a ServiceNow-style table API
// using HTTP Basic auth. The HTTP client carries an explicit hard timeout;
// there is no automatic retry on failure.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. baseURL is the table API root, for
// example https://instance.service-now.com/api/now/table.
func NewClient(baseURL, username, password string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type createPayload struct {
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	AssignmentGroup  string `json:"assignment_group"`
	Urgency          string `json:"urgency"`
	Impact           string `json:"impact"`
	State            string `json:"state"`
	Approval         string `json:"approval,omitempty"`
}

type updatePayload struct {
	State    string `json:"state"`
	Comments string `json:"comments"`
	Priority string `json:"priority"`
	Approval string `json:"approval,omitempty"`
}

type createResponse struct {
	Result struct {
		SysID  string `json:"sys_id"`
		Number string `json:"number"`
	} `json:"result"`
}

// CreateTicket POSTs a new record to the given table and returns the
// assigned number and sys_id.
func (c *Client) CreateTicket(ctx context.Context, table core.Table, req core.CreateTicketRequest) (core.CreatedTicket, error) {
	payload := createPayload{
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		AssignmentGroup:  req.AssignmentGroup,
		Urgency:          req.Urgency,
		Impact:           req.Impact,
		State:            req.State,
		Approval:         req.Approval,
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, table)
	body, err := c.do(ctx, http.MethodPost, url, payload, http.StatusCreated)
	if err != nil {
		return core.CreatedTicket{}, err
	}

	var parsed createResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return core.CreatedTicket{}, fmt.Errorf("failed to parse create response: %w", err)
	}

	return core.CreatedTicket{
		SysID:  parsed.Result.SysID,
		Number: parsed.Result.Number,
	}, nil
}

// UpdateTicket PATCHes an existing record identified by number.
func (c *Client) UpdateTicket(ctx context.Context, table core.Table, number string, req core.UpdateTicketRequest) error {
	payload := updatePayload{
		State:    req.State,
		Comments: req.Comment,
		Priority: req.Priority,
		Approval: req.Approval,
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, table, number)
	_, err := c.do(ctx, http.MethodPatch, url, payload, http.StatusOK)
	return err
}

// do sends one JSON request and returns the response body, converting any
// unexpected status into a BackendError.
func (c *Client) do(ctx context.Context, method, url string, payload interface{}, wantStatus int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.SetBasicAuth(c.username, c.password)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		c.logger.Error("Backend rejected request",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &BackendError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
