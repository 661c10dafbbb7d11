package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/retry"
	"github.com/triagebot/llm-mail-triage/internal/utils"
)

const classifierPrompt = `You are a helpdesk email triage system. Read the following email and decide what action to take.
Respond with a JSON object containing:
- action: one of create_incident, create_change, update_ticket, set_new, set_in_progress, set_on_hold, set_resolved, set_closed, set_cancelled, approve, deny, ignore
- priority: one of high, normal
- table: one of incident, change_request
- status: one of New, In Progress, On Hold, Resolved, Closed, Cancelled
- ticket_number: a ticket number like INC0010001 if the email refers to an existing ticket, otherwise omit it
- comment: a short comment to attach when updating a ticket, otherwise omit it

Email:
%s

Respond only with the JSON object and nothing else.`

// IntentClassifier is the probabilistic fallback behind the rule matcher.
// It asks a generative model for a structured action and never raises to
// its caller: every failure path resolves to the safe default.
type IntentClassifier struct {
	model         TextModel
	retrier       *retry.Retrier
	textProcessor *utils.TextProcessor
	maxBodySize   int
	logger        *zap.Logger
}

// NewIntentClassifier creates a classifier. A nil model is tolerated and
// degrades every Classify call to the safe default.
func NewIntentClassifier(
	model TextModel,
	retrier *retry.Retrier,
	textProcessor *utils.TextProcessor,
	maxBodySize int,
	logger *zap.Logger,
) *IntentClassifier {
	return &IntentClassifier{
		model:         model,
		retrier:       retrier,
		textProcessor: textProcessor,
		maxBodySize:   maxBodySize,
		logger:        logger,
	}
}

// Classify resolves an email body into a validated Action.
func (c *IntentClassifier) Classify(ctx context.Context, body string) Action {
	if c.model == nil {
		c.logger.Warn("Classifier has no model, using safe default",
			zap.Error(ErrClassifierUnavailable))
		return SafeDefaultAction()
	}
	if strings.TrimSpace(body) == "" {
		// Don't spend quota on empty input.
		c.logger.Info("Empty email body, using safe default")
		return SafeDefaultAction()
	}

	prompt := fmt.Sprintf(classifierPrompt, c.textProcessor.ProcessText(body, c.maxBodySize))

	var responseText string
	err := c.retrier.Do(ctx, c.isRetryable, func() error {
		text, callErr := c.model.Complete(ctx, prompt)
		if callErr != nil {
			return callErr
		}
		responseText = text
		return nil
	})
	if err != nil {
		c.logger.Error("Model call failed, using safe default",
			zap.String("model", c.model.Name()),
			zap.Error(err))
		return SafeDefaultAction()
	}

	var raw RawAction
	cleaned := utils.StripCodeFence(responseText)
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		c.logger.Error("Failed to parse model response, using safe default",
			zap.String("model", c.model.Name()),
			zap.String("response", responseText),
			zap.Error(fmt.Errorf("%w: %v", ErrMalformedResponse, err)))
		return SafeDefaultAction()
	}

	return ValidateAction(raw)
}

func (c *IntentClassifier) isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		c.logger.Warn("Model rate limited, backing off",
			zap.String("model", c.model.Name()),
			zap.Error(err))
		return true
	}
	return false
}
