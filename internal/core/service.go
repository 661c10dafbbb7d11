package core

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// TriageService runs the full pipeline for one email: ignored-sender check,
// rule matcher, classifier fallback, dispatch. Emails are processed one at
// a time; batching and pacing belong to the ingress.
type TriageService struct {
	classifier     *IntentClassifier
	dispatcher     *Dispatcher
	ignoredSenders []string
	logger         *zap.Logger
}

// NewTriageService creates a new triage service.
func NewTriageService(
	classifier *IntentClassifier,
	dispatcher *Dispatcher,
	ignoredSenders []string,
	logger *zap.Logger,
) *TriageService {
	normalized := make([]string, 0, len(ignoredSenders))
	for _, s := range ignoredSenders {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			normalized = append(normalized, s)
		}
	}
	return &TriageService{
		classifier:     classifier,
		dispatcher:     dispatcher,
		ignoredSenders: normalized,
		logger:         logger,
	}
}

// isIgnoredSender checks the sender against the configured noise list.
// Entries are either full addresses or bare domains.
func (s *TriageService) isIgnoredSender(sender string) bool {
	addr := strings.ToLower(strings.TrimSpace(sender))
	domain := ""
	if parts := strings.Split(addr, "@"); len(parts) == 2 {
		domain = parts[1]
	}
	for _, ignored := range s.ignoredSenders {
		if ignored == addr || (domain != "" && ignored == domain) {
			return true
		}
	}
	return false
}

// ResolveAction turns an email into a validated Action without performing
// any side effects. Rules run first and are never second-guessed by the
// classifier.
func (s *TriageService) ResolveAction(ctx context.Context, email EmailMessage) Action {
	if action, matched := MatchRules(email.Body); matched {
		s.logger.Info("Rule matched",
			zap.String("kind", string(action.Kind)),
			zap.String("sender", email.Sender))
		return action
	}
	return s.classifier.Classify(ctx, email.Body)
}

// ProcessEmail runs the pipeline end to end and returns the dispatch result.
func (s *TriageService) ProcessEmail(ctx context.Context, email EmailMessage) DispatchResult {
	if s.isIgnoredSender(email.Sender) {
		s.logger.Info("Sender is on the ignore list, skipping",
			zap.String("sender", email.Sender),
			zap.String("subject", email.Subject))
		return DispatchResult{
			Action:  SafeDefaultAction(),
			Outcome: OutcomeIgnored,
		}
	}

	action := s.ResolveAction(ctx, email)
	return s.dispatcher.Dispatch(ctx, action, email)
}
