package core

import (
	"strings"
)

// RawAction is the untrusted, JSON-shaped action a model returns. Every
// field may be missing, empty, or out of vocabulary.
type RawAction struct {
	Action       string `json:"action"`
	Priority     string `json:"priority"`
	Table        string `json:"table"`
	Status       string `json:"status"`
	TicketNumber string `json:"ticket_number"`
	Comment      string `json:"comment"`
}

var validKinds = map[ActionKind]struct{}{
	ActionCreateIncident: {},
	ActionCreateChange:   {},
	ActionUpdateTicket:   {},
	ActionSetNew:         {},
	ActionSetInProgress:  {},
	ActionSetOnHold:      {},
	ActionSetResolved:    {},
	ActionSetClosed:      {},
	ActionSetCancelled:   {},
	ActionApprove:        {},
	ActionDeny:           {},
	ActionIgnore:         {},
}

// ValidateAction normalizes an untrusted raw action into a canonical one.
// Out-of-vocabulary kinds downgrade to ignore, missing fields take the
// safe-default value, and when a ticket number is present the table is
// re-derived from its prefix rather than trusted from the model.
func ValidateAction(raw RawAction) Action {
	action := SafeDefaultAction()

	kind := ActionKind(strings.TrimSpace(strings.ToLower(raw.Action)))
	if _, ok := validKinds[kind]; !ok {
		return action
	}
	action.Kind = kind

	if Priority(raw.Priority) == PriorityHigh {
		action.Priority = PriorityHigh
	}

	switch Table(raw.Table) {
	case TableIncident, TableChange:
		action.Table = Table(raw.Table)
	}

	if status, ok := ParseStatus(raw.Status); ok {
		action.Status = status
	}

	if kind == ActionUpdateTicket {
		number := strings.ToUpper(strings.TrimSpace(raw.TicketNumber))
		if !ValidTicketNumber(number) {
			// An update without a resolvable target is noise.
			return SafeDefaultAction()
		}
		action.TicketNumber = number
		// The prefix wins over whatever table the model chose.
		action.Table = TableForTicket(number)
		action.Comment = strings.TrimSpace(raw.Comment)
		if action.Comment == "" {
			action.Comment = DefaultUpdateComment
		}
	}

	return action
}
