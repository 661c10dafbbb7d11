package core

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultUpdateComment is applied when an email update command carries no
// comment clause of its own.
const DefaultUpdateComment = "Updated via email"

const changePrefix = "change:"

var (
	ticketNumberRe = regexp.MustCompile(`^[A-Z]{3}\d{7}$`)
	setTicketRe    = regexp.MustCompile(`(?i)set\s+ticket\s+([a-z]{3}\d{7})\s+to\s+([a-z ]+?)(?:\s+with\s+comment:\s*(.+))?\s*$`)

	titleCaser = cases.Title(language.English)
)

// MatchRules runs the deterministic pre-classifier over an email body.
// It returns false when no rule applies and the probabilistic classifier
// should take over. Rules run before the classifier on purpose: they are
// unambiguous commands and must never be second-guessed by a model.
func MatchRules(body string) (Action, bool) {
	trimmed := strings.TrimSpace(body)
	lower := strings.ToLower(trimmed)

	// The explicit change-request prefix is a hard override. It is checked
	// first, so a body that also resembles an update command still becomes
	// a change request.
	if strings.HasPrefix(lower, changePrefix) {
		return Action{
			Kind:     ActionCreateChange,
			Priority: PriorityNormal,
			Table:    TableChange,
			Status:   StatusNew,
		}, true
	}

	if strings.Contains(lower, "set ticket") {
		return parseSetTicket(trimmed), true
	}

	return Action{}, false
}

// parseSetTicket parses commands of the shape
//
//	set ticket <3 letters><7 digits> to <status> [with comment: <text>]
//
// A command that mentions "set ticket" but does not parse, or that names an
// unknown status, is treated as noise rather than an error.
func parseSetTicket(body string) Action {
	m := setTicketRe.FindStringSubmatch(body)
	if m == nil {
		return SafeDefaultAction()
	}

	number := strings.ToUpper(m[1])
	status, ok := ParseStatus(titleCaser.String(strings.TrimSpace(m[2])))
	if !ok {
		return SafeDefaultAction()
	}

	comment := strings.TrimSpace(m[3])
	if comment == "" {
		comment = DefaultUpdateComment
	}

	return Action{
		Kind:         ActionUpdateTicket,
		Priority:     PriorityNormal,
		Table:        TableForTicket(number),
		Status:       status,
		TicketNumber: number,
		Comment:      comment,
	}
}

// TableForTicket derives the backend table from a ticket number's prefix.
// INC numbers live in the incident table; everything else is a change.
func TableForTicket(number string) Table {
	if strings.HasPrefix(strings.ToUpper(number), "INC") {
		return TableIncident
	}
	return TableChange
}

// ValidTicketNumber reports whether a string has the canonical
// three-letter, seven-digit ticket number shape.
func ValidTicketNumber(number string) bool {
	return ticketNumberRe.MatchString(number)
}
