package core

// Status is a ticket lifecycle state. The string values are the display
// names used in email commands and in the classifier's vocabulary.
type Status string

const (
	StatusNew        Status = "New"
	StatusInProgress Status = "In Progress"
	StatusOnHold     Status = "On Hold"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
	StatusCancelled  Status = "Cancelled"
)

// wireCodes are the numeric state codes the ticketing backend expects.
// They must be preserved exactly for compatibility with existing instances.
var wireCodes = map[Status]string{
	StatusNew:        "1",
	StatusInProgress: "2",
	StatusOnHold:     "3",
	StatusResolved:   "6",
	StatusClosed:     "7",
	StatusCancelled:  "8",
}

// transitions describes the forward lifecycle. Cancelled is reachable from
// any non-terminal state; Closed and Cancelled are terminal. The dispatcher
// does not verify a ticket's current remote state before requesting a
// transition, so this table is descriptive rather than enforced on the wire.
var transitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusOnHold, StatusResolved, StatusCancelled},
	StatusOnHold:     {StatusInProgress, StatusResolved, StatusCancelled},
	StatusResolved:   {StatusClosed, StatusCancelled},
	StatusClosed:     nil,
	StatusCancelled:  nil,
}

// AllStatuses lists every legal status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusInProgress,
		StatusOnHold,
		StatusResolved,
		StatusClosed,
		StatusCancelled,
	}
}

// ParseStatus looks up a display name in the closed status set.
func ParseStatus(name string) (Status, bool) {
	s := Status(name)
	_, ok := wireCodes[s]
	return s, ok
}

// WireCode returns the backend state code for a status. Unknown statuses
// map to the empty string.
func (s Status) WireCode() string {
	return wireCodes[s]
}

// Terminal reports whether no further transitions leave this status.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
