package model

// Status represents the lifecycle state of a message.
type Status string

const (
	// StatusUnread is the initial state of every created message.
	StatusUnread Status = "unread"

	// StatusRead indicates the recipient has opened the message.
	StatusRead Status = "read"

	// StatusReplied indicates the recipient has answered the message.
	StatusReplied Status = "replied"

	// StatusArchived is the terminal state. Archival is a status, not a
	// deletion; reactivation is an administrative operation outside this
	// state machine.
	StatusArchived Status = "archived"
)

// ParseStatus converts a raw string into a Status.
// Returns ErrUnknownStatus for values outside the enumerated set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUnread, StatusRead, StatusReplied, StatusArchived:
		return Status(s), nil
	}
	return "", ErrUnknownStatus
}

// Valid reports whether s is one of the four enumerated states.
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// CanTransition reports whether the state machine permits moving from s to target.
//
// The forward path is unread → read → replied → archived, with archived
// reachable from every non-terminal state. Direct status sets may also move
// backwards (e.g. read → unread); the single hard rule is that archived is
// terminal: no transition leaves it, including re-archiving.
func (s Status) CanTransition(target Status) bool {
	if !s.Valid() || !target.Valid() {
		return false
	}
	return s != StatusArchived
}

// Domain errors returned by message business logic methods.
var (
	// ErrUnknownStatus indicates a status value outside the enumerated set.
	ErrUnknownStatus = DomainError{Code: "UNKNOWN_STATUS", Message: "Unknown message status"}

	// ErrIllegalTransition indicates a move the state machine does not permit.
	ErrIllegalTransition = DomainError{Code: "ILLEGAL_TRANSITION", Message: "Illegal status transition"}
)

// DomainError represents a domain-level business rule violation.
type DomainError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
}

func (e DomainError) Error() string {
	return e.Message
}
