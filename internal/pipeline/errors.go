package pipeline

import "fmt"

// Kind classifies why a command did not produce a report
type Kind int

const (
	// KindValidation is bad user input such as an unknown time unit
	KindValidation Kind = iota + 1

	// KindPermission means the bot may not read the channel's history
	KindPermission

	// KindEmpty means there was nothing to report
	KindEmpty

	// KindUpstream is a completion service failure
	KindUpstream

	// KindUnclassified is anything else
	KindUnclassified
)

// String returns the kind as a metrics label
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindEmpty:
		return "empty"
	case KindUpstream:
		return "upstream"
	default:
		return "error"
	}
}

// Error is a command failure carrying a message that can be shown to the user
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
