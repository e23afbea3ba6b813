package query

import "fmt"

// ErrorKind classifies a query parse failure.
type ErrorKind int

const (
	// ErrUnknownModifier marks a "-x" token the grammar does not know.
	ErrUnknownModifier ErrorKind = iota
	// ErrInvalidLimit marks a -n argument that is not a non-negative integer.
	ErrInvalidLimit
	// ErrInvalidTimeout marks a -t argument that is not a non-negative number of seconds.
	ErrInvalidTimeout
	// ErrEmptyQuery marks input with no match text left after stripping modifiers.
	ErrEmptyQuery
	// ErrMissingArgument marks a modifier that consumes an argument at end of input.
	ErrMissingArgument
)

// ParseError reports why a raw query string could not be turned into a
// Query. No traversal starts once one is returned.
type ParseError struct {
	Kind  ErrorKind
	Token string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrUnknownModifier:
		return fmt.Sprintf("unknown modifier %q", e.Token)
	case ErrInvalidLimit:
		return fmt.Sprintf("invalid limit %q: must be a non-negative integer", e.Token)
	case ErrInvalidTimeout:
		return fmt.Sprintf("invalid timeout %q: must be a non-negative number of seconds", e.Token)
	case ErrEmptyQuery:
		return "empty query: no match text after modifiers"
	case ErrMissingArgument:
		return fmt.Sprintf("modifier %q requires an argument", e.Token)
	default:
		return "invalid query"
	}
}
