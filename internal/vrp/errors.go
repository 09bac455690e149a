package vrp

import "fmt"

// InputError reports a schema, range or cross-reference violation in the
// problem document, detected before the search starts.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// RoutingError reports a matrix provider failure, surfaced verbatim.
type RoutingError struct {
	Msg string
}

func (e *RoutingError) Error() string { return e.Msg }
