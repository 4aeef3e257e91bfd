package avouch

import (
	"errors"
	"fmt"
)

// ErrInvalidStatement is returned when an encoded statement does not
// decode. Callers should treat it as "not a valid statement" and degrade,
// not crash.
var ErrInvalidStatement = errors.New("could not parse statement")

// CompileError wraps a condition failure with the rule it belongs to, so
// a rejected configuration names the offending level.
type CompileError struct {
	Rule string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile rule %q: %v", e.Rule, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
