package ez

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidRule is wrapped by the panics of rule constructors given bad
	// arguments.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrUnresolvedReference is returned when a Ref placeholder is reached
	// that was never resolved.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrUndefinedRule is returned by Resolve for a key with no rule.
	ErrUndefinedRule = errors.New("undefined rule")
	// ErrNoMatch is wrapped by Result.Failure.
	ErrNoMatch = errors.New("input not matched")
)

func invalidRule(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidRule, format, args...)
}

// fatal carries an error out of the matching engine as a panic, to be
// recovered by the Runner.
type fatal struct {
	err error
}

func throw(err error) {
	panic(fatal{err: err})
}
