package form

import "errors"

// Authoring defects reported by New. Each returned error wraps one of these.
var (
	ErrUnknownField     = errors.New("unknown field")
	ErrUnknownGroup     = errors.New("unknown group")
	ErrUnknownOption    = errors.New("unknown option")
	ErrDuplicateField   = errors.New("duplicate field name")
	ErrDuplicateGroup   = errors.New("duplicate group id")
	ErrInvalidField     = errors.New("invalid field")
	ErrInvalidGroup     = errors.New("invalid group id")
	ErrCyclicDependency = errors.New("cyclic group dependency")
)

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
