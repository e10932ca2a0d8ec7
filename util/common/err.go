package common

import (
	"errors"
	"fmt"
)

func NewErrorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func NewError(args ...any) error {
	return errors.New(fmt.Sprintln(args...))
}

// Combine merges multiple errors into one, skipping nils.
func Combine(errs ...error) error {
	var combined []error
	for _, err := range errs {
		if err != nil {
			combined = append(combined, err)
		}
	}
	if len(combined) == 0 {
		return nil
	}
	return errors.Join(combined...)
}
