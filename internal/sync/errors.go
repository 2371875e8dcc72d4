package sync

import (
	"errors"
	"fmt"
)

// NotImplementedError reports that a service has no implementation for an
// operation yet. Placeholder operations fail with this error instead of
// silently doing nothing, so callers can tell "unsupported" from "empty".
type NotImplementedError struct {
	Service string
	Type    RequestType
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: %s is not implemented", e.Service, e.Type)
}

// NotImplemented creates a NotImplementedError for the given operation.
func NotImplemented(service string, t RequestType) error {
	return &NotImplementedError{Service: service, Type: t}
}

// IsNotImplemented reports whether err is a NotImplementedError.
func IsNotImplemented(err error) bool {
	var target *NotImplementedError
	return errors.As(err, &target)
}
