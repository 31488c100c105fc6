package dispatcher

import (
	"errors"
	"fmt"
)

// UnknownKeyError reports a key token with no mapping.
type UnknownKeyError struct {
	Token string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown key: %s", e.Token)
}

// ErrUnsupported is returned when the input device lacks a capability.
var ErrUnsupported = errors.New("not supported by this input device")
