//go:build !cgo

package input

import (
	"fmt"
)

// Stub implementation for builds without cgo

// NewDevice fails: robotgo needs cgo to reach the OS input APIs.
func NewDevice() (Device, error) {
	return nil, fmt.Errorf("input injection not supported in this build (cgo disabled)")
}
