// Package input provides the input device abstraction, key and button
// resolution, and cursor motion planning.
package input

import (
	"errors"
	"fmt"
	"image"
)

// Point is an absolute screen coordinate. Bounds are left to the device.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Label returns the capitalized button name used in response messages.
func (b Button) Label() string {
	switch b {
	case ButtonRight:
		return "Right"
	case ButtonMiddle:
		return "Middle"
	default:
		return "Left"
	}
}

// Key is a canonical key identifier.
type Key string

const (
	KeyEnter     Key = "enter"
	KeyTab       Key = "tab"
	KeyEscape    Key = "escape"
	KeySpace     Key = "space"
	KeyBackspace Key = "backspace"
	KeyDelete    Key = "delete"
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
	KeyHome      Key = "home"
	KeyEnd       Key = "end"
	KeyPageUp    Key = "pageup"
	KeyPageDown  Key = "pagedown"
)

// Device is the OS-level input capability. All methods block until the
// event has been posted.
type Device interface {
	// MoveTo moves the cursor to an absolute position.
	MoveTo(x, y int) error
	// Location reads the current cursor position.
	Location() (x, y int, err error)
	// Click presses and releases a mouse button at the current position.
	Click(b Button) error
	// TypeText injects a whole string in one call.
	TypeText(s string) error
	// TypeChar injects a single character.
	TypeChar(r rune) error
	// KeyTap presses and releases a key.
	KeyTap(k Key) error
}

// ErrWindowNotFound is returned when no window matches a name.
var ErrWindowNotFound = errors.New("window not found")

// Window is a top-level application window.
type Window struct {
	PID   int    `json:"pid"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Screen is implemented by devices that can read the display.
type Screen interface {
	ScreenSize() (w, h int)
	Capture() (image.Image, error)
}

// Windows is implemented by devices that can enumerate and focus windows.
type Windows interface {
	ListWindows() ([]Window, error)
	// ActivateWindow focuses the first window whose process name contains
	// name, or returns ErrWindowNotFound.
	ActivateWindow(name string) error
}
