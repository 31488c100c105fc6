//go:build cgo

package input

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// robotgo names the middle button "center".
var robotgoButtons = map[Button]string{
	ButtonLeft:   "left",
	ButtonRight:  "right",
	ButtonMiddle: "center",
}

// Injector drives the real cursor and keyboard through robotgo.
type Injector struct{}

// NewDevice creates the platform input device.
func NewDevice() (Device, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("input device unavailable: no screen detected")
	}
	return &Injector{}, nil
}

// MoveTo moves the cursor to an absolute position
func (i *Injector) MoveTo(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// Location returns the current cursor position
func (i *Injector) Location() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}

// Click clicks a mouse button at the current position
func (i *Injector) Click(b Button) error {
	name, ok := robotgoButtons[b]
	if !ok {
		return fmt.Errorf("invalid button: %q", b)
	}
	robotgo.Click(name, false)
	return nil
}

// TypeText types a whole string
func (i *Injector) TypeText(s string) error {
	robotgo.TypeStr(s)
	return nil
}

// TypeChar types a single character
func (i *Injector) TypeChar(r rune) error {
	robotgo.TypeStr(string(r))
	return nil
}

// KeyTap presses and releases a key
func (i *Injector) KeyTap(k Key) error {
	return robotgo.KeyTap(string(k))
}

// ScreenSize returns the main display size in pixels
func (i *Injector) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

// Capture grabs the main display
func (i *Injector) Capture() (image.Image, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return img, nil
}

// ListWindows returns the processes that own a titled window
func (i *Injector) ListWindows() ([]Window, error) {
	procs, err := robotgo.Process()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var windows []Window
	for _, p := range procs {
		title := robotgo.GetTitle(p.Pid)
		if title == "" {
			continue
		}
		windows = append(windows, Window{PID: p.Pid, Name: p.Name, Title: title})
	}
	return windows, nil
}

// ActivateWindow focuses the first process whose name contains name
func (i *Injector) ActivateWindow(name string) error {
	pids, err := robotgo.FindIds(name)
	if err != nil {
		return fmt.Errorf("find %q: %w", name, err)
	}
	if len(pids) == 0 {
		return ErrWindowNotFound
	}
	return robotgo.ActivePid(pids[0])
}
