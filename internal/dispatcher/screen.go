package dispatcher

import (
	"fmt"
	"image"

	"aion/internal/input"
)

// Capture grabs the display. Unlike pointer and keyboard actions, a failure
// is returned since the caller needs the image.
func (d *Dispatcher) Capture() (image.Image, error) {
	screen, ok := d.device.(input.Screen)
	if !ok {
		return nil, ErrUnsupported
	}

	d.devMu.Lock()
	img, err := screen.Capture()
	d.devMu.Unlock()
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	d.notify(ActionCapture, fmt.Sprintf("Screen captured (%dx%d)", b.Dx(), b.Dy()), d.mode.Get())
	return img, nil
}

// ListWindows returns the open top-level windows.
func (d *Dispatcher) ListWindows() ([]input.Window, error) {
	wm, ok := d.device.(input.Windows)
	if !ok {
		return nil, ErrUnsupported
	}

	d.devMu.Lock()
	defer d.devMu.Unlock()
	return wm.ListWindows()
}

// SwitchWindow focuses the first window whose process name contains name.
func (d *Dispatcher) SwitchWindow(name string) (Result, error) {
	wm, ok := d.device.(input.Windows)
	if !ok {
		return Result{}, ErrUnsupported
	}

	d.devMu.Lock()
	err := wm.ActivateWindow(name)
	d.devMu.Unlock()
	if err != nil {
		return Result{}, err
	}

	msg := fmt.Sprintf("Switched to window: %s", name)
	d.notify(ActionWindow, msg, d.mode.Get())
	return Result{Message: msg}, nil
}
