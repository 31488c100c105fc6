// Package inputtest provides a recording input.Device for tests.
package inputtest

import (
	"image"
	"strings"
	"sync"
	"time"

	"aion/internal/input"
)

// Operation names recorded by Recorder.
const (
	OpMove     = "move"
	OpLocation = "location"
	OpClick    = "click"
	OpText     = "text"
	OpChar     = "char"
	OpKey      = "key"
	OpCapture  = "capture"
	OpWindows  = "windows"
	OpActivate = "activate"
)

// Call is one recorded device invocation.
type Call struct {
	Op     string
	Point  input.Point
	Button input.Button
	Text   string
	Key    input.Key
	At     time.Time
}

// Recorder is an input.Device that tracks the cursor and logs every call.
// It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	pos   input.Point
	calls []Call

	// LocationErr, when set, is returned by Location.
	LocationErr error
	// Err, when set, is returned by every other method after recording.
	Err error

	// Screen is returned by Capture; a 1x1 image when nil.
	Screen image.Image
	// Windows is returned by ListWindows and searched by ActivateWindow.
	Windows []input.Window
}

// NewRecorder returns a Recorder with the cursor at start.
func NewRecorder(start input.Point) *Recorder {
	return &Recorder{pos: start}
}

func (r *Recorder) record(c Call) {
	c.At = time.Now()
	r.calls = append(r.calls, c)
}

func (r *Recorder) MoveTo(x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = input.Point{X: x, Y: y}
	r.record(Call{Op: OpMove, Point: r.pos})
	return r.Err
}

func (r *Recorder) Location() (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpLocation, Point: r.pos})
	if r.LocationErr != nil {
		return 0, 0, r.LocationErr
	}
	return r.pos.X, r.pos.Y, nil
}

func (r *Recorder) Click(b input.Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpClick, Point: r.pos, Button: b})
	return r.Err
}

func (r *Recorder) TypeText(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpText, Text: s})
	return r.Err
}

func (r *Recorder) TypeChar(c rune) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpChar, Text: string(c)})
	return r.Err
}

func (r *Recorder) KeyTap(k input.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpKey, Key: k})
	return r.Err
}

// ScreenSize reports the bounds of Screen, or 0x0 (unknown) when unset.
func (r *Recorder) ScreenSize() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Screen == nil {
		return 0, 0
	}
	b := r.Screen.Bounds()
	return b.Dx(), b.Dy()
}

func (r *Recorder) screen() image.Image {
	if r.Screen != nil {
		return r.Screen
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

func (r *Recorder) Capture() (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpCapture})
	if r.Err != nil {
		return nil, r.Err
	}
	return r.screen(), nil
}

func (r *Recorder) ListWindows() ([]input.Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpWindows})
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]input.Window(nil), r.Windows...), nil
}

func (r *Recorder) ActivateWindow(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpActivate, Text: name})
	if r.Err != nil {
		return r.Err
	}
	for _, w := range r.Windows {
		if strings.Contains(strings.ToLower(w.Name), strings.ToLower(name)) {
			return nil
		}
	}
	return input.ErrWindowNotFound
}

// Position returns the current cursor position.
func (r *Recorder) Position() input.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns the recorded calls with the given operation name.
func (r *Recorder) Ops(op string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops the recorded calls but keeps the cursor position.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
