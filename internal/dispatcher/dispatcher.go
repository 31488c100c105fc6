// Package dispatcher executes input actions against the shared device,
// animated or direct depending on the operation mode.
package dispatcher

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"aion/internal/config"
	"aion/internal/input"
	"aion/internal/mode"
	"aion/internal/osutils"
)

// Timing holds the pacing of animated actions.
type Timing struct {
	MoveSteps    int
	StepDelay    time.Duration
	ClickSettle  time.Duration
	TypeInterval time.Duration
}

// DefaultTiming returns the timing of the default configuration.
func DefaultTiming() Timing {
	return TimingFromConfig(config.DefaultConfig().Timing)
}

// TimingFromConfig converts the configured timing to durations.
func TimingFromConfig(t config.TimingConfig) Timing {
	return Timing{
		MoveSteps:    t.MoveSteps,
		StepDelay:    t.StepDelay(),
		ClickSettle:  t.ClickSettle(),
		TypeInterval: t.TypeInterval(),
	}
}

// Action names reported to observers.
const (
	ActionMove    = "mouse.move"
	ActionClick   = "mouse.click"
	ActionType    = "keyboard.type"
	ActionPress   = "keyboard.press"
	ActionBrowse  = "browser.open"
	ActionMode    = "mode"
	ActionCapture = "screen.capture"
	ActionWindow  = "window.switch"
)

// Event describes a completed action.
type Event struct {
	Action  string
	Message string
	Mode    mode.Mode
	At      time.Time
}

// Observer receives an Event after each completed action.
type Observer func(Event)

// Result is the outcome of a successful action.
type Result struct {
	Message string
}

// Dispatcher owns the mode state and the input device for the lifetime of
// the process. Device access is serialized: an action holds the device lock
// from its first device call to its last, so animations never interleave.
type Dispatcher struct {
	mode *mode.State

	devMu  sync.Mutex
	device input.Device

	timing  Timing
	openURL func(string) error
	sleep   func(time.Duration)

	obsMu     sync.RWMutex
	observers []Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTiming overrides the default timing.
func WithTiming(t Timing) Option {
	return func(d *Dispatcher) {
		if t.MoveSteps < 1 {
			t.MoveSteps = 1
		}
		d.timing = t
	}
}

// WithURLOpener replaces the browser launcher.
func WithURLOpener(fn func(string) error) Option {
	return func(d *Dispatcher) { d.openURL = fn }
}

// WithSleep replaces time.Sleep for the delays between steps.
func WithSleep(fn func(time.Duration)) Option {
	return func(d *Dispatcher) { d.sleep = fn }
}

// New creates a Dispatcher over device and state.
func New(device input.Device, state *mode.State, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		mode:    state,
		device:  device,
		timing:  DefaultTiming(),
		openURL: osutils.OpenURL,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnAction registers an observer for completed actions.
func (d *Dispatcher) OnAction(fn Observer) {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	d.observers = append(d.observers, fn)
}

func (d *Dispatcher) notify(action, message string, m mode.Mode) {
	d.obsMu.RLock()
	observers := d.observers
	d.obsMu.RUnlock()

	ev := Event{Action: action, Message: message, Mode: m, At: time.Now()}
	for _, fn := range observers {
		fn(ev)
	}
}

// bestEffort logs a device failure. Device errors never change the outcome
// of an action.
func bestEffort(op string, err error) {
	if err != nil {
		log.Printf("Dispatcher: %s failed (ignored): %v", op, err)
	}
}

// Mode returns the active operation mode.
func (d *Dispatcher) Mode() mode.Mode {
	return d.mode.Get()
}

// SetMode switches the operation mode. An unrecognized token returns
// mode.ErrInvalidMode and leaves the current mode untouched.
func (d *Dispatcher) SetMode(token string) (Result, error) {
	m, err := mode.Parse(token)
	if err != nil {
		return Result{}, err
	}
	d.mode.Set(m)

	msg := fmt.Sprintf("Mode changed to: %s", token)
	log.Printf("Dispatcher: %s", msg)
	d.notify(ActionMode, msg, m)
	return Result{Message: msg}, nil
}

// Move moves the cursor to (x, y). In assistant mode the cursor is walked
// along a linear plan from its current position before the final move.
//
// The mode is read before the device lock is taken, so a mode change that
// lands while this call waits for the device is not observed until the next
// action. At most one stale decision is made per in-flight request.
func (d *Dispatcher) Move(x, y int) Result {
	m := d.mode.Get()
	target := input.Point{X: x, Y: y}
	d.warnOffscreen(target)

	d.devMu.Lock()
	if m == mode.Assistant {
		d.animateTo(target)
	}
	bestEffort("move", d.device.MoveTo(x, y))
	d.devMu.Unlock()

	msg := fmt.Sprintf("Mouse moved to (%d, %d)", x, y)
	d.notify(ActionMove, msg, m)
	return Result{Message: msg}
}

// animateTo replays a motion plan toward target. The caller holds devMu.
// The plan stops short of target; Move snaps to it afterwards.
func (d *Dispatcher) animateTo(target input.Point) {
	cx, cy, err := d.device.Location()
	if err != nil {
		bestEffort("location", err)
		return
	}

	points, err := input.Plan(input.Point{X: cx, Y: cy}, target, d.timing.MoveSteps)
	if err != nil {
		bestEffort("plan", err)
		return
	}
	for _, p := range points {
		bestEffort("move", d.device.MoveTo(p.X, p.Y))
		d.sleep(d.timing.StepDelay)
	}
}

func (d *Dispatcher) warnOffscreen(p input.Point) {
	sizer, ok := d.device.(input.Screen)
	if !ok {
		return
	}
	w, h := sizer.ScreenSize()
	if w > 0 && h > 0 && !input.ValidCoordinates(p, w-1, h-1) {
		log.Printf("Dispatcher: target %s is outside the %dx%d screen", p, w, h)
	}
}

// Click clicks button, first moving directly to (x, y) when both are given.
// Unknown or empty button tokens click the left button. The mode has no
// effect on clicks.
func (d *Dispatcher) Click(x, y *int, button string) Result {
	b := input.ResolveButton(button)
	hasPoint := x != nil && y != nil

	d.devMu.Lock()
	if hasPoint {
		bestEffort("move", d.device.MoveTo(*x, *y))
		d.sleep(d.timing.ClickSettle)
	}
	bestEffort("click", d.device.Click(b))
	d.devMu.Unlock()

	var msg string
	if hasPoint {
		msg = fmt.Sprintf("Clicked at (%d, %d) with %s button", *x, *y, b.Label())
	} else {
		msg = fmt.Sprintf("Clicked with %s button", b.Label())
	}
	d.notify(ActionClick, msg, d.mode.Get())
	return Result{Message: msg}
}

// Type injects text. In assistant mode characters are sent one at a time,
// intervalMs apart (the configured default when nil); in production mode
// the whole string goes out in one call.
func (d *Dispatcher) Type(text string, intervalMs *uint64) Result {
	m := d.mode.Get()
	interval := d.timing.TypeInterval
	if intervalMs != nil {
		interval = intervalDuration(*intervalMs)
	}

	d.devMu.Lock()
	switch m {
	case mode.Assistant:
		for _, ch := range text {
			bestEffort("type", d.device.TypeChar(ch))
			d.sleep(interval)
		}
	default:
		if text != "" {
			bestEffort("type", d.device.TypeText(text))
		}
	}
	d.devMu.Unlock()

	msg := fmt.Sprintf("Typed: %s", text)
	d.notify(ActionType, msg, m)
	return Result{Message: msg}
}

// maxIntervalMs is the largest millisecond count a time.Duration can hold.
const maxIntervalMs = uint64(math.MaxInt64 / int64(time.Millisecond))

// intervalDuration converts a client interval, saturating instead of
// overflowing.
func intervalDuration(ms uint64) time.Duration {
	if ms > maxIntervalMs {
		ms = maxIntervalMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Press taps the key named by token. Unsupported tokens return an
// *UnknownKeyError without touching the device.
func (d *Dispatcher) Press(token string) (Result, error) {
	key, ok := input.ParseKey(token)
	if !ok {
		return Result{}, &UnknownKeyError{Token: token}
	}

	d.devMu.Lock()
	bestEffort("key", d.device.KeyTap(key))
	d.devMu.Unlock()

	msg := fmt.Sprintf("Pressed key: %s", token)
	d.notify(ActionPress, msg, d.mode.Get())
	return Result{Message: msg}, nil
}

// OpenURL launches the default browser. The URL is passed through as-is and
// launch failures are logged only; the action always reports success.
func (d *Dispatcher) OpenURL(url string) Result {
	bestEffort("browser open", d.openURL(url))

	msg := fmt.Sprintf("Browser opened: %s", url)
	d.notify(ActionBrowse, msg, d.mode.Get())
	return Result{Message: msg}
}
