package dispatcher

import (
	"errors"
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aion/internal/input"
	"aion/internal/input/inputtest"
	"aion/internal/mode"
)

// sleepLog records requested delays instead of sleeping.
type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepLog) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepLog) all() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type fixture struct {
	dev    *inputtest.Recorder
	state  *mode.State
	sleeps *sleepLog
	urls   []string
	d      *Dispatcher
}

func newFixture(t *testing.T, m mode.Mode) *fixture {
	t.Helper()
	f := &fixture{
		dev:    inputtest.NewRecorder(input.Point{}),
		state:  mode.NewState(m),
		sleeps: &sleepLog{},
	}
	f.d = New(f.dev, f.state,
		WithSleep(f.sleeps.sleep),
		WithURLOpener(func(url string) error {
			f.urls = append(f.urls, url)
			return errors.New("no browser")
		}),
	)
	return f
}

func TestMoveAssistantAnimates(t *testing.T) {
	f := newFixture(t, mode.Assistant)

	res := f.d.Move(10, 10)
	assert.Equal(t, "Mouse moved to (10, 10)", res.Message)

	calls := f.dev.Calls()
	require.Len(t, calls, 22)
	assert.Equal(t, inputtest.OpLocation, calls[0].Op)

	moves := f.dev.Ops(inputtest.OpMove)
	require.Len(t, moves, 21)
	assert.Equal(t, input.Point{X: 0, Y: 0}, moves[0].Point)
	assert.Equal(t, input.Point{X: 9, Y: 9}, moves[19].Point)
	assert.Equal(t, input.Point{X: 10, Y: 10}, moves[20].Point)

	delays := f.sleeps.all()
	require.Len(t, delays, 20)
	for _, d := range delays {
		assert.Equal(t, 10*time.Millisecond, d)
	}
	assert.Equal(t, input.Point{X: 10, Y: 10}, f.dev.Position())
}

func TestMoveProductionIsDirect(t *testing.T) {
	f := newFixture(t, mode.Assistant)

	_, err := f.d.SetMode("production")
	require.NoError(t, err)

	f.d.Move(500, 300)

	calls := f.dev.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, inputtest.OpMove, calls[0].Op)
	assert.Equal(t, input.Point{X: 500, Y: 300}, calls[0].Point)
	assert.Empty(t, f.sleeps.all())
}

func TestMoveLocationFailureStillSnaps(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	f.dev.LocationErr = errors.New("no cursor")

	f.d.Move(42, -7)

	moves := f.dev.Ops(inputtest.OpMove)
	require.Len(t, moves, 1)
	assert.Equal(t, input.Point{X: 42, Y: -7}, moves[0].Point)
	assert.Empty(t, f.sleeps.all())
}

func TestMoveIgnoresDeviceErrors(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	f.dev.Err = errors.New("device gone")

	res := f.d.Move(100, 0)
	assert.Equal(t, "Mouse moved to (100, 0)", res.Message)
	assert.Len(t, f.dev.Ops(inputtest.OpMove), 21)
}

func TestMoveUsesConfiguredSteps(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	f.d = New(f.dev, f.state, WithSleep(f.sleeps.sleep), WithTiming(Timing{MoveSteps: 4, StepDelay: time.Millisecond}))

	f.d.Move(40, 80)

	moves := f.dev.Ops(inputtest.OpMove)
	require.Len(t, moves, 5)
	assert.Equal(t, []input.Point{{X: 0, Y: 0}, {X: 10, Y: 20}, {X: 20, Y: 40}, {X: 30, Y: 60}, {X: 40, Y: 80}},
		[]input.Point{moves[0].Point, moves[1].Point, moves[2].Point, moves[3].Point, moves[4].Point})
}

func TestConcurrentMovesDoNotInterleave(t *testing.T) {
	dev := inputtest.NewRecorder(input.Point{})
	d := New(dev, mode.NewState(mode.Assistant), WithTiming(Timing{MoveSteps: 20, StepDelay: 200 * time.Microsecond}))

	targets := []input.Point{{X: 400, Y: 0}, {X: 0, Y: 400}}
	var wg sync.WaitGroup
	for _, p := range targets {
		wg.Add(1)
		go func(p input.Point) {
			defer wg.Done()
			d.Move(p.X, p.Y)
		}(p)
	}
	wg.Wait()

	calls := dev.Calls()
	require.Len(t, calls, 44)

	// Each action is one contiguous block: location, 20 steps, final snap.
	for _, start := range []int{0, 22} {
		block := calls[start : start+22]
		assert.Equal(t, inputtest.OpLocation, block[0].Op)
		for _, c := range block[1:] {
			assert.Equal(t, inputtest.OpMove, c.Op)
		}
		target := block[21].Point
		assert.Contains(t, targets, target)

		from := block[0].Point
		plan, err := input.Plan(from, target, 20)
		require.NoError(t, err)
		for i, p := range plan {
			assert.Equal(t, p, block[i+1].Point)
		}
		for i := 1; i < len(block); i++ {
			assert.False(t, block[i].At.Before(block[i-1].At))
		}
	}
	assert.NotEqual(t, calls[21].Point, calls[43].Point)
}

func TestClickDefaultsToLeft(t *testing.T) {
	f := newFixture(t, mode.Assistant)

	res := f.d.Click(nil, nil, "")
	assert.Equal(t, "Clicked with Left button", res.Message)

	calls := f.dev.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, inputtest.OpClick, calls[0].Op)
	assert.Equal(t, input.ButtonLeft, calls[0].Button)
	assert.Empty(t, f.sleeps.all())

	f.dev.Reset()
	f.d.Click(nil, nil, "button4")
	assert.Equal(t, input.ButtonLeft, f.dev.Calls()[0].Button)
}

func TestClickAtPointMovesDirectly(t *testing.T) {
	for _, m := range []mode.Mode{mode.Assistant, mode.Production} {
		f := newFixture(t, m)
		x, y := 500, 300

		res := f.d.Click(&x, &y, "RIGHT")
		assert.Equal(t, "Clicked at (500, 300) with Right button", res.Message)

		calls := f.dev.Calls()
		require.Len(t, calls, 2, m.String())
		assert.Equal(t, inputtest.OpMove, calls[0].Op)
		assert.Equal(t, input.Point{X: 500, Y: 300}, calls[0].Point)
		assert.Equal(t, inputtest.OpClick, calls[1].Op)
		assert.Equal(t, input.ButtonRight, calls[1].Button)
		assert.Equal(t, []time.Duration{50 * time.Millisecond}, f.sleeps.all())
	}
}

func TestClickNeedsBothCoordinates(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	x := 10

	res := f.d.Click(&x, nil, "middle")
	assert.Equal(t, "Clicked with Middle button", res.Message)
	assert.Empty(t, f.dev.Ops(inputtest.OpMove))
	assert.Equal(t, input.ButtonMiddle, f.dev.Ops(inputtest.OpClick)[0].Button)
}

func TestTypeAssistantPerCharacter(t *testing.T) {
	f := newFixture(t, mode.Assistant)

	res := f.d.Type("héllo", nil)
	assert.Equal(t, "Typed: héllo", res.Message)

	chars := f.dev.Ops(inputtest.OpChar)
	require.Len(t, chars, 5)
	var got string
	for _, c := range chars {
		got += c.Text
	}
	assert.Equal(t, "héllo", got)
	assert.Empty(t, f.dev.Ops(inputtest.OpText))

	delays := f.sleeps.all()
	require.Len(t, delays, 5)
	assert.Equal(t, 50*time.Millisecond, delays[0])
}

func TestTypeAssistantCustomInterval(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	interval := uint64(5)

	f.d.Type("ab", &interval)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, f.sleeps.all())
}

func TestTypeAssistantHugeIntervalSaturates(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	interval := uint64(1 << 63)

	f.d.Type("ab", &interval)

	longest := time.Duration(math.MaxInt64/int64(time.Millisecond)) * time.Millisecond
	assert.Equal(t, []time.Duration{longest, longest}, f.sleeps.all())
}

func TestTypeProductionSingleCall(t *testing.T) {
	f := newFixture(t, mode.Production)
	interval := uint64(500)

	f.d.Type("Hello World", &interval)

	calls := f.dev.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, inputtest.OpText, calls[0].Op)
	assert.Equal(t, "Hello World", calls[0].Text)
	assert.Empty(t, f.sleeps.all())
}

func TestTypeEmptyText(t *testing.T) {
	for _, m := range []mode.Mode{mode.Assistant, mode.Production} {
		f := newFixture(t, m)
		res := f.d.Type("", nil)
		assert.Equal(t, "Typed: ", res.Message)
		assert.Empty(t, f.dev.Calls())
	}
}

func TestPressKnownKey(t *testing.T) {
	f := newFixture(t, mode.Production)

	res, err := f.d.Press("Return")
	require.NoError(t, err)
	assert.Equal(t, "Pressed key: Return", res.Message)

	calls := f.dev.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, input.KeyEnter, calls[0].Key)
}

func TestPressUnknownKey(t *testing.T) {
	f := newFixture(t, mode.Assistant)

	for _, token := range []string{"f1", "ctrl", ""} {
		_, err := f.d.Press(token)
		var unknown *UnknownKeyError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, token, unknown.Token)
	}
	assert.Empty(t, f.dev.Calls())
}

func TestOpenURLAlwaysSucceeds(t *testing.T) {
	f := newFixture(t, mode.Assistant)

	res := f.d.OpenURL("https://example.com")
	assert.Equal(t, "Browser opened: https://example.com", res.Message)
	assert.Equal(t, []string{"https://example.com"}, f.urls)
	assert.Empty(t, f.dev.Calls())
}

func TestSetMode(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	assert.Equal(t, mode.Assistant, f.d.Mode())

	res, err := f.d.SetMode("PRODUCTION")
	require.NoError(t, err)
	assert.Equal(t, "Mode changed to: PRODUCTION", res.Message)
	assert.Equal(t, mode.Production, f.d.Mode())

	_, err = f.d.SetMode("turbo")
	assert.ErrorIs(t, err, mode.ErrInvalidMode)
	assert.Equal(t, mode.Production, f.d.Mode())
}

func TestObserversSeeActions(t *testing.T) {
	f := newFixture(t, mode.Production)

	var events []Event
	f.d.OnAction(func(ev Event) { events = append(events, ev) })

	f.d.Move(1, 2)
	_, _ = f.d.Press("nope")
	_, _ = f.d.Press("tab")
	_, _ = f.d.SetMode("assistant")

	require.Len(t, events, 3)
	assert.Equal(t, ActionMove, events[0].Action)
	assert.Equal(t, mode.Production, events[0].Mode)
	assert.Equal(t, ActionPress, events[1].Action)
	assert.Equal(t, ActionMode, events[2].Action)
	assert.Equal(t, mode.Assistant, events[2].Mode)
}

func TestCaptureHoldsDeviceAndNotifies(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	f.dev.Screen = image.NewRGBA(image.Rect(0, 0, 4, 3))

	var events []Event
	f.d.OnAction(func(ev Event) { events = append(events, ev) })

	img, err := f.d.Capture()
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Len(t, f.dev.Ops(inputtest.OpCapture), 1)

	require.Len(t, events, 1)
	assert.Equal(t, ActionCapture, events[0].Action)
	assert.Equal(t, "Screen captured (4x3)", events[0].Message)
}

func TestCaptureReturnsDeviceError(t *testing.T) {
	f := newFixture(t, mode.Assistant)
	f.dev.Err = errors.New("no display")

	_, err := f.d.Capture()
	assert.EqualError(t, err, "no display")
}

func TestWindows(t *testing.T) {
	f := newFixture(t, mode.Production)
	f.dev.Windows = []input.Window{
		{PID: 10, Name: "Terminal", Title: "bash"},
		{PID: 20, Name: "Firefox", Title: "Start Page"},
	}

	windows, err := f.d.ListWindows()
	require.NoError(t, err)
	assert.Equal(t, f.dev.Windows, windows)

	res, err := f.d.SwitchWindow("firefox")
	require.NoError(t, err)
	assert.Equal(t, "Switched to window: firefox", res.Message)

	_, err = f.d.SwitchWindow("notepad")
	assert.ErrorIs(t, err, input.ErrWindowNotFound)

	activations := f.dev.Ops(inputtest.OpActivate)
	require.Len(t, activations, 2)
	assert.Equal(t, "firefox", activations[0].Text)
}

func TestScreenAndWindowsUnsupported(t *testing.T) {
	// Only the Device methods are promoted, hiding the optional capabilities.
	dev := struct{ input.Device }{inputtest.NewRecorder(input.Point{})}
	d := New(dev, mode.NewState(mode.Assistant), WithSleep(func(time.Duration) {}))

	_, err := d.Capture()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = d.ListWindows()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = d.SwitchWindow("x")
	assert.ErrorIs(t, err, ErrUnsupported)
}
