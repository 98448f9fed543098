package toxicity

import (
	"io/fs"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// Input is the keyboard and mouse state of a window, captured once at the
// start of every frame. Transitions are published on the window's event bus.
// Safe for concurrent use.
type Input struct {
	mu      sync.RWMutex
	keys    map[ebiten.Key]bool
	buttons [mouseButtonCount]bool
	cursor  Point
	inside  bool
	mods    KeyModifiers
	window  windowState
	closing *CloseRequest

	// injected frames replace real input, one per frame
	injected []inputFrame

	events *EventBus
}

func newInput(events *EventBus) *Input {
	return &Input{keys: make(map[ebiten.Key]bool), events: events}
}

// windowState is the part of the window state the platform changes. The zero
// value is a focused, visible window at the origin.
type windowState struct {
	unfocused bool
	minimized bool
	pos       Point
}

// inputFrame is what changed since the previous frame.
type inputFrame struct {
	pressed, released []ebiten.Key
	repeated          []ebiten.Key
	typed             []rune
	down, up          [mouseButtonCount]bool
	cursor            Point
	inside            bool
	wheel             Point
	mods              KeyModifiers
	dropped           fs.FS
	window            *windowState // nil leaves the window state unchanged
	closeRequested    bool
}

// Key repeat timing in ticks.
const (
	keyRepeatDelay    = 30
	keyRepeatInterval = 3
)

// isRepeatTick reports whether a key held for d ticks repeats on this tick.
func isRepeatTick(d int) bool {
	return d > keyRepeatDelay && (d-keyRepeatDelay)%keyRepeatInterval == 0
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// readInputFrame polls ebiten. Only valid inside ebiten's Update.
func readInputFrame(width, height int) inputFrame {
	f := inputFrame{
		pressed:  inpututil.AppendJustPressedKeys(nil),
		released: inpututil.AppendJustReleasedKeys(nil),
		mods:     readModifiers(),
	}
	for b := MouseButtonLeft; b < mouseButtonCount; b++ {
		f.down[b] = inpututil.IsMouseButtonJustPressed(b.ebiten())
		f.up[b] = inpututil.IsMouseButtonJustReleased(b.ebiten())
	}
	x, y := ebiten.CursorPosition()
	f.cursor = Pt(float64(x), float64(y))
	f.inside = x >= 0 && y >= 0 && x < width && y < height
	f.wheel.X, f.wheel.Y = ebiten.Wheel()
	for _, k := range inpututil.AppendPressedKeys(nil) {
		if isRepeatTick(inpututil.KeyPressDuration(k)) {
			f.repeated = append(f.repeated, k)
		}
	}
	f.typed = ebiten.AppendInputChars(nil)
	f.dropped = ebiten.DroppedFiles()
	wx, wy := ebiten.WindowPosition()
	f.window = &windowState{
		unfocused: !ebiten.IsFocused(),
		minimized: ebiten.IsWindowMinimized(),
		pos:       Pt(float64(wx), float64(wy)),
	}
	f.closeRequested = ebiten.IsWindowBeingClosed()
	return f
}

// capture reads this frame's input from ebiten.
func (in *Input) capture(width, height int) {
	in.apply(readInputFrame(width, height))
}

// apply folds f into the state and queues one event per transition.
func (in *Input) apply(f inputFrame) {
	in.mu.Lock()
	moved := f.cursor != in.cursor
	entered := f.inside && !in.inside
	exited := !f.inside && in.inside
	prev := in.window
	in.cursor = f.cursor
	in.inside = f.inside
	in.mods = f.mods
	if f.window != nil {
		in.window = *f.window
	}
	cur := in.window
	var req *CloseRequest
	if f.closeRequested && in.closing == nil {
		req = &CloseRequest{}
		in.closing = req
	}
	for _, k := range f.pressed {
		in.keys[k] = true
	}
	for _, k := range f.released {
		delete(in.keys, k)
	}
	for b := range mouseButtonCount {
		if f.down[b] {
			in.buttons[b] = true
		}
		if f.up[b] {
			in.buttons[b] = false
		}
	}
	in.mu.Unlock()

	if in.events == nil {
		return
	}
	for _, k := range f.pressed {
		in.events.Emit(Event{Topic: EventKeyPressed, Key: k, Cursor: f.cursor, Mods: f.mods})
	}
	for _, k := range f.released {
		in.events.Emit(Event{Topic: EventKeyReleased, Key: k, Cursor: f.cursor, Mods: f.mods})
	}
	for _, k := range f.repeated {
		in.events.Emit(Event{Topic: EventKeyRepeated, Key: k, Cursor: f.cursor, Mods: f.mods})
	}
	for _, r := range f.typed {
		in.events.Emit(Event{Topic: EventKeyTyped, Rune: r, Cursor: f.cursor})
		in.events.Emit(Event{Topic: EventKeyTypedMods, Rune: r, Cursor: f.cursor, Mods: f.mods})
	}
	for b := range mouseButtonCount {
		if f.down[b] {
			in.events.Emit(Event{Topic: EventMousePressed, Button: b, Cursor: f.cursor, Mods: f.mods})
		}
		if f.up[b] {
			in.events.Emit(Event{Topic: EventMouseReleased, Button: b, Cursor: f.cursor, Mods: f.mods})
		}
	}
	if entered {
		in.events.Emit(Event{Topic: EventMouseEntered, Cursor: f.cursor})
	}
	if exited {
		in.events.Emit(Event{Topic: EventMouseExited, Cursor: f.cursor})
	}
	if moved {
		in.events.Emit(Event{Topic: EventMouseMoved, Cursor: f.cursor})
	}
	if f.wheel.X != 0 || f.wheel.Y != 0 {
		in.events.Emit(Event{Topic: EventMouseScrolled, Cursor: f.cursor, Scroll: f.wheel})
	}
	if f.dropped != nil {
		in.events.Emit(Event{Topic: EventFilesDropped, Cursor: f.cursor, Files: f.dropped})
	}
	in.emitWindowChanges(prev, cur)
	if req != nil {
		in.events.Emit(Event{Topic: EventWindowClosing, Payload: req})
	}
}

func (in *Input) emitWindowChanges(prev, cur windowState) {
	if prev.unfocused != cur.unfocused {
		topic := EventWindowFocused
		if cur.unfocused {
			topic = EventWindowUnfocused
		}
		in.events.Emit(Event{Topic: topic})
	}
	if prev.minimized != cur.minimized {
		topic := EventWindowDeiconified
		if cur.minimized {
			topic = EventWindowIconified
		}
		in.events.Emit(Event{Topic: topic})
	}
	if prev.pos != cur.pos {
		in.events.Emit(Event{Topic: EventWindowMoved, Payload: cur.pos})
	}
}

// takeCloseRequest returns the pending close request and clears it.
func (in *Input) takeCloseRequest() *CloseRequest {
	in.mu.Lock()
	defer in.mu.Unlock()
	req := in.closing
	in.closing = nil
	return req
}

// IsKeyDown reports whether k is held.
func (in *Input) IsKeyDown(k ebiten.Key) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.keys[k]
}

// IsMouseButtonDown reports whether b is held.
func (in *Input) IsMouseButtonDown(b MouseButton) bool {
	if b >= mouseButtonCount {
		return false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.buttons[b]
}

// Modifiers returns the modifier keys held.
func (in *Input) Modifiers() KeyModifiers {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.mods
}

// CursorPosition returns the cursor in window coordinates.
func (in *Input) CursorPosition() Point {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.cursor
}

// IsFocused reports whether the window has keyboard focus.
func (in *Input) IsFocused() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return !in.window.unfocused
}

// IsIconified reports whether the platform shows the window minimized.
func (in *Input) IsIconified() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.window.minimized
}

// IsCursorInWindow reports whether the cursor is over the window.
func (in *Input) IsCursorInWindow() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.inside
}

// CursorRelativeTo returns the cursor in n's local frame, going through the
// viewport under the cursor.
func (w *Window) CursorRelativeTo(n *Node) Point {
	return n.WorldToLocal(w.ScreenToWorld(w.input.CursorPosition()))
}
