package toxicity

import (
	"io/fs"

	"github.com/hajimehoshi/ebiten/v2"
)

// Injected input replaces the real mouse and keyboard for one frame per
// event, in the order queued. Coordinates are window coordinates, the same
// space real cursor positions use, so injected clicks go through viewports
// exactly like real ones.

func (in *Input) inject(f inputFrame) {
	in.mu.Lock()
	in.injected = append(in.injected, f)
	in.mu.Unlock()
}

// Injected returns the number of queued synthetic frames.
func (in *Input) Injected() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.injected)
}

// applyInjected applies the next queued frame, if any.
func (in *Input) applyInjected() bool {
	in.mu.Lock()
	if len(in.injected) == 0 {
		in.mu.Unlock()
		return false
	}
	f := in.injected[0]
	copy(in.injected, in.injected[1:])
	in.injected = in.injected[:len(in.injected)-1]
	in.mu.Unlock()
	in.apply(f)
	return true
}

func (w *Window) pointerFrame(x, y float64) inputFrame {
	width, height := w.Size()
	return inputFrame{
		cursor: Pt(x, y),
		inside: x >= 0 && y >= 0 && x < float64(width) && y < float64(height),
		mods:   w.input.Modifiers(),
	}
}

// cursorFrame is a frame that leaves the cursor where it is.
func (w *Window) cursorFrame() inputFrame {
	c := w.input.CursorPosition()
	return w.pointerFrame(c.X, c.Y)
}

// InjectPress queues a press of button at (x, y).
func (w *Window) InjectPress(x, y float64, button MouseButton) {
	f := w.pointerFrame(x, y)
	if button < mouseButtonCount {
		f.down[button] = true
	}
	w.input.inject(f)
}

// InjectMove queues a cursor move to (x, y). Held buttons stay held, so a
// press, moves and a release make a drag.
func (w *Window) InjectMove(x, y float64) {
	w.input.inject(w.pointerFrame(x, y))
}

// InjectRelease queues a release of button at (x, y).
func (w *Window) InjectRelease(x, y float64, button MouseButton) {
	f := w.pointerFrame(x, y)
	if button < mouseButtonCount {
		f.up[button] = true
	}
	w.input.inject(f)
}

// InjectClick queues a left press followed by a release at (x, y). It
// consumes two frames.
func (w *Window) InjectClick(x, y float64) {
	w.InjectPress(x, y, MouseButtonLeft)
	w.InjectRelease(x, y, MouseButtonLeft)
}

// InjectDrag queues a left-button drag from one point to another lasting
// frames frames: a press, evenly spaced moves and a release. frames is at
// least 2.
func (w *Window) InjectDrag(from, to Point, frames int) {
	frames = max(frames, 2)
	w.InjectPress(from.X, from.Y, MouseButtonLeft)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		w.InjectMove(from.X+(to.X-from.X)*t, from.Y+(to.Y-from.Y)*t)
	}
	w.InjectRelease(to.X, to.Y, MouseButtonLeft)
}

// InjectKey queues a press of k followed by its release. It consumes two
// frames.
func (w *Window) InjectKey(k ebiten.Key) {
	press := w.cursorFrame()
	press.pressed = []ebiten.Key{k}
	release := w.cursorFrame()
	release.released = []ebiten.Key{k}
	w.input.inject(press)
	w.input.inject(release)
}

// InjectKeyRepeat queues one auto-repeat of k.
func (w *Window) InjectKeyRepeat(k ebiten.Key) {
	f := w.cursorFrame()
	f.repeated = []ebiten.Key{k}
	w.input.inject(f)
}

// InjectTyped queues the characters of s as typed text in one frame.
func (w *Window) InjectTyped(s string) {
	f := w.cursorFrame()
	f.typed = []rune(s)
	w.input.inject(f)
}

// InjectFiles queues a drop of fsys onto the window at the cursor.
func (w *Window) InjectFiles(fsys fs.FS) {
	f := w.cursorFrame()
	f.dropped = fsys
	w.input.inject(f)
}

// InjectFocus queues the window gaining or losing focus.
func (w *Window) InjectFocus(focused bool) {
	w.injectWindow(func(s *windowState) { s.unfocused = !focused })
}

// InjectIconify queues the platform minimizing or restoring the window.
func (w *Window) InjectIconify(iconified bool) {
	w.injectWindow(func(s *windowState) { s.minimized = iconified })
}

// InjectWindowMove queues the platform moving the window to (x, y).
func (w *Window) InjectWindowMove(x, y int) {
	w.injectWindow(func(s *windowState) { s.pos = Pt(float64(x), float64(y)) })
}

// InjectCloseRequest queues the user asking to close the window.
func (w *Window) InjectCloseRequest() {
	f := w.cursorFrame()
	f.closeRequested = true
	w.input.inject(f)
}

// injectWindow queues a frame that changes the window state as left by the
// frames queued before it.
func (w *Window) injectWindow(change func(*windowState)) {
	in := w.input
	in.mu.Lock()
	state := in.window
	for _, f := range in.injected {
		if f.window != nil {
			state = *f.window
		}
	}
	change(&state)
	c := in.cursor
	in.mu.Unlock()
	f := w.pointerFrame(c.X, c.Y)
	f.window = &state
	w.input.inject(f)
}
