package toxicity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// WindowConfig holds the settings a Window is created with.
type WindowConfig struct {
	// Title is the window title. Default: "toxicity".
	Title string
	// Width and Height are the logical screen size. Default: 640x480.
	Width, Height int
	// Resizable lets the user resize the window; the logical size follows.
	Resizable bool
	// TPS is the number of steps per second. Default: 60.
	TPS int
	// ClearColor fills the screen before each frame. The zero value leaves
	// the screen black.
	ClearColor Color
	// ShowFPS draws an FPS counter in the top-left corner.
	ShowFPS bool
	// Debug enables tree warnings, frame timing logs and collision outlines.
	Debug bool
	// ScreenshotDir receives Window.Screenshot captures. Default:
	// "screenshots".
	ScreenshotDir string

	// Logger receives all engine logs. Default: slog.Default().
	Logger *slog.Logger
	// Clock drives node step intervals and window-driven tweens. Default: a
	// monotonic wall clock.
	Clock Clock
	// Intersections and Translations default to fresh registries with the
	// built-in handlers.
	Intersections *IntersectionRegistry
	Translations  *TranslationRegistry
}

func (c WindowConfig) withDefaults() WindowConfig {
	if c.Title == "" {
		c.Title = "toxicity"
	}
	if c.Width == 0 {
		c.Width = 640
	}
	if c.Height == 0 {
		c.Height = 480
	}
	if c.TPS <= 0 {
		c.TPS = 60
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = newMonotonicClock()
	}
	if c.Intersections == nil {
		c.Intersections = NewIntersectionRegistry(c.Logger)
	}
	if c.Translations == nil {
		c.Translations = NewTranslationRegistry(c.Logger)
	}
	return c
}

const commandQueueSize = 64

// command is a function queued for the command goroutine. done is closed
// once fn has run.
type command struct {
	fn   func()
	done chan struct{}
}

// Window owns a component tree and drives it: each frame it dispatches
// events, runs resource housekeeping, steps the tree depth-first, and renders
// it through every viewport. Window commands run on a separate command
// goroutine, so frame code may issue them and wait. Window implements
// ebiten.Game; Run hands it to ebiten. Tests can drive a window directly with
// StepFrame.
type Window struct {
	logger        *slog.Logger
	clock         Clock
	intersections *IntersectionRegistry
	translations  *TranslationRegistry

	root *Node

	// Guards the fields below, which commands change on the command
	// goroutine and any goroutine may read.
	mu         sync.Mutex
	title      string
	width      int
	height     int
	posX, posY int
	resizable  bool
	minimized  bool
	maximized  bool
	clearColor Color
	viewports  []*Viewport
	shots      []string
	shotDir    string

	monitors      []Monitor
	monitorsKnown bool

	tps     int
	showFPS atomic.Bool
	debug   atomic.Bool
	running atomic.Bool

	commands  chan command
	ran       atomic.Int64 // commands run since the last frame
	closing   atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
	frame     atomic.Uint64

	scenes sceneSwitcher
	script atomic.Pointer[Script]

	input     *Input
	events    *EventBus
	resources *Resources
	intervals *IntervalManager
	fps       *fpsCounter
}

// NewWindow creates a window with an empty root node. Nothing is shown
// until the window is passed to Run.
func NewWindow(cfg WindowConfig) (*Window, error) {
	if cfg.Width < 0 || cfg.Height < 0 {
		return nil, fmt.Errorf("new window %dx%d: size must not be negative: %w", cfg.Width, cfg.Height, ErrInvalidWindowSize)
	}
	cfg = cfg.withDefaults()
	w := &Window{
		logger:        cfg.Logger,
		clock:         cfg.Clock,
		intersections: cfg.Intersections,
		translations:  cfg.Translations,
		title:         cfg.Title,
		width:         cfg.Width,
		height:        cfg.Height,
		resizable:     cfg.Resizable,
		clearColor:    cfg.ClearColor,
		shotDir:       cfg.ScreenshotDir,
		tps:           cfg.TPS,
		commands:      make(chan command, commandQueueSize),
		closed:        make(chan struct{}),
	}
	w.debug.Store(cfg.Debug)
	w.showFPS.Store(cfg.ShowFPS)
	w.root = NewContainer("root")
	w.root.window.Store(w)
	w.events = NewEventBus(w.logger)
	w.input = newInput(w.events)
	w.resources = newResources(w.logger)
	w.intervals = NewIntervalManager(w.clock, w.logger)
	w.fps = newFPSCounter()
	go w.runCommands()
	w.logger.Info("window created", "title", cfg.Title, "width", cfg.Width, "height", cfg.Height)
	return w, nil
}

// Root returns the window's root node. Scenes are attached below it.
func (w *Window) Root() *Node { return w.root }

// Logger returns the window's logger.
func (w *Window) Logger() *slog.Logger { return w.logger }

// Clock returns the window's clock.
func (w *Window) Clock() Clock { return w.clock }

// Intersections returns the window's intersection registry.
func (w *Window) Intersections() *IntersectionRegistry { return w.intersections }

// Translations returns the window's translation registry.
func (w *Window) Translations() *TranslationRegistry { return w.translations }

// Input returns the input state captured at the start of the current frame.
func (w *Window) Input() *Input { return w.input }

// Events returns the window's event bus.
func (w *Window) Events() *EventBus { return w.events }

// Resources returns the window's resource store.
func (w *Window) Resources() *Resources { return w.resources }

// Intervals returns the interval manager ticked by the window every frame.
func (w *Window) Intervals() *IntervalManager { return w.intervals }

// Frame returns the number of frames stepped so far.
func (w *Window) Frame() uint64 { return w.frame.Load() }

// SetDebugMode enables or disables debug mode. When enabled, tree depth and
// child count warnings are logged on reparent, frame timings are logged, and
// every collision node outlines its shape.
func (w *Window) SetDebugMode(enabled bool) { w.debug.Store(enabled) }

// Debug reports whether debug mode is on.
func (w *Window) Debug() bool { return w.debug.Load() }

// Title returns the current window title.
func (w *Window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

// Size returns the logical screen size.
func (w *Window) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// WindowPosition returns the last position set with SetPosition.
func (w *Window) WindowPosition() (x, y int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.posX, w.posY
}

// Minimized reports whether the window was iconified and not restored since.
func (w *Window) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

// --- Command queue ---

// Do runs fn on the window's command goroutine and blocks until it has run.
// Commands run one at a time in the order queued, independently of frames,
// so Do may be called from hooks, receivers and event handlers. fn must not
// call Do itself. Do returns ctx's error if ctx ends first, and
// ErrWindowClosed if the window shuts down before fn runs.
func (w *Window) Do(ctx context.Context, fn func()) error {
	select {
	case <-w.closed:
		return ErrWindowClosed
	default:
	}
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case w.commands <- cmd:
	case <-w.closed:
		return ErrWindowClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-w.closed:
		select {
		case <-cmd.done:
			return nil
		default:
			return ErrWindowClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runCommands runs queued commands until the window shuts down.
func (w *Window) runCommands() {
	for {
		select {
		case cmd := <-w.commands:
			cmd.fn()
			close(cmd.done)
			w.ran.Add(1)
		case <-w.closed:
			return
		}
	}
}

// SetTitle changes the window title.
func (w *Window) SetTitle(ctx context.Context, title string) error {
	return w.command(ctx, "set title", func() {
		w.mu.Lock()
		w.title = title
		w.mu.Unlock()
		if w.running.Load() {
			ebiten.SetWindowTitle(title)
		}
	})
}

// SetSize changes the logical screen size and the window size.
func (w *Window) SetSize(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("set size %dx%d: size must be positive: %w", width, height, ErrInvalidWindowSize)
	}
	return w.command(ctx, "set size", func() {
		w.mu.Lock()
		changed := w.width != width || w.height != height
		w.width, w.height = width, height
		w.mu.Unlock()
		if w.running.Load() {
			ebiten.SetWindowSize(width, height)
		}
		if changed {
			w.events.Emit(Event{Topic: EventWindowResized, Payload: Pt(float64(width), float64(height))})
		}
	})
}

// SetPosition moves the window on the desktop.
func (w *Window) SetPosition(ctx context.Context, x, y int) error {
	return w.command(ctx, "set position", func() {
		w.mu.Lock()
		w.posX, w.posY = x, y
		w.mu.Unlock()
		if w.running.Load() {
			ebiten.SetWindowPosition(x, y)
		}
	})
}

// Iconify minimizes the window.
func (w *Window) Iconify(ctx context.Context) error {
	return w.command(ctx, "iconify", func() {
		w.mu.Lock()
		w.minimized, w.maximized = true, false
		w.mu.Unlock()
		if w.running.Load() {
			ebiten.MinimizeWindow()
		}
	})
}

// Maximize maximizes the window.
func (w *Window) Maximize(ctx context.Context) error {
	return w.command(ctx, "maximize", func() {
		w.mu.Lock()
		w.minimized, w.maximized = false, true
		w.mu.Unlock()
		if w.running.Load() {
			ebiten.MaximizeWindow()
		}
	})
}

// Restore undoes Iconify or Maximize.
func (w *Window) Restore(ctx context.Context) error {
	return w.command(ctx, "restore", func() {
		w.mu.Lock()
		w.minimized, w.maximized = false, false
		w.mu.Unlock()
		if w.running.Load() {
			ebiten.RestoreWindow()
		}
	})
}

// Close asks the frame loop to stop after the current frame. Commands issued
// afterwards fail with ErrWindowClosed.
func (w *Window) Close(ctx context.Context) error {
	err := w.Do(ctx, func() {
		w.closing.Store(true)
		w.shutdown()
	})
	if err == nil || errors.Is(err, ErrWindowClosed) {
		return nil
	}
	return fmt.Errorf("close: %w", err)
}

func (w *Window) command(ctx context.Context, name string, fn func()) error {
	if err := w.Do(ctx, fn); err != nil {
		w.logger.Error("window command failed", "command", name, "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// shutdown releases every goroutine blocked in Do.
func (w *Window) shutdown() {
	w.closeOnce.Do(func() {
		close(w.closed)
		if err := w.resources.Close(); err != nil {
			w.logger.Error("closing resources", "error", err)
		}
		w.logger.Info("window closed", "title", w.Title())
	})
}

// --- Frame ---

// StepFrame runs one frame without rendering: the attached script, injected
// input, queued events, a pending close request, resource housekeeping,
// window-driven intervals, a depth-first step of the tree, then viewport
// tracking.
func (w *Window) StepFrame() {
	var t0 time.Time
	debug := w.Debug()
	if debug {
		t0 = time.Now()
	}

	if s := w.script.Load(); s != nil {
		s.step(w)
	}
	w.input.applyInjected()

	var stats frameStats
	stats.commands = int(w.ran.Swap(0))
	stats.events = w.events.Dispatch()
	if req := w.input.takeCloseRequest(); req != nil {
		if req.Canceled() {
			w.logger.Debug("close request canceled")
		} else {
			w.closing.Store(true)
			w.shutdown()
		}
	}
	stats.released = w.resources.housekeep()
	now := w.clock.Now()
	stats.intervals = w.intervals.advance(now)
	stepTree(w.root, nil, now, passes.Add(1))
	w.trackViewports()
	stats.frame = w.frame.Add(1)

	if debug {
		stats.nodes = countNodes(w.root)
		stats.took = time.Since(t0)
		w.debugLog(stats)
	}
}

// stepTree steps node, then its children. Each node's lock is held only for
// its own step, so hooks may reparent any node but their own. A node that
// moved away from parent since the child list was read is skipped, and so is
// one already stepped in this pass.
func stepTree(node, parent *Node, now time.Duration, pass uint64) {
	node.mu.Lock()
	if node.parent.Load() != parent || node.stepPass == pass {
		node.mu.Unlock()
		return
	}
	node.stepPass = pass
	node.step(now)
	children := node.Children()
	node.mu.Unlock()

	for _, c := range children {
		stepTree(c, node, now, pass)
	}
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.closing.Load() {
		return ebiten.Termination
	}
	if w.input.Injected() == 0 {
		w.input.capture(w.Size())
	}
	w.updateMonitors(readMonitors())
	w.StepFrame()
	if w.closing.Load() {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game. The tree is rendered once per enabled
// viewport, or once full screen when there are none.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	bg := w.clearColor
	viewports := append([]*Viewport(nil), w.viewports...)
	w.mu.Unlock()

	if bg.A > 0 {
		screen.Fill(bg.RGBA())
	}
	if len(viewports) == 0 {
		w.renderWithViewport(screen, identityViewport(screen))
	}
	for _, v := range viewports {
		if v.Enabled() {
			w.renderWithViewport(screen, v)
		}
	}
	w.fps.tick(w.clock.Now())
	if w.showFPS.Load() {
		w.fps.draw(screen)
	}
	w.flushScreenshots(screen)
}

// Layout implements ebiten.Game. Resizable windows adopt the outside size
// and publish EventWindowResized when it changes.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	changed := false
	if w.resizable && outsideWidth > 0 && outsideHeight > 0 &&
		(outsideWidth != w.width || outsideHeight != w.height) {
		w.width, w.height = outsideWidth, outsideHeight
		changed = true
	}
	width, height := w.width, w.height
	w.mu.Unlock()
	if changed {
		w.events.Emit(Event{Topic: EventWindowResized, Payload: Pt(float64(width), float64(height))})
	}
	return width, height
}

// Run opens the window and blocks until it is closed.
func Run(w *Window) error {
	w.mu.Lock()
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(w.width, w.height)
	if w.resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	w.mu.Unlock()
	ebiten.SetTPS(w.tps)
	ebiten.SetWindowClosingHandled(true)

	w.running.Store(true)
	defer w.running.Store(false)
	defer w.shutdown()

	err := ebiten.RunGame(w)
	if err != nil && !errors.Is(err, ebiten.Termination) {
		w.logger.Error("window loop failed", "err", err)
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

// --- Queries ---

// NodesThatMatch returns every collision node in the tree tagged with at
// least one of keys, in depth-first order.
func (w *Window) NodesThatMatch(keys ...string) []*Node {
	if len(keys) == 0 {
		return nil
	}
	var out []*Node
	walk(w.root, func(n *Node) bool {
		if n.Type == NodeTypeCollision && n.MatchesAny(keys) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// TopNodeAt returns the owner of the topmost visible collision node whose
// shape contains p. The highest world Z wins; among equal Z the node drawn
// last wins. It returns nil when nothing is under p.
func (w *Window) TopNodeAt(p Point) *Node {
	var top *Node
	var topZ float64
	walk(w.root, func(n *Node) bool {
		if !n.Visible() {
			return false
		}
		if n.Type != NodeTypeCollision {
			return true
		}
		s := n.Shape()
		if s == nil || !s.ContainsPoint(p) {
			return true
		}
		if z := n.WorldPosition().Z; top == nil || z >= topZ {
			top, topZ = n, z
		}
		return true
	})
	if top == nil {
		return nil
	}
	return top.Owner()
}

// IsTheTopNode reports whether n is the node TopNodeAt returns for p.
func (w *Window) IsTheTopNode(p Point, n *Node) bool {
	top := w.TopNodeAt(p)
	return top != nil && top == n
}
