package toxicity

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

// recorder logs every lifecycle call as "scene.Method". Calls listed in
// block wait on the matching channel before returning.
type recorder struct {
	mu      sync.Mutex
	log     []string
	w       *Window
	block   map[string]chan struct{}
	entered chan string
	states  map[string]SceneState
}

func newRecorder(w *Window) *recorder {
	return &recorder{
		w:       w,
		block:   make(map[string]chan struct{}),
		entered: make(chan string, 16),
		states:  make(map[string]SceneState),
	}
}

func (r *recorder) call(scene *Node, method string) {
	key := scene.Name + "." + method
	r.mu.Lock()
	r.log = append(r.log, key)
	r.states[key] = r.w.SceneState()
	ch := r.block[key]
	r.mu.Unlock()
	if ch != nil {
		r.entered <- key
		<-ch
	}
}

func (r *recorder) hold(key string) chan struct{} {
	ch := make(chan struct{})
	r.mu.Lock()
	r.block[key] = ch
	r.mu.Unlock()
	return ch
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.log)
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.log = nil
	r.mu.Unlock()
}

func (r *recorder) Initialize(n *Node)    { r.call(n, "Initialize") }
func (r *recorder) TransitionIn(n *Node)  { r.call(n, "TransitionIn") }
func (r *recorder) Start(n *Node)         { r.call(n, "Start") }
func (r *recorder) TransitionOut(n *Node) { r.call(n, "TransitionOut") }
func (r *recorder) Stop(n *Node)          { r.call(n, "Stop") }

func switchAndWait(t *testing.T, w *Window, next *Node) {
	t.Helper()
	if !w.SwitchScenes(next) {
		t.Fatalf("SwitchScenes(%s) dropped", nodeName(next))
	}
	if err := w.WaitForTransition(testContext(t)); err != nil {
		t.Fatalf("WaitForTransition: %v", err)
	}
}

func TestSwitchScenesOrder(t *testing.T) {
	w, _ := newTestWindow(t)
	rec := newRecorder(w)
	a := NewSceneNode("a", rec)
	b := NewSceneNode("b", rec)

	switchAndWait(t, w, a)
	want := []string{"a.Initialize", "a.TransitionIn", "a.Start"}
	if got := rec.calls(); !slices.Equal(got, want) {
		t.Errorf("first switch = %v, want %v", got, want)
	}
	if w.CurrentScene() != a || a.Window() != w {
		t.Error("a not attached")
	}

	rec.reset()
	switchAndWait(t, w, b)
	want = []string{"a.TransitionOut", "a.Stop", "b.Initialize", "b.TransitionIn", "b.Start"}
	if got := rec.calls(); !slices.Equal(got, want) {
		t.Errorf("second switch = %v, want %v", got, want)
	}
	if w.CurrentScene() != b || a.Parent() != nil {
		t.Error("scenes not swapped")
	}
	if w.SceneState() != SceneIdle || w.TransitioningScene() != nil {
		t.Error("switcher not idle after switch")
	}
}

func TestStartRunsAfterIdle(t *testing.T) {
	w, _ := newTestWindow(t)
	rec := newRecorder(w)
	switchAndWait(t, w, NewSceneNode("a", rec))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if got := rec.states["a.TransitionIn"]; got != SceneSwitching {
		t.Errorf("state during TransitionIn = %v, want switching", got)
	}
	if got := rec.states["a.Start"]; got != SceneIdle {
		t.Errorf("state during Start = %v, want idle", got)
	}
}

func TestSwitchDroppedWhileBusy(t *testing.T) {
	w, _ := newTestWindow(t)
	rec := newRecorder(w)
	a := NewSceneNode("a", rec)
	b := NewSceneNode("b", rec)
	release := rec.hold("a.TransitionIn")

	if !w.SwitchScenes(a) {
		t.Fatal("first switch dropped")
	}
	<-rec.entered
	if !w.IsSwitchingScenes() {
		t.Error("IsSwitchingScenes = false during a switch")
	}
	if w.SwitchScenes(b) {
		t.Error("second switch accepted while busy")
	}
	close(release)
	if err := w.WaitForTransition(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if w.CurrentScene() != a {
		t.Errorf("CurrentScene = %v, want a", nodeName(w.CurrentScene()))
	}
	if slices.Contains(rec.calls(), "b.Initialize") {
		t.Error("dropped scene was initialized")
	}
}

func TestTransitioningScene(t *testing.T) {
	w, _ := newTestWindow(t)
	rec := newRecorder(w)
	a := NewSceneNode("a", rec)
	b := NewSceneNode("b", rec)
	switchAndWait(t, w, a)

	releaseOut := rec.hold("a.TransitionOut")
	releaseIn := rec.hold("b.TransitionIn")
	w.SwitchScenes(b)

	<-rec.entered
	if got := w.TransitioningScene(); got != b {
		t.Errorf("TransitioningScene before detach = %v, want b", nodeName(got))
	}
	close(releaseOut)

	<-rec.entered
	if got := w.TransitioningScene(); got != a {
		t.Errorf("TransitioningScene after detach = %v, want a", nodeName(got))
	}
	close(releaseIn)

	if err := w.WaitForTransition(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if got := w.TransitioningScene(); got != nil {
		t.Errorf("TransitioningScene when idle = %v, want nil", nodeName(got))
	}
}

func TestWaitForTransitionContext(t *testing.T) {
	w, _ := newTestWindow(t)
	if err := w.WaitForTransition(context.Background()); err != nil {
		t.Errorf("WaitForTransition with no switch = %v, want nil", err)
	}

	rec := newRecorder(w)
	release := rec.hold("a.Initialize")
	w.SwitchScenes(NewSceneNode("a", rec))
	<-rec.entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := w.WaitForTransition(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForTransition = %v, want DeadlineExceeded", err)
	}
	close(release)
	if err := w.WaitForTransition(testContext(t)); err != nil {
		t.Fatal(err)
	}
}

func TestSwitchToPlainNode(t *testing.T) {
	w, _ := newTestWindow(t)
	plain := NewContainer("plain")
	switchAndWait(t, w, plain)
	if w.CurrentScene() != plain {
		t.Error("plain node not attached")
	}
	if plain.Lifecycle() != nil {
		t.Error("container has a lifecycle")
	}
	if NewSceneNode("s", nil).Lifecycle() == nil {
		t.Error("nil lifecycle not defaulted")
	}
}

func TestSceneStepsWhileTransitioning(t *testing.T) {
	w, _ := newTestWindow(t)
	rec := newRecorder(w)
	a := NewSceneNode("a", rec)
	var steps int
	a.OnStep = func(time.Duration) { steps++ }
	release := rec.hold("a.TransitionIn")
	w.SwitchScenes(a)
	<-rec.entered

	w.StepFrame()
	w.StepFrame()
	close(release)
	if err := w.WaitForTransition(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if steps != 2 {
		t.Errorf("scene stepped %d times during its transition, want 2", steps)
	}
}
