package toxicity

import (
	"context"
	"sync"
	"sync/atomic"
)

// SceneLifecycle receives the calls a window makes while switching scenes.
// Each method gets the scene node it belongs to. The transition methods may
// block, for example on an Interval's Wait, to run an animation to the end;
// the window keeps stepping and drawing meanwhile.
type SceneLifecycle interface {
	Initialize(scene *Node)
	TransitionIn(scene *Node)
	Start(scene *Node)
	TransitionOut(scene *Node)
	Stop(scene *Node)
}

// BaseScene implements every SceneLifecycle method as a no-op. Embed it to
// override only the calls you need.
type BaseScene struct{}

func (BaseScene) Initialize(*Node)    {}
func (BaseScene) TransitionIn(*Node)  {}
func (BaseScene) Start(*Node)         {}
func (BaseScene) TransitionOut(*Node) {}
func (BaseScene) Stop(*Node)          {}

// NewSceneNode creates a scene node driven by lc. A nil lc behaves like
// BaseScene.
func NewSceneNode(name string, lc SceneLifecycle) *Node {
	if lc == nil {
		lc = BaseScene{}
	}
	n := &Node{Name: name, Type: NodeTypeScene, lifecycle: lc}
	nodeDefaults(n)
	return n
}

// Lifecycle returns the scene's lifecycle, or nil for non-scene nodes.
func (n *Node) Lifecycle() SceneLifecycle {
	if n == nil || n.Type != NodeTypeScene {
		return nil
	}
	return n.lifecycle
}

// SceneState is the state of a window's scene switcher.
type SceneState int32

const (
	SceneIdle      SceneState = iota // no switch in progress
	SceneSwitching                   // a switch goroutine is running
)

func (s SceneState) String() string {
	if s == SceneSwitching {
		return "switching"
	}
	return "idle"
}

type sceneSwitcher struct {
	state atomic.Int32
	other atomic.Pointer[Node]

	mu   sync.Mutex
	done chan struct{} // closed when the latest switch has run Start
}

// SwitchScenes replaces the root's first child with next on a new goroutine.
// The calls run strictly in this order: old TransitionOut, old Stop, old is
// detached, next is attached to the root, next Initialize, next
// TransitionIn, the window goes back to SceneIdle, next Start. Nodes that are
// not scene nodes skip the lifecycle calls.
//
// Only one switch runs at a time: while one is in progress the request is
// dropped and SwitchScenes returns false.
func (w *Window) SwitchScenes(next *Node) bool {
	if !w.scenes.state.CompareAndSwap(int32(SceneIdle), int32(SceneSwitching)) {
		w.logger.Debug("scene switch dropped: already switching", "next", nodeName(next))
		return false
	}
	var old *Node
	if children := w.root.Children(); len(children) > 0 {
		old = children[0]
	}
	w.scenes.other.Store(next)

	done := make(chan struct{})
	w.scenes.mu.Lock()
	w.scenes.done = done
	w.scenes.mu.Unlock()

	w.logger.Info("switching scenes", "from", nodeName(old), "to", nodeName(next))
	go w.switchScenes(old, next, done)
	return true
}

func (w *Window) switchScenes(old, next *Node, done chan struct{}) {
	defer close(done)

	if lc := old.Lifecycle(); lc != nil {
		lc.TransitionOut(old)
		lc.Stop(old)
	}
	if old != nil {
		if err := old.ReparentTo(nil); err != nil {
			w.logger.Error("detach scene", "scene", old.Name, "err", err)
		}
	}
	w.scenes.other.Store(old)
	if next != nil {
		if err := next.ReparentTo(w.root); err != nil {
			w.logger.Error("attach scene", "scene", next.Name, "err", err)
		}
	}
	lc := next.Lifecycle()
	if lc != nil {
		lc.Initialize(next)
		lc.TransitionIn(next)
	}
	w.scenes.other.Store(nil)
	w.scenes.state.Store(int32(SceneIdle))
	if lc != nil {
		lc.Start(next)
	}
	w.logger.Debug("scene switch finished", "scene", nodeName(next))
}

// IsSwitchingScenes reports whether a scene switch is in progress.
func (w *Window) IsSwitchingScenes() bool {
	return w.SceneState() == SceneSwitching
}

// SceneState returns the scene switcher's state.
func (w *Window) SceneState() SceneState {
	return SceneState(w.scenes.state.Load())
}

// TransitioningScene returns the other scene involved in the current switch:
// the incoming scene until the outgoing one is detached, the outgoing one
// after that. It returns nil when no switch is in progress.
func (w *Window) TransitioningScene() *Node {
	return w.scenes.other.Load()
}

// CurrentScene returns the root's first child, or nil.
func (w *Window) CurrentScene() *Node {
	if children := w.root.Children(); len(children) > 0 {
		return children[0]
	}
	return nil
}

// WaitForTransition blocks until the latest scene switch has finished,
// including the new scene's Start, or until ctx ends.
func (w *Window) WaitForTransition(ctx context.Context) error {
	w.scenes.mu.Lock()
	done := w.scenes.done
	w.scenes.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func nodeName(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name
}
