package toxicity

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// --- ID counter ---

var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// treeMu serializes every structural or positional write across all trees:
// reparenting, position and angle changes, window propagation and world cache
// refreshes. Lock order is node.mu before treeMu, and a holder of treeMu never
// waits on a node's mu. Readers never take it; they load atomics.
var treeMu sync.Mutex

// --- Node ---

// Node is the scene graph element. A single flat struct is used for every node
// type; Type selects the built-in step and draw behaviour and the per-type
// fields below are only populated for their type.
//
// Each node has its own lock, held by the window while it steps or draws the
// node and by ReparentTo for the whole reparent. A step or draw therefore never
// observes a half-reparented node. Hooks run with that lock held, so a hook
// must not reparent the node it belongs to.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Metadata
	UserData any

	mu sync.Mutex

	// Hierarchy. parent and window are non-owning; children is replaced
	// wholesale on every change, so a loaded slice is never mutated.
	parent   atomic.Pointer[Node]
	window   atomic.Pointer[Window]
	children atomic.Pointer[[]*Node]

	// Placement: local is set by the user, world is derived under treeMu.
	local atomic.Pointer[placement]
	world atomic.Pointer[placement]

	visible atomic.Bool

	// Step timing, guarded by mu.
	lastStep time.Duration
	stepped  bool
	interval atomic.Int64

	// Last tree pass that stepped or drew the node, guarded by mu. A node
	// moved further down the walk during a pass is not visited twice.
	stepPass uint64
	drawPass uint64

	// Sprite fields (NodeTypeSprite)
	sprite *spriteAnim

	// Text fields (NodeTypeText)
	text *TextBlock

	// Collision fields (NodeTypeCollision, NodeTypeCollisionManager)
	collision *collisionData
	manager   *managerData

	// Scene fields (NodeTypeScene)
	lifecycle SceneLifecycle

	// Gui fields (NodeTypeGui)
	gui *guiData

	// Per-node callbacks (nil by default). Assign them before the node is
	// attached to a running window.
	OnStep     func(dt time.Duration)
	OnDraw     func(dc DrawContext)
	OnReparent func()

	// OnCollisions makes the node a collision handler: the nearest such
	// ancestor of a collision manager receives the owners of everything the
	// manager's children hit, once per step.
	OnCollisions func(nodes []*Node)
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.visible.Store(true)
	n.local.Store(&placement{})
	n.world.Store(&placement{})
}

// NewContainer creates a node with no built-in behaviour.
func NewContainer(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeContainer}
	nodeDefaults(n)
	return n
}

// --- Tree manipulation ---

// ReparentTo moves n under p, or detaches it when p is nil. The node is
// removed from its old parent's children, appended to p's, takes p's window
// for its whole subtree, and has the world placement of its subtree
// recomputed before OnReparent fires. Reparenting n to itself or one of its
// descendants returns ErrReparentCycle and leaves the tree untouched.
func (n *Node) ReparentTo(p *Node) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	treeMu.Lock()
	if p != nil && isAncestor(n, p) {
		treeMu.Unlock()
		n.logger().Warn("reparent rejected: cycle", "node", n.Name, "parent", p.Name)
		return ErrReparentCycle
	}
	if old := n.parent.Load(); old != nil {
		old.removeChild(n)
	}
	n.parent.Store(p)
	var w *Window
	if p != nil {
		p.appendChild(n)
		w = p.window.Load()
	}
	var widgets []*Node
	propagateWindow(n, w, &widgets)
	refreshWorld(n)
	treeMu.Unlock()

	if w != nil && w.Debug() {
		debugCheckTreeDepth(w.logger, n)
		debugCheckChildCount(w.logger, p)
	}
	for _, g := range widgets {
		g.gui.onReparent(g)
	}
	if n.OnReparent != nil {
		n.OnReparent()
	}
	return nil
}

// AddChild reparents child under n.
// Panics if child is nil.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		panic("toxicity: cannot add nil child")
	}
	return child.ReparentTo(n)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.parent.Load() == nil {
		return
	}
	_ = n.ReparentTo(nil)
}

// Parent returns the node's parent, or nil when detached.
func (n *Node) Parent() *Node {
	return n.parent.Load()
}

// Window returns the window the node's tree is attached to, or nil.
func (n *Node) Window() *Window {
	return n.window.Load()
}

// Children returns a snapshot of the child list. The snapshot is never
// modified, so it may be ranged over while other goroutines reparent.
func (n *Node) Children() []*Node {
	if c := n.children.Load(); c != nil {
		return *c
	}
	return nil
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.Children())
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.Children()[index]
}

// FindChild returns the first direct child with the given name, or nil.
func (n *Node) FindChild(name string) *Node {
	for _, c := range n.Children() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Visible reports whether the node and its subtree are drawn.
func (n *Node) Visible() bool {
	return n.visible.Load()
}

// SetVisible shows or hides the node and its subtree. Hidden nodes still step.
func (n *Node) SetVisible(v bool) {
	n.visible.Store(v)
}

// StepInterval returns the time between the node's last two steps. It is
// zero after the first step.
func (n *Node) StepInterval() time.Duration {
	return time.Duration(n.interval.Load())
}

// --- Step ---

// passes numbers every step and render walk across all windows.
var passes atomic.Uint64

// step runs the node's per-frame behaviour. now comes from the window clock.
// The caller holds n.mu.
func (n *Node) step(now time.Duration) {
	var dt time.Duration
	if n.stepped {
		dt = now - n.lastStep
	}
	n.lastStep = now
	n.stepped = true
	n.interval.Store(int64(dt))

	switch n.Type {
	case NodeTypeSprite:
		if n.sprite != nil {
			n.sprite.advance(dt)
		}
	case NodeTypeCollisionManager:
		n.checkCollisions()
	}
	if n.OnStep != nil {
		n.OnStep(dt)
	}
}

// --- Helpers ---

// logger returns the window's logger, falling back to slog.Default for
// detached nodes.
func (n *Node) logger() *slog.Logger {
	if w := n.window.Load(); w != nil {
		return w.logger
	}
	return slog.Default()
}

// isAncestor reports whether candidate is node or one of node's ancestors.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent.Load() {
		if p == candidate {
			return true
		}
	}
	return false
}

// appendChild publishes a new child list with child at the end. Caller holds
// treeMu.
func (n *Node) appendChild(child *Node) {
	old := n.Children()
	next := make([]*Node, len(old), len(old)+1)
	copy(next, old)
	next = append(next, child)
	n.children.Store(&next)
}

// removeChild publishes a new child list without child. Caller holds treeMu.
func (n *Node) removeChild(child *Node) {
	old := n.Children()
	for i, c := range old {
		if c == child {
			next := make([]*Node, 0, len(old)-1)
			next = append(next, old[:i]...)
			next = append(next, old[i+1:]...)
			n.children.Store(&next)
			return
		}
	}
}

// propagateWindow sets w on node and every descendant, collecting the
// widgets it visits. Caller holds treeMu.
func propagateWindow(node *Node, w *Window, widgets *[]*Node) {
	node.window.Store(w)
	if node.gui != nil {
		*widgets = append(*widgets, node)
	}
	for _, c := range node.Children() {
		propagateWindow(c, w, widgets)
	}
}

// walk calls fn for node and its descendants in depth-first order, parent
// before children. The children of a node for which fn returns false are
// skipped.
func walk(node *Node, fn func(*Node) bool) {
	if !fn(node) {
		return
	}
	for _, c := range node.Children() {
		walk(c, fn)
	}
}
