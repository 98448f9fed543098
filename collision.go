package toxicity

import (
	"slices"
	"sync"
)

// collisionData is the per-node state of a NodeTypeCollision node. The shape
// held here is a template in node-local coordinates; it is never handed out.
type collisionData struct {
	mu         sync.RWMutex
	shape      BoundingShape
	tags       []string
	drawBounds bool
	color      Color
}

type managerData struct {
	mu   sync.RWMutex
	keys []string
}

// NewCollisionNode creates a node that carries shape, expressed relative to
// the node, and the given tags. Tags are what collision managers filter on.
func NewCollisionNode(name string, shape BoundingShape, tags ...string) *Node {
	n := &Node{Name: name, Type: NodeTypeCollision}
	nodeDefaults(n)
	n.collision = &collisionData{color: ColorWhite}
	if shape != nil {
		n.collision.shape = shape.Clone()
	}
	n.collision.tags = uniqueTags(tags)
	return n
}

// NewCollisionManager creates a node that, every step, tests each of its
// direct collision children against every collision node in the window
// tagged with one of keys.
func NewCollisionManager(name string, keys ...string) *Node {
	n := &Node{Name: name, Type: NodeTypeCollisionManager}
	nodeDefaults(n)
	n.manager = &managerData{keys: slices.Clone(keys)}
	return n
}

// --- Collision node ---

// Shape returns the node's shape moved to the node's current world
// placement. Every call returns a new shape; nil for non-collision nodes.
func (n *Node) Shape() BoundingShape {
	if n.collision == nil {
		return nil
	}
	n.collision.mu.RLock()
	s := n.collision.shape
	if s != nil {
		s = s.Clone()
	}
	n.collision.mu.RUnlock()
	if s == nil {
		return nil
	}
	n.translations().Translate(n, s)
	return s
}

// SetShape replaces the shape template. shape is copied.
func (n *Node) SetShape(shape BoundingShape) {
	if n.collision == nil {
		return
	}
	if shape != nil {
		shape = shape.Clone()
	}
	n.collision.mu.Lock()
	n.collision.shape = shape
	n.collision.mu.Unlock()
}

// Tags returns a copy of the node's tags.
func (n *Node) Tags() []string {
	if n.collision == nil {
		return nil
	}
	n.collision.mu.RLock()
	defer n.collision.mu.RUnlock()
	return slices.Clone(n.collision.tags)
}

// SetTags replaces the node's tags. Duplicates are dropped.
func (n *Node) SetTags(tags ...string) {
	if n.collision == nil {
		return
	}
	n.collision.mu.Lock()
	n.collision.tags = uniqueTags(tags)
	n.collision.mu.Unlock()
}

// AddTag adds tag if the node does not have it yet.
func (n *Node) AddTag(tag string) {
	if n.collision == nil {
		return
	}
	n.collision.mu.Lock()
	if !slices.Contains(n.collision.tags, tag) {
		n.collision.tags = append(n.collision.tags, tag)
	}
	n.collision.mu.Unlock()
}

// MatchesAny reports whether the node carries at least one of keys.
func (n *Node) MatchesAny(keys []string) bool {
	if n.collision == nil {
		return false
	}
	n.collision.mu.RLock()
	defer n.collision.mu.RUnlock()
	for _, k := range keys {
		if slices.Contains(n.collision.tags, k) {
			return true
		}
	}
	return false
}

// SetDrawBounds outlines the shape when the node is drawn, in c.
func (n *Node) SetDrawBounds(on bool, c Color) {
	if n.collision == nil {
		return
	}
	n.collision.mu.Lock()
	n.collision.drawBounds = on
	n.collision.color = c
	n.collision.mu.Unlock()
}

func (n *Node) drawBounds() (bool, Color) {
	n.collision.mu.RLock()
	defer n.collision.mu.RUnlock()
	return n.collision.drawBounds, n.collision.color
}

// Owner returns the node a collision node stands for: the closest ancestor
// that is neither a collision node, a collision manager nor a collision
// handler. It returns nil when no such ancestor exists.
func (n *Node) Owner() *Node {
	p := n.parent.Load()
	for p != nil && (p.Type == NodeTypeCollision ||
		p.Type == NodeTypeCollisionManager ||
		p.OnCollisions != nil) {
		p = p.parent.Load()
	}
	return p
}

// collisionHandler returns the closest ancestor with OnCollisions set.
func (n *Node) collisionHandler() *Node {
	p := n.parent.Load()
	for p != nil && p.OnCollisions == nil {
		p = p.parent.Load()
	}
	return p
}

// --- Collision manager ---

// Keys returns a copy of the manager's search keys.
func (n *Node) Keys() []string {
	if n.manager == nil {
		return nil
	}
	n.manager.mu.RLock()
	defer n.manager.mu.RUnlock()
	return slices.Clone(n.manager.keys)
}

// SetKeys replaces the manager's search keys.
func (n *Node) SetKeys(keys ...string) {
	if n.manager == nil {
		return
	}
	n.manager.mu.Lock()
	n.manager.keys = slices.Clone(keys)
	n.manager.mu.Unlock()
}

// checkCollisions collects the owners of every matching collision node that
// one of n's collision children intersects and hands them to the nearest
// collision handler. The handler is called at most once and never with an
// empty list. Owners equal to the manager's own owner are left out, so an
// entity whose second hitbox matches the keys never reports itself.
func (n *Node) checkCollisions() {
	w := n.window.Load()
	if w == nil || n.manager == nil {
		return
	}
	self := n.Owner()

	var candidates []*Node
	fetched := false
	var hits []*Node
	for _, c := range n.Children() {
		if c.Type != NodeTypeCollision {
			continue
		}
		shape := c.Shape()
		if shape == nil {
			continue
		}
		if !fetched {
			candidates = w.NodesThatMatch(n.Keys()...)
			fetched = true
		}
		for _, other := range candidates {
			if other == c {
				continue
			}
			owner := other.Owner()
			if owner == nil || owner == self || slices.Contains(hits, owner) {
				continue
			}
			if w.intersections.Intersects(shape, other.Shape()) {
				hits = append(hits, owner)
			}
		}
	}
	if len(hits) == 0 {
		return
	}
	h := n.collisionHandler()
	if h == nil {
		w.logger.Debug("collisions without a handler", "manager", n.Name, "hits", len(hits))
		return
	}
	h.OnCollisions(hits)
}

// translations returns the window's translation registry, or the package
// default for detached nodes.
func (n *Node) translations() *TranslationRegistry {
	if w := n.window.Load(); w != nil {
		return w.translations
	}
	return defaultTranslations()
}

func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
