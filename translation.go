package toxicity

import (
	"log/slog"
	"sync"
)

// TranslateFunc copies a node's current world placement into a shape. The
// shape is a fresh clone of the node's template, so the func may read the
// template parameters from it before overwriting them.
type TranslateFunc func(n *Node, s BoundingShape)

type translationKey struct {
	owner NodeType
	kind  ShapeKind
}

// TranslationRegistry resolves how a shape follows the node it is attached
// to, keyed by the node's type and the shape's kind. Safe for concurrent use.
type TranslationRegistry struct {
	mu     sync.RWMutex
	funcs  map[translationKey]TranslateFunc
	logger *slog.Logger
}

// NewTranslationRegistry returns a registry that moves AABBs and OBBs with
// collision nodes.
func NewTranslationRegistry(logger *slog.Logger) *TranslationRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &TranslationRegistry{
		funcs:  make(map[translationKey]TranslateFunc),
		logger: logger,
	}
	r.Register(NodeTypeCollision, ShapeAABB, translateAABB)
	r.Register(NodeTypeCollision, ShapeOBB, translateOBB)
	return r
}

// Register binds fn to (owner, kind), replacing any earlier func for the
// same pair. ShapeNone and nil funcs are ignored.
func (r *TranslationRegistry) Register(owner NodeType, kind ShapeKind, fn TranslateFunc) {
	if fn == nil || kind == ShapeNone {
		return
	}
	r.mu.Lock()
	r.funcs[translationKey{owner: owner, kind: kind}] = fn
	r.mu.Unlock()
	r.logger.Debug("translation registered", "owner", owner, "shape", kind)
}

// Translate moves s to follow n. It reports false, leaving s untouched, when
// no func is registered for the pair.
func (r *TranslationRegistry) Translate(n *Node, s BoundingShape) bool {
	if n == nil || s == nil {
		return false
	}
	r.mu.RLock()
	fn, ok := r.funcs[translationKey{owner: n.Type, kind: s.Kind()}]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("no translation", "owner", n.Type, "shape", s.Kind())
		return false
	}
	fn(n, s)
	return true
}

// defaultTranslations serves nodes that are not attached to a window.
var defaultTranslations = sync.OnceValue(func() *TranslationRegistry {
	return NewTranslationRegistry(nil)
})

// An AABB cannot rotate, so its offset is added to the world position as is.
func translateAABB(n *Node, s BoundingShape) {
	b, ok := s.(*AxisAlignedBox)
	if !ok {
		return
	}
	b.SetPosition(n.WorldPosition().Plus(b.Position()))
}

// An OBB's offset turns with the node and the node's rotation is added to
// its own.
func translateOBB(n *Node, s BoundingShape) {
	b, ok := s.(*OrientedBox)
	if !ok {
		return
	}
	b.SetPosition(n.LocalToWorld(b.Position()))
	b.SetAngle(b.Angle() + n.WorldAngle())
}
