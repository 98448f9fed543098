package toxicity

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// GuiReceiver is called when a widget reports something, such as a button
// press ("pressed").
type GuiReceiver func(g *Node, detail string)

// guiData is the per-node state of a NodeTypeGui node.
type guiData struct {
	mu       sync.Mutex
	width    float64
	height   float64
	fill     Color
	receiver GuiReceiver
	hit      *Node // collision child used for hit testing

	// button state
	button   bool
	disabled bool
	label    *Node
	sub      Subscription
	subBus   *EventBus
}

// NewGui creates a widget of the given size. It gets a collision child
// covering its area, so Window.TopNodeAt reports the widget itself.
func NewGui(name string, width, height float64) *Node {
	n := &Node{Name: name, Type: NodeTypeGui}
	nodeDefaults(n)
	n.gui = &guiData{width: width, height: height}
	n.gui.hit = NewCollisionNode(name+".hit", NewAABB(0, 0, width, height))
	_ = n.gui.hit.ReparentTo(n)
	return n
}

// NewButton creates a widget with a centered label that reports "pressed"
// to its receiver when clicked with the left mouse button while on top and
// not disabled. It listens for clicks only while attached to a window.
func NewButton(name, label string, width, height float64) *Node {
	n := NewGui(name, width, height)
	n.gui.button = true
	n.gui.fill = Color{0.3, 0.3, 0.35, 1}
	n.gui.label = NewText(name+".label", label, nil)
	_ = n.gui.label.ReparentTo(n)
	n.gui.centerLabel()
	return n
}

// GuiSize returns the widget size.
func (n *Node) GuiSize() (width, height float64) {
	if n.gui == nil {
		return 0, 0
	}
	n.gui.mu.Lock()
	defer n.gui.mu.Unlock()
	return n.gui.width, n.gui.height
}

// SetGuiSize resizes the widget and its hit box.
func (n *Node) SetGuiSize(width, height float64) {
	if n.gui == nil {
		return
	}
	n.gui.mu.Lock()
	n.gui.width, n.gui.height = width, height
	n.gui.mu.Unlock()
	n.gui.hit.SetShape(NewAABB(0, 0, width, height))
	n.gui.centerLabel()
}

// SetGuiReceiver sets the function widget events are reported to.
func (n *Node) SetGuiReceiver(r GuiReceiver) {
	if n.gui == nil {
		return
	}
	n.gui.mu.Lock()
	n.gui.receiver = r
	n.gui.mu.Unlock()
}

// SetGuiFill sets the background color. A zero alpha draws no background.
func (n *Node) SetGuiFill(c Color) {
	if n.gui == nil {
		return
	}
	n.gui.mu.Lock()
	n.gui.fill = c
	n.gui.mu.Unlock()
}

// Disabled reports whether a button ignores clicks.
func (n *Node) Disabled() bool {
	if n.gui == nil {
		return false
	}
	n.gui.mu.Lock()
	defer n.gui.mu.Unlock()
	return n.gui.disabled
}

// SetDisabled makes a button ignore clicks.
func (n *Node) SetDisabled(b bool) {
	if n.gui == nil {
		return
	}
	n.gui.mu.Lock()
	n.gui.disabled = b
	n.gui.mu.Unlock()
}

// ButtonText returns a button's label, or "" for other nodes.
func (n *Node) ButtonText() string {
	if n.gui == nil || n.gui.label == nil {
		return ""
	}
	return n.gui.label.text.Content()
}

// SetButtonText changes a button's label.
func (n *Node) SetButtonText(s string) {
	if n.gui == nil || n.gui.label == nil {
		return
	}
	n.gui.label.text.SetContent(s)
	n.gui.centerLabel()
}

// Report sends detail to the widget's receiver.
func (n *Node) Report(detail string) {
	if n.gui == nil {
		return
	}
	n.gui.mu.Lock()
	r := n.gui.receiver
	n.gui.mu.Unlock()
	if r != nil {
		r(n, detail)
	}
}

func (g *guiData) centerLabel() {
	if g.label == nil {
		return
	}
	g.mu.Lock()
	w, h := g.width, g.height
	g.mu.Unlock()
	tw, th := g.label.text.Measure()
	g.label.SetXY((w-tw)/2, (h-th)/2)
}

// onReparent moves a button's click subscription to the bus of the window
// it now belongs to. Called by ReparentTo after treeMu is released.
func (g *guiData) onReparent(n *Node) {
	if !g.button {
		return
	}
	var bus *EventBus
	if w := n.Window(); w != nil {
		bus = w.events
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if bus == g.subBus {
		return
	}
	g.sub.Unsubscribe()
	g.sub, g.subBus = Subscription{}, bus
	if bus != nil {
		g.sub = bus.Subscribe(EventMousePressed, func(ev Event) { n.buttonPressed(ev) })
	}
}

func (n *Node) buttonPressed(ev Event) {
	if ev.Button != MouseButtonLeft || n.Disabled() {
		return
	}
	w := n.Window()
	if w == nil || !w.IsTheTopNode(w.ScreenToWorld(ev.Cursor), n) {
		return
	}
	n.Report("pressed")
}

func (g *guiData) draw(dc DrawContext) {
	g.mu.Lock()
	w, h, fill := g.width, g.height, g.fill
	if g.button && g.disabled {
		fill.A *= 0.5
	}
	g.mu.Unlock()
	if fill.A <= 0 {
		return
	}
	x0, y0 := dc.GeoM.Apply(0, 0)
	x1, y1 := dc.GeoM.Apply(w, h)
	fillRect(dc.Target, x0, y0, x1, y1, fill)
}

func fillRect(dst *ebiten.Image, x0, y0, x1, y1 float64, c Color) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	vector.DrawFilledRect(dst, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), c.RGBA(), false)
}
