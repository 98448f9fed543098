package toxicity

import (
	"image"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Sprite is a strip of equally sized frames cut from one sheet image.
type Sprite struct {
	sheet  *ebiten.Image
	frames []image.Rectangle
}

// NewSprite returns a sprite whose frames are the given regions of sheet.
// With no regions the whole sheet is the single frame.
func NewSprite(sheet *ebiten.Image, frames ...image.Rectangle) *Sprite {
	if len(frames) == 0 && sheet != nil {
		frames = []image.Rectangle{sheet.Bounds()}
	}
	return &Sprite{sheet: sheet, frames: frames}
}

// SheetFrames lays out count frames of size w x h on a sheet with the given
// bounds, starting at (x, y) and separated by hsep and vsep pixels. Frames
// run left to right and wrap to the next row at the right edge.
func SheetFrames(bounds image.Rectangle, count, w, h, x, y, hsep, vsep int) []image.Rectangle {
	if count <= 0 || w <= 0 || h <= 0 {
		return nil
	}
	frames := make([]image.Rectangle, 0, count)
	cx, cy := bounds.Min.X+x, bounds.Min.Y+y
	for range count {
		if cx+w > bounds.Max.X {
			cx = bounds.Min.X + x
			cy += h + vsep
		}
		frames = append(frames, image.Rect(cx, cy, cx+w, cy+h))
		cx += w + hsep
	}
	return frames
}

// NumFrames returns the number of frames.
func (s *Sprite) NumFrames() int {
	return len(s.frames)
}

// Size returns the size of the first frame.
func (s *Sprite) Size() (width, height int) {
	if len(s.frames) == 0 {
		return 0, 0
	}
	return s.frames[0].Dx(), s.frames[0].Dy()
}

// Frame returns the image of frame i, or nil when out of range.
func (s *Sprite) Frame(i int) *ebiten.Image {
	if s.sheet == nil || i < 0 || i >= len(s.frames) {
		return nil
	}
	return s.sheet.SubImage(s.frames[i]).(*ebiten.Image)
}

// --- Sprite node ---

// spriteAnim is the per-node animation state of a sprite node.
type spriteAnim struct {
	mu      sync.Mutex
	sprite  *Sprite
	frame   int
	speed   float64 // frames per second
	partial float64
	loop    bool
	color   Color
}

// NewSpriteNode creates a node that draws frames of s.
func NewSpriteNode(name string, s *Sprite) *Node {
	n := &Node{
		Name:   name,
		Type:   NodeTypeSprite,
		sprite: &spriteAnim{sprite: s, color: ColorWhite},
	}
	nodeDefaults(n)
	return n
}

// advance moves the animation on by dt. A non-looping animation stops on
// its last frame.
func (a *spriteAnim) advance(dt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sprite == nil || a.speed == 0 {
		return
	}
	count := a.sprite.NumFrames()
	if count == 0 {
		return
	}
	a.partial += a.speed * dt.Seconds()
	if a.partial < 1 {
		return
	}
	whole := int(a.partial)
	a.partial -= float64(whole)
	a.frame += whole
	if a.frame < count {
		return
	}
	if a.loop {
		a.frame %= count
		return
	}
	a.frame = count - 1
	a.speed = 0
	a.partial = 0
}

// Sprite returns the node's sprite, or nil for non-sprite nodes.
func (n *Node) Sprite() *Sprite {
	if n.sprite == nil {
		return nil
	}
	n.sprite.mu.Lock()
	defer n.sprite.mu.Unlock()
	return n.sprite.sprite
}

// SetSprite replaces the node's sprite and rewinds to frame 0.
func (n *Node) SetSprite(s *Sprite) {
	if n.sprite == nil {
		return
	}
	n.sprite.mu.Lock()
	n.sprite.sprite = s
	n.sprite.frame = 0
	n.sprite.partial = 0
	n.sprite.mu.Unlock()
}

// Frame returns the current animation frame.
func (n *Node) Frame() int {
	if n.sprite == nil {
		return 0
	}
	n.sprite.mu.Lock()
	defer n.sprite.mu.Unlock()
	return n.sprite.frame
}

// SetFrame jumps to frame i.
func (n *Node) SetFrame(i int) {
	if n.sprite == nil {
		return
	}
	n.sprite.mu.Lock()
	n.sprite.frame = i
	n.sprite.partial = 0
	n.sprite.mu.Unlock()
}

// SetAnimation sets the playback speed in frames per second and whether the
// animation wraps around. A speed of 0 pauses.
func (n *Node) SetAnimation(fps float64, loop bool) {
	if n.sprite == nil {
		return
	}
	n.sprite.mu.Lock()
	n.sprite.speed = fps
	n.sprite.loop = loop
	n.sprite.mu.Unlock()
}

// AnimationSpeed returns the playback speed in frames per second. It drops
// to 0 when a non-looping animation reaches its last frame.
func (n *Node) AnimationSpeed() float64 {
	if n.sprite == nil {
		return 0
	}
	n.sprite.mu.Lock()
	defer n.sprite.mu.Unlock()
	return n.sprite.speed
}

// SetTint sets the color a sprite is multiplied with.
func (n *Node) SetTint(c Color) {
	if n.sprite == nil {
		return
	}
	n.sprite.mu.Lock()
	n.sprite.color = c
	n.sprite.mu.Unlock()
}

func (a *spriteAnim) draw(dst *ebiten.Image, geo ebiten.GeoM) {
	a.mu.Lock()
	s, frame, c := a.sprite, a.frame, a.color
	a.mu.Unlock()
	if s == nil {
		return
	}
	img := s.Frame(frame)
	if img == nil {
		return
	}
	op := &ebiten.DrawImageOptions{GeoM: geo}
	c.scaleInto(&op.ColorScale)
	dst.DrawImage(img, op)
}
