package toxicity

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// Font wraps an Ebitengine text/v2 face with its line height.
type Font struct {
	face text.Face
	lh   float64
}

func newFont(face text.Face) *Font {
	m := face.Metrics()
	return &Font{face: face, lh: m.HAscent + m.HDescent + m.HLineGap}
}

// LoadTTFFont loads a TrueType font from raw TTF/OTF data at the given size.
func LoadTTFFont(ttfData []byte, size float64) (*Font, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("toxicity: parse TTF data: %w", err)
	}
	return newFont(&text.GoTextFace{Source: source, Size: size}), nil
}

var defaultFont = sync.OnceValue(func() *Font {
	return newFont(text.NewGoXFace(basicfont.Face7x13))
})

// DefaultFont returns a built-in 7x13 bitmap font.
func DefaultFont() *Font {
	return defaultFont()
}

// MeasureString returns the width and height of the rendered text.
func (f *Font) MeasureString(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// LineHeight returns the vertical distance between baselines.
func (f *Font) LineHeight() float64 {
	return f.lh
}

// Face returns the underlying text/v2 face.
func (f *Font) Face() text.Face {
	return f.face
}

// --- TextBlock ---

// TextBlock holds the content, font and color of a text node.
type TextBlock struct {
	mu      sync.RWMutex
	content string
	font    *Font
	color   Color
}

// NewText creates a text node. A nil font uses DefaultFont.
func NewText(name, content string, font *Font) *Node {
	if font == nil {
		font = DefaultFont()
	}
	n := &Node{
		Name: name,
		Type: NodeTypeText,
		text: &TextBlock{content: content, font: font, color: ColorWhite},
	}
	nodeDefaults(n)
	return n
}

// TextBlock returns the node's text state, or nil for non-text nodes.
func (n *Node) TextBlock() *TextBlock {
	return n.text
}

// Content returns the text.
func (tb *TextBlock) Content() string {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.content
}

// SetContent replaces the text.
func (tb *TextBlock) SetContent(s string) {
	tb.mu.Lock()
	tb.content = s
	tb.mu.Unlock()
}

// SetColor sets the text color.
func (tb *TextBlock) SetColor(c Color) {
	tb.mu.Lock()
	tb.color = c
	tb.mu.Unlock()
}

// SetFont sets the font. nil selects DefaultFont.
func (tb *TextBlock) SetFont(f *Font) {
	if f == nil {
		f = DefaultFont()
	}
	tb.mu.Lock()
	tb.font = f
	tb.mu.Unlock()
}

// Measure returns the size of the current content.
func (tb *TextBlock) Measure() (width, height float64) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.font.MeasureString(tb.content)
}

func (tb *TextBlock) draw(dst *ebiten.Image, geo ebiten.GeoM) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	if tb.content == "" {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM = geo
	tb.color.scaleInto(&op.ColorScale)
	op.LineSpacing = tb.font.lh
	text.Draw(dst, tb.content, tb.font.face, op)
}
