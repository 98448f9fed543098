package toxicity

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// ErrNoFrames is returned when a sprite would be built without any frame.
var ErrNoFrames = errors.New("toxicity: sprite has no frames")

// AtlasRegion is a named sub-rectangle of an atlas page.
type AtlasRegion struct {
	Page   int
	Bounds image.Rectangle
}

// Atlas holds one or more page images and the named regions packed into them.
type Atlas struct {
	Pages   []*ebiten.Image
	regions map[string]AtlasRegion
}

// Region returns the region called name.
func (a *Atlas) Region(name string) (AtlasRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Names returns every region name in sorted order.
func (a *Atlas) Names() []string {
	names := make([]string, 0, len(a.regions))
	for n := range a.regions {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Sprite builds a sprite from the named regions, in order. All regions must
// exist and sit on the same page.
func (a *Atlas) Sprite(names ...string) (*Sprite, error) {
	if len(names) == 0 {
		return nil, ErrNoFrames
	}
	frames := make([]image.Rectangle, 0, len(names))
	page := -1
	for _, name := range names {
		r, ok := a.regions[name]
		if !ok {
			return nil, fmt.Errorf("atlas region %q: not found", name)
		}
		if page >= 0 && r.Page != page {
			return nil, fmt.Errorf("atlas region %q: on page %d, want %d", name, r.Page, page)
		}
		page = r.Page
		frames = append(frames, r.Bounds)
	}
	if page >= len(a.Pages) {
		return nil, fmt.Errorf("atlas page %d: missing image", page)
	}
	return NewSprite(a.Pages[page], frames...), nil
}

// SpriteWithPrefix builds a sprite from every region whose name starts with
// prefix, in name order ("walk_0", "walk_1", ...).
func (a *Atlas) SpriteWithPrefix(prefix string) (*Sprite, error) {
	var names []string
	for _, n := range a.Names() {
		if strings.HasPrefix(n, prefix) {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("atlas prefix %q: %w", prefix, ErrNoFrames)
	}
	return a.Sprite(names...)
}

// ParseAtlas parses TexturePacker JSON data and associates the given page
// images. Both the hash format (a single "frames" object) and the array
// format ("textures", one entry per page) are accepted.
func ParseAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	var doc struct {
		Frames   map[string]packedFrame `json:"frames"`
		Textures []struct {
			Image  string                 `json:"image"`
			Frames map[string]packedFrame `json:"frames"`
		} `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("parse atlas: %w", err)
	}
	if doc.Frames == nil && doc.Textures == nil {
		return nil, errors.New("parse atlas: neither \"frames\" nor \"textures\" present")
	}

	a := &Atlas{Pages: pages, regions: make(map[string]AtlasRegion)}
	a.addFrames(0, doc.Frames)
	for page, tex := range doc.Textures {
		a.addFrames(page, tex.Frames)
	}
	return a, nil
}

// packedFrame is one TexturePacker frame entry. Trim and rotation data are
// not used.
type packedFrame struct {
	Frame struct {
		X, Y, W, H int
	} `json:"frame"`
}

func (a *Atlas) addFrames(page int, frames map[string]packedFrame) {
	for name, f := range frames {
		r := f.Frame
		a.regions[name] = AtlasRegion{Page: page, Bounds: image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)}
	}
}
