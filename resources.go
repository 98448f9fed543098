package toxicity

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Resources loads files and images for a window and tracks them in named
// blocks so a whole level's worth can be released at once. Released images
// are deallocated during the next frame's housekeeping rather than
// immediately, so a draw already holding one never sees it vanish.
// Safe for concurrent use.
type Resources struct {
	logger *slog.Logger

	mu      sync.Mutex
	base    fs.FS
	mounts  map[string]fs.FS
	closers []io.Closer
	images  map[string]*ebiten.Image
	blocks  map[string][]string
	active  []string
	pending []*ebiten.Image
}

func newResources(logger *slog.Logger) *Resources {
	return &Resources{
		logger: logger,
		base:   os.DirFS("."),
		mounts: make(map[string]fs.FS),
		images: make(map[string]*ebiten.Image),
		blocks: make(map[string][]string),
	}
}

// SetBase sets the file system paths without a mounted prefix resolve
// against. The default is the working directory.
func (r *Resources) SetBase(fsys fs.FS) {
	r.mu.Lock()
	r.base = fsys
	r.mu.Unlock()
}

// Mount makes fsys serve every path whose first element is prefix.
func (r *Resources) Mount(prefix string, fsys fs.FS) {
	r.mu.Lock()
	r.mounts[prefix] = fsys
	r.mu.Unlock()
	r.logger.Info("mounted resources", "prefix", prefix)
}

// MountZip mounts the zip archive at file under prefix. The archive stays
// open until Close.
func (r *Resources) MountZip(prefix, file string) error {
	zr, err := zip.OpenReader(file)
	if err != nil {
		r.logger.Error("mount zip failed", "file", file, "error", err)
		return fmt.Errorf("mount zip %s: %w", file, err)
	}
	r.mu.Lock()
	r.closers = append(r.closers, zr)
	r.mu.Unlock()
	r.Mount(prefix, zr)
	return nil
}

// resolve picks the file system serving name and the name within it.
func (r *Resources) resolve(name string) (fs.FS, string) {
	name = path.Clean(strings.TrimPrefix(name, "/"))
	r.mu.Lock()
	defer r.mu.Unlock()
	if root, rest, ok := strings.Cut(name, "/"); ok {
		if m, ok := r.mounts[root]; ok {
			return m, rest
		}
	}
	return r.base, name
}

// Open opens name from its mount or the base file system.
func (r *Resources) Open(name string) (fs.File, error) {
	fsys, rel := r.resolve(name)
	f, err := fsys.Open(rel)
	if err != nil {
		r.logger.Error("resource open failed", "resource", name, "error", err)
		return nil, fmt.Errorf("open resource %s: %w", name, err)
	}
	return f, nil
}

// ReadFile reads all of name.
func (r *Resources) ReadFile(name string) ([]byte, error) {
	fsys, rel := r.resolve(name)
	data, err := fs.ReadFile(fsys, rel)
	if err != nil {
		r.logger.Error("resource read failed", "resource", name, "error", err)
		return nil, fmt.Errorf("read resource %s: %w", name, err)
	}
	return data, nil
}

// LoadImage decodes the PNG or JPEG at name into a GPU image and records it
// in every open block. Loading the same name again returns the cached image.
func (r *Resources) LoadImage(name string) (*ebiten.Image, error) {
	if img, ok := r.Image(name); ok {
		return img, nil
	}
	f, err := r.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := ebitenutil.NewImageFromReader(f)
	if err != nil {
		r.logger.Error("image decode failed", "resource", name, "error", err)
		return nil, fmt.Errorf("decode image %s: %w", name, err)
	}
	r.AddImage(name, img)
	r.logger.Debug("image loaded", "resource", name, "size", img.Bounds().Size())
	return img, nil
}

// LoadAtlas reads TexturePacker JSON from jsonName and loads its page images.
func (r *Resources) LoadAtlas(jsonName string, pageNames ...string) (*Atlas, error) {
	data, err := r.ReadFile(jsonName)
	if err != nil {
		return nil, err
	}
	pages := make([]*ebiten.Image, 0, len(pageNames))
	for _, p := range pageNames {
		img, err := r.LoadImage(p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return ParseAtlas(data, pages)
}

// AddImage registers an image created elsewhere under name, replacing and
// releasing any previous image of that name.
func (r *Resources) AddImage(name string, img *ebiten.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.images[name]; ok && old != img {
		r.pending = append(r.pending, old)
	}
	r.images[name] = img
	for _, id := range r.active {
		if !slices.Contains(r.blocks[id], name) {
			r.blocks[id] = append(r.blocks[id], name)
		}
	}
}

// Image returns the image loaded under name.
func (r *Resources) Image(name string) (*ebiten.Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[name]
	return img, ok
}

// Release forgets name and queues its image for deallocation.
func (r *Resources) Release(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releaseLocked(name)
}

func (r *Resources) releaseLocked(name string) bool {
	img, ok := r.images[name]
	if !ok {
		return false
	}
	delete(r.images, name)
	r.pending = append(r.pending, img)
	for id, names := range r.blocks {
		r.blocks[id] = slices.DeleteFunc(names, func(n string) bool { return n == name })
	}
	return true
}

// StartBlock opens block id. Every image loaded while it is open becomes
// part of it. Several blocks may be open at once.
func (r *Resources) StartBlock(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.active, id) {
		r.active = append(r.active, id)
	}
	if _, ok := r.blocks[id]; !ok {
		r.blocks[id] = nil
	}
}

// EndBlock closes block id. Its images stay loaded.
func (r *Resources) EndBlock(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = slices.DeleteFunc(r.active, func(a string) bool { return a == id })
}

// BlockResources returns the names recorded in block id.
func (r *Resources) BlockResources(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.blocks[id])
}

// ReleaseBlock releases every image in block id and forgets the block. It
// returns how many images were released.
func (r *Resources) ReleaseBlock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := slices.Clone(r.blocks[id])
	count := 0
	for _, n := range names {
		if r.releaseLocked(n) {
			count++
		}
	}
	delete(r.blocks, id)
	r.active = slices.DeleteFunc(r.active, func(a string) bool { return a == id })
	r.logger.Debug("resource block released", "block", id, "images", count)
	return count
}

// Pending returns the number of images waiting for deallocation.
func (r *Resources) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// housekeep deallocates released images. Called once per frame.
func (r *Resources) housekeep() int {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, img := range pending {
		img.Deallocate()
	}
	return len(pending)
}

// Close closes mounted archives.
func (r *Resources) Close() error {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
