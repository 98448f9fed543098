package toxicity

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshot queues a labeled capture of the next drawn frame. The PNG is
// written to WindowConfig.ScreenshotDir with a timestamped file name.
func (w *Window) Screenshot(label string) {
	w.mu.Lock()
	w.shots = append(w.shots, label)
	w.mu.Unlock()
}

// flushScreenshots writes every queued capture of screen. Called at the end
// of Draw.
func (w *Window) flushScreenshots(screen *ebiten.Image) {
	w.mu.Lock()
	labels, dir := w.shots, w.shotDir
	w.shots = nil
	w.mu.Unlock()
	if len(labels) == 0 {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.logger.Error("screenshot directory", "dir", dir, "error", err)
		return
	}

	size := screen.Bounds().Size()
	pixels := make([]byte, 4*size.X*size.Y)
	screen.ReadPixels(pixels)
	img := unpremultiply(pixels, size.X, size.Y)

	stamp := time.Now().Format("20060102-150405.000")
	for _, label := range labels {
		name := filepath.Join(dir, stamp+"_"+sanitizeLabel(label)+".png")
		if err := writePNG(name, img); err != nil {
			w.logger.Error("screenshot failed", "label", label, "error", err)
			continue
		}
		w.logger.Info("screenshot written", "path", name, "frame", w.Frame())
	}
}

// unpremultiply converts the premultiplied RGBA pixels ReadPixels returns to
// straight alpha.
func unpremultiply(pixels []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	n := min(len(pixels), len(img.Pix)) / 4
	for i := range n {
		p := pixels[4*i : 4*i+4]
		c := color.NRGBAModel.Convert(color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}).(color.NRGBA)
		img.SetNRGBA(i%width, i/width, c)
	}
	return img
}

func writePNG(name string, img image.Image) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("write screenshot %s: %w", name, err)
	}
	return nil
}

// sanitizeLabel makes label safe for a file name: ASCII letters, digits,
// '-' and '.' are kept and every other rune becomes '_'.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.') {
			return r
		}
		return '_'
	}, label)
}
