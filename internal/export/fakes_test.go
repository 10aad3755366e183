package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/lunajoyas/catalogo/internal/imagefetch"
)

type op struct {
	kind string
	x, y float64
	w, h float64
	text string
	fill bool
}

// recordingCanvas captures drawing calls instead of producing a document.
type recordingCanvas struct {
	width, height float64
	ops           []op
	pages         int
	failDraw      map[string]bool
	err           error
	failOnPage    int
}

func newRecordingCanvas(width, height float64) *recordingCanvas {
	return &recordingCanvas{width: width, height: height, failDraw: map[string]bool{}}
}

func (c *recordingCanvas) PageSize() (float64, float64) { return c.width, c.height }

func (c *recordingCanvas) AddPage() {
	c.pages++
	c.ops = append(c.ops, op{kind: "page"})
	if c.failOnPage > 0 && c.pages == c.failOnPage {
		c.err = errors.New("writer exploded")
	}
}

func (c *recordingCanvas) SetFont(string, float64) {}
func (c *recordingCanvas) SetTextColor(RGB) {}
func (c *recordingCanvas) SetFillColor(RGB) {}
func (c *recordingCanvas) SetDrawColor(RGB) {}
func (c *recordingCanvas) SetLineWidth(float64) {}

func (c *recordingCanvas) Text(x, y, w, h float64, _ Align, text string) {
	c.ops = append(c.ops, op{kind: "text", x: x, y: y, w: w, h: h, text: text})
}

func (c *recordingCanvas) TextWidth(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * 1.8
}

func (c *recordingCanvas) Rect(x, y, w, h float64, fill bool) {
	c.ops = append(c.ops, op{kind: "rect", x: x, y: y, w: w, h: h, fill: fill})
}

func (c *recordingCanvas) Line(x1, y1, x2, y2 float64) {
	c.ops = append(c.ops, op{kind: "line", x: x1, y: y1, w: x2 - x1, h: y2 - y1})
}

func (c *recordingCanvas) Image(name string, _ *imagefetch.Image, x, y, w, h float64) error {
	if c.failDraw[name] {
		return fmt.Errorf("cannot draw %s", name)
	}
	c.ops = append(c.ops, op{kind: "image", x: x, y: y, w: w, h: h, text: name})
	return nil
}

func (c *recordingCanvas) Err() error { return c.err }

func (c *recordingCanvas) Output(w io.Writer) error {
	if c.err != nil {
		return c.err
	}
	_, err := io.WriteString(w, "%PDF-recorded")
	return err
}

func (c *recordingCanvas) find(kind string) []op {
	var out []op
	for _, o := range c.ops {
		if o.kind == kind {
			out = append(out, o)
		}
	}
	return out
}

func (c *recordingCanvas) hasText(text string) bool {
	for _, o := range c.ops {
		if o.kind == "text" && o.text == text {
			return true
		}
	}
	return false
}

// fakeFetcher serves images by URL; unknown URLs fail.
type fakeFetcher struct {
	mu     sync.Mutex
	images map[string]*imagefetch.Image
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*imagefetch.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	img, ok := f.images[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: connection refused", url)
	}
	return img, nil
}

func square() *imagefetch.Image {
	return &imagefetch.Image{Data: []byte{0xff}, Type: imagefetch.TypeJPEG, Width: 100, Height: 100}
}
