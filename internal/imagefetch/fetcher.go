// Package imagefetch downloads product images and prepares them for
// embedding in the catalog document.
package imagefetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/lunajoyas/catalogo/internal/cache"
)

const (
	TypeJPEG = "JPG"

	defaultMaxBytes  = 15 << 20
	defaultMaxPixels = 1200
	jpegQuality      = 85
)

var (
	ErrStatus   = errors.New("unexpected image response status")
	ErrTooLarge = errors.New("image exceeds size limit")
)

// Image is a decoded picture re-encoded for the document writer.
type Image struct {
	Data   []byte
	Type   string
	Width  int
	Height int
}

// AspectRatio returns height over width, or zero for an empty image.
func (i *Image) AspectRatio() float64 {
	if i == nil || i.Width <= 0 {
		return 0
	}
	return float64(i.Height) / float64(i.Width)
}

type Options struct {
	Client    *http.Client
	Cache     cache.Provider
	CacheTTL  time.Duration
	MaxBytes  int64
	MaxPixels int
	Logger    *slog.Logger
}

type Fetcher struct {
	client    *http.Client
	cache     cache.Provider
	cacheTTL  time.Duration
	maxBytes  int64
	maxPixels int
	logger    *slog.Logger
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		maxBytes:  opts.MaxBytes,
		maxPixels: opts.MaxPixels,
		logger:    opts.Logger,
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBytes
	}
	if f.maxPixels <= 0 {
		f.maxPixels = defaultMaxPixels
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.logger = f.logger.With("component", "image_fetcher")
	return f
}

// Fetch downloads url and returns it as a JPEG. Every failure is returned
// as an error so the caller can substitute a placeholder.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Image, error) {
	if img, ok := f.fromCache(ctx, url); ok {
		return img, nil
	}

	raw, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}

	img, err := f.prepare(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, cache.ImageKey(url), string(img.Data), f.cacheTTL); err != nil {
			f.logger.WarnContext(ctx, "failed to cache image", "url", url, "error", err)
		}
	}
	return img, nil
}

func (f *Fetcher) fromCache(ctx context.Context, url string) (*Image, bool) {
	if f.cache == nil {
		return nil, false
	}
	cached, err := f.cache.Get(ctx, cache.ImageKey(url))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			f.logger.WarnContext(ctx, "image cache read failed", "url", url, "error", err)
		}
		return nil, false
	}

	data := []byte(cached)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	return &Image{Data: data, Type: TypeJPEG, Width: cfg.Width, Height: cfg.Height}, true
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, url, resp.ContentLength)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if int64(len(raw)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, url)
	}
	return raw, nil
}

// prepare decodes raw, bounds it to maxPixels on its longest side,
// flattens transparency onto white and re-encodes it as JPEG.
func (f *Fetcher) prepare(raw []byte) (*Image, error) {
	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.New("image has no pixels")
	}
	if bounds.Dx() > f.maxPixels || bounds.Dy() > f.maxPixels {
		src = imaging.Fit(src, f.maxPixels, f.maxPixels, imaging.Lanczos)
		bounds = src.Bounds()
	}

	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat = imaging.Overlay(flat, src, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return &Image{
		Data:   buf.Bytes(),
		Type:   TypeJPEG,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
