// Package export renders the product catalog as a paginated PDF.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunajoyas/catalogo/internal/catalog"
	"github.com/lunajoyas/catalogo/internal/models"
)

var ErrNoFetcher = errors.New("export requires an image fetcher")

// ProgressFunc is told after each product how many of total are done.
type ProgressFunc func(done, total int)

// Request is one export run. Products are drawn in the given order.
type Request struct {
	Products []*models.Product
	Pricing  *models.PricingConfig
	Discount *models.GlobalDiscount
	Locale   string
	// Selection is printed on the first page only.
	Selection Selection
	// CategoryNames maps category ids to display names.
	CategoryNames map[string]string
}

type Result struct {
	Filename   string
	Data       []byte
	Pages      int
	Placements []Placement
}

type Options struct {
	Fetcher    ImageFetcher
	Translator Translator
	Pricer     *catalog.Pricer
	BrandName  string
	SiteURL    string
	// NewCanvas builds the drawing surface; defaults to an A4 fpdf document.
	NewCanvas func(title string) Canvas
	Logger    *slog.Logger
	Now       func() time.Time
}

type Exporter struct {
	fetcher   ImageFetcher
	tr        Translator
	pricer    *catalog.Pricer
	brand     string
	siteURL   string
	newCanvas func(title string) Canvas
	logger    *slog.Logger
	now       func() time.Time
}

func NewExporter(opts Options) (*Exporter, error) {
	if opts.Fetcher == nil {
		return nil, ErrNoFetcher
	}
	if opts.Translator == nil {
		return nil, errors.New("export requires a translator")
	}

	e := &Exporter{
		fetcher:   opts.Fetcher,
		tr:        opts.Translator,
		pricer:    opts.Pricer,
		brand:     opts.BrandName,
		siteURL:   opts.SiteURL,
		newCanvas: opts.NewCanvas,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if e.pricer == nil {
		e.pricer = catalog.NewPricer()
	}
	if e.newCanvas == nil {
		e.newCanvas = func(title string) Canvas { return NewFPDFCanvas(title) }
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "catalog_exporter")
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Export draws every product of req and returns the finished document.
// Image failures are drawn as placeholders; only canvas errors and
// cancellation abort the run.
func (e *Exporter) Export(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	locale := req.Locale
	if locale == "" {
		locale = models.DefaultLocale
	}
	today := e.now()
	total := len(req.Products)

	canvas := e.newCanvas(e.tr.T(locale, "catalog.title") + " " + e.brand)
	p := newPaginator(canvas, e.fetcher, e.pricer, e.tr, e.logger, pageContext{
		locale:     locale,
		brand:      e.brand,
		tagline:    e.tr.T(locale, "brand.tagline"),
		siteURL:    e.siteURL,
		summary:    FilterSummary(req.Selection, locale, e.tr),
		dateLine:   today.Format(e.tr.T(locale, "export.dateLayout")) + " • " + e.tr.Tf(locale, "export.products", total),
		categories: req.CategoryNames,
	})
	p.pricing = req.Pricing
	p.discount = req.Discount

	p.begin()
	for i, product := range req.Products {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export canceled after %d of %d products: %w", i, total, err)
		}
		if product != nil {
			p.place(ctx, i, product)
		}
		if err := canvas.Err(); err != nil {
			return nil, fmt.Errorf("failed to draw product %d: %w", i, err)
		}
		if progress != nil {
			progress(i+1, total)
		}
	}

	var buf bytes.Buffer
	if err := canvas.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write catalog document: %w", err)
	}

	e.logger.InfoContext(ctx, "catalog exported",
		"products", total,
		"pages", p.page,
		"bytes", buf.Len(),
		"locale", locale,
	)

	return &Result{
		Filename:   Filename(e.tr.T(locale, "export.filenamePrefix"), today),
		Data:       buf.Bytes(),
		Pages:      p.page,
		Placements: p.placements,
	}, nil
}

// Filename is the date-stamped download name of an export.
func Filename(prefix string, day time.Time) string {
	return fmt.Sprintf("%s_%s.pdf", prefix, day.Format(time.DateOnly))
}
