package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lunajoyas/catalogo/internal/i18n"
	"github.com/lunajoyas/catalogo/internal/imagefetch"
	"github.com/lunajoyas/catalogo/internal/models"
)

const (
	a4Width  = 210.0
	a4Height = 297.0
)

var exportDay = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newTestExporter(t *testing.T, canvas Canvas, fetcher ImageFetcher) *Exporter {
	t.Helper()

	tr, err := i18n.New("es")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	exp, err := NewExporter(Options{
		Fetcher:    fetcher,
		Translator: tr,
		BrandName:  "Luna Joyas",
		SiteURL:    "lunajoyas.example",
		NewCanvas:  func(string) Canvas { return canvas },
		Now:        func() time.Time { return exportDay },
	})
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}
	return exp
}

func products(n int) []*models.Product {
	out := make([]*models.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &models.Product{
			ID:         fmt.Sprintf("p%d", i),
			Title:      models.LocalizedText{"es": fmt.Sprintf("Anillo %d", i), "en": fmt.Sprintf("Ring %d", i)},
			Categories: []string{"rings"},
			Images:     []string{fmt.Sprintf("https://cdn.example/p%d.jpg", i)},
			Pricing:    &models.ProductPricing{Type: models.PricingTierM},
		})
	}
	return out
}

func squareImages(items []*models.Product) *fakeFetcher {
	f := &fakeFetcher{images: map[string]*imagefetch.Image{}}
	for _, p := range items {
		f.images[p.PrimaryImage()] = square()
	}
	return f
}

func TestExport_EmptyProductList(t *testing.T) {
	t.Parallel()

	canvas := newRecordingCanvas(a4Width, a4Height)
	result, err := newTestExporter(t, canvas, &fakeFetcher{}).Export(context.Background(), Request{Locale: "es"}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Pages != 1 || canvas.pages != 1 {
		t.Fatalf("expected a single page, got %d (canvas %d)", result.Pages, canvas.pages)
	}
	if len(result.Placements) != 0 {
		t.Fatalf("expected no placements, got %d", len(result.Placements))
	}
	if n := len(canvas.find("image")) + len(canvas.find("rect")); n != 0 {
		t.Fatalf("expected no product cells, got %d drawing ops", n)
	}
	for _, want := range []string{"Luna Joyas", "Joyería artesanal", "Todos los productos", "19/10/2026 • 0 productos", "lunajoyas.example", "Página 1"} {
		if !canvas.hasText(want) {
			t.Fatalf("expected header/footer text %q", want)
		}
	}
	if len(canvas.find("line")) != 1 {
		t.Fatalf("expected one header rule, got %d", len(canvas.find("line")))
	}
	if result.Filename != "Catalogo_2026-10-19.pdf" {
		t.Fatalf("unexpected filename %q", result.Filename)
	}
	if string(result.Data) != "%PDF-recorded" {
		t.Fatalf("unexpected document bytes %q", result.Data)
	}
}

func TestExport_GridPlacement(t *testing.T) {
	t.Parallel()

	items := products(7)
	canvas := newRecordingCanvas(a4Width, a4Height)
	result, err := newTestExporter(t, canvas, squareImages(items)).Export(context.Background(), Request{
		Products: items,
		Pricing:  &models.PricingConfig{S: 10, M: 20, L: 30},
		Locale:   "en",
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	const columns = 3
	if len(result.Placements) != len(items) {
		t.Fatalf("expected %d placements, got %d", len(items), len(result.Placements))
	}

	rows := map[int]int{}
	for i, pl := range result.Placements {
		if pl.Column != i%columns {
			t.Fatalf("product %d in column %d, want %d", i, pl.Column, i%columns)
		}
		if page, ok := rows[pl.Row]; ok && page != pl.Page {
			t.Fatalf("row %d split across pages %d and %d", pl.Row, page, pl.Page)
		}
		rows[pl.Row] = pl.Page
	}
	if want := int(math.Ceil(float64(len(items)) / columns)); len(rows) != want {
		t.Fatalf("expected %d rows, got %d", want, len(rows))
	}

	// A4: column width 56, square images 56 high, rows advance 86.
	wantY := []float64{46, 46, 46, 132, 132, 132, 36}
	wantPage := []int{1, 1, 1, 1, 1, 1, 2}
	for i, pl := range result.Placements {
		if pl.Y != wantY[i] || pl.Page != wantPage[i] {
			t.Fatalf("product %d at page %d y=%v, want page %d y=%v", i, pl.Page, pl.Y, wantPage[i], wantY[i])
		}
		if wantX := pageMargin + float64(pl.Column)*(56+columnGap); pl.X != wantX {
			t.Fatalf("product %d at x=%v, want %v", i, pl.X, wantX)
		}
	}
	if result.Pages != 2 || !canvas.hasText("Page 2") {
		t.Fatalf("expected a second page with footer, got %d pages", result.Pages)
	}
	if canvas.hasText("All products") && strings.Count(joinTexts(canvas), "All products") != 1 {
		t.Fatal("filter summary must only be printed on the first page")
	}
	if got := len(canvas.find("line")); got != 2 {
		t.Fatalf("expected a header rule per page, got %d", got)
	}
}

func TestExport_TwoColumnsOnNarrowPages(t *testing.T) {
	t.Parallel()

	items := products(3)
	canvas := newRecordingCanvas(148, 210)
	result, err := newTestExporter(t, canvas, squareImages(items)).Export(context.Background(), Request{Products: items}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var columns []int
	for _, pl := range result.Placements {
		columns = append(columns, pl.Column)
	}
	if diff := cmp.Diff([]int{0, 1, 0}, columns); diff != "" {
		t.Fatalf("unexpected columns (-want +got):\n%s", diff)
	}
}

func TestExport_ImageFailureKeepsSlot(t *testing.T) {
	t.Parallel()

	items := products(3)
	fetcher := squareImages(items)
	delete(fetcher.images, items[1].PrimaryImage())

	canvas := newRecordingCanvas(a4Width, a4Height)
	result, err := newTestExporter(t, canvas, fetcher).Export(context.Background(), Request{Products: items, Locale: "es"}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	failed := result.Placements[1]
	if !failed.Placeholder || failed.Column != 1 || failed.Y != result.Placements[0].Y {
		t.Fatalf("failed image should keep its slot, got %+v", failed)
	}

	lay := newLayout(a4Width, a4Height)
	if failed.ImageHeight != lay.maxImage {
		t.Fatalf("expected placeholder height %v, got %v", lay.maxImage, failed.ImageHeight)
	}
	found := false
	for _, r := range canvas.find("rect") {
		if r.fill && r.x == failed.X && r.y == failed.Y && r.w == lay.columnWidth && r.h == lay.maxImage {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a placeholder block of column width by max image height")
	}
	if !canvas.hasText("Imagen no disponible") {
		t.Fatal("expected image unavailable caption")
	}
	if len(canvas.find("image")) != 2 {
		t.Fatalf("expected the other two images to be drawn, got %d", len(canvas.find("image")))
	}
}

func TestExport_DrawFailureAndMissingImages(t *testing.T) {
	t.Parallel()

	items := products(2)
	items[1].Images = nil
	canvas := newRecordingCanvas(a4Width, a4Height)
	canvas.failDraw["product-0"] = true

	fetcher := squareImages(items[:1])
	result, err := newTestExporter(t, canvas, fetcher).Export(context.Background(), Request{Products: items}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for i, pl := range result.Placements {
		if !pl.Placeholder {
			t.Fatalf("product %d should use a placeholder", i)
		}
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("products without images must not be fetched, got %v", fetcher.calls)
	}
	if got := strings.Count(joinTexts(canvas), "Imagen no disponible"); got != 1 {
		t.Fatalf("expected one caption (none for imageless product), got %d", got)
	}
}

func TestExport_RowAdvanceUsesLastItem(t *testing.T) {
	t.Parallel()

	items := products(4)
	fetcher := squareImages(items)
	fetcher.images[items[0].PrimaryImage()] = &imagefetch.Image{Data: []byte{1}, Type: imagefetch.TypeJPEG, Width: 100, Height: 200}
	fetcher.images[items[2].PrimaryImage()] = &imagefetch.Image{Data: []byte{1}, Type: imagefetch.TypeJPEG, Width: 100, Height: 50}

	canvas := newRecordingCanvas(a4Width, a4Height)
	result, err := newTestExporter(t, canvas, fetcher).Export(context.Background(), Request{Products: items}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	lay := newLayout(a4Width, a4Height)
	if got := result.Placements[0].ImageHeight; got != lay.maxImage {
		t.Fatalf("tall image should be capped at %v, got %v", lay.maxImage, got)
	}
	last := result.Placements[2]
	want := last.Y + last.ImageHeight + textAllowance + rowGap
	if got := result.Placements[3].Y; got != want {
		t.Fatalf("next row at y=%v, want %v", got, want)
	}
}

func TestExport_ProgressReported(t *testing.T) {
	t.Parallel()

	items := products(4)
	fetcher := squareImages(items)
	delete(fetcher.images, items[2].PrimaryImage())

	var calls [][2]int
	_, err := newTestExporter(t, newRecordingCanvas(a4Width, a4Height), fetcher).Export(context.Background(), Request{Products: items}, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("unexpected progress (-want +got):\n%s", diff)
	}
}

func TestExport_PriceAndBadge(t *testing.T) {
	t.Parallel()

	items := products(2)
	items[0].Pricing = &models.ProductPricing{Type: models.PricingCustom, CustomPrice: ptr(50)}
	items[0].Discount = &models.ProductDiscount{Enabled: true, Percent: 10}
	items[0].IsNew = true
	items[0].Categories = []string{"rings", "silver", "gifts"}

	canvas := newRecordingCanvas(a4Width, a4Height)
	_, err := newTestExporter(t, canvas, squareImages(items)).Export(context.Background(), Request{
		Products:      items,
		Pricing:       &models.PricingConfig{M: 20},
		Locale:        "en",
		CategoryNames: map[string]string{"rings": "Rings"},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, want := range []string{"$50.00", "$45.00", "$20.00", "NEW", "Rings +2", "Ring 0"} {
		if !canvas.hasText(want) {
			t.Fatalf("expected text %q in %q", want, joinTexts(canvas))
		}
	}
	// Header rule plus one strike-through line.
	if got := len(canvas.find("line")); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
}

func TestExport_CanvasErrorAborts(t *testing.T) {
	t.Parallel()

	items := products(7)
	canvas := newRecordingCanvas(a4Width, a4Height)
	canvas.failOnPage = 2

	result, err := newTestExporter(t, canvas, squareImages(items)).Export(context.Background(), Request{Products: items}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if result != nil {
		t.Fatal("expected no partial result")
	}
}

func TestExport_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := products(2)
	_, err := newTestExporter(t, newRecordingCanvas(a4Width, a4Height), squareImages(items)).Export(ctx, Request{Products: items}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExport_FPDFDocument(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 20, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}

	items := products(5)
	items[0].Title = models.LocalizedText{"es": "Collar de luna creciente con piedra lunar", "en": "Moon necklace"}
	items[0].IsNew = true
	fetcher := &fakeFetcher{images: map[string]*imagefetch.Image{
		items[0].PrimaryImage(): {Data: buf.Bytes(), Type: imagefetch.TypeJPEG, Width: 20, Height: 30},
		items[1].PrimaryImage(): {Data: []byte("broken"), Type: imagefetch.TypeJPEG, Width: 10, Height: 10},
	}}

	tr, err := i18n.New("es")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	exp, err := NewExporter(Options{Fetcher: fetcher, Translator: tr, BrandName: "Luna Joyas", SiteURL: "lunajoyas.example"})
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}

	result, err := exp.Export(context.Background(), Request{
		Products:  items,
		Pricing:   &models.PricingConfig{S: 10, M: 20, L: 30},
		Locale:    "es",
		Selection: Selection{Categories: []string{"Anillos"}, Search: "luna"},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !bytes.HasPrefix(result.Data, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got %q", result.Data[:min(8, len(result.Data))])
	}
	if !result.Placements[1].Placeholder || result.Placements[0].Placeholder {
		t.Fatalf("unexpected placeholder flags %+v", result.Placements[:2])
	}
}

func TestWrapText(t *testing.T) {
	t.Parallel()

	canvas := newRecordingCanvas(a4Width, a4Height)
	tests := []struct {
		name     string
		text     string
		width    float64
		maxLines int
		want     []string
	}{
		{name: "fits", text: "Anillo luna", width: 40, want: []string{"Anillo luna"}},
		{name: "wraps on words", text: "Anillo de plata luna", width: 20, want: []string{"Anillo de", "plata luna"}},
		{name: "truncates with ellipsis", text: "uno dos tres cuatro cinco seis", width: 14.4, maxLines: 2, want: []string{"uno dos", "tres…"}},
		{name: "breaks long words", text: "abcdefghij", width: 9, want: []string{"abcde", "fghij"}},
		{name: "empty", text: "   ", width: 10, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := wrapText(canvas, tt.text, tt.width, tt.maxLines)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("wrapText() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	if got := Filename("Catalog", exportDay); got != "Catalog_2026-10-19.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func joinTexts(c *recordingCanvas) string {
	var parts []string
	for _, o := range c.find("text") {
		parts = append(parts, o.text)
	}
	return strings.Join(parts, "\n")
}

func ptr(v float64) *float64 {
	return &v
}
