package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lunajoyas/catalogo/internal/catalog"
	"github.com/lunajoyas/catalogo/internal/imagefetch"
	"github.com/lunajoyas/catalogo/internal/models"
)

// Layout constants in millimetres.
const (
	pageMargin        = 15.0
	columnGap         = 6.0
	wideColumns       = 3
	narrowColumns     = 2
	wideThreshold     = 200.0
	imageAspectCap    = 1.2
	textAllowance     = 24.0
	rowGap            = 6.0
	bottomReserve     = 20.0
	footerOffset      = 10.0
	headerRuleSpacing = 6.0

	titleLineHeight = 4.5
	titleMaxLines   = 2
	detailHeight    = 4.0
	priceHeight     = 5.0
	badgeHeight     = 5.0
	badgeInset      = 2.0
)

var (
	colorText        = RGB{40, 40, 40}
	colorMuted       = RGB{120, 120, 120}
	colorPlaceholder = RGB{240, 236, 232}
	colorAccent      = RGB{176, 58, 46}
	colorRule        = RGB{210, 200, 190}
	colorWhite       = RGB{255, 255, 255}
)

// ImageFetcher retrieves a product image ready for drawing.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*imagefetch.Image, error)
}

// Placement records where one product landed.
type Placement struct {
	Index       int     `json:"index"`
	ProductID   string  `json:"productId"`
	Page        int     `json:"page"`
	Row         int     `json:"row"`
	Column      int     `json:"column"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ImageHeight float64 `json:"imageHeight"`
	Placeholder bool    `json:"placeholder"`
}

type layout struct {
	pageWidth   float64
	pageHeight  float64
	columns     int
	columnWidth float64
	maxImage    float64
	maxProduct  float64
}

func newLayout(pageWidth, pageHeight float64) layout {
	columns := narrowColumns
	if pageWidth > wideThreshold {
		columns = wideColumns
	}
	content := pageWidth - 2*pageMargin
	columnWidth := (content - columnGap*float64(columns-1)) / float64(columns)
	maxImage := columnWidth * imageAspectCap
	return layout{
		pageWidth:   pageWidth,
		pageHeight:  pageHeight,
		columns:     columns,
		columnWidth: columnWidth,
		maxImage:    maxImage,
		maxProduct:  maxImage + textAllowance,
	}
}

func (l layout) contentWidth() float64 {
	return l.pageWidth - 2*pageMargin
}

// pageContext is the per-export text shared by every page.
type pageContext struct {
	locale     string
	brand      string
	tagline    string
	siteURL    string
	summary    string
	dateLine   string
	categories map[string]string
}

// paginator lays products out on a multi-column grid. It is single use.
type paginator struct {
	canvas  Canvas
	fetcher ImageFetcher
	pricer  *catalog.Pricer
	tr      Translator
	logger  *slog.Logger
	layout  layout
	text    pageContext

	pricing  *models.PricingConfig
	discount *models.GlobalDiscount

	currentY        float64
	column          int
	row             int
	page            int
	lastImageHeight float64
	placements      []Placement
}

func newPaginator(canvas Canvas, fetcher ImageFetcher, pricer *catalog.Pricer, tr Translator, logger *slog.Logger, text pageContext) *paginator {
	width, height := canvas.PageSize()
	return &paginator{
		canvas:  canvas,
		fetcher: fetcher,
		pricer:  pricer,
		tr:      tr,
		logger:  logger,
		layout:  newLayout(width, height),
		text:    text,
	}
}

// begin opens the first page with the full header.
func (p *paginator) begin() {
	p.newPage(true)
}

func (p *paginator) newPage(first bool) {
	p.page++
	p.canvas.AddPage()
	p.currentY = p.drawHeader(first)
	p.column = 0
	p.drawFooter()
}

func (p *paginator) drawHeader(first bool) float64 {
	width := p.layout.contentWidth()
	y := pageMargin

	p.canvas.SetTextColor(colorText)
	p.canvas.SetFont("B", 20)
	p.canvas.Text(pageMargin, y, width, 9, AlignCenter, p.text.brand)
	y += 9

	p.canvas.SetTextColor(colorMuted)
	p.canvas.SetFont("I", 10)
	p.canvas.Text(pageMargin, y, width, 5, AlignCenter, p.text.tagline)
	y += 6

	if first {
		p.canvas.SetTextColor(colorText)
		p.canvas.SetFont("", 9)
		for _, line := range wrapText(p.canvas, p.text.summary, width, 0) {
			p.canvas.Text(pageMargin, y, width, 4.5, AlignCenter, line)
			y += 4.5
		}
		p.canvas.SetTextColor(colorMuted)
		p.canvas.Text(pageMargin, y, width, 4.5, AlignCenter, p.text.dateLine)
		y += 5.5
	}

	p.canvas.SetDrawColor(colorRule)
	p.canvas.SetLineWidth(0.3)
	p.canvas.Line(pageMargin, y, p.layout.pageWidth-pageMargin, y)
	return y + headerRuleSpacing
}

func (p *paginator) drawFooter() {
	y := p.layout.pageHeight - footerOffset
	p.canvas.SetTextColor(colorMuted)
	p.canvas.SetFont("", 8)
	p.canvas.Text(pageMargin, y, p.layout.contentWidth()/2, 4, AlignLeft, p.text.siteURL)
	p.canvas.Text(pageMargin, y, p.layout.contentWidth(), 4, AlignRight, p.tr.Tf(p.text.locale, "export.page", p.page))
}

// place draws one product into the next grid slot.
func (p *paginator) place(ctx context.Context, index int, product *models.Product) {
	if p.currentY+p.layout.maxProduct > p.layout.pageHeight-bottomReserve {
		p.newPage(false)
	}

	x := pageMargin + float64(p.column)*(p.layout.columnWidth+columnGap)
	y := p.currentY
	imageHeight, placeholder := p.drawImage(ctx, index, product, x, y)
	p.drawDetails(product, x, y+imageHeight)
	if product.IsNew {
		p.drawBadge(x, y)
	}

	p.placements = append(p.placements, Placement{
		Index:       index,
		ProductID:   product.ID,
		Page:        p.page,
		Row:         p.row,
		Column:      p.column,
		X:           x,
		Y:           y,
		ImageHeight: imageHeight,
		Placeholder: placeholder,
	})

	p.lastImageHeight = imageHeight
	p.column = (p.column + 1) % p.layout.columns
	if p.column == 0 {
		// Row height follows the last item placed in the row.
		p.currentY += p.lastImageHeight + textAllowance + rowGap
		p.row++
	}
}

func (p *paginator) drawImage(ctx context.Context, index int, product *models.Product, x, y float64) (float64, bool) {
	width := p.layout.columnWidth
	url := product.PrimaryImage()
	if url == "" {
		p.drawPlaceholder(x, y, "")
		return p.layout.maxImage, true
	}

	img, err := p.fetcher.Fetch(ctx, url)
	if err == nil && img.Width > 0 {
		height := min(width*img.AspectRatio(), p.layout.maxImage)
		if err = p.canvas.Image(fmt.Sprintf("product-%d", index), img, x, y, width, height); err == nil {
			return height, false
		}
	}
	if err == nil {
		err = fmt.Errorf("image %s has no width", url)
	}

	p.logger.DebugContext(ctx, "drawing image placeholder", "product_id", product.ID, "url", url, "error", err)
	p.drawPlaceholder(x, y, p.tr.T(p.text.locale, "export.imageUnavailable"))
	return p.layout.maxImage, true
}

func (p *paginator) drawPlaceholder(x, y float64, caption string) {
	p.canvas.SetFillColor(colorPlaceholder)
	p.canvas.Rect(x, y, p.layout.columnWidth, p.layout.maxImage, true)
	if caption == "" {
		return
	}
	p.canvas.SetTextColor(colorMuted)
	p.canvas.SetFont("I", 8)
	p.canvas.Text(x, y+p.layout.maxImage/2-2, p.layout.columnWidth, 4, AlignCenter, caption)
}

func (p *paginator) drawDetails(product *models.Product, x, y float64) {
	width := p.layout.columnWidth
	y += 2

	p.canvas.SetTextColor(colorText)
	p.canvas.SetFont("B", 9)
	for _, line := range wrapText(p.canvas, product.Title.In(p.text.locale), width, titleMaxLines) {
		p.canvas.Text(x, y, width, titleLineHeight, AlignLeft, line)
		y += titleLineHeight
	}

	if len(product.Categories) > 0 {
		label := p.categoryName(product.Categories[0])
		if extra := len(product.Categories) - 1; extra > 0 {
			label = fmt.Sprintf("%s +%d", label, extra)
		}
		p.canvas.SetTextColor(colorMuted)
		p.canvas.SetFont("", 7.5)
		p.canvas.Text(x, y, width, detailHeight, AlignLeft, label)
		y += detailHeight
	}

	price := p.pricer.Resolve(product, p.pricing, p.discount)
	current := p.formatPrice(price.Price)
	if !price.Discounted() {
		p.canvas.SetTextColor(colorText)
		p.canvas.SetFont("B", 10)
		p.canvas.Text(x, y, width, priceHeight, AlignLeft, current)
		return
	}

	original := p.formatPrice(*price.OriginalPrice)
	p.canvas.SetTextColor(colorMuted)
	p.canvas.SetFont("", 8.5)
	originalWidth := p.canvas.TextWidth(original)
	p.canvas.Text(x, y, originalWidth+1, priceHeight, AlignLeft, original)
	p.canvas.SetDrawColor(colorMuted)
	p.canvas.SetLineWidth(0.2)
	p.canvas.Line(x, y+priceHeight/2, x+originalWidth, y+priceHeight/2)

	p.canvas.SetTextColor(colorAccent)
	p.canvas.SetFont("B", 10)
	offset := originalWidth + 2
	p.canvas.Text(x+offset, y, width-offset, priceHeight, AlignLeft, current)
}

func (p *paginator) drawBadge(x, y float64) {
	label := p.tr.T(p.text.locale, "product.new")
	p.canvas.SetFont("B", 7)
	badgeWidth := p.canvas.TextWidth(label) + 4
	bx := x + p.layout.columnWidth - badgeWidth - badgeInset
	by := y + badgeInset

	p.canvas.SetFillColor(colorAccent)
	p.canvas.Rect(bx, by, badgeWidth, badgeHeight, true)
	p.canvas.SetTextColor(colorWhite)
	p.canvas.Text(bx, by, badgeWidth, badgeHeight, AlignCenter, label)
}

func (p *paginator) categoryName(id string) string {
	if name, ok := p.text.categories[id]; ok && name != "" {
		return name
	}
	return id
}

func (p *paginator) formatPrice(amount float64) string {
	return p.tr.Tf(p.text.locale, "price.format", amount)
}

const ellipsis = "…"

// wrapText breaks text into lines no wider than width. maxLines <= 0 means
// unlimited; otherwise the last kept line ends with an ellipsis when text
// was cut.
func wrapText(canvas Canvas, text string, width float64, maxLines int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		for canvas.TextWidth(word) > width && utf8.RuneCountInString(word) > 1 {
			head, tail := splitToWidth(canvas, word, width)
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, head)
			word = tail
		}
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && canvas.TextWidth(candidate) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}

	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := lines[maxLines-1]
	for last != "" && canvas.TextWidth(last+ellipsis) > width {
		_, size := utf8.DecodeLastRuneInString(last)
		last = last[:len(last)-size]
	}
	lines[maxLines-1] = strings.TrimRight(last, " ") + ellipsis
	return lines
}

// splitToWidth cuts the longest prefix of word that fits in width, keeping
// at least one rune.
func splitToWidth(canvas Canvas, word string, width float64) (string, string) {
	cut := 0
	for i, r := range word {
		next := i + utf8.RuneLen(r)
		if cut > 0 && canvas.TextWidth(word[:next]) > width {
			break
		}
		cut = next
	}
	return word[:cut], word[cut:]
}
