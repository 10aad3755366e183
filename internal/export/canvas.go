package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/lunajoyas/catalogo/internal/imagefetch"
)

// Align is a horizontal text alignment inside a cell.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// RGB is a drawing color.
type RGB struct {
	R, G, B int
}

// Canvas is the drawing surface the paginator lays products onto. All
// coordinates are millimetres from the top-left corner of the page.
type Canvas interface {
	PageSize() (width, height float64)
	AddPage()
	SetFont(style string, size float64)
	SetTextColor(c RGB)
	SetFillColor(c RGB)
	SetDrawColor(c RGB)
	SetLineWidth(width float64)
	// Text writes one line inside the cell at (x, y) of width w and height h.
	Text(x, y, w, h float64, align Align, text string)
	TextWidth(text string) float64
	Rect(x, y, w, h float64, fill bool)
	Line(x1, y1, x2, y2 float64)
	// Image draws img; a failed draw leaves the canvas usable.
	Image(name string, img *imagefetch.Image, x, y, w, h float64) error
	Err() error
	Output(w io.Writer) error
}

const fontFamily = "Helvetica"

// FPDFCanvas draws onto an A4 portrait fpdf document.
type FPDFCanvas struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func NewFPDFCanvas(title string) *FPDFCanvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("catalogo", true)

	c := &FPDFCanvas{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	pdf.SetTitle(c.translate(title), false)
	return c
}

func (c *FPDFCanvas) PageSize() (float64, float64) {
	return c.pdf.GetPageSize()
}

func (c *FPDFCanvas) AddPage() {
	c.pdf.AddPage()
}

func (c *FPDFCanvas) SetFont(style string, size float64) {
	c.pdf.SetFont(fontFamily, style, size)
}

func (c *FPDFCanvas) SetTextColor(rgb RGB) {
	c.pdf.SetTextColor(rgb.R, rgb.G, rgb.B)
}

func (c *FPDFCanvas) SetFillColor(rgb RGB) {
	c.pdf.SetFillColor(rgb.R, rgb.G, rgb.B)
}

func (c *FPDFCanvas) SetDrawColor(rgb RGB) {
	c.pdf.SetDrawColor(rgb.R, rgb.G, rgb.B)
}

func (c *FPDFCanvas) SetLineWidth(width float64) {
	c.pdf.SetLineWidth(width)
}

func (c *FPDFCanvas) Text(x, y, w, h float64, align Align, text string) {
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, h, c.translate(text), "", 0, string(align)+"M", false, 0, "")
}

func (c *FPDFCanvas) TextWidth(text string) float64 {
	return c.pdf.GetStringWidth(c.translate(text))
}

func (c *FPDFCanvas) Rect(x, y, w, h float64, fill bool) {
	style := "D"
	if fill {
		style = "F"
	}
	c.pdf.Rect(x, y, w, h, style)
}

func (c *FPDFCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *FPDFCanvas) Image(name string, img *imagefetch.Image, x, y, w, h float64) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("image %s is empty", name)
	}
	opts := fpdf.ImageOptions{ImageType: img.Type}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		return fmt.Errorf("failed to register image %s: %w", name, err)
	}
	c.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		return fmt.Errorf("failed to draw image %s: %w", name, err)
	}
	return nil
}

func (c *FPDFCanvas) Err() error {
	return c.pdf.Error()
}

func (c *FPDFCanvas) Output(w io.Writer) error {
	return c.pdf.Output(w)
}
