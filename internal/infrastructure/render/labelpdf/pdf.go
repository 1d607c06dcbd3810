// Package labelpdf renders the 75x125mm box label as PDF (for the print agent)
// and as HTML (for the browser print dialog).
package labelpdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	fpdfbarcode "github.com/go-pdf/fpdf/contrib/barcode"

	"challanbook/internal/domain/documents/challan"
)

// Label size in millimetres.
const (
	Width  = 75.0
	Height = 125.0
)

const (
	pad      = 3.0
	headerH  = 11.0
	rowH     = 6.6
	captionW = 24.0
	barH     = 16.0
	textH    = 5.0
)

// Renderer implements challan.LabelRenderer.
type Renderer struct {
	html     *htmlRenderer
	compress bool
}

var _ challan.LabelRenderer = (*Renderer)(nil)

// New creates a label renderer.
func New() *Renderer {
	return &Renderer{html: newHTMLRenderer(), compress: true}
}

// RenderPDF draws the label on a single 75x125mm page.
func (r *Renderer) RenderPDF(ctx context.Context, l challan.Label) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: Width, Ht: Height},
	})
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(l.Date)
	pdf.SetMargins(pad, pad, pad)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	innerW := Width - 2*pad
	y := pad

	// Bordered header
	pdf.SetLineWidth(0.4)
	pdf.Rect(pad, y, innerW, headerH, "D")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(pad, y)
	pdf.CellFormat(innerW, headerH, tr(l.Header), "", 0, "C", false, 0, "")
	y += headerH + 1.5

	// Table
	pdf.SetLineWidth(0.2)
	for _, row := range Rows(l) {
		pdf.SetXY(pad, y)
		pdf.SetFont("Helvetica", "B", 8.5)
		pdf.CellFormat(captionW, rowH, tr(row.Caption), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9.5)
		pdf.CellFormat(innerW-captionW, rowH, tr(row.Value), "1", 0, "L", false, 0, "")
		y += rowH
	}

	// Barcode with its text underneath
	y = Height - pad - textH - barH
	key := fpdfbarcode.RegisterCode128(pdf, l.Line.Barcode)
	fpdfbarcode.Barcode(pdf, key, pad+2, y, innerW-4, barH, false)
	pdf.SetFont("Courier", "B", 10)
	pdf.SetXY(pad, y+barH)
	pdf.CellFormat(innerW, textH, l.Line.Barcode, "", 0, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("label %s: %w", l.Line.Barcode, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("label %s: %w", l.Line.Barcode, err)
	}
	return buf.Bytes(), nil
}

// RenderHTML renders the printable HTML label.
func (r *Renderer) RenderHTML(ctx context.Context, l challan.Label) ([]byte, error) {
	return r.html.render(l)
}
