// Package challanpdf renders the two-up challan: ORIGINAL and COPY side by side
// on one A4 landscape page.
package challanpdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"challanbook/internal/domain/documents/challan"
	"challanbook/internal/infrastructure/render/pdffile"
	"challanbook/pkg/logger"
)

// Watermarks printed diagonally across each half, left to right.
var Watermarks = [2]string{"ORIGINAL", "COPY"}

const fontFamily = "Helvetica"

// Renderer writes challan PDFs into a pdffile.Store.
type Renderer struct {
	store    *pdffile.Store
	compress bool
}

var _ challan.DocumentRenderer = (*Renderer)(nil)

// New creates a renderer writing under store.
func New(store *pdffile.Store) *Renderer {
	return &Renderer{store: store, compress: true}
}

// Render writes the PDF at its deterministic path and returns that path.
func (r *Renderer) Render(ctx context.Context, p *challan.Printout) (string, error) {
	rel, err := pdffile.RelPath(p.ChallanNo, p.Date, p.SuffixParts())
	if err != nil {
		return "", err
	}

	err = r.store.Write(ctx, rel, func(w io.Writer) error {
		return r.Write(w, p)
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", p.Number, err)
	}

	logger.Debug(ctx, "challan pdf written", "number", p.Number, "path", rel, "items", len(p.Lines))
	return rel, nil
}

// Bytes renders p into memory.
func (r *Renderer) Bytes(p *challan.Printout) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders p to w.
func (r *Renderer) Write(w io.Writer, p *challan.Printout) error {
	if len(p.Lines) > challan.MaxItems {
		return fmt.Errorf("challan %s has %d items, the ledger holds %d", p.Number, len(p.Lines), challan.MaxItems)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(p.Date)
	pdf.SetTitle(p.Number, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	d := &drawer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), l: pageLayout}
	for i, mark := range Watermarks {
		d.copy(p, d.l.OriginX[i], mark)
	}
	d.divider()

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout %s: %w", p.Number, err)
	}
	return pdf.Output(w)
}

type drawer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	l   Layout
}

// copy draws one complete challan with its top-left corner at (x, l.Top).
// Both halves go through here; only x and the watermark differ.
func (d *drawer) copy(p *challan.Printout, x float64, mark string) {
	pdf, l := d.pdf, d.l
	y := l.Top

	pdf.SetLineWidth(0.3)
	pdf.Rect(x, y, l.HalfW, l.HalfH, "D")

	d.watermark(x, mark)

	// Title
	pdf.SetFont(fontFamily, "B", 14)
	pdf.SetXY(x, y+1)
	pdf.CellFormat(l.HalfW, titleH-1, d.tr("DELIVERY CHALLAN"), "", 0, "C", false, 0, "")
	y += titleH

	// Number and date
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetXY(x+2, y)
	pdf.CellFormat(l.HalfW/2-2, metaH, d.tr("Challan No: "+p.Number), "", 0, "L", false, 0, "")
	pdf.CellFormat(l.HalfW/2-2, metaH, d.tr("Date: "+p.DateText), "", 0, "R", false, 0, "")
	y += metaH

	// From / To
	boxW := (l.HalfW - 6) / 2
	from := challan.Party{}
	if p.Firm != nil {
		from = *p.Firm
	}
	d.party(x+2, y, boxW, "From", from)
	d.party(x+4+boxW, y, boxW, "To", p.Customer)
	y += partyH

	pdf.SetFont(fontFamily, "", 8)
	pdf.SetXY(x+2, y)
	pdf.CellFormat(l.HalfW-4, shiftH, d.tr("Shift: "+p.Shift), "", 0, "L", false, 0, "")
	y += shiftH + gapH

	// Ledger: items 1-20 on the left, 21-40 on the right.
	for col := 0; col < innerColumns; col++ {
		cx := x + float64(col)*(l.InnerW+innerGap)
		d.ledgerHeader(cx, y)
		for row := 0; row < RowsPerColumn; row++ {
			slot := col*RowsPerColumn + row
			var line *challan.PrintLine
			if slot < len(p.Lines) {
				line = &p.Lines[slot]
			}
			d.ledgerRow(cx, y+ledgerHdrH+float64(row)*l.RowH, line)
		}
	}
	y += ledgerHdrH + RowsPerColumn*l.RowH

	// Totals across both inner columns.
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetXY(x, y)
	pdf.CellFormat(l.HalfW-netW-bobsW, totalsH, d.tr("Total"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(netW, totalsH, p.TotalNetWt, "1", 0, "R", false, 0, "")
	pdf.CellFormat(bobsW, totalsH, p.TotalBobQty, "1", 0, "R", false, 0, "")

	// Signatures sit on the bottom edge of the half.
	sigY := l.Top + l.HalfH - 5
	sigW := l.HalfW/2 - 8
	pdf.SetLineWidth(0.2)
	pdf.Line(x+4, sigY, x+4+sigW, sigY)
	pdf.Line(x+l.HalfW-4-sigW, sigY, x+l.HalfW-4, sigY)
	pdf.SetFont(fontFamily, "", 8)
	pdf.SetXY(x+4, sigY+0.5)
	pdf.CellFormat(sigW, 4, d.tr("Received By"), "", 0, "C", false, 0, "")
	pdf.SetXY(x+l.HalfW-4-sigW, sigY+0.5)
	pdf.CellFormat(sigW, 4, d.tr("Authorized Sign"), "", 0, "C", false, 0, "")
}

func (d *drawer) party(x, y, w float64, caption string, party challan.Party) {
	pdf := d.pdf
	pdf.SetLineWidth(0.2)
	pdf.Rect(x, y+1, w, partyH-2, "D")

	pdf.SetFont(fontFamily, "B", 7)
	pdf.SetXY(x+1, y+1.5)
	pdf.CellFormat(w-2, 3.5, d.tr(caption+":"), "", 2, "L", false, 0, "")

	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetX(x + 1)
	pdf.CellFormat(w-2, 4.5, d.fit(party.Name, w-2), "", 2, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", 7.5)
	for _, ln := range d.wrap(party.Address, w-2, 2) {
		pdf.SetX(x + 1)
		pdf.CellFormat(w-2, 3.5, ln, "", 2, "L", false, 0, "")
	}
	if party.Mobile != "" {
		pdf.SetXY(x+1, y+partyH-5.5)
		pdf.CellFormat(w-2, 3.5, d.tr("Mobile: "+party.Mobile), "", 0, "L", false, 0, "")
	}
}

func (d *drawer) ledgerHeader(x, y float64) {
	pdf := d.pdf
	pdf.SetFont(fontFamily, "B", 7.5)
	pdf.SetFillColor(235, 235, 235)
	pdf.SetXY(x, y)
	pdf.CellFormat(serialW, ledgerHdrH, "Sr", "1", 0, "C", true, 0, "")
	pdf.CellFormat(d.l.DetailsW, ledgerHdrH, d.tr("Item Details"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(netW, ledgerHdrH, d.tr("Net Wt"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(bobsW, ledgerHdrH, "Bobs", "1", 0, "R", true, 0, "")
}

// ledgerRow draws one slot; empty slots keep their borders so both copies
// always show 40 rows.
func (d *drawer) ledgerRow(x, y float64, line *challan.PrintLine) {
	pdf, l := d.pdf, d.l
	var serial, details, net, bobs string
	if line != nil {
		serial, net, bobs = line.Serial, line.NetWt, line.BobQtyText
		details = line.Details()
	}

	pdf.SetFont(fontFamily, "", fontSizeFor(l.RowH))
	pdf.SetXY(x, y)
	pdf.CellFormat(serialW, l.RowH, serial, "1", 0, "C", false, 0, "")
	pdf.CellFormat(l.DetailsW, l.RowH, d.fit(details, l.DetailsW-1), "1", 0, "L", false, 0, "")
	pdf.CellFormat(netW, l.RowH, net, "1", 0, "R", false, 0, "")
	pdf.CellFormat(bobsW, l.RowH, bobs, "1", 0, "R", false, 0, "")
}

func fontSizeFor(rowH float64) float64 {
	// 1pt = 0.3528mm; leave about 40% of the row for padding.
	size := rowH * 0.6 / 0.3528
	if size > 9 {
		return 9
	}
	return size
}

func (d *drawer) watermark(x float64, mark string) {
	pdf, l := d.pdf, d.l
	cx, cy := x+l.HalfW/2, l.Top+l.HalfH/2

	pdf.SetFont(fontFamily, "B", 54)
	pdf.SetTextColor(200, 200, 200)
	pdf.SetAlpha(0.25, "Normal")
	pdf.TransformBegin()
	pdf.TransformRotate(35, cx, cy)
	w := pdf.GetStringWidth(mark)
	pdf.Text(cx-w/2, cy+6, mark)
	pdf.TransformEnd()
	pdf.SetAlpha(1, "Normal")
	pdf.SetTextColor(0, 0, 0)
}

func (d *drawer) divider() {
	pdf := d.pdf
	pdf.SetLineWidth(0.3)
	pdf.SetDashPattern([]float64{3, 2}, 0)
	pdf.Line(d.l.DividerX, d.l.Top, d.l.DividerX, d.l.Top+d.l.HalfH)
	pdf.SetDashPattern([]float64{}, 0)
}

// fit translates s and shortens it with "..." until it fits w at the current font.
func (d *drawer) fit(s string, w float64) string {
	return d.fitTranslated(d.tr(s), w)
}

// fitTranslated works on single-byte (cp1252) text, so it trims bytes.
func (d *drawer) fitTranslated(t string, w float64) string {
	if d.pdf.GetStringWidth(t) <= w {
		return t
	}
	for len(t) > 0 && d.pdf.GetStringWidth(t+"...") > w {
		t = t[:len(t)-1]
	}
	return t + "..."
}

// wrap splits s into at most maxLines lines of width w; the last line is fitted.
func (d *drawer) wrap(s string, w float64, maxLines int) []string {
	if s == "" {
		return nil
	}
	lines := d.pdf.SplitText(d.tr(s), w)
	if len(lines) <= maxLines {
		return lines
	}
	out := lines[:maxLines]
	out[maxLines-1] = d.fitTranslated(out[maxLines-1]+" "+lines[maxLines], w)
	return out
}
