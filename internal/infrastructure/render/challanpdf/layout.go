package challanpdf

import "math"

// Page geometry in millimetres (A4 landscape).
const (
	pageW  = 297.0
	pageH  = 210.0
	margin = 8.0
	gutter = 10.0

	// RowsPerColumn is the ledger height; two inner columns make 40 slots per copy.
	RowsPerColumn = 20
	innerColumns  = 2
	innerGap      = 2.0

	minRowH = 4.5
	maxRowH = 7.5
)

// Reserved vertical space inside one copy.
const (
	titleH     = 9.0
	metaH      = 6.0
	partyH     = 24.0
	shiftH     = 6.0
	gapH       = 2.0
	ledgerHdrH = 6.0
	totalsH    = 7.0
	signatureH = 16.0
)

// Ledger column widths; the details column takes what is left.
const (
	serialW = 7.0
	netW    = 17.0
	bobsW   = 10.0
)

// Layout is the geometry of one page, shared by both copies.
type Layout struct {
	// Left edges of the ORIGINAL and COPY halves.
	OriginX [2]float64
	Top     float64
	HalfW   float64
	HalfH   float64

	// DividerX is where the dashed line between the copies runs.
	DividerX float64

	RowH     float64
	InnerW   float64
	DetailsW float64
}

func reservedHeight() float64 {
	return titleH + metaH + partyH + shiftH + gapH + ledgerHdrH + totalsH + signatureH
}

// rowHeight spreads the space left after the fixed blocks over the ledger rows,
// clamped so rows never get unreadably thin or oddly tall.
func rowHeight(halfH float64) float64 {
	h := (halfH - reservedHeight()) / RowsPerColumn
	return math.Max(minRowH, math.Min(maxRowH, h))
}

// computeLayout splits the printable area into two equal halves with a gutter.
func computeLayout(w, h, m, g float64) Layout {
	safeW := w - 2*m
	halfW := (safeW - g) / 2
	halfH := h - 2*m
	innerW := (halfW - innerGap*(innerColumns-1)) / innerColumns

	return Layout{
		OriginX:  [2]float64{m, m + halfW + g},
		Top:      m,
		HalfW:    halfW,
		HalfH:    halfH,
		DividerX: m + halfW + g/2,
		RowH:     rowHeight(halfH),
		InnerW:   innerW,
		DetailsW: innerW - serialW - netW - bobsW,
	}
}

// pageLayout is the layout used for every challan.
var pageLayout = computeLayout(pageW, pageH, margin, gutter)
