package labelpdf

import "challanbook/internal/domain/documents/challan"

// Row is one caption/value pair of the label table.
type Row struct {
	Caption string
	Value   string
}

// Rows lists the label table in print order. Both the PDF and the HTML label
// print exactly these values, which come straight from the ledger PrintLine.
func Rows(l challan.Label) []Row {
	staff := l.Line.Operator
	if l.Line.Helper != "" {
		staff += " & " + l.Line.Helper
	}
	return []Row{
		{"Date", l.DateText},
		{"Color", l.Line.Metallic},
		{"Cut", l.Line.Cut},
		{"Bobbin Qty", l.Line.BobQtyText},
		{"Gross Wt", l.Line.GrossWt},
		{"Box Wt", l.Line.BoxWt},
		{"Bobbin Wt", l.Line.BobWt},
		{"Tare Wt", l.Line.TareWt},
		{"Net Wt", l.Line.NetWt},
		{"Operator", staff},
	}
}
