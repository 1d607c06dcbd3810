package challan

import (
	"fmt"
	"strconv"
	"time"

	"challanbook/internal/core/barcode"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain/catalogs/masterdata"
)

// DateLayout is how dates are printed on challans and labels.
const DateLayout = "02-01-2006"

// Party is a printed address block.
type Party struct {
	Name    string
	Address string
	Mobile  string
}

// PrintLine is one ledger row with every value already formatted.
// The challan PDF and the box label print these strings verbatim.
type PrintLine struct {
	ItemIndex int
	Serial    string

	Metallic string
	Cut      string
	Operator string
	Helper   string

	BobQty     int
	BobQtyText string

	GrossWt   string
	BobUnitWt string
	BobWt     string // bobQty x unit weight
	BoxWt     string
	TareWt    string
	NetWt     string

	Barcode string
}

// Details is the item description column: material and cut.
func (l PrintLine) Details() string {
	if l.Cut == "" {
		return l.Metallic
	}
	return l.Metallic + " / " + l.Cut
}

// Printout is the complete render input of one challan. Renderers never query
// storage; everything they print is in here.
type Printout struct {
	ChallanNo int64
	Number    string // CH-YY-NNNNNN
	Date      time.Time
	DateText  string

	Customer Party
	Firm     *Party
	Shift    string

	Lines []PrintLine

	TotalNetWt  string
	TotalBobQty string

	// Distinct names in first-seen order, used for the file name suffix.
	Metallics []string
	Cuts      []string
}

// BuildPrintout converts a stored challan and its resolved references into the
// render input. Weights are formatted once, here.
func BuildPrintout(c *Challan, res *masterdata.Resolved) (*Printout, error) {
	if len(c.Lines) > MaxItems {
		return nil, tooManyItems(len(c.Lines))
	}
	if c.ChallanNo < 1 || c.ChallanNo > barcode.MaxChallanNo {
		return nil, fmt.Errorf("challan number %d cannot be printed", c.ChallanNo)
	}

	p := &Printout{
		ChallanNo: c.ChallanNo,
		Number:    barcode.DocumentPrefix(c.ChallanNo, c.Date),
		Date:      c.Date,
		DateText:  c.Date.Format(DateLayout),
		Customer:  party(res.Get(masterdata.KindCustomer, c.CustomerID)),
		Shift:     res.Name(masterdata.KindShift, c.ShiftID),
		Lines:     make([]PrintLine, 0, len(c.Lines)),
	}
	if c.FirmID != nil {
		firm := party(res.Get(masterdata.KindFirm, *c.FirmID))
		p.Firm = &firm
	}

	seenMetallic := make(map[string]bool)
	seenCut := make(map[string]bool)
	for _, l := range c.Lines {
		pl := PrintLine{
			ItemIndex:  l.ItemIndex,
			Serial:     strconv.Itoa(l.ItemIndex),
			Metallic:   res.Name(masterdata.KindMetallic, l.MetallicID),
			Cut:        res.Name(masterdata.KindCut, l.CutID),
			Operator:   res.Name(masterdata.KindEmployee, l.OperatorID),
			BobQty:     l.BobQty,
			BobQtyText: strconv.Itoa(l.BobQty),
			GrossWt:    weight.Format(l.GrossWt),
			BobUnitWt:  weight.Format(l.BobUnitWt),
			BobWt:      weight.Format(l.TareWt.Sub(l.BoxWt)),
			BoxWt:      weight.Format(l.BoxWt),
			TareWt:     weight.Format(l.TareWt),
			NetWt:      weight.Format(l.NetWt),
			Barcode:    l.Barcode,
		}
		if l.HelperID != nil {
			pl.Helper = res.Name(masterdata.KindEmployee, *l.HelperID)
		}
		p.Lines = append(p.Lines, pl)

		if pl.Metallic != "" && !seenMetallic[pl.Metallic] {
			seenMetallic[pl.Metallic] = true
			p.Metallics = append(p.Metallics, pl.Metallic)
		}
		if pl.Cut != "" && !seenCut[pl.Cut] {
			seenCut[pl.Cut] = true
			p.Cuts = append(p.Cuts, pl.Cut)
		}
	}

	net, bobs := c.Totals()
	p.TotalNetWt = weight.Format(net)
	p.TotalBobQty = strconv.Itoa(bobs)
	return p, nil
}

func party(rec *masterdata.Record) Party {
	if rec == nil {
		return Party{}
	}
	return Party{Name: rec.Name, Address: rec.Address, Mobile: rec.Mobile}
}

// Label is the render input of one box label.
type Label struct {
	Header   string
	Date     time.Time
	DateText string
	Line     PrintLine
}

// Label returns the label of the item at itemIndex, built from the same
// PrintLine the challan ledger prints.
func (p *Printout) Label(itemIndex int) (Label, error) {
	for _, l := range p.Lines {
		if l.ItemIndex == itemIndex {
			header := p.Customer.Name
			if p.Firm != nil && p.Firm.Name != "" {
				header = p.Firm.Name
			}
			return Label{Header: header, Date: p.Date, DateText: p.DateText, Line: l}, nil
		}
	}
	return Label{}, fmt.Errorf("challan %s has no item %d", p.Number, itemIndex)
}

// SuffixParts returns customer, metallic and cut names for the file name.
func (p *Printout) SuffixParts() []string {
	parts := make([]string, 0, 1+len(p.Metallics)+len(p.Cuts))
	if p.Customer.Name != "" {
		parts = append(parts, p.Customer.Name)
	}
	parts = append(parts, p.Metallics...)
	return append(parts, p.Cuts...)
}
