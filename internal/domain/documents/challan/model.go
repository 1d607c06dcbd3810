// Package challan provides the Challan document: a numbered weighment delivery
// note listing up to 40 weighed boxes for one customer.
package challan

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/barcode"
	"challanbook/internal/core/entity"
	"challanbook/internal/core/id"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain/catalogs/masterdata"
)

// EntityName is used in errors and the audit journal.
const EntityName = "challan"

// MaxItems is the number of ledger slots on one printed copy (2 columns x 20 rows).
const MaxItems = 40

// Challan is the weighment delivery note.
type Challan struct {
	entity.Document

	// ChallanNo is assigned once from the challan_no sequence and never changes
	ChallanNo int64 `db:"challan_no" json:"challanNo"`

	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	ShiftID    id.ID  `db:"shift_id" json:"shiftId"`
	FirmID     *id.ID `db:"firm_id" json:"firmId,omitempty"`

	// PDFPath is relative to the project root; nil until the first successful render
	PDFPath *string `db:"pdf_path" json:"pdfPath,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one weighed box.
type Line struct {
	LineID    id.ID `db:"line_id" json:"lineId"`
	ItemIndex int   `db:"item_index" json:"itemIndex"`

	MetallicID id.ID  `db:"metallic_id" json:"metallicId"`
	CutID      id.ID  `db:"cut_id" json:"cutId"`
	OperatorID id.ID  `db:"operator_id" json:"operatorId"`
	HelperID   *id.ID `db:"helper_id" json:"helperId,omitempty"`
	BobTypeID  id.ID  `db:"bob_type_id" json:"bobTypeId"`
	BoxTypeID  id.ID  `db:"box_type_id" json:"boxTypeId"`

	BobQty int `db:"bob_qty" json:"bobQty"`

	// Unit weights are copied from the bob and box types when the line is computed
	BobUnitWt decimal.Decimal `db:"bob_unit_wt" json:"bobUnitWt"`
	BoxWt     decimal.Decimal `db:"box_wt" json:"boxWt"`

	GrossWt decimal.Decimal `db:"gross_wt" json:"grossWt"`
	TareWt  decimal.Decimal `db:"tare_wt" json:"tareWt"`
	NetWt   decimal.Decimal `db:"net_wt" json:"netWt"`

	Barcode string `db:"barcode" json:"barcode"`
}

// ListItem is one row of the challan register.
type ListItem struct {
	ID           id.ID           `db:"id" json:"id"`
	ChallanNo    int64           `db:"challan_no" json:"challanNo"`
	Date         time.Time       `db:"date" json:"date"`
	CustomerID   id.ID           `db:"customer_id" json:"customerId"`
	CustomerName string          `db:"customer_name" json:"customerName"`
	ItemCount    int             `db:"item_count" json:"itemCount"`
	TotalBobQty  int             `db:"total_bob_qty" json:"totalBobQty"`
	TotalNetWt   decimal.Decimal `db:"total_net_wt" json:"totalNetWt"`
	PDFPath      *string         `db:"pdf_path" json:"pdfPath,omitempty"`
	DeletionMark bool            `db:"deletion_mark" json:"deletionMark"`
}

// ListFilter selects challans for the register.
type ListFilter struct {
	DateFrom       *time.Time
	DateTo         *time.Time
	CustomerID     *id.ID
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// New creates an unnumbered challan.
func New(date time.Time, customerID, shiftID id.ID, firmID *id.ID) *Challan {
	return &Challan{
		Document:   entity.NewDocument(date),
		CustomerID: customerID,
		ShiftID:    shiftID,
		FirmID:     firmID,
		Lines:      make([]Line, 0),
	}
}

// Breakdown returns the stored weights of the line.
func (l *Line) Breakdown() weight.Breakdown {
	return weight.Breakdown{
		BobQty:        l.BobQty,
		BobUnitWeight: l.BobUnitWt,
		BoxWeight:     l.BoxWt,
		Gross:         l.GrossWt,
		Tare:          l.TareWt,
		Net:           l.NetWt,
	}
}

// Line returns the line with the given 1-based index.
func (c *Challan) Line(itemIndex int) (*Line, error) {
	for i := range c.Lines {
		if c.Lines[i].ItemIndex == itemIndex {
			return &c.Lines[i], nil
		}
	}
	return nil, apperror.NewNotFound("challan line", itemIndex).
		WithDetail("challanId", c.ID.String())
}

// SetLines replaces the lines, numbering them 1..n and deriving barcodes from
// the challan number and date. The challan must already carry its number.
func (c *Challan) SetLines(lines []Line) error {
	if len(lines) > MaxItems {
		return tooManyItems(len(lines))
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.ItemIndex = i + 1
		if id.IsNil(l.LineID) {
			l.LineID = id.New()
		}
		code, err := barcode.Format(c.ChallanNo, l.ItemIndex, c.Date)
		if err != nil {
			return apperror.NewValidation("challan number does not fit the barcode").
				WithDetail("challanNo", c.ChallanNo).
				WithCause(err)
		}
		l.Barcode = code
		out[i] = l
	}
	c.Lines = out
	return nil
}

// Totals sums net weight and bobbin count over all lines.
func (c *Challan) Totals() (weight.Kg, int) {
	nets := make([]weight.Kg, len(c.Lines))
	bobs := 0
	for i, l := range c.Lines {
		nets[i] = l.NetWt
		bobs += l.BobQty
	}
	return weight.Sum(nets...), bobs
}

// refs lists every catalog reference of the challan for resolution.
func (c *Challan) refs() []masterdata.Ref {
	refs := []masterdata.Ref{
		{Kind: masterdata.KindCustomer, ID: c.CustomerID, Field: "customerId"},
		{Kind: masterdata.KindShift, ID: c.ShiftID, Field: "shiftId"},
	}
	if c.FirmID != nil {
		refs = append(refs, masterdata.Ref{Kind: masterdata.KindFirm, ID: *c.FirmID, Field: "firmId"})
	}
	for i, l := range c.Lines {
		refs = append(refs, lineRefs(i, l.MetallicID, l.CutID, l.OperatorID, l.HelperID, l.BobTypeID, l.BoxTypeID)...)
	}
	return refs
}

func lineRefs(i int, metallic, cut, operator id.ID, helper *id.ID, bobType, boxType id.ID) []masterdata.Ref {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
	refs := []masterdata.Ref{
		{Kind: masterdata.KindMetallic, ID: metallic, Field: field("metallicId")},
		{Kind: masterdata.KindCut, ID: cut, Field: field("cutId")},
		{Kind: masterdata.KindEmployee, ID: operator, Field: field("operatorId")},
		{Kind: masterdata.KindBobType, ID: bobType, Field: field("bobTypeId")},
		{Kind: masterdata.KindBoxType, ID: boxType, Field: field("boxTypeId")},
	}
	if helper != nil {
		refs = append(refs, masterdata.Ref{Kind: masterdata.KindEmployee, ID: *helper, Field: field("helperId")})
	}
	return refs
}

// auditState is the journal snapshot of the challan.
func (c *Challan) auditState() map[string]any {
	items := make([]any, len(c.Lines))
	for i, l := range c.Lines {
		item := map[string]any{
			"itemIndex":  l.ItemIndex,
			"metallicId": l.MetallicID.String(),
			"cutId":      l.CutID.String(),
			"operatorId": l.OperatorID.String(),
			"bobTypeId":  l.BobTypeID.String(),
			"boxTypeId":  l.BoxTypeID.String(),
			"bobQty":     l.BobQty,
			"grossWt":    weight.Format(l.GrossWt),
			"tareWt":     weight.Format(l.TareWt),
			"netWt":      weight.Format(l.NetWt),
			"barcode":    l.Barcode,
		}
		if l.HelperID != nil {
			item["helperId"] = l.HelperID.String()
		}
		items[i] = item
	}
	state := map[string]any{
		"challanNo":  c.ChallanNo,
		"date":       c.Date.Format(time.DateOnly),
		"customerId": c.CustomerID.String(),
		"shiftId":    c.ShiftID.String(),
		"items":      items,
	}
	if c.FirmID != nil {
		state["firmId"] = c.FirmID.String()
	}
	return state
}

// Validate checks a stored challan before it is written.
func (c *Challan) Validate(ctx context.Context) error {
	if c.ChallanNo < 1 || c.ChallanNo > barcode.MaxChallanNo {
		return apperror.NewValidation("challan number out of range").
			WithDetail("field", "challanNo").
			WithDetail("value", c.ChallanNo)
	}
	if len(c.Lines) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	if len(c.Lines) > MaxItems {
		return tooManyItems(len(c.Lines))
	}
	return nil
}

func tooManyItems(n int) *apperror.AppError {
	return apperror.NewValidation(fmt.Sprintf("a challan holds at most %d items", MaxItems)).
		WithDetail("field", "items").
		WithDetail("count", n).
		WithDetail("max", MaxItems)
}
