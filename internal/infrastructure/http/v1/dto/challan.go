package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"challanbook/internal/core/numerator"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain/documents/challan"
)

// --- Request DTOs ---

// ChallanItemRequest is one weighed box.
type ChallanItemRequest struct {
	MetallicID string          `json:"metallicId" binding:"required,uuid"`
	CutID      string          `json:"cutId" binding:"required,uuid"`
	OperatorID string          `json:"operatorId" binding:"required,uuid"`
	HelperID   string          `json:"helperId,omitempty" binding:"omitempty,uuid"`
	BobTypeID  string          `json:"bobTypeId" binding:"required,uuid"`
	BoxTypeID  string          `json:"boxTypeId" binding:"required,uuid"`
	BobQty     int             `json:"bobQty" binding:"gte=0"`
	GrossWt    decimal.Decimal `json:"grossWt" binding:"decnonneg"`
}

// ChallanHeaderRequest carries the fields shared by create and update.
// The item count limit is checked by the domain so the error carries count and max.
type ChallanHeaderRequest struct {
	Date       string               `json:"date" binding:"required"`
	CustomerID string               `json:"customerId" binding:"required,uuid"`
	ShiftID    string               `json:"shiftId" binding:"required,uuid"`
	FirmID     string               `json:"firmId,omitempty" binding:"omitempty,uuid"`
	Items      []ChallanItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateChallanRequest creates a challan. ChallanNo is a number returned by the
// reservations endpoint; omit it to take the next number.
type CreateChallanRequest struct {
	ChallanHeaderRequest
	ChallanNo *int64 `json:"challanNo,omitempty" binding:"omitempty,min=1"`
}

// UpdateChallanRequest replaces the header and all items.
type UpdateChallanRequest struct {
	ChallanHeaderRequest
	Version int `json:"version" binding:"gte=0"`
}

// DeleteChallanRequest soft-deletes a challan.
type DeleteChallanRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ToHeader converts the request to the domain header.
func (r *ChallanHeaderRequest) ToHeader() (challan.Header, error) {
	var h challan.Header
	var err error

	if h.Date, err = parseDate("date", r.Date); err != nil {
		return h, err
	}
	if h.CustomerID, err = parseID("customerId", r.CustomerID); err != nil {
		return h, err
	}
	if h.ShiftID, err = parseID("shiftId", r.ShiftID); err != nil {
		return h, err
	}
	if h.FirmID, err = parseOptionalID("firmId", r.FirmID); err != nil {
		return h, err
	}

	h.Items = make([]challan.ItemInput, len(r.Items))
	for i, it := range r.Items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		item := challan.ItemInput{BobQty: it.BobQty, GrossWt: it.GrossWt}
		if item.MetallicID, err = parseID(field("metallicId"), it.MetallicID); err != nil {
			return h, err
		}
		if item.CutID, err = parseID(field("cutId"), it.CutID); err != nil {
			return h, err
		}
		if item.OperatorID, err = parseID(field("operatorId"), it.OperatorID); err != nil {
			return h, err
		}
		if item.HelperID, err = parseOptionalID(field("helperId"), it.HelperID); err != nil {
			return h, err
		}
		if item.BobTypeID, err = parseID(field("bobTypeId"), it.BobTypeID); err != nil {
			return h, err
		}
		if item.BoxTypeID, err = parseID(field("boxTypeId"), it.BoxTypeID); err != nil {
			return h, err
		}
		h.Items[i] = item
	}
	return h, nil
}

// ToInput converts the request to the domain input.
func (r *CreateChallanRequest) ToInput() (challan.CreateInput, error) {
	h, err := r.ToHeader()
	if err != nil {
		return challan.CreateInput{}, err
	}
	return challan.CreateInput{Header: h, ChallanNo: r.ChallanNo}, nil
}

// ToInput converts the request to the domain input.
func (r *UpdateChallanRequest) ToInput() (challan.UpdateInput, error) {
	h, err := r.ToHeader()
	if err != nil {
		return challan.UpdateInput{}, err
	}
	return challan.UpdateInput{Header: h, Version: r.Version}, nil
}

// ChallanListQuery is the query string of the challan register.
type ChallanListQuery struct {
	DateFrom       string `form:"dateFrom"`
	DateTo         string `form:"dateTo"`
	CustomerID     string `form:"customerId" binding:"omitempty,uuid"`
	IncludeDeleted bool   `form:"includeDeleted"`
	Limit          int    `form:"limit" binding:"gte=0"`
	Offset         int    `form:"offset" binding:"gte=0"`
}

// ToFilter converts the query to the domain filter.
func (q *ChallanListQuery) ToFilter() (challan.ListFilter, error) {
	f := challan.ListFilter{
		IncludeDeleted: q.IncludeDeleted,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	var err error
	if f.DateFrom, err = parseOptionalDate("dateFrom", q.DateFrom); err != nil {
		return f, err
	}
	if f.DateTo, err = parseOptionalDate("dateTo", q.DateTo); err != nil {
		return f, err
	}
	if f.CustomerID, err = parseOptionalID("customerId", q.CustomerID); err != nil {
		return f, err
	}
	return f, nil
}

// --- Response DTOs ---

// ChallanLineResponse is one stored box with weights as three-decimal strings.
type ChallanLineResponse struct {
	LineID     string  `json:"lineId"`
	ItemIndex  int     `json:"itemIndex"`
	MetallicID string  `json:"metallicId"`
	CutID      string  `json:"cutId"`
	OperatorID string  `json:"operatorId"`
	HelperID   *string `json:"helperId,omitempty"`
	BobTypeID  string  `json:"bobTypeId"`
	BoxTypeID  string  `json:"boxTypeId"`
	BobQty     int     `json:"bobQty"`
	BobUnitWt  string  `json:"bobUnitWt"`
	BoxWt      string  `json:"boxWt"`
	GrossWt    string  `json:"grossWt"`
	TareWt     string  `json:"tareWt"`
	NetWt      string  `json:"netWt"`
	Barcode    string  `json:"barcode"`
}

// ChallanResponse is a challan with its lines and totals.
type ChallanResponse struct {
	ID           string                `json:"id"`
	ChallanNo    int64                 `json:"challanNo"`
	Date         string                `json:"date"`
	CustomerID   string                `json:"customerId"`
	ShiftID      string                `json:"shiftId"`
	FirmID       *string               `json:"firmId,omitempty"`
	PDFPath      *string               `json:"pdfPath,omitempty"`
	DeletionMark bool                  `json:"deletionMark"`
	DeleteReason *string               `json:"deleteReason,omitempty"`
	Version      int                   `json:"version"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	Lines        []ChallanLineResponse `json:"lines"`
	TotalBobQty  int                   `json:"totalBobQty"`
	TotalNetWt   string                `json:"totalNetWt"`
}

// FromChallan creates ChallanResponse from the domain document.
func FromChallan(doc *challan.Challan) ChallanResponse {
	totalNet, totalBobs := doc.Totals()
	resp := ChallanResponse{
		ID:           doc.ID.String(),
		ChallanNo:    doc.ChallanNo,
		Date:         doc.Date.Format(DateLayout),
		CustomerID:   doc.CustomerID.String(),
		ShiftID:      doc.ShiftID.String(),
		PDFPath:      doc.PDFPath,
		DeletionMark: doc.DeletionMark,
		DeleteReason: doc.DeleteReason,
		Version:      doc.Version,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		Lines:        make([]ChallanLineResponse, len(doc.Lines)),
		TotalBobQty:  totalBobs,
		TotalNetWt:   weight.Format(totalNet),
	}
	if doc.FirmID != nil {
		s := doc.FirmID.String()
		resp.FirmID = &s
	}
	for i, l := range doc.Lines {
		line := ChallanLineResponse{
			LineID:     l.LineID.String(),
			ItemIndex:  l.ItemIndex,
			MetallicID: l.MetallicID.String(),
			CutID:      l.CutID.String(),
			OperatorID: l.OperatorID.String(),
			BobTypeID:  l.BobTypeID.String(),
			BoxTypeID:  l.BoxTypeID.String(),
			BobQty:     l.BobQty,
			BobUnitWt:  weight.Format(l.BobUnitWt),
			BoxWt:      weight.Format(l.BoxWt),
			GrossWt:    weight.Format(l.GrossWt),
			TareWt:     weight.Format(l.TareWt),
			NetWt:      weight.Format(l.NetWt),
			Barcode:    l.Barcode,
		}
		if l.HelperID != nil {
			s := l.HelperID.String()
			line.HelperID = &s
		}
		resp.Lines[i] = line
	}
	return resp
}

// ChallanListItemResponse is one register row.
type ChallanListItemResponse struct {
	ID           string  `json:"id"`
	ChallanNo    int64   `json:"challanNo"`
	Date         string  `json:"date"`
	CustomerID   string  `json:"customerId"`
	CustomerName string  `json:"customerName"`
	ItemCount    int     `json:"itemCount"`
	TotalBobQty  int     `json:"totalBobQty"`
	TotalNetWt   string  `json:"totalNetWt"`
	PDFPath      *string `json:"pdfPath,omitempty"`
	DeletionMark bool    `json:"deletionMark"`
}

// FromChallanListItem creates a register row response.
func FromChallanListItem(it *challan.ListItem) ChallanListItemResponse {
	return ChallanListItemResponse{
		ID:           it.ID.String(),
		ChallanNo:    it.ChallanNo,
		Date:         it.Date.Format(DateLayout),
		CustomerID:   it.CustomerID.String(),
		CustomerName: it.CustomerName,
		ItemCount:    it.ItemCount,
		TotalBobQty:  it.TotalBobQty,
		TotalNetWt:   weight.Format(it.TotalNetWt),
		PDFPath:      it.PDFPath,
		DeletionMark: it.DeletionMark,
	}
}

// --- Sequence DTOs ---

// SequencePreviewResponse shows the counter without allocating.
type SequencePreviewResponse struct {
	Current int64 `json:"current"`
	Next    int64 `json:"next"`
}

// FromPreview creates the preview response.
func FromPreview(p numerator.Preview) SequencePreviewResponse {
	return SequencePreviewResponse{Current: p.Current, Next: p.Next}
}

// ReservationResponse is a reserved challan number.
type ReservationResponse struct {
	ChallanNo int64 `json:"challanNo"`
}

// SetSequenceRequest moves the counter forward.
type SetSequenceRequest struct {
	Value *int64 `json:"value" binding:"required,gte=0"`
}

// --- Weight DTOs ---

// ComputeWeightRequest is the live weight preview input.
// Type ids, when present, take precedence over the explicit unit weights.
type ComputeWeightRequest struct {
	BobQty    int             `json:"bobQty" binding:"gte=0"`
	GrossWt   decimal.Decimal `json:"grossWt" binding:"decnonneg"`
	BobTypeID string          `json:"bobTypeId,omitempty" binding:"omitempty,uuid"`
	BoxTypeID string          `json:"boxTypeId,omitempty" binding:"omitempty,uuid"`
	BobUnitWt decimal.Decimal `json:"bobUnitWt" binding:"decnonneg"`
	BoxWt     decimal.Decimal `json:"boxWt" binding:"decnonneg"`
}

// ToInput converts the request to the domain input.
func (r *ComputeWeightRequest) ToInput() (challan.WeightInput, error) {
	in := challan.WeightInput{
		BobQty:    r.BobQty,
		GrossWt:   r.GrossWt,
		BobUnitWt: r.BobUnitWt,
		BoxWt:     r.BoxWt,
	}
	var err error
	if in.BobTypeID, err = parseOptionalID("bobTypeId", r.BobTypeID); err != nil {
		return in, err
	}
	if in.BoxTypeID, err = parseOptionalID("boxTypeId", r.BoxTypeID); err != nil {
		return in, err
	}
	return in, nil
}

// WeightResponse is a computed weight breakdown.
type WeightResponse struct {
	BobQty    int    `json:"bobQty"`
	BobUnitWt string `json:"bobUnitWt"`
	BoxWt     string `json:"boxWt"`
	GrossWt   string `json:"grossWt"`
	TareWt    string `json:"tareWt"`
	NetWt     string `json:"netWt"`
}

// FromBreakdown creates WeightResponse.
func FromBreakdown(b weight.Breakdown) WeightResponse {
	return WeightResponse{
		BobQty:    b.BobQty,
		BobUnitWt: weight.Format(b.BobUnitWeight),
		BoxWt:     weight.Format(b.BoxWeight),
		GrossWt:   weight.Format(b.Gross),
		TareWt:    weight.Format(b.Tare),
		NetWt:     weight.Format(b.Net),
	}
}

// --- Label DTOs ---

// PrintLabelRequest sends one label to the print agent.
type PrintLabelRequest struct {
	Printer string `json:"printer" binding:"required"`
	Copies  int    `json:"copies" binding:"gte=0"`
}
