package challan

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/barcode"
	"challanbook/internal/core/id"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain/catalogs/masterdata"
)

// ItemInput is one box as entered by the operator.
type ItemInput struct {
	MetallicID id.ID
	CutID      id.ID
	OperatorID id.ID
	HelperID   *id.ID
	BobTypeID  id.ID
	BoxTypeID  id.ID
	BobQty     int
	GrossWt    decimal.Decimal
}

// Header is the part of a challan the operator fills in above the items.
type Header struct {
	Date       time.Time
	CustomerID id.ID
	ShiftID    id.ID
	FirmID     *id.ID
	Items      []ItemInput
}

// CreateInput creates a challan. ChallanNo, when set, must be a number obtained
// from ReserveNumber; otherwise the next number is allocated.
type CreateInput struct {
	Header
	ChallanNo *int64
}

// UpdateInput replaces the header and all items. Version, when non-zero, must
// match the stored version.
type UpdateInput struct {
	Header
	Version int
}

// DeleteMinReason is the shortest accepted deletion reason.
const DeleteMinReason = 3

// Validate checks shape and ranges. It never touches storage.
func (h *Header) Validate() error {
	if h.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	if id.IsNil(h.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if id.IsNil(h.ShiftID) {
		return apperror.NewValidation("shift is required").WithDetail("field", "shiftId")
	}
	if h.FirmID != nil && id.IsNil(*h.FirmID) {
		h.FirmID = nil
	}
	if len(h.Items) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}
	if len(h.Items) > MaxItems {
		return tooManyItems(len(h.Items))
	}
	for i := range h.Items {
		if err := h.Items[i].validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (it *ItemInput) validate(i int) error {
	required := []struct {
		name string
		v    id.ID
	}{
		{"metallicId", it.MetallicID},
		{"cutId", it.CutID},
		{"operatorId", it.OperatorID},
		{"bobTypeId", it.BobTypeID},
		{"boxTypeId", it.BoxTypeID},
	}
	for _, r := range required {
		if id.IsNil(r.v) {
			return apperror.NewValidation(fmt.Sprintf("%s is required", r.name)).
				WithDetail("field", fmt.Sprintf("items[%d].%s", i, r.name))
		}
	}
	if it.HelperID != nil && id.IsNil(*it.HelperID) {
		it.HelperID = nil
	}
	if it.BobQty < 0 {
		return apperror.NewValidation("bobbin quantity must not be negative").
			WithDetail("field", fmt.Sprintf("items[%d].bobQty", i))
	}
	if it.GrossWt.IsNegative() {
		return apperror.NewValidation("gross weight must not be negative").
			WithDetail("field", fmt.Sprintf("items[%d].grossWt", i))
	}
	return nil
}

// Validate also checks the pre-reserved number range.
func (in *CreateInput) Validate() error {
	if err := in.Header.Validate(); err != nil {
		return err
	}
	if in.ChallanNo != nil && (*in.ChallanNo < 1 || *in.ChallanNo > barcode.MaxChallanNo) {
		return apperror.NewValidation("challan number out of range").
			WithDetail("field", "challanNo").
			WithDetail("value", *in.ChallanNo)
	}
	return nil
}

func (h *Header) refs() []masterdata.Ref {
	refs := []masterdata.Ref{
		{Kind: masterdata.KindCustomer, ID: h.CustomerID, Field: "customerId"},
		{Kind: masterdata.KindShift, ID: h.ShiftID, Field: "shiftId"},
	}
	if h.FirmID != nil {
		refs = append(refs, masterdata.Ref{Kind: masterdata.KindFirm, ID: *h.FirmID, Field: "firmId"})
	}
	for i, it := range h.Items {
		refs = append(refs, lineRefs(i, it.MetallicID, it.CutID, it.OperatorID, it.HelperID, it.BobTypeID, it.BoxTypeID)...)
	}
	return refs
}

// lines computes weights for every item using the resolved bob and box types.
func (h *Header) lines(res *masterdata.Resolved) []Line {
	out := make([]Line, len(h.Items))
	for i, it := range h.Items {
		bob := res.Get(masterdata.KindBobType, it.BobTypeID)
		box := res.Get(masterdata.KindBoxType, it.BoxTypeID)
		b := weight.Compute(it.BobQty, bob.WeightKg, box.WeightKg, it.GrossWt)
		out[i] = Line{
			MetallicID: it.MetallicID,
			CutID:      it.CutID,
			OperatorID: it.OperatorID,
			HelperID:   it.HelperID,
			BobTypeID:  it.BobTypeID,
			BoxTypeID:  it.BoxTypeID,
			BobQty:     b.BobQty,
			BobUnitWt:  b.BobUnitWeight,
			BoxWt:      b.BoxWeight,
			GrossWt:    b.Gross,
			TareWt:     b.Tare,
			NetWt:      b.Net,
		}
	}
	return out
}

// WeightInput is a live weight preview request. Type ids, when set, supply the
// unit weights; explicit weights are used otherwise.
type WeightInput struct {
	BobQty    int
	GrossWt   decimal.Decimal
	BobTypeID *id.ID
	BoxTypeID *id.ID
	BobUnitWt decimal.Decimal
	BoxWt     decimal.Decimal
}

func (in *WeightInput) validate() error {
	if in.BobQty < 0 {
		return apperror.NewValidation("bobbin quantity must not be negative").WithDetail("field", "bobQty")
	}
	checks := []struct {
		field string
		v     decimal.Decimal
	}{
		{"grossWt", in.GrossWt},
		{"bobUnitWt", in.BobUnitWt},
		{"boxWt", in.BoxWt},
	}
	for _, c := range checks {
		if c.v.IsNegative() {
			return apperror.NewValidation(c.field + " must not be negative").WithDetail("field", c.field)
		}
	}
	return nil
}

func normalizeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < DeleteMinReason {
		return "", apperror.NewValidation(fmt.Sprintf("reason must be at least %d characters", DeleteMinReason)).
			WithDetail("field", "reason")
	}
	return reason, nil
}
