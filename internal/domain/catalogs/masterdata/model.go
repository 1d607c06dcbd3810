// Package masterdata provides the reference catalogs a challan points to:
// customers, firms, shifts, metallics, cuts, employees, bob types and box types.
package masterdata

import (
	"context"

	"github.com/shopspring/decimal"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/entity"
)

// Kind identifies one catalog.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindFirm     Kind = "firm"
	KindShift    Kind = "shift"
	KindMetallic Kind = "metallic"
	KindCut      Kind = "cut"
	KindEmployee Kind = "employee"
	KindBobType  Kind = "bob_type"
	KindBoxType  Kind = "box_type"
)

// Kinds lists every catalog in seeding order.
var Kinds = []Kind{
	KindCustomer, KindFirm, KindShift, KindMetallic,
	KindCut, KindEmployee, KindBobType, KindBoxType,
}

// ParseKind validates a catalog name coming from a URL.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperror.NewValidation("unknown catalog").WithDetail("catalog", s)
}

// Table is the PostgreSQL table backing the catalog.
func (k Kind) Table() string {
	switch k {
	case KindBobType:
		return "cat_bob_types"
	case KindBoxType:
		return "cat_box_types"
	default:
		return "cat_" + string(k) + "s"
	}
}

// HasContact is true for catalogs with address and mobile (customers, firms).
func (k Kind) HasContact() bool {
	return k == KindCustomer || k == KindFirm
}

// HasWeight is true for catalogs carrying a unit weight (bob and box types).
func (k Kind) HasWeight() bool {
	return k == KindBobType || k == KindBoxType
}

// Columns returns the columns stored for the catalog.
func (k Kind) Columns() []string {
	cols := []string{"id", "code", "name", "deletion_mark", "version"}
	if k.HasContact() {
		cols = append(cols, "address", "mobile")
	}
	if k.HasWeight() {
		cols = append(cols, "weight_kg")
	}
	return cols
}

// Record is one catalog row. Address and Mobile are set only for parties,
// WeightKg only for bob and box types.
type Record struct {
	entity.Catalog

	Address  string          `db:"address" json:"address,omitempty"`
	Mobile   string          `db:"mobile" json:"mobile,omitempty"`
	WeightKg decimal.Decimal `db:"weight_kg" json:"weightKg"`
}

// NewRecord creates a record with a generated ID.
func NewRecord(code, name string) *Record {
	return &Record{Catalog: entity.NewCatalog(code, name)}
}

// NewWeighted creates a bob or box type record.
func NewWeighted(code, name string, weightKg decimal.Decimal) *Record {
	r := NewRecord(code, name)
	r.WeightKg = weightKg
	return r
}

// Validate checks the record against the rules of its catalog.
func (r *Record) Validate(ctx context.Context, kind Kind) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}
	if kind.HasWeight() && r.WeightKg.IsNegative() {
		return apperror.NewValidation("weight must not be negative").
			WithDetail("field", "weightKg")
	}
	return nil
}
