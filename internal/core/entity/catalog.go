package entity

import (
	"context"

	"challanbook/internal/core/apperror"
)

// Catalog is the base type for master data (customers, shifts, cuts, staff...).
type Catalog struct {
	BaseEntity

	// Code is a short human-readable identifier, unique per catalog
	Code string `db:"code" json:"code"`

	// Name is the display name printed on challans and labels
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate checks that code and name are filled in.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
