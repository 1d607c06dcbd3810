package dto

import (
	"challanbook/internal/core/weight"
	"challanbook/internal/domain/catalogs/masterdata"
)

// CatalogRecordResponse is one master-data record as shown in pick lists.
type CatalogRecordResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Address      string  `json:"address,omitempty"`
	Mobile       string  `json:"mobile,omitempty"`
	WeightKg     *string `json:"weightKg,omitempty"`
	DeletionMark bool    `json:"deletionMark"`
	Version      int     `json:"version"`
}

// FromRecord creates CatalogRecordResponse; WeightKg is set only for weighted kinds.
func FromRecord(kind masterdata.Kind, r *masterdata.Record) CatalogRecordResponse {
	resp := CatalogRecordResponse{
		ID:           r.ID.String(),
		Code:         r.Code,
		Name:         r.Name,
		Address:      r.Address,
		Mobile:       r.Mobile,
		DeletionMark: r.DeletionMark,
		Version:      r.Version,
	}
	if kind.HasWeight() {
		w := weight.Format(r.WeightKg)
		resp.WeightKg = &w
	}
	return resp
}
