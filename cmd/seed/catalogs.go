package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"challanbook/internal/core/tx"
	"challanbook/internal/domain/catalogs/masterdata"
)

type seedRecord struct {
	code, name      string
	address, mobile string
	weightKg        string
}

// demoCatalogs is the starter master data of a metallic-yarn unit.
func demoCatalogs() map[masterdata.Kind][]seedRecord {
	return map[masterdata.Kind][]seedRecord{
		masterdata.KindCustomer: {
			{code: "C001", name: "Shree Ganesh Textiles", address: "Plot 14, GIDC Pandesara, Surat", mobile: "9825012345"},
			{code: "C002", name: "Laxmi Zari Works", address: "Ring Road, Surat", mobile: "9898054321"},
		},
		masterdata.KindFirm: {
			{code: "F001", name: "Sun Metallics", address: "Sachin GIDC, Surat", mobile: "9712300000"},
		},
		masterdata.KindShift: {
			{code: "DAY", name: "Day"},
			{code: "NIGHT", name: "Night"},
		},
		masterdata.KindMetallic: {
			{code: "GLD", name: "Gold"},
			{code: "SLV", name: "Silver"},
			{code: "CPR", name: "Copper"},
		},
		masterdata.KindCut: {
			{code: "K69", name: "K69"},
			{code: "K100", name: "K100"},
		},
		masterdata.KindEmployee: {
			{code: "E001", name: "Ravi"},
			{code: "E002", name: "Mohan"},
			{code: "E003", name: "Suresh"},
		},
		masterdata.KindBobType: {
			{code: "B025", name: "Plastic 250g", weightKg: "0.250"},
			{code: "B040", name: "Paper 40g", weightKg: "0.040"},
		},
		masterdata.KindBoxType: {
			{code: "X100", name: "Carton small", weightKg: "0.100"},
			{code: "X350", name: "Carton large", weightKg: "0.350"},
		},
	}
}

// seedCatalogs upserts every record by code in one transaction, so running it
// twice leaves one row per code.
func seedCatalogs(ctx context.Context, txm tx.Manager, repo masterdata.Repository, data map[masterdata.Kind][]seedRecord) (map[masterdata.Kind]int, error) {
	counts := make(map[masterdata.Kind]int, len(data))
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, kind := range masterdata.Kinds {
			for _, s := range data[kind] {
				rec := masterdata.NewRecord(s.code, s.name)
				rec.Address = s.address
				rec.Mobile = s.mobile
				if s.weightKg != "" {
					w, err := decimal.NewFromString(s.weightKg)
					if err != nil {
						return fmt.Errorf("%s %s: weight %q: %w", kind, s.code, s.weightKg, err)
					}
					rec.WeightKg = w
				}
				if err := rec.Validate(ctx, kind); err != nil {
					return fmt.Errorf("%s %s: %w", kind, s.code, err)
				}
				if err := repo.Upsert(ctx, kind, rec); err != nil {
					return err
				}
				counts[kind]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
