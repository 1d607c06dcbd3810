package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"challanbook/internal/core/entity"
	"challanbook/internal/core/id"
)

type testBobType struct {
	entity.Catalog
	WeightKg decimal.Decimal `db:"weight_kg"`
	Note     string          `db:"-"`
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[testBobType]()

	assert.Equal(t, []string{"id", "deletion_mark", "version", "code", "name", "weight_kg"}, cols)
}

func TestStructToMap_Embedded(t *testing.T) {
	rec := &testBobType{
		Catalog: entity.Catalog{
			BaseEntity: entity.BaseEntity{ID: id.New(), Version: 3},
			Code:       "B1",
			Name:       "Paper bob",
		},
		WeightKg: decimal.RequireFromString("0.040"),
		Note:     "ignored",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, false, m["deletion_mark"])
	assert.Equal(t, "B1", m["code"])
	assert.Equal(t, rec.WeightKg, m["weight_kg"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 6)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
