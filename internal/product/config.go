// Package product maps claim product types to the group that assesses them
// and the payout cooldown applied after voting closes.
package product

import (
	"errors"

	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
)

var (
	ErrInvalidProductType = errors.New("product type has no assessment data configured")
	ErrZeroCooldown       = errors.New("payout cooldown must be positive")
)

// AssessmentData is the governance-set configuration for one product type.
type AssessmentData struct {
	CooldownPeriod   covertime.Duration
	AssessingGroupID common.GroupID
}

// Table holds per-product-type assessment data. Lookups against product types
// that were never configured fail with ErrInvalidProductType.
type Table struct {
	data map[common.ProductTypeID]AssessmentData
}

func NewTable() *Table {
	return &Table{data: make(map[common.ProductTypeID]AssessmentData)}
}

// Set bulk-assigns the same cooldown and assessing group to every listed
// product type. Group existence is the engine's concern; this table only
// rejects nonsensical cooldowns.
func (t *Table) Set(productTypes []common.ProductTypeID, cooldown covertime.Duration, groupID common.GroupID) error {
	if cooldown == 0 {
		return ErrZeroCooldown
	}

	for _, pt := range productTypes {
		t.data[pt] = AssessmentData{
			CooldownPeriod:   cooldown,
			AssessingGroupID: groupID,
		}
	}
	return nil
}

// Get returns the assessment data for a product type.
func (t *Table) Get(productType common.ProductTypeID) (AssessmentData, error) {
	data, ok := t.data[productType]
	if !ok {
		return AssessmentData{}, ErrInvalidProductType
	}
	return data, nil
}

// PayoutCooldown returns the configured cooldown for a product type.
func (t *Table) PayoutCooldown(productType common.ProductTypeID) (covertime.Duration, error) {
	data, err := t.Get(productType)
	if err != nil {
		return 0, err
	}
	return data.CooldownPeriod, nil
}

// ProductTypes returns every configured product type id, unordered.
func (t *Table) ProductTypes() []common.ProductTypeID {
	out := make([]common.ProductTypeID, 0, len(t.data))
	for pt := range t.data {
		out = append(out, pt)
	}
	return out
}
