package engine

import (
	"github.com/coverlabs/mulberry/internal/common"
	"github.com/coverlabs/mulberry/internal/covertime"
	"github.com/coverlabs/mulberry/internal/event"
	"github.com/coverlabs/mulberry/internal/member"
	"github.com/coverlabs/mulberry/internal/product"
)

// SetAssessmentDataForProductTypes bulk-assigns the same cooldown and
// assessing group to every listed product type. The group must already
// exist; assessments snapshot this data at creation, so changing it here
// never affects claims already under assessment.
func (e *Engine) SetAssessmentDataForProductTypes(caller Caller, productTypes []common.ProductTypeID, cooldown covertime.Duration, groupID common.GroupID) error {
	if caller.Role != RoleGovernor {
		return ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.groups.Exists(groupID) {
		return member.ErrUnknownGroup
	}
	if err := e.products.Set(productTypes, cooldown, groupID); err != nil {
		return err
	}

	if e.persist != nil {
		data := product.AssessmentData{CooldownPeriod: cooldown, AssessingGroupID: groupID}
		for _, pt := range productTypes {
			if err := e.persist.PutProduct(pt, data); err != nil {
				return err
			}
		}
	}

	e.logger.Info().
		Int("productTypes", len(productTypes)).
		Uint64("group", uint64(groupID)).
		Uint64("cooldownSeconds", uint64(cooldown)).
		Msg("assessment data configured")
	e.bus.Publish(event.TypeProductTypesConfigured, event.ProductTypesConfigured{
		ProductTypes:     productTypes,
		CooldownPeriod:   cooldown,
		AssessingGroupID: groupID,
	})
	return nil
}

// PayoutCooldown returns the configured cooldown for a product type.
func (e *Engine) PayoutCooldown(productType common.ProductTypeID) (covertime.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.products.PayoutCooldown(productType)
}
