// Package entitlement answers authorization questions from a tenant's plan,
// trial flag and an optional developer override. Nothing here reads a clock
// or mutates state; callers pass every input explicitly.
package entitlement

import (
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	vo "github.com/orris-inc/tenantbilling/internal/domain/subscription/valueobjects"
)

// overrideAllowed reports whether the developer override may take effect.
// Production deployments always ignore it.
func overrideAllowed(devOverride, production bool) bool {
	return devOverride && !production
}

// HasFeatureAccess reports whether planID includes feature. An active trial
// grants the top tier's features.
func HasFeatureAccess(c *plan.Catalog, planID plan.ID, feature plan.Feature, isTrialActive, devOverride, production bool) bool {
	if overrideAllowed(devOverride, production) {
		return true
	}
	if isTrialActive && c.Highest().HasFeature(feature) {
		return true
	}
	p, err := c.Lookup(planID)
	if err != nil {
		return false
	}
	return p.HasFeature(feature)
}

// CanAddStaff reports whether a tenant with currentCount staff may add one more.
func CanAddStaff(c *plan.Catalog, planID plan.ID, currentCount int, isTrialActive, devOverride, production bool) bool {
	if overrideAllowed(devOverride, production) {
		return true
	}
	if isTrialActive && c.Highest().MaxStaff().Allows(currentCount) {
		return true
	}
	p, err := c.Lookup(planID)
	if err != nil {
		return false
	}
	return p.MaxStaff().Allows(currentCount)
}

// IsEntitled reports whether the subscription's plan is still in force at now.
// A cancelled subscription keeps its plan until currentPeriodEnd.
func IsEntitled(sub *subscription.Subscription, now time.Time) bool {
	switch sub.Status() {
	case vo.StatusTrialing, vo.StatusActive, vo.StatusPastDue:
		return true
	case vo.StatusCancelled:
		end := sub.CurrentPeriodEnd()
		return end != nil && now.Before(*end)
	default:
		return false
	}
}

// Evaluator binds the catalog and the deployment's production flag.
type Evaluator struct {
	catalog    *plan.Catalog
	production bool
}

func NewEvaluator(catalog *plan.Catalog, production bool) *Evaluator {
	return &Evaluator{catalog: catalog, production: production}
}

func (e *Evaluator) HasFeatureAccess(planID plan.ID, feature plan.Feature, isTrialActive, devOverride bool) bool {
	return HasFeatureAccess(e.catalog, planID, feature, isTrialActive, devOverride, e.production)
}

func (e *Evaluator) CanAddStaff(planID plan.ID, currentCount int, isTrialActive, devOverride bool) bool {
	return CanAddStaff(e.catalog, planID, currentCount, isTrialActive, devOverride, e.production)
}

// EffectivePlan is the plan whose entitlements apply to sub at now. Outside
// the access window the tenant is treated as being on the lowest tier.
func (e *Evaluator) EffectivePlan(sub *subscription.Subscription, now time.Time) plan.ID {
	if IsEntitled(sub, now) {
		return sub.Plan()
	}
	return e.catalog.Lowest().ID()
}

// FeatureAccessFor evaluates a feature for a stored subscription.
func (e *Evaluator) FeatureAccessFor(sub *subscription.Subscription, feature plan.Feature, devOverride bool, now time.Time) bool {
	return e.HasFeatureAccess(e.EffectivePlan(sub, now), feature, sub.IsTrialActive(), devOverride)
}

// StaffAccessFor evaluates the staff limit for a stored subscription.
func (e *Evaluator) StaffAccessFor(sub *subscription.Subscription, currentCount int, devOverride bool, now time.Time) bool {
	return e.CanAddStaff(e.EffectivePlan(sub, now), currentCount, sub.IsTrialActive(), devOverride)
}

// StaffLimitFor returns the limit that applies to sub at now.
func (e *Evaluator) StaffLimitFor(sub *subscription.Subscription, now time.Time) plan.StaffLimit {
	if sub.IsTrialActive() {
		return e.catalog.Highest().MaxStaff()
	}
	p, err := e.catalog.Lookup(e.EffectivePlan(sub, now))
	if err != nil {
		return e.catalog.Lowest().MaxStaff()
	}
	return p.MaxStaff()
}
