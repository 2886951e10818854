package dto

import (
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
)

type ScheduledDowngradeDTO struct {
	TargetPlan  string    `json:"target_plan"`
	EffectiveAt time.Time `json:"effective_at"`
}

// SubscriptionDTO is the stored state of a tenant's subscription.
type SubscriptionDTO struct {
	TenantID           string                 `json:"tenant_id"`
	Plan               string                 `json:"plan"`
	Status             string                 `json:"status"`
	IsTrialActive      bool                   `json:"is_trial_active"`
	TrialEndDate       *time.Time             `json:"trial_end_date,omitempty"`
	CurrentPeriodEnd   *time.Time             `json:"current_period_end,omitempty"`
	ScheduledDowngrade *ScheduledDowngradeDTO `json:"scheduled_downgrade,omitempty"`
	CancelledAt        *time.Time             `json:"cancelled_at,omitempty"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// StatusDTO is what the product UI needs to decide whether to nag for an upgrade.
type StatusDTO struct {
	SubscriptionDTO
	EffectivePlan      string `json:"effective_plan"`
	IsActive           bool   `json:"is_active"`
	NeedsUpgrade       bool   `json:"needs_upgrade"`
	TrialDaysRemaining int    `json:"trial_days_remaining"`
	MaxStaff           string `json:"max_staff"`
}

type FeatureDecisionDTO struct {
	Feature       string `json:"feature"`
	Allowed       bool   `json:"allowed"`
	EffectivePlan string `json:"effective_plan"`
}

type StaffDecisionDTO struct {
	CurrentCount  int    `json:"current_count"`
	Allowed       bool   `json:"allowed"`
	MaxStaff      string `json:"max_staff"`
	EffectivePlan string `json:"effective_plan"`
}

// PlanChangeDTO reports what a plan change request did.
type PlanChangeDTO struct {
	Outcome      string           `json:"outcome"`
	Subscription *SubscriptionDTO `json:"subscription"`
}

// CancelDTO reports whether the provider accepted the cancellation. When
// ProviderCancelled is false and a provider subscription exists, billing
// must be reconciled manually.
type CancelDTO struct {
	Subscription      *SubscriptionDTO `json:"subscription"`
	ProviderCancelled bool             `json:"provider_cancelled"`
}

type ReactivateDTO struct {
	Subscription *SubscriptionDTO `json:"subscription"`
	KeptPlan     bool             `json:"kept_plan"`
}

func ToSubscriptionDTO(sub *subscription.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	out := &SubscriptionDTO{
		TenantID:         sub.TenantID(),
		Plan:             string(sub.Plan()),
		Status:           string(sub.Status()),
		IsTrialActive:    sub.IsTrialActive(),
		TrialEndDate:     sub.TrialEndDate(),
		CurrentPeriodEnd: sub.CurrentPeriodEnd(),
		CancelledAt:      sub.CancelledAt(),
		UpdatedAt:        sub.UpdatedAt(),
	}
	if d := sub.ScheduledDowngrade(); d != nil {
		out.ScheduledDowngrade = &ScheduledDowngradeDTO{
			TargetPlan:  string(d.TargetPlan),
			EffectiveAt: d.EffectiveAt,
		}
	}
	return out
}
