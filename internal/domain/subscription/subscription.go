package subscription

import (
	"fmt"
	"time"

	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	vo "github.com/orris-inc/tenantbilling/internal/domain/subscription/valueobjects"
)

// ScheduledDowngrade is a plan reduction deferred to effectiveAt.
type ScheduledDowngrade struct {
	TargetPlan  plan.ID
	EffectiveAt time.Time
}

// IsDue reports whether the downgrade should have fired by now.
func (d ScheduledDowngrade) IsDue(now time.Time) bool {
	return !d.EffectiveAt.After(now)
}

// Subscription is the per-tenant aggregate root. It is never deleted;
// cancellation is a status.
type Subscription struct {
	id                       string
	tenantID                 string
	plan                     plan.ID
	status                   vo.SubscriptionStatus
	isTrialActive            bool
	trialEndDate             *time.Time
	currentPeriodEnd         *time.Time
	scheduledDowngrade       *ScheduledDowngrade
	providerSubscriptionCode string
	customerEmail            string
	lastPaymentEventAt       *time.Time
	consecutiveChargeFails   int
	cancelledAt              *time.Time
	cancelReason             string
	createdAt                time.Time
	updatedAt                time.Time
}

// NewSubscription provisions a tenant on a trial of the given plan.
func NewSubscription(id, tenantID string, planID plan.ID, trialLength time.Duration, now time.Time) (*Subscription, error) {
	if id == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if planID == "" {
		return nil, fmt.Errorf("%w: plan is required", ErrInvalidPlan)
	}
	if trialLength <= 0 {
		return nil, fmt.Errorf("trial length must be positive")
	}

	now = normalize(now)
	trialEnd := now.Add(trialLength)

	return &Subscription{
		id:            id,
		tenantID:      tenantID,
		plan:          planID,
		status:        vo.StatusTrialing,
		isTrialActive: true,
		trialEndDate:  &trialEnd,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID                       string
	TenantID                 string
	Plan                     plan.ID
	Status                   vo.SubscriptionStatus
	IsTrialActive            bool
	TrialEndDate             *time.Time
	CurrentPeriodEnd         *time.Time
	ScheduledDowngrade       *ScheduledDowngrade
	ProviderSubscriptionCode string
	CustomerEmail            string
	LastPaymentEventAt       *time.Time
	ConsecutiveChargeFails   int
	CancelledAt              *time.Time
	CancelReason             string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// ReconstructSubscription rebuilds a subscription from persistence and
// rejects rows that break the aggregate's invariants.
func ReconstructSubscription(p ReconstructParams) (*Subscription, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("subscription ID cannot be empty")
	}
	if p.TenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if p.Plan == "" {
		return nil, fmt.Errorf("%w: plan is required", ErrInvalidPlan)
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if p.IsTrialActive && p.Status != vo.StatusTrialing {
		return nil, fmt.Errorf("trial flag set on %s subscription %s", p.Status, p.ID)
	}

	return &Subscription{
		id:                       p.ID,
		tenantID:                 p.TenantID,
		plan:                     p.Plan,
		status:                   p.Status,
		isTrialActive:            p.IsTrialActive,
		trialEndDate:             p.TrialEndDate,
		currentPeriodEnd:         p.CurrentPeriodEnd,
		scheduledDowngrade:       p.ScheduledDowngrade,
		providerSubscriptionCode: p.ProviderSubscriptionCode,
		customerEmail:            p.CustomerEmail,
		lastPaymentEventAt:       p.LastPaymentEventAt,
		consecutiveChargeFails:   p.ConsecutiveChargeFails,
		cancelledAt:              p.CancelledAt,
		cancelReason:             p.CancelReason,
		createdAt:                p.CreatedAt,
		updatedAt:                p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() string { return s.id }
func (s *Subscription) TenantID() string { return s.tenantID }
func (s *Subscription) Plan() plan.ID { return s.plan }
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }
func (s *Subscription) IsTrialActive() bool { return s.isTrialActive }
func (s *Subscription) TrialEndDate() *time.Time { return copyTime(s.trialEndDate) }
func (s *Subscription) CurrentPeriodEnd() *time.Time { return copyTime(s.currentPeriodEnd) }
func (s *Subscription) ProviderSubscriptionCode() string { return s.providerSubscriptionCode }
func (s *Subscription) CustomerEmail() string { return s.customerEmail }
func (s *Subscription) LastPaymentEventAt() *time.Time { return copyTime(s.lastPaymentEventAt) }
func (s *Subscription) ConsecutiveChargeFailures() int { return s.consecutiveChargeFails }
func (s *Subscription) CancelledAt() *time.Time { return copyTime(s.cancelledAt) }
func (s *Subscription) CancelReason() string { return s.cancelReason }
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time { return s.updatedAt }
func (s *Subscription) HasScheduledDowngrade() bool { return s.scheduledDowngrade != nil }
func (s *Subscription) IsCancelled() bool { return s.status == vo.StatusCancelled }

func (s *Subscription) ScheduledDowngrade() *ScheduledDowngrade {
	if s.scheduledDowngrade == nil {
		return nil
	}
	d := *s.scheduledDowngrade
	return &d
}

// HasPaidRelationship reports whether the provider has a live recurring
// subscription for this tenant whose paid period has not ended.
func (s *Subscription) HasPaidRelationship(now time.Time) bool {
	return s.providerSubscriptionCode != "" &&
		s.currentPeriodEnd != nil &&
		s.currentPeriodEnd.After(now)
}

// IsTrialDue reports whether the trial has run out and is waiting for the sweeper.
func (s *Subscription) IsTrialDue(now time.Time) bool {
	return s.isTrialActive && s.trialEndDate != nil && !s.trialEndDate.After(now)
}

// IsDowngradeDue reports whether a scheduled downgrade is waiting for the sweeper.
func (s *Subscription) IsDowngradeDue(now time.Time) bool {
	return s.scheduledDowngrade != nil && s.scheduledDowngrade.IsDue(now)
}

// NextDueAt is the earliest instant a time-triggered transition becomes due.
func (s *Subscription) NextDueAt() *time.Time {
	var next *time.Time
	if s.isTrialActive && s.trialEndDate != nil {
		next = copyTime(s.trialEndDate)
	}
	if s.scheduledDowngrade != nil {
		at := s.scheduledDowngrade.EffectiveAt
		if next == nil || at.Before(*next) {
			next = &at
		}
	}
	return next
}

// ChangeOutcome describes what RequestPlanChange did.
type ChangeOutcome string

const (
	ChangeUpgraded           ChangeOutcome = "upgraded"
	ChangeDowngradeScheduled ChangeOutcome = "downgrade_scheduled"
	ChangeDowngradeCleared   ChangeOutcome = "downgrade_cleared"
	ChangeNone               ChangeOutcome = "no_change"
)

// RequestPlanChange upgrades immediately or schedules a downgrade for the
// end of the current period. Requesting the current plan withdraws a pending
// downgrade.
func (s *Subscription) RequestPlanChange(catalog *plan.Catalog, target plan.ID, now time.Time) (ChangeOutcome, error) {
	if !catalog.Contains(target) {
		return ChangeNone, fmt.Errorf("%w: %s", ErrInvalidPlan, target)
	}
	if s.IsCancelled() {
		return ChangeNone, ErrSubscriptionCancelled
	}

	cmp, err := catalog.Compare(target, s.plan)
	if err != nil {
		return ChangeNone, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	switch cmp {
	case plan.Higher:
		s.plan = target
		s.scheduledDowngrade = nil
		s.touch(now)
		return ChangeUpgraded, nil

	case plan.Lower:
		s.scheduledDowngrade = &ScheduledDowngrade{
			TargetPlan:  target,
			EffectiveAt: s.downgradeEffectiveAt(now),
		}
		s.touch(now)
		return ChangeDowngradeScheduled, nil

	default:
		if s.scheduledDowngrade == nil {
			return ChangeNone, nil
		}
		s.scheduledDowngrade = nil
		s.touch(now)
		return ChangeDowngradeCleared, nil
	}
}

// downgradeEffectiveAt picks the end of the running paid period, falling back
// to the trial end, and never returns an instant before now.
func (s *Subscription) downgradeEffectiveAt(now time.Time) time.Time {
	now = normalize(now)
	if s.currentPeriodEnd != nil && s.currentPeriodEnd.After(now) {
		return *s.currentPeriodEnd
	}
	if s.isTrialActive && s.trialEndDate != nil && s.trialEndDate.After(now) {
		return *s.trialEndDate
	}
	return now
}

// CancelScheduledDowngrade withdraws a pending downgrade.
func (s *Subscription) CancelScheduledDowngrade(now time.Time) error {
	if s.scheduledDowngrade == nil {
		return ErrNoScheduledDowngrade
	}
	s.scheduledDowngrade = nil
	s.touch(now)
	return nil
}

// Cancel marks the subscription cancelled. Access until currentPeriodEnd is
// decided by the entitlement layer, not here.
func (s *Subscription) Cancel(reason string, now time.Time) error {
	if s.IsCancelled() {
		return ErrAlreadyCancelled
	}
	if err := s.transitionTo(vo.StatusCancelled); err != nil {
		return err
	}

	at := normalize(now)
	s.cancelledAt = &at
	s.cancelReason = reason
	s.scheduledDowngrade = nil
	s.endTrial()
	s.touch(now)
	return nil
}

// RequiresProviderCancel reports whether cancelling must also stop the
// provider's recurring charge.
func (s *Subscription) RequiresProviderCancel() bool {
	return s.plan != plan.Starter && s.providerSubscriptionCode != ""
}

// Reactivate leaves the cancelled state. A paid plan is kept only while a
// paid relationship is still valid; otherwise the tenant resumes on the free tier.
func (s *Subscription) Reactivate(now time.Time) (keptPlan bool, err error) {
	if !s.IsCancelled() {
		return false, ErrNotCancelled
	}
	if err := s.transitionTo(vo.StatusActive); err != nil {
		return false, err
	}

	keptPlan = s.plan == plan.Starter || s.HasPaidRelationship(now)
	if !keptPlan {
		s.plan = plan.Starter
	}
	s.cancelledAt = nil
	s.cancelReason = ""
	s.consecutiveChargeFails = 0
	s.touch(now)
	return keptPlan, nil
}

// ApplyScheduledDowngrade fires a due downgrade. Returns false when nothing
// was due, which makes repeated calls harmless.
func (s *Subscription) ApplyScheduledDowngrade(now time.Time) bool {
	if !s.IsDowngradeDue(now) {
		return false
	}
	s.plan = s.scheduledDowngrade.TargetPlan
	s.scheduledDowngrade = nil
	s.touch(now)
	return true
}

// ExpireTrial ends a due trial. With a live paid relationship the tenant
// becomes active on its plan, otherwise it drops to the free tier.
func (s *Subscription) ExpireTrial(now time.Time) bool {
	if !s.IsTrialDue(now) {
		return false
	}

	if !s.HasPaidRelationship(now) {
		s.plan = plan.Starter
		s.scheduledDowngrade = nil
	}
	s.status = vo.StatusActive
	s.endTrial()
	s.touch(now)
	return true
}

// Transition names a time-triggered change applied by the sweeper.
type Transition string

const (
	TransitionDowngradeApplied Transition = "apply_scheduled_downgrade"
	TransitionTrialExpired     Transition = "expire_trial"
)

// ApplyDueTransitions runs every due time-triggered transition in one pass.
func (s *Subscription) ApplyDueTransitions(now time.Time) []Transition {
	var applied []Transition
	if s.ApplyScheduledDowngrade(now) {
		applied = append(applied, TransitionDowngradeApplied)
	}
	if s.ExpireTrial(now) {
		applied = append(applied, TransitionTrialExpired)
	}
	return applied
}

func (s *Subscription) endTrial() {
	s.isTrialActive = false
	s.trialEndDate = nil
}

func (s *Subscription) transitionTo(target vo.SubscriptionStatus) error {
	if s.status == target {
		return nil
	}
	if !s.status.CanTransitionTo(target) {
		return ErrInvalidTransition(s.status.String(), target.String())
	}
	s.status = target
	return nil
}

// touch stamps updatedAt, the optimistic concurrency token. It always moves
// forward so a write inside the same microsecond still changes the token.
func (s *Subscription) touch(now time.Time) {
	t := normalize(now)
	if !t.After(s.updatedAt) {
		t = s.updatedAt.Add(time.Microsecond)
	}
	s.updatedAt = t
}

// normalize keeps timestamps comparable after a round trip through a
// DATETIME(6) column.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
