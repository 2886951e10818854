package plan

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ID identifies a plan tier.
type ID string

const (
	Starter      ID = "starter"
	Professional ID = "professional"
	Enterprise   ID = "enterprise"
)

func (id ID) String() string {
	return string(id)
}

// Feature is a gated capability tag.
type Feature string

const (
	FeatureBasicAttendance Feature = "basic_attendance"
	FeatureReports         Feature = "reports"
	FeatureGeofencing      Feature = "geofencing"
	FeatureShiftScheduling Feature = "shift_scheduling"
	FeatureExport          Feature = "export"
	FeatureBiometric       Feature = "biometric"
	FeatureAPIAccess       Feature = "api_access"
	FeatureMultiBranch     Feature = "multi_branch"
	FeaturePrioritySupport Feature = "priority_support"
)

// CheckInMethod is an attendance method tag the plan permits.
type CheckInMethod string

const (
	CheckInQR        CheckInMethod = "qr"
	CheckInGeofence  CheckInMethod = "geofence"
	CheckInBiometric CheckInMethod = "biometric"
	CheckInNFC       CheckInMethod = "nfc"
)

// StaffLimit is a positive seat count or Unlimited.
type StaffLimit int

// Unlimited marks a plan without a staff ceiling.
const Unlimited StaffLimit = -1

func (l StaffLimit) IsUnlimited() bool {
	return l == Unlimited
}

// Allows reports whether a tenant that already has current staff may add one more.
func (l StaffLimit) Allows(current int) bool {
	return l.IsUnlimited() || current < int(l)
}

func (l StaffLimit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d", int(l))
}

// Plan is an immutable catalog entry.
type Plan struct {
	id             ID
	monthlyPrice   decimal.Decimal
	maxStaff       StaffLimit
	checkInMethods []CheckInMethod
	features       []Feature
}

// NewPlan validates and builds a catalog entry. Feature and method sets are
// deduplicated and copied.
func NewPlan(id ID, monthlyPrice decimal.Decimal, maxStaff StaffLimit, methods []CheckInMethod, features []Feature) (Plan, error) {
	if id == "" {
		return Plan{}, fmt.Errorf("plan id is required")
	}
	if monthlyPrice.IsNegative() {
		return Plan{}, fmt.Errorf("%w: %s", ErrInvalidPrice, monthlyPrice)
	}
	if !maxStaff.IsUnlimited() && maxStaff <= 0 {
		return Plan{}, fmt.Errorf("plan %s: max staff must be positive or unlimited", id)
	}

	return Plan{
		id:             id,
		monthlyPrice:   monthlyPrice,
		maxStaff:       maxStaff,
		checkInMethods: lo.Uniq(methods),
		features:       lo.Uniq(features),
	}, nil
}

func (p Plan) ID() ID                        { return p.id }
func (p Plan) MonthlyPrice() decimal.Decimal { return p.monthlyPrice }
func (p Plan) MaxStaff() StaffLimit          { return p.maxStaff }

// Features returns a copy of the plan's feature set.
func (p Plan) Features() []Feature {
	return append([]Feature(nil), p.features...)
}

// CheckInMethods returns a copy of the allowed check-in methods.
func (p Plan) CheckInMethods() []CheckInMethod {
	return append([]CheckInMethod(nil), p.checkInMethods...)
}

func (p Plan) HasFeature(f Feature) bool {
	return lo.Contains(p.features, f)
}

func (p Plan) AllowsCheckIn(m CheckInMethod) bool {
	return lo.Contains(p.checkInMethods, m)
}

// withPrice returns a copy carrying a different price; limits and features are untouched.
func (p Plan) withPrice(price decimal.Decimal) Plan {
	cp := p
	cp.monthlyPrice = price
	return cp
}
