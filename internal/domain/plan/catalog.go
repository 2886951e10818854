package plan

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Comparison is the result of ordering two plans.
type Comparison int

const (
	Lower  Comparison = -1
	Equal  Comparison = 0
	Higher Comparison = 1
)

func (c Comparison) String() string {
	switch c {
	case Lower:
		return "lower"
	case Higher:
		return "higher"
	default:
		return "equal"
	}
}

// Catalog is the process-wide, read-only table of plan tiers in ascending order.
type Catalog struct {
	plans []Plan
	rank  map[ID]int
}

// NewCatalog builds a catalog from plans listed lowest tier first.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, ErrEmptyCatalog
	}

	rank := make(map[ID]int, len(plans))
	for i, p := range plans {
		if _, dup := rank[p.ID()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlan, p.ID())
		}
		rank[p.ID()] = i
	}

	return &Catalog{
		plans: append([]Plan(nil), plans...),
		rank:  rank,
	}, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the built-in starter < professional < enterprise catalog.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		starterFeatures := []Feature{FeatureBasicAttendance}
		proFeatures := append(append([]Feature{}, starterFeatures...),
			FeatureReports, FeatureGeofencing, FeatureShiftScheduling, FeatureExport)
		entFeatures := append(append([]Feature{}, proFeatures...),
			FeatureBiometric, FeatureAPIAccess, FeatureMultiBranch, FeaturePrioritySupport)

		c, err := NewCatalog(
			mustPlan(Starter, decimal.Zero, 5,
				[]CheckInMethod{CheckInQR}, starterFeatures),
			mustPlan(Professional, decimal.NewFromInt(15000), 50,
				[]CheckInMethod{CheckInQR, CheckInGeofence}, proFeatures),
			mustPlan(Enterprise, decimal.NewFromInt(45000), Unlimited,
				[]CheckInMethod{CheckInQR, CheckInGeofence, CheckInBiometric, CheckInNFC}, entFeatures),
		)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func mustPlan(id ID, price decimal.Decimal, staff StaffLimit, methods []CheckInMethod, features []Feature) Plan {
	p, err := NewPlan(id, price, staff, methods, features)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the plan with the given id.
func (c *Catalog) Lookup(id ID) (Plan, error) {
	i, ok := c.rank[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return c.plans[i], nil
}

// Contains reports whether id is a catalog member.
func (c *Catalog) Contains(id ID) bool {
	_, ok := c.rank[id]
	return ok
}

// Compare orders a against b on the catalog's total order.
func (c *Catalog) Compare(a, b ID) (Comparison, error) {
	ra, ok := c.rank[a]
	if !ok {
		return Equal, fmt.Errorf("%w: %s", ErrPlanNotFound, a)
	}
	rb, ok := c.rank[b]
	if !ok {
		return Equal, fmt.Errorf("%w: %s", ErrPlanNotFound, b)
	}

	switch {
	case ra < rb:
		return Lower, nil
	case ra > rb:
		return Higher, nil
	default:
		return Equal, nil
	}
}

// Lowest returns the free tier.
func (c *Catalog) Lowest() Plan {
	return c.plans[0]
}

// Highest returns the top tier, whose entitlements a trial grants.
func (c *Catalog) Highest() Plan {
	return c.plans[len(c.plans)-1]
}

// All returns the plans lowest tier first.
func (c *Catalog) All() []Plan {
	return append([]Plan(nil), c.plans...)
}

// IDs returns catalog ids lowest tier first.
func (c *Catalog) IDs() []ID {
	return lo.Map(c.plans, func(p Plan, _ int) ID { return p.ID() })
}
