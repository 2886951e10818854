package plan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_Order(t *testing.T) {
	c := Default()

	assert.Equal(t, []ID{Starter, Professional, Enterprise}, c.IDs())
	assert.Equal(t, Starter, c.Lowest().ID())
	assert.Equal(t, Enterprise, c.Highest().ID())
}

func TestCatalog_Compare(t *testing.T) {
	c := Default()

	tests := []struct {
		a, b ID
		want Comparison
	}{
		{Starter, Professional, Lower},
		{Enterprise, Professional, Higher},
		{Professional, Professional, Equal},
		{Starter, Enterprise, Lower},
	}

	for _, tt := range tests {
		t.Run(string(tt.a)+"_vs_"+string(tt.b), func(t *testing.T) {
			got, err := c.Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_UnknownPlan(t *testing.T) {
	c := Default()

	_, err := c.Lookup("platinum")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = c.Compare(Starter, "platinum")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	p := mustPlan(Starter, decimal.Zero, 1, nil, nil)

	_, err := NewCatalog(p, p)
	assert.ErrorIs(t, err, ErrDuplicatePlan)

	_, err = NewCatalog()
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestNewPlan_Validation(t *testing.T) {
	_, err := NewPlan(Starter, decimal.NewFromInt(-1), 5, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NewPlan(Starter, decimal.Zero, 0, nil, nil)
	assert.Error(t, err)

	p, err := NewPlan(Enterprise, decimal.Zero, Unlimited, nil, []Feature{FeatureReports, FeatureReports})
	require.NoError(t, err)
	assert.Len(t, p.Features(), 1)
}

func TestStaffLimit_Allows(t *testing.T) {
	finite := StaffLimit(5)
	for n := 0; n < 5; n++ {
		assert.True(t, finite.Allows(n), "n=%d", n)
	}
	for n := 5; n < 20; n++ {
		assert.False(t, finite.Allows(n), "n=%d", n)
	}

	for _, n := range []int{0, 5, 1000, 1 << 30} {
		assert.True(t, Unlimited.Allows(n))
	}
	assert.Equal(t, "unlimited", Unlimited.String())
}

func TestCatalog_ResolveReplacesOnlyPrice(t *testing.T) {
	c := Default()
	before, _ := c.Lookup(Professional)

	override, err := NewPriceOverride(c, Professional, decimal.NewFromInt(12000), "owner_1", time.Now())
	require.NoError(t, err)

	resolved := c.Resolve([]*PriceOverride{override})
	require.Len(t, resolved, 3)

	pro := resolved[1]
	assert.True(t, pro.Overridden)
	assert.True(t, decimal.NewFromInt(12000).Equal(pro.MonthlyPrice()))
	assert.Equal(t, before.MaxStaff(), pro.MaxStaff())
	assert.Equal(t, before.Features(), pro.Features())

	after, _ := c.Lookup(Professional)
	assert.True(t, decimal.NewFromInt(15000).Equal(after.MonthlyPrice()), "catalog must stay untouched")
	assert.False(t, resolved[0].Overridden)
}

func TestCatalog_ResolveSkipsNilOverrides(t *testing.T) {
	c := Default()
	overrides := []*PriceOverride{nil, {PlanID: Enterprise, Price: decimal.NewFromInt(40000)}, nil}

	var resolved []ResolvedPlan
	require.NotPanics(t, func() { resolved = c.Resolve(overrides) })
	require.Len(t, resolved, 3)
	assert.False(t, resolved[0].Overridden)
	assert.False(t, resolved[1].Overridden)
	assert.True(t, resolved[2].Overridden)
	assert.True(t, decimal.NewFromInt(40000).Equal(resolved[2].MonthlyPrice()))

	price, err := c.ResolvePrice(Starter, []*PriceOverride{nil})
	require.NoError(t, err)
	assert.True(t, price.Equal(resolved[0].MonthlyPrice()))
}

func TestCatalog_ResolvePrice(t *testing.T) {
	c := Default()
	overrides := []*PriceOverride{{PlanID: Enterprise, Price: decimal.NewFromInt(40000)}}

	price, err := c.ResolvePrice(Enterprise, overrides)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40000).Equal(price))

	price, err = c.ResolvePrice(Professional, overrides)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15000).Equal(price))

	_, err = NewPriceOverride(c, "gold", decimal.NewFromInt(1), "owner", time.Now())
	assert.ErrorIs(t, err, ErrPlanNotFound)
}
