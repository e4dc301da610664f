// Package policy holds the pure service-type and membership rules: pricing,
// loyalty rewards, tier access, and seasonal windows. Nothing in this
// package touches the database; the catalog is built once at startup and
// passed by reference to whoever needs it.
package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Billing models.
const (
	BillingHourly  = "hourly"
	BillingSession = "session"
	BillingProject = "project"
	BillingPoints  = "points"
)

// Membership tiers, lowest to highest.
const (
	TierHomeBASE = "HomeBASE"
	TierHomePRO  = "HomePRO"
	TierHomeHERO = "HomeHERO"
)

// MonthWindow is an inclusive calendar-month range during which a seasonal
// service may be requested.
type MonthWindow struct {
	From  time.Month
	To    time.Month
	Label string
}

// Contains reports whether m falls inside the window.
func (w MonthWindow) Contains(m time.Month) bool {
	return m >= w.From && m <= w.To
}

// ServiceTypeConfig describes one service type's billing and reward rules.
type ServiceTypeConfig struct {
	Name              string
	BillingModel      string
	BaseRate          decimal.Decimal // hourly/session/project base, dollars
	BasePoints        int             // loyalty reward before tier multiplier
	RequiresEscrow    bool
	IsSeasonalService bool
	SeasonalWindows   []MonthWindow
	MinimumTier       string // lowest tier allowed to request this type
}

// MembershipTier describes one membership level.
type MembershipTier struct {
	Name             string
	Rank             int
	DiscountPercent  decimal.Decimal
	PointsMultiplier float64
}

// Catalog is the immutable policy table. Construct with NewCatalog and
// inject; do not mutate after startup.
type Catalog struct {
	services map[string]ServiceTypeConfig
	tiers    map[string]MembershipTier
}

// NewCatalog builds the default production catalog.
func NewCatalog() *Catalog {
	preventWindows := []MonthWindow{
		{From: time.February, To: time.March, Label: "Feb-Mar"},
		{From: time.July, To: time.August, Label: "Jul-Aug"},
	}

	services := []ServiceTypeConfig{
		{
			Name:         "FixiT",
			BillingModel: BillingHourly,
			BaseRate:     decimal.NewFromInt(95),
			BasePoints:   50,
			MinimumTier:  TierHomeBASE,
		},
		{
			Name:              "PreventiT",
			BillingModel:      BillingSession,
			BaseRate:          decimal.NewFromInt(85),
			BasePoints:        75,
			MinimumTier:       TierHomeBASE,
			IsSeasonalService: true,
			SeasonalWindows:   preventWindows,
		},
		{
			Name:           "HandleiT",
			BillingModel:   BillingProject,
			BaseRate:       decimal.NewFromInt(110),
			BasePoints:     100,
			RequiresEscrow: true,
			MinimumTier:    TierHomePRO,
		},
		{
			Name:         "CheckiT",
			BillingModel: BillingSession,
			BaseRate:     decimal.NewFromInt(60),
			BasePoints:   25,
			MinimumTier:  TierHomeBASE,
		},
		{
			Name:         "LoyalizeiT",
			BillingModel: BillingPoints,
			BaseRate:     decimal.Zero,
			BasePoints:   0,
			MinimumTier:  TierHomePRO,
		},
	}

	tiers := []MembershipTier{
		{Name: TierHomeBASE, Rank: 0, DiscountPercent: decimal.Zero, PointsMultiplier: 1.0},
		{Name: TierHomePRO, Rank: 1, DiscountPercent: decimal.NewFromInt(5), PointsMultiplier: 1.5},
		{Name: TierHomeHERO, Rank: 2, DiscountPercent: decimal.NewFromInt(10), PointsMultiplier: 2.0},
	}

	c := &Catalog{
		services: make(map[string]ServiceTypeConfig, len(services)),
		tiers:    make(map[string]MembershipTier, len(tiers)),
	}
	for _, s := range services {
		c.services[s.Name] = s
	}
	for _, t := range tiers {
		c.tiers[t.Name] = t
	}
	return c
}

// Service returns the config for a service type.
func (c *Catalog) Service(name string) (ServiceTypeConfig, bool) {
	s, ok := c.services[name]
	return s, ok
}

// Tier returns the config for a membership tier.
func (c *Catalog) Tier(name string) (MembershipTier, bool) {
	t, ok := c.tiers[name]
	return t, ok
}

// TierHasAccess reports whether tier meets the service's minimum tier.
func (c *Catalog) TierHasAccess(tier string, svc ServiceTypeConfig) bool {
	t, ok := c.tiers[tier]
	if !ok {
		return false
	}
	min, ok := c.tiers[svc.MinimumTier]
	if !ok {
		return true
	}
	return t.Rank >= min.Rank
}
