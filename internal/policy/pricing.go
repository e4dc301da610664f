package policy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// escrowThreshold is the price above which escrow-eligible services require
// held funds.
var escrowThreshold = decimal.NewFromInt(500)

// Quote is the result of a pricing computation.
type Quote struct {
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	FinalPrice      decimal.Decimal
	EscrowRequired  bool
}

// Price computes the price of a service engagement for a member.
// Billing models: hourly = rate x hours, session = flat 2x rate,
// project = 1.5x rate x hours, points = free (paid from the ledger).
// The membership discount applies to the base price, and escrow kicks in
// when the service is escrow-eligible and the discounted price exceeds $500.
func (c *Catalog) Price(serviceType, membershipTier string, durationMinutes int, baseRate decimal.Decimal) (Quote, error) {
	svc, ok := c.Service(serviceType)
	if !ok {
		return Quote{}, fmt.Errorf("policy: unknown service type %q", serviceType)
	}
	tier, ok := c.Tier(membershipTier)
	if !ok {
		return Quote{}, fmt.Errorf("policy: unknown membership tier %q", membershipTier)
	}
	if baseRate.IsZero() {
		baseRate = svc.BaseRate
	}

	hours := decimal.NewFromFloat(float64(durationMinutes) / 60.0)

	var base decimal.Decimal
	switch svc.BillingModel {
	case BillingHourly:
		base = baseRate.Mul(hours)
	case BillingSession:
		base = baseRate.Mul(decimal.NewFromInt(2))
	case BillingProject:
		base = baseRate.Mul(decimal.NewFromFloat(1.5)).Mul(hours)
	case BillingPoints:
		base = decimal.Zero
	default:
		return Quote{}, fmt.Errorf("policy: unknown billing model %q for %s", svc.BillingModel, svc.Name)
	}

	discount := base.Mul(tier.DiscountPercent).Div(decimal.NewFromInt(100))
	final := base.Sub(discount).Round(2)

	return Quote{
		BasePrice:       base.Round(2),
		DiscountPercent: tier.DiscountPercent,
		FinalPrice:      final,
		EscrowRequired:  svc.RequiresEscrow && final.GreaterThan(escrowThreshold),
	}, nil
}

// LoyaltyReward computes the loyalty points quoted for requesting a service:
// the service's base points times the tier multiplier, floored. This is a
// display quote only; actual ledger credits happen at invoice payment.
func (c *Catalog) LoyaltyReward(serviceType, membershipTier string) (int, error) {
	svc, ok := c.Service(serviceType)
	if !ok {
		return 0, fmt.Errorf("policy: unknown service type %q", serviceType)
	}
	tier, ok := c.Tier(membershipTier)
	if !ok {
		return 0, fmt.Errorf("policy: unknown membership tier %q", membershipTier)
	}
	return int(math.Floor(float64(svc.BasePoints) * tier.PointsMultiplier)), nil
}
