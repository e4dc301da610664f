package policy

import (
	"strings"
	"testing"
	"time"
)

func TestValidateRequest_SeasonalWindow(t *testing.T) {
	c := NewCatalog()
	january := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	errs := c.ValidateRequest("PreventiT", TierHomePRO, RequestData{PreferredDateTime: &january})
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	msg := errs[0].Message
	if !strings.Contains(msg, "Feb-Mar") || !strings.Contains(msg, "Jul-Aug") {
		t.Errorf("error %q should name the valid windows Feb-Mar and Jul-Aug", msg)
	}
}

func TestValidateRequest_InSeason(t *testing.T) {
	c := NewCatalog()

	for _, month := range []time.Month{time.February, time.March, time.July, time.August} {
		when := time.Date(2026, month, 10, 9, 0, 0, 0, time.UTC)
		if errs := c.ValidateRequest("PreventiT", TierHomePRO, RequestData{PreferredDateTime: &when}); len(errs) != 0 {
			t.Errorf("%s: unexpected errors: %v", month, errs)
		}
	}
}

func TestValidateRequest_TierAccess(t *testing.T) {
	c := NewCatalog()

	errs := c.ValidateRequest("HandleiT", TierHomeBASE, RequestData{})
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Field != "membershipTier" {
		t.Errorf("field = %q, want membershipTier", errs[0].Field)
	}

	if errs := c.ValidateRequest("HandleiT", TierHomePRO, RequestData{}); len(errs) != 0 {
		t.Errorf("HomePRO should access HandleiT, got: %v", errs)
	}
}

func TestValidateRequest_CollectsAllViolations(t *testing.T) {
	c := NewCatalog()
	// HomeBASE would also fail seasonal rules if PreventiT were
	// tier-restricted; use LoyalizeiT with an unknown tier to get two
	// distinct violations in one pass.
	errs := c.ValidateRequest("LoyalizeiT", "NoSuchTier", RequestData{})
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}

	errs = c.ValidateRequest("NopeiT", TierHomeBASE, RequestData{})
	if len(errs) != 1 || errs[0].Field != "serviceType" {
		t.Fatalf("unknown service type: got %v", errs)
	}
}

func TestValidateRequest_NonSeasonalIgnoresDate(t *testing.T) {
	c := NewCatalog()
	january := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	if errs := c.ValidateRequest("FixiT", TierHomeBASE, RequestData{PreferredDateTime: &january}); len(errs) != 0 {
		t.Errorf("FixiT has no season, got: %v", errs)
	}
}

func TestInSeason(t *testing.T) {
	c := NewCatalog()
	svc, ok := c.Service("PreventiT")
	if !ok {
		t.Fatal("PreventiT missing from catalog")
	}

	tests := []struct {
		month time.Month
		want  bool
	}{
		{time.January, false},
		{time.February, true},
		{time.March, true},
		{time.April, false},
		{time.June, false},
		{time.July, true},
		{time.August, true},
		{time.September, false},
		{time.December, false},
	}
	for _, tt := range tests {
		when := time.Date(2026, tt.month, 1, 0, 0, 0, 0, time.UTC)
		if got := InSeason(svc, when); got != tt.want {
			t.Errorf("InSeason(%s) = %v, want %v", tt.month, got, tt.want)
		}
	}
}
