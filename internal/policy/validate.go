package policy

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError is one business-rule violation found while validating a
// service request. Validation collects all violations instead of failing on
// the first; the caller decides how to surface them.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RequestData is the subset of a service request relevant to policy
// validation.
type RequestData struct {
	PreferredDateTime *time.Time
}

// WindowLabels returns the display labels of a service's seasonal windows.
func WindowLabels(svc ServiceTypeConfig) []string {
	labels := make([]string, 0, len(svc.SeasonalWindows))
	for _, w := range svc.SeasonalWindows {
		labels = append(labels, w.Label)
	}
	return labels
}

// InSeason reports whether t falls in one of the service's seasonal
// windows. Non-seasonal services are always in season.
func InSeason(svc ServiceTypeConfig, t time.Time) bool {
	if !svc.IsSeasonalService {
		return true
	}
	for _, w := range svc.SeasonalWindows {
		if w.Contains(t.Month()) {
			return true
		}
	}
	return false
}

// ValidateRequest checks a proposed service request against tier access and
// seasonal-timing rules. It returns the full list of violations; an empty
// list means the request is acceptable.
func (c *Catalog) ValidateRequest(serviceType, membershipTier string, data RequestData) []ValidationError {
	var errs []ValidationError

	svc, ok := c.Service(serviceType)
	if !ok {
		return append(errs, ValidationError{
			Field:   "serviceType",
			Message: fmt.Sprintf("unknown service type %q", serviceType),
		})
	}

	if _, ok := c.Tier(membershipTier); !ok {
		errs = append(errs, ValidationError{
			Field:   "membershipTier",
			Message: fmt.Sprintf("unknown membership tier %q", membershipTier),
		})
	} else if !c.TierHasAccess(membershipTier, svc) {
		errs = append(errs, ValidationError{
			Field:   "membershipTier",
			Message: fmt.Sprintf("tier %s does not include %s; requires %s or above", membershipTier, svc.Name, svc.MinimumTier),
		})
	}

	if svc.IsSeasonalService && data.PreferredDateTime != nil && !InSeason(svc, *data.PreferredDateTime) {
		errs = append(errs, ValidationError{
			Field:   "preferredDateTime",
			Message: fmt.Sprintf("%s is only available during %s", svc.Name, strings.Join(WindowLabels(svc), ", ")),
		})
	}

	return errs
}
