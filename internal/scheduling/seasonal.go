package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/homeit/platform/internal/policy"
)

// ValidateSeasonalTiming rejects a requested date that falls outside a
// seasonal service's configured windows. It runs before any scheduling
// work; non-seasonal services always pass.
func ValidateSeasonalTiming(catalog *policy.Catalog, serviceType string, requested time.Time) error {
	svc, ok := catalog.Service(serviceType)
	if !ok {
		return fmt.Errorf("scheduling: unknown service type %q", serviceType)
	}
	if policy.InSeason(svc, requested) {
		return nil
	}
	return fmt.Errorf("scheduling: %s is not available in %s; valid windows: %s",
		svc.Name, requested.Month(), strings.Join(policy.WindowLabels(svc), ", "))
}
