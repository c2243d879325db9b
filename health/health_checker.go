// Package health reports the service status from the drug registry and the
// last model self-check.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/pkpd-api/interfaces"
)

// stuckCheckAfter marks a self-check still running after this long as stuck
const stuckCheckAfter = time.Minute

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	drugs    interfaces.DrugCatalog
	status   interfaces.StatusStore
	interval time.Duration
	now      func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// interval is the self-check period.
func NewHealthChecker(drugs interfaces.DrugCatalog, status interfaces.StatusStore, interval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		drugs:    drugs,
		status:   status,
		interval: interval,
		now:      time.Now,
	}
}

// HealthCheck returns the status, the details and the HTTP code for /health
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := h.now()
	drugCount := h.drugs.Len()
	report, hasReport := h.status.GetLastSelfCheck()
	isChecking := h.status.IsChecking()
	checkAge := now.Sub(report.FinishedAt)

	switch {
	case drugCount == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case hasReport && !report.Passed:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case !hasReport:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case checkAge > 2*h.interval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isChecking && now.Sub(h.status.GetCheckStartedAt()) > stuckCheckAfter:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"drugs":       drugCount,
		"is_checking": isChecking,
	}
	if hasReport {
		data["last_selfcheck"] = report.FinishedAt.Format(time.RFC3339)
		data["selfcheck_age_hours"] = math.Round(checkAge.Hours()*10) / 10
		data["selfcheck_passed"] = report.Passed
		data["next_selfcheck"] = h.NextSelfCheck().Format(time.RFC3339)
		if failed := report.Failed(); len(failed) > 0 {
			data["failed_checks"] = failed
		}
	}
	if start := h.status.GetServerStartTime(); !start.IsZero() {
		data["uptime_hours"] = math.Round(now.Sub(start).Hours()*10) / 10
	}

	return status, data, httpStatus
}

// NextSelfCheck returns when the next self-check is due. Before the first
// check it is now.
func (h *HealthCheckerImpl) NextSelfCheck() time.Time {
	report, ok := h.status.GetLastSelfCheck()
	if !ok {
		return h.now()
	}
	return report.FinishedAt.Add(h.interval)
}
