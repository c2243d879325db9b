// Package data holds the runtime state shared between the self-check
// scheduler and the HTTP layer, with atomic access so readers never block
// a running check.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/pkpd-api/interfaces"
	"github.com/giygas/pkpd-api/logging"
)

// Compile-time check to ensure StatusContainer implements StatusStore
var _ interfaces.StatusStore = (*StatusContainer)(nil)

// StatusContainer stores the last self-check report and the check lifecycle
type StatusContainer struct {
	lastSelfCheck   atomic.Pointer[interfaces.SelfCheckReport]
	checking        atomic.Bool
	checkStartedAt  atomic.Value // time.Time
	serverStartTime atomic.Value // time.Time
}

// NewStatusContainer creates a container with no self-check recorded
func NewStatusContainer() *StatusContainer {
	sc := &StatusContainer{}
	sc.checkStartedAt.Store(time.Time{})
	sc.serverStartTime.Store(time.Time{})
	return sc
}

// GetLastSelfCheck returns the latest report, false before the first check
func (sc *StatusContainer) GetLastSelfCheck() (interfaces.SelfCheckReport, bool) {
	report := sc.lastSelfCheck.Load()
	if report == nil {
		return interfaces.SelfCheckReport{}, false
	}
	return *report, true
}

// StoreSelfCheck atomically replaces the latest report
func (sc *StatusContainer) StoreSelfCheck(report interfaces.SelfCheckReport) {
	report.Checks = append([]interfaces.CheckResult(nil), report.Checks...)
	sc.lastSelfCheck.Store(&report)
}

// BeginCheck marks the start of a self-check.
// Returns true if the check can proceed, false if another one is running
func (sc *StatusContainer) BeginCheck() bool {
	if !sc.checking.CompareAndSwap(false, true) {
		return false
	}
	sc.checkStartedAt.Store(time.Now())
	return true
}

// EndCheck marks the end of a self-check
func (sc *StatusContainer) EndCheck() {
	sc.checking.Store(false)
}

// IsChecking returns true if a self-check is currently running
func (sc *StatusContainer) IsChecking() bool {
	return sc.checking.Load()
}

// GetCheckStartedAt returns when the running or last check started
func (sc *StatusContainer) GetCheckStartedAt() time.Time {
	return loadTime(&sc.checkStartedAt, "check start time")
}

// SetServerStartTime sets the server start time
func (sc *StatusContainer) SetServerStartTime(startTime time.Time) {
	sc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (sc *StatusContainer) GetServerStartTime() time.Time {
	return loadTime(&sc.serverStartTime, "server start time")
}

func loadTime(v *atomic.Value, name string) time.Time {
	if t, ok := v.Load().(time.Time); ok {
		return t
	}
	logging.Warn("Could not get time value", "name", name)
	return time.Time{}
}
