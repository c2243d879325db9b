package health

import (
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/giygas/pkpd-api/interfaces"
	"github.com/giygas/pkpd-api/pkpd"
)

// mockStatusStore implements interfaces.StatusStore for testing
type mockStatusStore struct {
	report    *interfaces.SelfCheckReport
	checking  bool
	startedAt time.Time
	serverAt  time.Time
}

func (m *mockStatusStore) GetLastSelfCheck() (interfaces.SelfCheckReport, bool) {
	if m.report == nil {
		return interfaces.SelfCheckReport{}, false
	}
	return *m.report, true
}

func (m *mockStatusStore) StoreSelfCheck(r interfaces.SelfCheckReport) { m.report = &r }
func (m *mockStatusStore) BeginCheck() bool { return true }
func (m *mockStatusStore) EndCheck() {}
func (m *mockStatusStore) IsChecking() bool { return m.checking }
func (m *mockStatusStore) GetCheckStartedAt() time.Time { return m.startedAt }
func (m *mockStatusStore) GetServerStartTime() time.Time { return m.serverAt }

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newChecker(drugs interfaces.DrugCatalog, store *mockStatusStore) *HealthCheckerImpl {
	h := NewHealthChecker(drugs, store, 6*time.Hour).(*HealthCheckerImpl)
	h.now = func() time.Time { return fixedNow }
	return h
}

func report(passed bool, age time.Duration, checks ...interfaces.CheckResult) *interfaces.SelfCheckReport {
	return &interfaces.SelfCheckReport{
		StartedAt:  fixedNow.Add(-age - time.Second),
		FinishedAt: fixedNow.Add(-age),
		Passed:     passed,
		Checks:     checks,
	}
}

func TestHealthCheckStatuses(t *testing.T) {
	empty := pkpd.MustNewRegistry(nil)
	registry := pkpd.DefaultRegistry()

	tests := []struct {
		name       string
		drugs      interfaces.DrugCatalog
		store      *mockStatusStore
		wantStatus string
		wantCode   int
	}{
		{
			name:       "healthy",
			drugs:      registry,
			store:      &mockStatusStore{report: report(true, time.Hour)},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
		},
		{
			name:       "empty registry",
			drugs:      empty,
			store:      &mockStatusStore{report: report(true, time.Hour)},
			wantStatus: "unhealthy",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "failed self-check",
			drugs:      registry,
			store:      &mockStatusStore{report: report(false, time.Hour, interfaces.CheckResult{Name: "auc"})},
			wantStatus: "unhealthy",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "no self-check yet",
			drugs:      registry,
			store:      &mockStatusStore{},
			wantStatus: "degraded",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "stale self-check",
			drugs:      registry,
			store:      &mockStatusStore{report: report(true, 13*time.Hour)},
			wantStatus: "degraded",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "self-check at the staleness limit",
			drugs:      registry,
			store:      &mockStatusStore{report: report(true, 12*time.Hour)},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
		},
		{
			name:  "stuck self-check",
			drugs: registry,
			store: &mockStatusStore{
				report:    report(true, time.Hour),
				checking:  true,
				startedAt: fixedNow.Add(-2 * time.Minute),
			},
			wantStatus: "degraded",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:  "running self-check",
			drugs: registry,
			store: &mockStatusStore{
				report:    report(true, time.Hour),
				checking:  true,
				startedAt: fixedNow.Add(-time.Second),
			},
			wantStatus: "healthy",
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, code := newChecker(tt.drugs, tt.store).HealthCheck()
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	store := &mockStatusStore{
		report: report(false, 90*time.Minute,
			interfaces.CheckResult{Name: "elimination", Passed: true},
			interfaces.CheckResult{Name: "recommend", Passed: false},
		),
		serverAt: fixedNow.Add(-48 * time.Hour),
	}
	_, data, _ := newChecker(pkpd.DefaultRegistry(), store).HealthCheck()

	if data["drugs"] != len(pkpd.DefaultProfiles()) {
		t.Errorf("drugs = %v", data["drugs"])
	}
	if data["selfcheck_age_hours"] != 1.5 {
		t.Errorf("selfcheck_age_hours = %v, want 1.5", data["selfcheck_age_hours"])
	}
	if data["selfcheck_passed"] != false {
		t.Errorf("selfcheck_passed = %v", data["selfcheck_passed"])
	}
	if failed, _ := data["failed_checks"].([]string); !slices.Equal(failed, []string{"recommend"}) {
		t.Errorf("failed_checks = %v", data["failed_checks"])
	}
	if data["uptime_hours"] != 48.0 {
		t.Errorf("uptime_hours = %v, want 48", data["uptime_hours"])
	}
	if _, ok := data["last_selfcheck"]; !ok {
		t.Error("last_selfcheck should be reported")
	}
}

func TestHealthCheckDetailsWithoutReport(t *testing.T) {
	_, data, _ := newChecker(pkpd.DefaultRegistry(), &mockStatusStore{}).HealthCheck()

	for _, key := range []string{"last_selfcheck", "selfcheck_passed", "uptime_hours", "failed_checks"} {
		if _, ok := data[key]; ok {
			t.Errorf("%s should be absent, got %v", key, data[key])
		}
	}
}

func TestNextSelfCheck(t *testing.T) {
	h := newChecker(pkpd.DefaultRegistry(), &mockStatusStore{})
	if got := h.NextSelfCheck(); !got.Equal(fixedNow) {
		t.Errorf("NextSelfCheck() before any check = %v, want now", got)
	}

	h = newChecker(pkpd.DefaultRegistry(), &mockStatusStore{report: report(true, time.Hour)})
	if got, want := h.NextSelfCheck(), fixedNow.Add(5*time.Hour); !got.Equal(want) {
		t.Errorf("NextSelfCheck() = %v, want %v", got, want)
	}
}
