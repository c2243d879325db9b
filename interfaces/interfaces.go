// Package interfaces defines the contracts between the HTTP layer, the
// scheduler and the PK/PD engine so each side can be tested with mocks.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/pkpd-api/pkpd"
)

// CheckResult is the outcome of one reference scenario of the self-check
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// SelfCheckReport summarizes one replay of the reference scenarios
type SelfCheckReport struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Passed     bool          `json:"passed"`
	Checks     []CheckResult `json:"checks"`
}

// Failed returns the names of the failed checks
func (r SelfCheckReport) Failed() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

// Evaluator runs PK/PD evaluations. *pkpd.Engine implements it.
type Evaluator interface {
	Evaluate(req pkpd.Request) (*pkpd.Result, error)
	Target(ctx pkpd.ClinicalContext) pkpd.TargetAssessment
	Lookup(drugID string) (pkpd.DrugProfile, error)
	Limits() pkpd.Limits
}

// DrugCatalog lists the registered drugs. *pkpd.Registry implements it.
type DrugCatalog interface {
	Lookup(drugID string) (pkpd.DrugProfile, error)
	Drugs() []pkpd.DrugProfile
	Len() int
}

// StatusStore holds the runtime state shared by the scheduler and the
// health endpoint. It must be safe for concurrent use.
type StatusStore interface {
	GetLastSelfCheck() (SelfCheckReport, bool)
	StoreSelfCheck(report SelfCheckReport)
	BeginCheck() bool
	EndCheck()
	IsChecking() bool
	GetCheckStartedAt() time.Time
	GetServerStartTime() time.Time
}

// Scheduler manages the periodic self-check job
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the API endpoints
type HTTPHandler interface {
	Evaluate(w http.ResponseWriter, r *http.Request)
	ListDrugs(w http.ResponseWriter, r *http.Request)
	GetDrug(w http.ResponseWriter, r *http.Request)
	GetTarget(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports the service status
type HealthChecker interface {
	// HealthCheck returns the status, its details and the HTTP code to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// NextSelfCheck returns when the next self-check is expected
	NextSelfCheck() time.Time
}

// InputValidator screens free-text request fields before they reach the engine
type InputValidator interface {
	// ValidateInput rejects empty, over-long or dangerous input
	ValidateInput(input string) error

	// ValidateIdentifier validates a drug, site or organism identifier
	ValidateIdentifier(field, value string) error

	// ValidateMode parses the evaluation mode tag
	ValidateMode(mode string) (pkpd.Mode, error)
}
