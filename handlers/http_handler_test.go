package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/giygas/pkpd-api/logging"
	"github.com/giygas/pkpd-api/pkpd"
	"github.com/giygas/pkpd-api/validation"
)

// mockHealthChecker implements interfaces.HealthChecker for testing
type mockHealthChecker struct {
	status string
	code   int
}

func (m *mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, map[string]any{"drugs": 11}, m.code
}

func (m *mockHealthChecker) NextSelfCheck() time.Time { return time.Now() }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logging.InitLogger("")

	registry := pkpd.DefaultRegistry()
	h := NewHTTPHandler(
		pkpd.NewEngine(pkpd.WithRegistry(registry)),
		registry,
		validation.NewInputValidator(),
		&mockHealthChecker{status: "healthy", code: http.StatusOK},
	)

	r := chi.NewRouter()
	r.Post("/v1/evaluate", h.Evaluate)
	r.Get("/v1/drugs", h.ListDrugs)
	r.Get("/v1/drugs/{drug}", h.GetDrug)
	r.Get("/v1/targets", h.GetTarget)
	r.Get("/health", h.HealthCheck)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body, lang string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
	}
	return v
}

const simulateBody = `{
	"patient": {"weight_kg": 70, "height_cm": 175, "age_years": 60, "creatinine_clearance": 80},
	"drug": "vancomycin",
	"regimen": {"dose_mg": 1000, "interval_hours": 12, "mic": 1},
	"mode": "simulate"
}`

func TestEvaluateSimulate(t *testing.T) {
	router := newTestRouter(t)

	rr := do(t, router, http.MethodPost, "/v1/evaluate", simulateBody, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	resp := decode[EvaluateResponse](t, rr)
	if _, err := uuid.Parse(resp.EvaluationID); err != nil {
		t.Errorf("evaluation_id %q is not a UUID", resp.EvaluationID)
	}
	if resp.Language != "en" {
		t.Errorf("language = %q, want en", resp.Language)
	}
	if resp.Result == nil {
		t.Fatal("missing result fields")
	}
	if math.Abs(resp.Exposure.AUC-165.0) > 0.1 {
		t.Errorf("AUC = %v, want about 165.0", resp.Exposure.AUC)
	}
	if len(resp.Samples) != pkpd.DefaultSampleCount {
		t.Errorf("got %d samples, want %d", len(resp.Samples), pkpd.DefaultSampleCount)
	}
	if resp.Disclaimer != pkpd.Disclaimer {
		t.Errorf("disclaimer = %q", resp.Disclaimer)
	}
	if resp.RecommendedDoseMg != nil {
		t.Error("simulate mode should not recommend a dose")
	}
}

func TestEvaluateRecommendInFrench(t *testing.T) {
	router := newTestRouter(t)
	body := `{
		"patient": {"weight_kg": 70, "height_cm": 175, "age_years": 60, "creatinine_clearance": 80},
		"drug": "Vancomycine",
		"context": {"site": "Endocardite", "organism": "Aucun / Empirique"},
		"regimen": {"interval_hours": 12, "mic": 1},
		"mode": "recommend"
	}`

	rr := do(t, router, http.MethodPost, "/v1/evaluate", body, "fr-FR,fr;q=0.9")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Language"); got != "fr" {
		t.Errorf("Content-Language = %q, want fr", got)
	}

	resp := decode[EvaluateResponse](t, rr)
	if resp.RecommendedDoseMg == nil || math.Abs(*resp.RecommendedDoseMg-1734.6) > 0.1 {
		t.Errorf("recommended dose = %v, want about 1734.6", resp.RecommendedDoseMg)
	}
	if resp.Target == nil || !strings.HasPrefix(resp.Target.Recommendation, "Viser") {
		t.Fatalf("recommendation should be French, got %+v", resp.Target)
	}
	if resp.Target.Attained == nil || *resp.Target.Attained {
		t.Errorf("the approximate dose does not reach AUC/MIC 500 over 12 h, attained = %v", resp.Target.Attained)
	}
	if !strings.Contains(resp.Disclaimer, "pédagogique") {
		t.Errorf("disclaimer should be French, got %q", resp.Disclaimer)
	}
}

func TestEvaluateValidationErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name      string
		body      string
		wantKind  pkpd.ErrorKind
		wantField string
	}{
		{
			name:      "unknown drug",
			body:      strings.Replace(simulateBody, `"vancomycin"`, `"aspirin"`, 1),
			wantKind:  pkpd.KindUnknownDrug,
			wantField: "drug",
		},
		{
			name:      "weight out of range",
			body:      strings.Replace(simulateBody, `"weight_kg": 70`, `"weight_kg": 300`, 1),
			wantKind:  pkpd.KindOutOfRange,
			wantField: "weight_kg",
		},
		{
			name:      "zero creatinine clearance",
			body:      strings.Replace(simulateBody, `"creatinine_clearance": 80`, `"creatinine_clearance": 0`, 1),
			wantKind:  pkpd.KindInvalidPhysiology,
			wantField: "creatinine_clearance",
		},
		{
			name:      "zero MIC",
			body:      strings.Replace(simulateBody, `"mic": 1`, `"mic": 0`, 1),
			wantKind:  pkpd.KindInvalidMIC,
			wantField: "mic",
		},
		{
			name:      "negative dose",
			body:      strings.Replace(simulateBody, `"dose_mg": 1000`, `"dose_mg": -5`, 1),
			wantKind:  pkpd.KindInvalidDose,
			wantField: "dose_mg",
		},
		{
			name:      "interval off step",
			body:      strings.Replace(simulateBody, `"interval_hours": 12`, `"interval_hours": 10`, 1),
			wantKind:  pkpd.KindOutOfRange,
			wantField: "interval_hours",
		},
		{
			name:      "unknown mode",
			body:      strings.Replace(simulateBody, `"simulate"`, `"optimize"`, 1),
			wantKind:  pkpd.KindOutOfRange,
			wantField: "mode",
		},
		{
			name:      "unknown site",
			body:      strings.Replace(simulateBody, `"mode"`, `"context": {"site": "Brain"}, "mode"`, 1),
			wantKind:  pkpd.KindOutOfRange,
			wantField: "site",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/v1/evaluate", tt.body, "")
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			resp := decode[ErrorResponse](t, rr)
			if resp.Kind != string(tt.wantKind) || resp.Field != tt.wantField {
				t.Errorf("kind/field = %s/%s, want %s/%s", resp.Kind, resp.Field, tt.wantKind, tt.wantField)
			}
			if resp.Code != http.StatusUnprocessableEntity || resp.Message == "" {
				t.Errorf("unexpected error body %+v", resp)
			}
		})
	}
}

func TestEvaluateLocalizedErrorMessage(t *testing.T) {
	router := newTestRouter(t)
	body := strings.Replace(simulateBody, `"vancomycin"`, `"aspirin"`, 1)

	rr := do(t, router, http.MethodPost, "/v1/evaluate", body, "fr")
	resp := decode[ErrorResponse](t, rr)
	if !strings.HasPrefix(resp.Message, "Échec de la validation: Médicament inconnu") {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestEvaluateBadRequests(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"patient": `},
		{"unknown field", strings.Replace(simulateBody, `"mode"`, `"dose": 3, "mode"`, 1)},
		{"dangerous drug", strings.Replace(simulateBody, `"vancomycin"`, `"<script>alert(1)</script>"`, 1)},
		{"missing drug", strings.Replace(simulateBody, `"vancomycin"`, `""`, 1)},
		{"dangerous organism", strings.Replace(simulateBody, `"mode"`, `"context": {"organism": "x; rm -rf"}, "mode"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/v1/evaluate", tt.body, "")
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestListDrugs(t *testing.T) {
	router := newTestRouter(t)

	rr := do(t, router, http.MethodGet, "/v1/drugs", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[DrugsResponse](t, rr)
	if resp.Count != len(pkpd.DefaultProfiles()) || len(resp.Drugs) != resp.Count {
		t.Errorf("count = %d, drugs = %d", resp.Count, len(resp.Drugs))
	}
	if resp.Drugs[0].ID != "vancomycin" {
		t.Errorf("first drug = %q, want registration order", resp.Drugs[0].ID)
	}
}

func TestGetDrug(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		path   string
		status int
		wantID string
	}{
		{"/v1/drugs/vancomycin", http.StatusOK, "vancomycin"},
		{"/v1/drugs/Vancomycine", http.StatusOK, "vancomycin"},
		{"/v1/drugs/tazocilline", http.StatusOK, "piperacillin-tazobactam"},
		{"/v1/drugs/aspirin", http.StatusNotFound, ""},
		{"/v1/drugs/x", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := do(t, router, http.MethodGet, tt.path, "", "")
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if tt.wantID == "" {
				return
			}
			if drug := decode[pkpd.DrugProfile](t, rr); drug.ID != tt.wantID {
				t.Errorf("id = %q, want %q", drug.ID, tt.wantID)
			}
		})
	}
}

func TestGetTarget(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		query            string
		status           int
		wantAUC          float64
		wantQuantitative bool
		wantSite         pkpd.Site
	}{
		{"?site=pneumonia&organism=MRSA", http.StatusOK, 400, true, pkpd.SitePneumonia},
		{"?site=Endocardite", http.StatusOK, 500, true, pkpd.SiteEndocarditis},
		{"?site=UTI&organism=E.%20coli", http.StatusOK, 0, false, pkpd.SiteUTI},
		{"?site=meningitis", http.StatusOK, 0, false, pkpd.SiteMeningitis},
		{"", http.StatusOK, 400, true, pkpd.SiteOther},
		{"?site=brain", http.StatusUnprocessableEntity, 0, false, ""},
		{"?organism=%3Cscript%3E", http.StatusBadRequest, 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := do(t, router, http.MethodGet, "/v1/targets"+tt.query, "", "")
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d, body %s", rr.Code, tt.status, rr.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			resp := decode[TargetResponse](t, rr)
			if resp.TargetAUC != tt.wantAUC || resp.IsQuantitative != tt.wantQuantitative || resp.Site != tt.wantSite {
				t.Errorf("got %+v", resp)
			}
			if resp.Recommendation == "" {
				t.Error("every context should carry advice")
			}
		})
	}
}

func TestHealthCheckHandler(t *testing.T) {
	logging.InitLogger("")
	registry := pkpd.DefaultRegistry()

	for _, hc := range []*mockHealthChecker{
		{status: "healthy", code: http.StatusOK},
		{status: "degraded", code: http.StatusServiceUnavailable},
	} {
		t.Run(hc.status, func(t *testing.T) {
			h := NewHTTPHandler(pkpd.NewEngine(), registry, validation.NewInputValidator(), hc)
			rr := httptest.NewRecorder()
			h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rr.Code != hc.code {
				t.Errorf("status = %d, want %d", rr.Code, hc.code)
			}
			resp := decode[HealthResponse](t, rr)
			if resp.Status != hc.status {
				t.Errorf("status field = %q, want %q", resp.Status, hc.status)
			}
			if _, ok := resp.System["goroutines"]; !ok {
				t.Error("system block should report goroutines")
			}
		})
	}
}

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, http.StatusNotFound, "nothing here")

	resp := decode[ErrorResponse](t, rr)
	if resp.Error != "Not Found" || resp.Code != http.StatusNotFound || resp.Message != "nothing here" {
		t.Errorf("unexpected body %+v", resp)
	}
	if resp.Kind != "" || resp.Field != "" {
		t.Error("kind and field should be omitted for plain errors")
	}
}
