// Package handlers implements the HTTP endpoints of the PK/PD API on top of
// the injected engine, drug catalog, input validator and health checker.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/giygas/pkpd-api/i18n"
	"github.com/giygas/pkpd-api/interfaces"
	"github.com/giygas/pkpd-api/logging"
	"github.com/giygas/pkpd-api/metrics"
	"github.com/giygas/pkpd-api/pkpd"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	evaluator interfaces.Evaluator
	drugs     interfaces.DrugCatalog
	validator interfaces.InputValidator
	health    interfaces.HealthChecker
	startTime time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(evaluator interfaces.Evaluator, drugs interfaces.DrugCatalog,
	validator interfaces.InputValidator, health interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		evaluator: evaluator,
		drugs:     drugs,
		validator: validator,
		health:    health,
		startTime: time.Now(),
	}
}

// EvaluateRequest is the body of POST /v1/evaluate
type EvaluateRequest struct {
	Patient pkpd.PatientProfile `json:"patient"`
	Drug    string              `json:"drug"`
	Context *ContextRequest     `json:"context,omitempty"`
	Regimen pkpd.Regimen        `json:"regimen"`
	Mode    string              `json:"mode"`
}

// ContextRequest carries free-text site and organism labels, English or French
type ContextRequest struct {
	Site     string `json:"site"`
	Organism string `json:"organism"`
}

// EvaluateResponse is a result with its identifier and the language of its
// advisory texts
type EvaluateResponse struct {
	EvaluationID string `json:"evaluation_id"`
	Language     string `json:"language"`
	*pkpd.Result
}

// DrugsResponse lists the registered drugs
type DrugsResponse struct {
	Count int                `json:"count"`
	Drugs []pkpd.DrugProfile `json:"drugs"`
}

// TargetResponse is the target selected for a clinical context
type TargetResponse struct {
	Site     pkpd.Site     `json:"site"`
	Organism pkpd.Organism `json:"organism"`
	Language string        `json:"language"`
	pkpd.TargetAssessment
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// Evaluate runs one simulation or dose recommendation
func (h *HTTPHandlerImpl) Evaluate(w http.ResponseWriter, r *http.Request) {
	tr := translator(w, r)

	var req EvaluateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if maxErr, ok := errors.AsType[*http.MaxBytesError](err); ok {
			RespondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", maxErr.Limit))
			return
		}
		logging.Warn("Malformed evaluation request", "error", err)
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", tr.T(i18n.MsgMalformedBody), err))
		return
	}

	if err := h.validator.ValidateIdentifier("drug", req.Drug); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := h.validator.ValidateMode(req.Mode)
	if err != nil {
		h.respondEngineError(w, tr, err)
		return
	}

	var ctx *pkpd.ClinicalContext
	if req.Context != nil {
		parsed, status, err := h.parseContext(req.Context.Site, req.Context.Organism)
		if err != nil {
			if status == http.StatusBadRequest {
				RespondWithError(w, status, err.Error())
			} else {
				h.respondEngineError(w, tr, err)
			}
			return
		}
		ctx = &parsed
	}

	start := time.Now()
	res, err := h.evaluator.Evaluate(pkpd.Request{
		Patient: req.Patient,
		DrugID:  req.Drug,
		Context: ctx,
		Regimen: req.Regimen,
		Mode:    mode,
	})
	metrics.RecordEvaluation(h.drugLabel(req.Drug, res), string(mode), err, time.Since(start).Seconds())
	if err != nil {
		h.respondEngineError(w, tr, err)
		return
	}

	res.Disclaimer = tr.T(res.Disclaimer)
	if res.Target != nil {
		res.Target.Recommendation = tr.T(res.Target.Recommendation)
	}

	id := uuid.NewString()
	logging.Debug("Evaluation completed",
		"evaluation_id", id,
		"drug", res.Drug.ID,
		"mode", res.Mode,
		"dose_mg", res.DoseMg,
		"auc", res.Exposure.AUC,
	)

	RespondWithJSON(w, http.StatusOK, EvaluateResponse{
		EvaluationID: id,
		Language:     tr.Language(),
		Result:       res,
	})
}

// ListDrugs returns every registered drug
func (h *HTTPHandlerImpl) ListDrugs(w http.ResponseWriter, r *http.Request) {
	drugs := h.drugs.Drugs()
	RespondWithJSON(w, http.StatusOK, DrugsResponse{Count: len(drugs), Drugs: drugs})
}

// GetDrug returns one drug by identifier, name or alias
func (h *HTTPHandlerImpl) GetDrug(w http.ResponseWriter, r *http.Request) {
	tr := translator(w, r)
	id := chi.URLParam(r, "drug")

	if err := h.validator.ValidateIdentifier("drug", id); err != nil {
		logging.Warn("Unusual user input", "drug", id)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	drug, err := h.drugs.Lookup(id)
	if err != nil {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("%s: %s", tr.T(i18n.MsgUnknownDrug), id))
		return
	}

	RespondWithJSON(w, http.StatusOK, drug)
}

// GetTarget evaluates the site and organism query parameters against the
// decision table
func (h *HTTPHandlerImpl) GetTarget(w http.ResponseWriter, r *http.Request) {
	tr := translator(w, r)
	q := r.URL.Query()

	ctx, status, err := h.parseContext(q.Get("site"), q.Get("organism"))
	if err != nil {
		if status == http.StatusBadRequest {
			RespondWithError(w, status, err.Error())
		} else {
			h.respondEngineError(w, tr, err)
		}
		return
	}

	target := h.evaluator.Target(ctx)
	target.Recommendation = tr.T(target.Recommendation)

	RespondWithJSON(w, http.StatusOK, TargetResponse{
		Site:             ctx.Site,
		Organism:         ctx.Organism,
		Language:         tr.Language(),
		TargetAssessment: target,
	})
}

// HealthCheck returns the service status with runtime statistics
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.health.HealthCheck()

	RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}

// parseContext screens then parses site and organism. Empty values take the
// defaults of pkpd.ParseClinicalContext. The status tells a screening
// failure (400) from an unknown label (422).
func (h *HTTPHandlerImpl) parseContext(site, organism string) (pkpd.ClinicalContext, int, error) {
	for _, f := range []struct{ name, value string }{{"site", site}, {"organism", organism}} {
		if f.value == "" {
			continue
		}
		if err := h.validator.ValidateIdentifier(f.name, f.value); err != nil {
			return pkpd.ClinicalContext{}, http.StatusBadRequest, err
		}
	}

	ctx, err := pkpd.ParseClinicalContext(site, organism)
	if err != nil {
		return pkpd.ClinicalContext{}, http.StatusUnprocessableEntity, err
	}
	return ctx, http.StatusOK, nil
}

// respondEngineError maps engine validation errors to 422 and anything else to 500
func (h *HTTPHandlerImpl) respondEngineError(w http.ResponseWriter, tr *i18n.Translator, err error) {
	ve, ok := pkpd.AsValidationError(err)
	if !ok {
		logging.Error("Evaluation failed", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	msg := ve.Message
	if errors.Is(err, pkpd.ErrUnknownDrug) {
		msg = fmt.Sprintf("%s: %v", tr.T(i18n.MsgUnknownDrug), ve.Value)
	}

	code := http.StatusUnprocessableEntity
	RespondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %s", tr.T(i18n.MsgValidationFailed), msg),
		Code:    code,
		Kind:    string(ve.Kind),
		Field:   ve.Field,
	})
}

// drugLabel returns the canonical drug identifier for metrics, or "" when
// the drug is unknown
func (h *HTTPHandlerImpl) drugLabel(requested string, res *pkpd.Result) string {
	if res != nil {
		return res.Drug.ID
	}
	if drug, err := h.drugs.Lookup(requested); err == nil {
		return drug.ID
	}
	return ""
}

// translator picks the response language and announces it
func translator(w http.ResponseWriter, r *http.Request) *i18n.Translator {
	tr := i18n.FromHeader(r.Header.Get("Accept-Language"))
	w.Header().Set("Content-Language", tr.Language())
	return tr
}
