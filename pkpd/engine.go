package pkpd

// DrugLookup resolves a drug identifier. *Registry implements it.
type DrugLookup interface {
	Lookup(drugID string) (DrugProfile, error)
}

// Request is one evaluation. Drug, when set, takes precedence over DrugID.
// Context is optional: recommend mode without a context uses the empirical
// target.
type Request struct {
	Patient PatientProfile
	DrugID  string
	Drug    *DrugProfile
	Context *ClinicalContext
	Regimen Regimen
	Mode    Mode
}

// Engine runs evaluations against an injected registry and decision table.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	drugs       DrugLookup
	rules       TargetRules
	limits      Limits
	sampleCount int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the built-in drug table.
func WithRegistry(drugs DrugLookup) Option {
	return func(e *Engine) { e.drugs = drugs }
}

// WithTargetRules replaces the built-in decision table.
func WithTargetRules(rules TargetRules) Option {
	return func(e *Engine) { e.rules = append(TargetRules(nil), rules...) }
}

// WithLimits replaces the clinical validation ranges.
func WithLimits(limits Limits) Option {
	return func(e *Engine) { e.limits = limits }
}

// WithSampleCount sets the number of curve samples. Values below 2 are ignored.
func WithSampleCount(n int) Option {
	return func(e *Engine) {
		if n >= 2 {
			e.sampleCount = n
		}
	}
}

// NewEngine returns an engine over the default registry, decision table and
// limits unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		drugs:       DefaultRegistry(),
		rules:       DefaultTargetRules(),
		limits:      DefaultLimits(),
		sampleCount: DefaultSampleCount,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Limits returns the validation ranges in use.
func (e *Engine) Limits() Limits { return e.limits }

// SampleCount returns the number of samples per curve.
func (e *Engine) SampleCount() int { return e.sampleCount }

// Lookup resolves a drug through the injected registry.
func (e *Engine) Lookup(drugID string) (DrugProfile, error) {
	return e.drugs.Lookup(drugID)
}

// Target evaluates a clinical context against the decision table.
func (e *Engine) Target(ctx ClinicalContext) TargetAssessment {
	return e.rules.Evaluate(ctx)
}

// Evaluate runs the full pipeline: drug resolution, input validation,
// elimination model, target selection, dose (given or recommended),
// simulation and exposure analysis.
func (e *Engine) Evaluate(req Request) (*Result, error) {
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	drug, err := e.resolveDrug(req)
	if err != nil {
		return nil, err
	}

	if err := e.limits.ValidatePatient(req.Patient); err != nil {
		return nil, err
	}
	if err := e.limits.ValidateRegimen(req.Regimen, mode); err != nil {
		return nil, err
	}

	elim, err := ComputeElimination(req.Patient.WeightKg, req.Patient.CreatinineClearance, drug.VdCoefficient)
	if err != nil {
		return nil, err
	}

	var target *TargetAssessment
	switch {
	case req.Context != nil:
		t := e.rules.Evaluate(*req.Context)
		target = &t
	case mode == ModeRecommend:
		t := e.rules.Evaluate(ClinicalContext{Site: SiteOther, Organism: OrganismEmpirical})
		target = &t
	}

	dose := req.Regimen.DoseMg
	var recommended *float64
	if mode == ModeRecommend {
		dose = 0
		if target.IsQuantitative {
			d := RecommendDose(target.TargetAUC, elim.Ke, elim.VolumeL)
			recommended = &d
			dose = d
		}
	}

	curve, err := Simulate(dose, elim.VolumeL, elim.Ke, req.Regimen.IntervalHours, e.sampleCount)
	if err != nil {
		return nil, err
	}
	exposure, err := Analyze(curve.Samples(), req.Regimen.MIC, req.Regimen.IntervalHours, drug.TargetType)
	if err != nil {
		return nil, err
	}

	if target != nil && target.IsQuantitative {
		attained := exposure.AUCMIC(req.Regimen.MIC) >= target.TargetAUC
		target.Attained = &attained
	}

	return &Result{
		Mode:              mode,
		Drug:              drug,
		Elimination:       elim,
		Exposure:          exposure,
		AnalyticAUC:       curve.AnalyticAUC(),
		MIC:               req.Regimen.MIC,
		DoseMg:            dose,
		RecommendedDoseMg: recommended,
		Target:            target,
		Samples:           curve.Collect(),
		Disclaimer:        Disclaimer,
	}, nil
}

func (e *Engine) resolveDrug(req Request) (DrugProfile, error) {
	if req.Drug == nil {
		return e.drugs.Lookup(req.DrugID)
	}

	d := *req.Drug
	if !(d.VdCoefficient > 0) {
		return DrugProfile{}, newError(KindInvalidPhysiology, "vd_coefficient", d.VdCoefficient, "Vd coefficient must be positive")
	}
	if !d.TargetType.Valid() {
		return DrugProfile{}, newError(KindOutOfRange, "target_type", d.TargetType, "unknown target type %q", d.TargetType)
	}
	return d, nil
}
