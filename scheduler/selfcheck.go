package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/giygas/pkpd-api/interfaces"
	"github.com/giygas/pkpd-api/pkpd"
)

// ReferenceCheck replays one known scenario through the engine
type ReferenceCheck struct {
	Name string
	Run  func(ev interfaces.Evaluator) error
}

var referencePatient = pkpd.PatientProfile{
	WeightKg:            70,
	HeightCm:            175,
	AgeYears:            60,
	CreatinineClearance: 80,
}

func referenceRequest(mode pkpd.Mode, ctx *pkpd.ClinicalContext) pkpd.Request {
	return pkpd.Request{
		Patient: referencePatient,
		DrugID:  "vancomycin",
		Context: ctx,
		Regimen: pkpd.Regimen{DoseMg: 1000, IntervalHours: 12, MIC: 1},
		Mode:    mode,
	}
}

func within(name string, got, want, relTol float64) error {
	if math.Abs(got-want) > relTol*math.Abs(want) {
		return fmt.Errorf("%s = %.6g, want %.6g (relative tolerance %g)", name, got, want, relTol)
	}
	return nil
}

// DefaultChecks returns the reference scenarios for vancomycin in a 70 kg
// patient with a creatinine clearance of 80 mL/min
func DefaultChecks() []ReferenceCheck {
	return []ReferenceCheck{
		{
			Name: "elimination",
			Run: func(ev interfaces.Evaluator) error {
				res, err := ev.Evaluate(referenceRequest(pkpd.ModeSimulate, nil))
				if err != nil {
					return err
				}
				return errors.Join(
					within("ke", res.Elimination.Ke, 0.0708, 1e-9),
					within("Vd", res.Elimination.VolumeL, 49, 1e-9),
					within("half-life", res.Elimination.HalfLifeHours, 9.790, 1e-3),
				)
			},
		},
		{
			Name: "auc",
			Run: func(ev interfaces.Evaluator) error {
				res, err := ev.Evaluate(referenceRequest(pkpd.ModeSimulate, nil))
				if err != nil {
					return err
				}
				return errors.Join(
					within("trapezoidal AUC", res.Exposure.AUC, res.AnalyticAUC, 1e-3),
					within("Cmax", res.Exposure.Cmax, 1000.0/49, 1e-9),
				)
			},
		},
		{
			Name: "recommend",
			Run: func(ev interfaces.Evaluator) error {
				ctx := pkpd.ClinicalContext{Site: pkpd.SiteEndocarditis, Organism: pkpd.OrganismMSSA}
				res, err := ev.Evaluate(referenceRequest(pkpd.ModeRecommend, &ctx))
				if err != nil {
					return err
				}
				if res.RecommendedDoseMg == nil {
					return errors.New("no dose recommended for endocarditis")
				}
				return within("recommended dose", *res.RecommendedDoseMg, 1734.6, 1e-4)
			},
		},
		{
			Name: "non-quantitative",
			Run: func(ev interfaces.Evaluator) error {
				ctx := pkpd.ClinicalContext{Site: pkpd.SiteUTI, Organism: pkpd.OrganismEColi}
				res, err := ev.Evaluate(referenceRequest(pkpd.ModeRecommend, &ctx))
				if err != nil {
					return err
				}
				if res.RecommendedDoseMg != nil || res.Target == nil || res.Target.IsQuantitative {
					return errors.New("urinary tract infection should have no quantitative target")
				}
				return nil
			},
		},
		{
			Name: "unknown-drug",
			Run: func(ev interfaces.Evaluator) error {
				req := referenceRequest(pkpd.ModeSimulate, nil)
				req.DrugID = "not-a-drug"
				if _, err := ev.Evaluate(req); !errors.Is(err, pkpd.ErrUnknownDrug) {
					return fmt.Errorf("expected an unknown drug error, got %v", err)
				}
				return nil
			},
		},
	}
}

// RunSelfCheck runs every check and reports each outcome. A panicking check
// fails without stopping the others.
func RunSelfCheck(ev interfaces.Evaluator, checks []ReferenceCheck) interfaces.SelfCheckReport {
	report := interfaces.SelfCheckReport{
		StartedAt: time.Now(),
		Passed:    true,
		Checks:    make([]interfaces.CheckResult, 0, len(checks)),
	}

	for _, c := range checks {
		result := interfaces.CheckResult{Name: c.Name, Passed: true}
		if err := runCheck(ev, c); err != nil {
			result.Passed = false
			result.Detail = err.Error()
			report.Passed = false
		}
		report.Checks = append(report.Checks, result)
	}

	report.FinishedAt = time.Now()
	return report
}

func runCheck(ev interfaces.Evaluator, c ReferenceCheck) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Run(ev)
}
