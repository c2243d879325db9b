package pkpd

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func analyzeCurve(t *testing.T, dose, vd, ke, interval float64, n int, mic float64, tt TargetType) Exposure {
	t.Helper()
	curve, err := Simulate(dose, vd, ke, interval, n)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	exp, err := Analyze(curve.Samples(), mic, interval, tt)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return exp
}

func TestAnalyzeReferenceRegimen(t *testing.T) {
	curve, _ := Simulate(1000, 49, 0.0708, 12, 200)
	exp, err := Analyze(curve.Samples(), 1, 12, TargetAUCMIC)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !approxEqual(exp.Cmax, 20.41, 0.005) {
		t.Errorf("Expected Cmax ~20.41, got %v", exp.Cmax)
	}
	if exp.Cmax != curve.At(0).Concentration {
		t.Errorf("Expected Cmax to be the first sample, got %v", exp.Cmax)
	}

	analytic := curve.AnalyticAUC()
	if rel := math.Abs(exp.AUC-analytic) / analytic; rel > 0.001 {
		t.Errorf("Trapezoidal AUC %v deviates %.4f%% from analytic %v", exp.AUC, rel*100, analytic)
	}
	if exp.Ratio == nil || !approxEqual(*exp.Ratio, exp.AUC, 1e-12) {
		t.Errorf("Expected AUC/MIC ratio equal to AUC for MIC 1, got %v", exp.Ratio)
	}
}

func TestTrapezoidConvergesQuadratically(t *testing.T) {
	curve, _ := Simulate(1500, 60, 0.05, 24, 2)
	analytic := curve.AnalyticAUC()

	prevErr := math.Inf(1)
	for _, n := range []int{11, 21, 41, 81, 161} {
		exp := analyzeCurve(t, 1500, 60, 0.05, 24, n, 1, TargetAUCMIC)
		errAbs := math.Abs(exp.AUC - analytic)

		// Halving the step should divide the error by about 4.
		if prevErr != math.Inf(1) {
			ratio := prevErr / errAbs
			if ratio < 3.5 || ratio > 4.5 {
				t.Errorf("n=%d: error ratio %v, expected ~4", n, ratio)
			}
		}
		prevErr = errAbs
	}
}

func TestAnalyzeRatioSelection(t *testing.T) {
	curve, _ := Simulate(1000, 49, 0.0708, 12, 200)

	auc, _ := Analyze(curve.Samples(), 2, 12, TargetAUCMIC)
	if auc.Ratio == nil || !approxEqual(*auc.Ratio, auc.AUC/2, 1e-12) {
		t.Errorf("Expected AUC/MIC ratio, got %v", auc.Ratio)
	}

	cmax, _ := Analyze(curve.Samples(), 2, 12, TargetCmaxMIC)
	if cmax.Ratio == nil || !approxEqual(*cmax.Ratio, cmax.Cmax/2, 1e-12) {
		t.Errorf("Expected Cmax/MIC ratio, got %v", cmax.Ratio)
	}

	tmic, _ := Analyze(curve.Samples(), 2, 12, TargetTimeMIC)
	if tmic.Ratio != nil {
		t.Errorf("Expected no ratio for Time>MIC, got %v", *tmic.Ratio)
	}
	if tmic.TimeAboveMICHours <= 0 || tmic.PercentTimeAboveMIC <= 0 {
		t.Errorf("Expected time above MIC, got %v h (%v%%)", tmic.TimeAboveMICHours, tmic.PercentTimeAboveMIC)
	}
}

func TestTimeAboveMICApproximation(t *testing.T) {
	const (
		dose, vd, ke, interval = 1000.0, 49.0, 0.0708, 12.0
		mic                    = 10.0
		n                      = 200
	)
	exp := analyzeCurve(t, dose, vd, ke, interval, n, mic, TargetTimeMIC)

	// C(t) = MIC at t = ln(C0/MIC)/ke
	exact := math.Log(dose/vd/mic) / ke
	step := interval / float64(n-1)
	if math.Abs(exp.TimeAboveMICHours-exact) > 2*step {
		t.Errorf("Time above MIC %v h too far from exact crossing %v h", exp.TimeAboveMICHours, exact)
	}
	if !approxEqual(exp.PercentTimeAboveMIC, 100*exp.TimeAboveMICHours/interval, 1e-9) {
		t.Errorf("Percentage %v inconsistent with hours %v", exp.PercentTimeAboveMIC, exp.TimeAboveMICHours)
	}
}

func TestTimeAboveMICIsStrict(t *testing.T) {
	samples := []Sample{{0, 4}, {1, 2}, {2, 1}, {3, 0.5}}
	exp, err := Analyze(slices.Values(samples), 2, 4, TargetTimeMIC)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// Only the first sample is strictly above 2: 1 * 4h / 4 samples.
	if exp.TimeAboveMICHours != 1 {
		t.Errorf("Expected 1 h above MIC, got %v", exp.TimeAboveMICHours)
	}
}

func TestAnalyzeMonotonicity(t *testing.T) {
	t.Run("increasing MIC decreases ratios", func(t *testing.T) {
		prevAUC, prevCmax := math.Inf(1), math.Inf(1)
		for _, mic := range []float64{0.1, 0.5, 1, 2, 8, 32, 64} {
			a := analyzeCurve(t, 1000, 49, 0.0708, 12, 200, mic, TargetAUCMIC)
			c := analyzeCurve(t, 1000, 49, 0.0708, 12, 200, mic, TargetCmaxMIC)
			if *a.Ratio >= prevAUC {
				t.Errorf("MIC %v: AUC/MIC %v not below %v", mic, *a.Ratio, prevAUC)
			}
			if *c.Ratio >= prevCmax {
				t.Errorf("MIC %v: Cmax/MIC %v not below %v", mic, *c.Ratio, prevCmax)
			}
			prevAUC, prevCmax = *a.Ratio, *c.Ratio
		}
	})

	t.Run("increasing dose increases exposure", func(t *testing.T) {
		var prev Exposure
		for i, dose := range []float64{100, 500, 1000, 2000, 3000} {
			// MIC chosen so the crossing moves inside the interval for every dose.
			e := analyzeCurve(t, dose, 49, 0.129, 48, 200, 1, TargetTimeMIC)
			if i > 0 {
				if e.AUC <= prev.AUC {
					t.Errorf("dose %v: AUC %v not above %v", dose, e.AUC, prev.AUC)
				}
				if e.Cmax <= prev.Cmax {
					t.Errorf("dose %v: Cmax %v not above %v", dose, e.Cmax, prev.Cmax)
				}
				if e.TimeAboveMICHours <= prev.TimeAboveMICHours {
					t.Errorf("dose %v: time above MIC %v not above %v", dose, e.TimeAboveMICHours, prev.TimeAboveMICHours)
				}
			}
			prev = e
		}
	})
}

func TestAnalyzeRejectsInvalidMIC(t *testing.T) {
	curve, _ := Simulate(1000, 49, 0.0708, 12, 200)
	for _, mic := range []float64{0, -1, math.NaN()} {
		_, err := Analyze(curve.Samples(), mic, 12, TargetAUCMIC)
		if !errors.Is(err, ErrInvalidMIC) {
			t.Errorf("MIC %v: expected ErrInvalidMIC, got %v", mic, err)
		}
	}
}

func TestAnalyzeRejectsUnknownTargetType(t *testing.T) {
	curve, _ := Simulate(1000, 49, 0.0708, 12, 200)
	_, err := Analyze(curve.Samples(), 1, 12, TargetType("Cmin/MIC"))
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
}
