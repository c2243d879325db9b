package pkpd

import (
	"fmt"
	"math"
)

// Range is an inclusive numeric bound.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Limits are the clinical bounds accepted by the engine. Values outside them
// are rejected, never clamped.
type Limits struct {
	WeightKg            Range   `json:"weight_kg"`
	HeightCm            Range   `json:"height_cm"`
	AgeYears            Range   `json:"age_years"`
	CreatinineClearance Range   `json:"creatinine_clearance"`
	DoseMg              Range   `json:"dose_mg"`
	IntervalHours       Range   `json:"interval_hours"`
	IntervalStepHours   float64 `json:"interval_step_hours"`
	MIC                 Range   `json:"mic"`
}

// DefaultLimits returns the documented clinical ranges.
func DefaultLimits() Limits {
	return Limits{
		WeightKg:            Range{30, 200},
		HeightCm:            Range{140, 220},
		AgeYears:            Range{18, 100},
		CreatinineClearance: Range{10, 150},
		DoseMg:              Range{100, 3000},
		IntervalHours:       Range{6, 48},
		IntervalStepHours:   6,
		MIC:                 Range{0.1, 64},
	}
}

func checkRange(field string, v float64, r Range) error {
	if math.IsNaN(v) || !r.Contains(v) {
		return newError(KindOutOfRange, field, v, "%g is outside %s", v, r)
	}
	return nil
}

// ValidatePatient checks every field of p. Non physical values are reported
// as InvalidPhysiology before the range check.
func (l Limits) ValidatePatient(p PatientProfile) error {
	if !(p.WeightKg > 0) {
		return newError(KindInvalidPhysiology, "weight_kg", p.WeightKg, "weight must be positive")
	}
	if !(p.CreatinineClearance > 0) {
		return newError(KindInvalidPhysiology, "creatinine_clearance", p.CreatinineClearance, "creatinine clearance must be positive")
	}

	checks := []struct {
		field string
		value float64
		rng   Range
	}{
		{"weight_kg", p.WeightKg, l.WeightKg},
		{"height_cm", p.HeightCm, l.HeightCm},
		{"age_years", p.AgeYears, l.AgeYears},
		{"creatinine_clearance", p.CreatinineClearance, l.CreatinineClearance},
	}
	for _, c := range checks {
		if err := checkRange(c.field, c.value, c.rng); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRegimen checks r for the given mode. The dose is only checked in
// simulate mode since recommend mode solves for it.
func (l Limits) ValidateRegimen(r Regimen, mode Mode) error {
	if !(r.MIC > 0) {
		return newError(KindInvalidMIC, "mic", r.MIC, "MIC must be positive")
	}
	if err := checkRange("mic", r.MIC, l.MIC); err != nil {
		return err
	}

	if err := checkRange("interval_hours", r.IntervalHours, l.IntervalHours); err != nil {
		return err
	}
	if step := l.IntervalStepHours; step > 0 {
		n := (r.IntervalHours - l.IntervalHours.Min) / step
		if math.Abs(n-math.Round(n)) > 1e-9 {
			return newError(KindOutOfRange, "interval_hours", r.IntervalHours,
				"interval must be a multiple of %g h starting at %g h", step, l.IntervalHours.Min)
		}
	}

	if mode == ModeRecommend {
		return nil
	}
	if r.DoseMg < 0 || math.IsNaN(r.DoseMg) {
		return newError(KindInvalidDose, "dose_mg", r.DoseMg, "dose must not be negative")
	}
	return checkRange("dose_mg", r.DoseMg, l.DoseMg)
}
