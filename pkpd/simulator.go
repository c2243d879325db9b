package pkpd

import (
	"iter"
	"math"
)

// DefaultSampleCount is the number of curve samples when none is configured.
const DefaultSampleCount = 200

// Curve is the mono-exponential concentration-time curve of a single IV
// bolus, C(t) = dose/Vd * exp(-ke*t), sampled at Count evenly spaced points
// over [0, Interval] with both ends included. Samples are computed on demand
// and the sequence can be iterated any number of times.
type Curve struct {
	DoseMg   float64
	VolumeL  float64
	Ke       float64
	Interval float64
	Count    int
}

// Simulate validates its inputs and returns the curve. A zero dose is valid
// and gives a flat zero curve.
func Simulate(doseMg, volumeL, ke, intervalHours float64, sampleCount int) (Curve, error) {
	if doseMg < 0 || math.IsNaN(doseMg) {
		return Curve{}, newError(KindInvalidDose, "dose_mg", doseMg, "dose must not be negative")
	}
	if !(volumeL > 0) {
		return Curve{}, newError(KindInvalidPhysiology, "vd_l", volumeL, "volume of distribution must be positive")
	}
	if !(ke > 0) {
		return Curve{}, newError(KindInvalidPhysiology, "ke", ke, "elimination rate constant must be positive")
	}
	if !(intervalHours > 0) {
		return Curve{}, newError(KindOutOfRange, "interval_hours", intervalHours, "dosing interval must be positive")
	}
	if sampleCount < 2 {
		return Curve{}, newError(KindOutOfRange, "sample_count", sampleCount, "at least 2 samples are required")
	}

	return Curve{
		DoseMg:   doseMg,
		VolumeL:  volumeL,
		Ke:       ke,
		Interval: intervalHours,
		Count:    sampleCount,
	}, nil
}

// C0 is the concentration at t=0, dose/Vd.
func (c Curve) C0() float64 {
	return c.DoseMg / c.VolumeL
}

// ConcentrationAt evaluates the closed form at time t (hours).
func (c Curve) ConcentrationAt(t float64) float64 {
	return c.C0() * math.Exp(-c.Ke*t)
}

// Step is the spacing between two consecutive samples.
func (c Curve) Step() float64 {
	return c.Interval / float64(c.Count-1)
}

// At returns the i-th sample. The last sample sits exactly on Interval.
func (c Curve) At(i int) Sample {
	t := float64(i) * c.Step()
	if i == c.Count-1 {
		t = c.Interval
	}
	return Sample{TimeH: t, Concentration: c.ConcentrationAt(t)}
}

// Samples yields every sample in time order.
func (c Curve) Samples() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for i := 0; i < c.Count; i++ {
			if !yield(c.At(i)) {
				return
			}
		}
	}
}

// Collect materializes the samples.
func (c Curve) Collect() []Sample {
	out := make([]Sample, 0, c.Count)
	for s := range c.Samples() {
		out = append(out, s)
	}
	return out
}

// AnalyticAUC is the exact integral of the curve over [0, Interval]:
// dose/(Vd*ke) * (1 - exp(-ke*Interval)).
func (c Curve) AnalyticAUC() float64 {
	return c.DoseMg / (c.VolumeL * c.Ke) * (1 - math.Exp(-c.Ke*c.Interval))
}
