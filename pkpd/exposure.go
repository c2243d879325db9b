package pkpd

import (
	"iter"
	"math"
)

// Analyze integrates a sampled curve over one dosing interval.
//
// AUC uses the trapezoidal rule over consecutive samples. Cmax is the largest
// sampled concentration. Time above MIC counts the samples strictly above the
// MIC and scales the count by interval/len(samples): it approximates the true
// crossing time with an error of roughly one sampling step, the samples next
// to the crossing being either fully counted or ignored.
//
// The ratio follows targetType: AUC/mic, Cmax/mic, or none for Time>MIC where
// the hours and the percentage of the interval are the result.
func Analyze(samples iter.Seq[Sample], mic, intervalHours float64, targetType TargetType) (Exposure, error) {
	if !(mic > 0) {
		return Exposure{}, newError(KindInvalidMIC, "mic", mic, "MIC must be positive")
	}
	if !(intervalHours > 0) {
		return Exposure{}, newError(KindOutOfRange, "interval_hours", intervalHours, "dosing interval must be positive")
	}
	if !targetType.Valid() {
		return Exposure{}, newError(KindOutOfRange, "target_type", targetType, "unknown target type %q", targetType)
	}

	var (
		auc   float64
		cmax  = math.Inf(-1)
		above int
		count int
		prev  Sample
	)
	for s := range samples {
		if count > 0 {
			auc += (s.TimeH - prev.TimeH) * (s.Concentration + prev.Concentration) / 2
		}
		if s.Concentration > cmax {
			cmax = s.Concentration
		}
		if s.Concentration > mic {
			above++
		}
		prev = s
		count++
	}
	if count == 0 {
		cmax = 0
	}

	out := Exposure{
		AUC:        auc,
		Cmax:       cmax,
		TargetType: targetType,
	}
	if count > 0 {
		out.TimeAboveMICHours = float64(above) * intervalHours / float64(count)
		out.PercentTimeAboveMIC = 100 * out.TimeAboveMICHours / intervalHours
	}

	switch targetType {
	case TargetAUCMIC:
		ratio := auc / mic
		out.Ratio = &ratio
	case TargetCmaxMIC:
		ratio := cmax / mic
		out.Ratio = &ratio
	}

	return out, nil
}

// AUCMIC returns AUC/MIC regardless of the drug's target type.
func (e Exposure) AUCMIC(mic float64) float64 {
	if mic <= 0 {
		return 0
	}
	return e.AUC / mic
}
