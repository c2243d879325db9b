package pkpd

import "math"

// Matzke-derived linear approximation of ke from creatinine clearance. Only
// meaningful inside the validated clearance range (10-150 mL/min).
const (
	keSlope     = 0.00083 // 1/h per mL/min
	keIntercept = 0.0044  // 1/h
)

// EliminationRate returns ke (1/h) for a creatinine clearance in mL/min.
func EliminationRate(creatinineClearance float64) float64 {
	return keSlope*creatinineClearance + keIntercept
}

// ComputeElimination derives the one-compartment model: Vd = coefficient *
// weight, ke from creatinine clearance and half-life = ln(2)/ke.
func ComputeElimination(weightKg, creatinineClearance, vdCoefficient float64) (Elimination, error) {
	if !(weightKg > 0) {
		return Elimination{}, newError(KindInvalidPhysiology, "weight_kg", weightKg, "weight must be positive")
	}
	if !(creatinineClearance > 0) {
		return Elimination{}, newError(KindInvalidPhysiology, "creatinine_clearance", creatinineClearance, "creatinine clearance must be positive")
	}
	if !(vdCoefficient > 0) {
		return Elimination{}, newError(KindInvalidPhysiology, "vd_coefficient", vdCoefficient, "Vd coefficient must be positive")
	}

	ke := EliminationRate(creatinineClearance)
	return Elimination{
		VolumeL:       vdCoefficient * weightKg,
		Ke:            ke,
		HalfLifeHours: math.Ln2 / ke,
	}, nil
}
