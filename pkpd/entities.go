// Package pkpd computes pharmacokinetic/pharmacodynamic exposure metrics for
// antibiotic dosing with a single-dose, one-compartment, first-order
// elimination model.
//
// The engine derives an elimination model from patient physiology, simulates
// the concentration-time curve over one dosing interval, integrates exposure
// and evaluates the result against a PK/PD target, or solves for the dose that
// reaches a target AUC/MIC.
package pkpd

import "fmt"

// TargetType is the PK/PD index a drug's efficacy is driven by.
type TargetType string

const (
	TargetAUCMIC  TargetType = "AUC/MIC"
	TargetCmaxMIC TargetType = "Cmax/MIC"
	TargetTimeMIC TargetType = "Time>MIC"
)

// Valid reports whether t is one of the known target types.
func (t TargetType) Valid() bool {
	switch t {
	case TargetAUCMIC, TargetCmaxMIC, TargetTimeMIC:
		return true
	}
	return false
}

// Site is the infection site of the clinical context.
type Site string

const (
	SitePneumonia     Site = "Pneumonia"
	SiteEndocarditis  Site = "Endocarditis"
	SiteMeningitis    Site = "Meningitis"
	SiteUTI           Site = "UTI"
	SiteSepsis        Site = "Sepsis"
	SiteOsteomyelitis Site = "Osteomyelitis"
	SiteOther         Site = "Other"
)

// Sites lists every infection site in display order.
var Sites = []Site{
	SitePneumonia, SiteEndocarditis, SiteMeningitis, SiteUTI,
	SiteSepsis, SiteOsteomyelitis, SiteOther,
}

// Organism is the suspected or identified pathogen.
type Organism string

const (
	OrganismMSSA        Organism = "MSSA"
	OrganismMRSA        Organism = "MRSA"
	OrganismSPneumoniae Organism = "S. pneumoniae"
	OrganismPAeruginosa Organism = "P. aeruginosa"
	OrganismEColi       Organism = "E. coli"
	OrganismEFaecalis   Organism = "E. faecalis"
	OrganismEmpirical   Organism = "Empirical"
)

// Organisms lists every organism in display order.
var Organisms = []Organism{
	OrganismMSSA, OrganismMRSA, OrganismSPneumoniae, OrganismPAeruginosa,
	OrganismEColi, OrganismEFaecalis, OrganismEmpirical,
}

// PatientProfile holds the physiology the elimination model is derived from.
type PatientProfile struct {
	WeightKg            float64 `json:"weight_kg"`
	HeightCm            float64 `json:"height_cm"`
	AgeYears            float64 `json:"age_years"`
	CreatinineClearance float64 `json:"creatinine_clearance"` // mL/min
}

// DrugProfile describes a drug's distribution and its PK/PD target.
type DrugProfile struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	VdCoefficient     float64    `json:"vd_coefficient"` // L/kg
	TargetType        TargetType `json:"target_type"`
	TargetDescription string     `json:"target_description"`
	Aliases           []string   `json:"aliases,omitempty"`
}

// Regimen is the dosing schedule under evaluation. DoseMg is ignored in
// recommend mode.
type Regimen struct {
	DoseMg        float64 `json:"dose_mg"`
	IntervalHours float64 `json:"interval_hours"`
	MIC           float64 `json:"mic"` // mg/L
}

// ClinicalContext selects the PK/PD target. It never changes the numeric model.
type ClinicalContext struct {
	Site     Site     `json:"site"`
	Organism Organism `json:"organism"`
}

// Mode selects between evaluating a given dose and recommending one.
type Mode string

const (
	ModeSimulate  Mode = "simulate"
	ModeRecommend Mode = "recommend"
)

// ParseMode parses a mode tag. An empty string means simulate.
func ParseMode(s string) (Mode, error) {
	switch Mode(fold(s)) {
	case "", ModeSimulate:
		return ModeSimulate, nil
	case ModeRecommend:
		return ModeRecommend, nil
	}
	return "", newError(KindOutOfRange, "mode", s, "mode must be %q or %q", ModeSimulate, ModeRecommend)
}

// Sample is one point of the concentration-time curve.
type Sample struct {
	TimeH         float64 `json:"t"`
	Concentration float64 `json:"c"`
}

// Elimination is the derived one-compartment model.
type Elimination struct {
	VolumeL       float64 `json:"vd_l"`
	Ke            float64 `json:"ke_per_h"`
	HalfLifeHours float64 `json:"half_life_h"`
}

// Exposure holds the metrics integrated from a curve.
type Exposure struct {
	AUC                 float64    `json:"auc"`
	Cmax                float64    `json:"cmax"`
	TimeAboveMICHours   float64    `json:"time_above_mic_h"`
	PercentTimeAboveMIC float64    `json:"percent_time_above_mic"`
	TargetType          TargetType `json:"target_type"`

	// Ratio is AUC/MIC or Cmax/MIC depending on TargetType, nil for Time>MIC.
	Ratio *float64 `json:"ratio,omitempty"`
}

// TargetAssessment is the clinical target selected for a context.
type TargetAssessment struct {
	TargetAUC      float64 `json:"target_auc_mic"`
	Recommendation string  `json:"recommendation"`
	IsQuantitative bool    `json:"is_quantitative"`

	// Attained is set once a result is available: AUC/MIC >= TargetAUC.
	Attained *bool `json:"attained,omitempty"`
}

// Result is the full report of one evaluation.
type Result struct {
	Mode        Mode        `json:"mode"`
	Drug        DrugProfile `json:"drug"`
	Elimination Elimination `json:"elimination"`
	Exposure    Exposure    `json:"exposure"`
	AnalyticAUC float64     `json:"analytic_auc"`
	MIC         float64     `json:"mic"`
	DoseMg      float64     `json:"dose_mg"`

	// RecommendedDoseMg is only set in recommend mode.
	RecommendedDoseMg *float64          `json:"recommended_dose_mg,omitempty"`
	Target            *TargetAssessment `json:"target,omitempty"`
	Samples           []Sample          `json:"samples"`
	Disclaimer        string            `json:"disclaimer"`
}

// Disclaimer accompanies every result.
const Disclaimer = "This model is an educational approximation. It does not replace a formal medical or pharmacological opinion."

func (s Site) String() string     { return string(s) }
func (o Organism) String() string { return string(o) }

func (c ClinicalContext) String() string {
	return fmt.Sprintf("%s/%s", c.Site, c.Organism)
}
