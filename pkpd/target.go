package pkpd

// Advisory messages. They double as message keys for the translation catalog.
const (
	AdviceMRSAPneumonia = "Aim for AUC/MIC >= 400 for at least 5 to 7 days (IDSA 2020)."
	AdviceEndocarditis  = "Aim for AUC/MIC >= 500 for 4 to 6 weeks depending on the valve and susceptibility."
	AdviceMeningitis    = "Aim for a peak above 20-25 mg/L: the blood-brain barrier limits diffusion. The target is not AUC based."
	AdviceOsteomyelitis = "Aim for AUC/MIC >= 450 with stable long-term exposure. Treatment often lasts more than 6 weeks."
	AdviceUTI           = "Urinary diffusion is adequate but the agent is often inappropriate for this indication."
	AdviceEmpirical     = "Aim for an empirical AUC/MIC >= 400. Follow local guidelines or consult the infectious disease referent."
)

// TargetRule maps a clinical context to a target. An empty Site or Organism
// matches any value.
type TargetRule struct {
	Name           string
	Site           Site
	Organism       Organism
	TargetAUC      float64
	Recommendation string
}

// Matches reports whether the rule applies. The site is compared first.
func (r TargetRule) Matches(ctx ClinicalContext) bool {
	if r.Site != "" && r.Site != ctx.Site {
		return false
	}
	if r.Organism != "" && r.Organism != ctx.Organism {
		return false
	}
	return true
}

// TargetRules is an ordered decision table. The first matching rule wins, so
// specific rules must precede general ones and the last rule should match
// everything.
type TargetRules []TargetRule

// DefaultTargetRules is the built-in clinical decision table.
func DefaultTargetRules() TargetRules {
	return TargetRules{
		{Name: "mrsa-pneumonia", Site: SitePneumonia, Organism: OrganismMRSA, TargetAUC: 400, Recommendation: AdviceMRSAPneumonia},
		{Name: "endocarditis", Site: SiteEndocarditis, TargetAUC: 500, Recommendation: AdviceEndocarditis},
		{Name: "meningitis", Site: SiteMeningitis, TargetAUC: 0, Recommendation: AdviceMeningitis},
		{Name: "osteomyelitis", Site: SiteOsteomyelitis, TargetAUC: 450, Recommendation: AdviceOsteomyelitis},
		{Name: "uti", Site: SiteUTI, TargetAUC: 0, Recommendation: AdviceUTI},
		{Name: "empirical", TargetAUC: 400, Recommendation: AdviceEmpirical},
	}
}

// Match returns the first rule matching ctx.
func (rules TargetRules) Match(ctx ClinicalContext) (TargetRule, bool) {
	for _, r := range rules {
		if r.Matches(ctx) {
			return r, true
		}
	}
	return TargetRule{}, false
}

// Evaluate returns the target for ctx. Without a matching rule the context
// gets no quantitative target and no advice.
func (rules TargetRules) Evaluate(ctx ClinicalContext) TargetAssessment {
	r, ok := rules.Match(ctx)
	if !ok {
		return TargetAssessment{}
	}
	return TargetAssessment{
		TargetAUC:      r.TargetAUC,
		Recommendation: r.Recommendation,
		IsQuantitative: r.TargetAUC > 0,
	}
}

// EvaluateTarget applies the default decision table.
func EvaluateTarget(site Site, organism Organism) TargetAssessment {
	return DefaultTargetRules().Evaluate(ClinicalContext{Site: site, Organism: organism})
}

// RecommendDose returns targetAUC * ke * Vd. A zero or negative target gives
// no recommendation (0).
//
// This is an approximation, not the inverse of the finite-interval
// trapezoidal AUC returned by Analyze: feeding the recommended dose back
// through Simulate and Analyze does not reproduce targetAUC.
func RecommendDose(targetAUC, ke, volumeL float64) float64 {
	if targetAUC <= 0 {
		return 0
	}
	return targetAUC * ke * volumeL
}
