package pkpd

import (
	"fmt"
	"slices"
)

// Registry is an immutable drug identifier -> DrugProfile table. Lookups are
// case, accent and separator insensitive and also match aliases.
type Registry struct {
	drugs []DrugProfile
	index map[string]int
}

// NewRegistry builds a registry from profiles. The input is copied. Profiles
// with an empty ID, a non positive Vd coefficient, an unknown target type or
// a key colliding with another entry are rejected.
func NewRegistry(profiles []DrugProfile) (*Registry, error) {
	r := &Registry{
		drugs: make([]DrugProfile, 0, len(profiles)),
		index: make(map[string]int, len(profiles)*2),
	}

	for _, p := range profiles {
		if fold(p.ID) == "" {
			return nil, fmt.Errorf("drug profile %q: empty identifier", p.Name)
		}
		if p.VdCoefficient <= 0 {
			return nil, fmt.Errorf("drug profile %q: Vd coefficient must be positive, got %g", p.ID, p.VdCoefficient)
		}
		if !p.TargetType.Valid() {
			return nil, fmt.Errorf("drug profile %q: unknown target type %q", p.ID, p.TargetType)
		}

		p.Aliases = slices.Clone(p.Aliases)
		pos := len(r.drugs)
		r.drugs = append(r.drugs, p)

		for _, key := range append([]string{p.ID, p.Name}, p.Aliases...) {
			k := fold(key)
			if k == "" {
				continue
			}
			if prev, exists := r.index[k]; exists && prev != pos {
				return nil, fmt.Errorf("drug profile %q: key %q already used by %q", p.ID, key, r.drugs[prev].ID)
			}
			r.index[k] = pos
		}
	}

	return r, nil
}

// MustNewRegistry is NewRegistry for static tables.
func MustNewRegistry(profiles []DrugProfile) *Registry {
	r, err := NewRegistry(profiles)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the profile registered under drugID or one of its aliases.
func (r *Registry) Lookup(drugID string) (DrugProfile, error) {
	if r != nil {
		if pos, ok := r.index[fold(drugID)]; ok {
			p := r.drugs[pos]
			p.Aliases = slices.Clone(p.Aliases)
			return p, nil
		}
	}
	return DrugProfile{}, newError(KindUnknownDrug, "drug", drugID, "no drug registered as %q", drugID)
}

// Drugs returns every profile in registration order.
func (r *Registry) Drugs() []DrugProfile {
	if r == nil {
		return nil
	}
	out := make([]DrugProfile, len(r.drugs))
	for i, p := range r.drugs {
		p.Aliases = slices.Clone(p.Aliases)
		out[i] = p
	}
	return out
}

// Len returns the number of registered drugs.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.drugs)
}

// DefaultProfiles is the built-in antibiotic table.
func DefaultProfiles() []DrugProfile {
	return []DrugProfile{
		{
			ID: "vancomycin", Name: "Vancomycin", VdCoefficient: 0.7,
			TargetType: TargetAUCMIC, TargetDescription: "AUC/MIC >= 400",
			Aliases: []string{"vancomycine", "vanco"},
		},
		{
			ID: "piperacillin-tazobactam", Name: "Piperacillin/Tazobactam", VdCoefficient: 0.3,
			TargetType: TargetTimeMIC, TargetDescription: "%T>MIC >= 50%",
			Aliases: []string{"piperacilline-tazobactam", "pip-tazo", "tazocilline"},
		},
		{
			ID: "cefepime", Name: "Cefepime", VdCoefficient: 0.3,
			TargetType: TargetTimeMIC, TargetDescription: "%T>MIC >= 60-70%",
		},
		{
			ID: "meropenem", Name: "Meropenem", VdCoefficient: 0.3,
			TargetType: TargetTimeMIC, TargetDescription: "%T>MIC >= 40%",
		},
		{
			ID: "gentamicin", Name: "Gentamicin", VdCoefficient: 0.25,
			TargetType: TargetCmaxMIC, TargetDescription: "Cmax/MIC >= 8-10",
			Aliases: []string{"gentamicine"},
		},
		{
			ID: "amikacin", Name: "Amikacin", VdCoefficient: 0.25,
			TargetType: TargetCmaxMIC, TargetDescription: "Cmax/MIC >= 8-10",
			Aliases: []string{"amikacine"},
		},
		{
			ID: "ceftazidime", Name: "Ceftazidime", VdCoefficient: 0.3,
			TargetType: TargetTimeMIC, TargetDescription: "%T>MIC >= 60-70%",
		},
		{
			ID: "ciprofloxacin", Name: "Ciprofloxacin", VdCoefficient: 2.5,
			TargetType: TargetAUCMIC, TargetDescription: "AUC/MIC >= 125",
			Aliases: []string{"ciprofloxacine"},
		},
		{
			ID: "amoxicillin-clavulanate-500-125", Name: "Amoxicillin/Clavulanate 500/125 mg", VdCoefficient: 0.3,
			TargetType: TargetTimeMIC, TargetDescription: "%T>MIC >= 40%",
			Aliases: []string{"amoxicilline-acide-clavulanique-500-125", "augmentin-500"},
		},
		{
			ID: "amoxicillin-clavulanate-875-125", Name: "Amoxicillin/Clavulanate 875/125 mg", VdCoefficient: 0.3,
			TargetType: TargetTimeMIC, TargetDescription: "%T>MIC >= 40%",
			Aliases: []string{"amoxicilline-acide-clavulanique-875-125", "augmentin-875"},
		},
		{
			ID: "amoxicillin", Name: "Amoxicillin", VdCoefficient: 0.3,
			TargetType: TargetTimeMIC, TargetDescription: "%T>MIC >= 40%",
			Aliases: []string{"amoxicilline"},
		},
	}
}

// DefaultRegistry returns a registry over DefaultProfiles.
func DefaultRegistry() *Registry {
	return MustNewRegistry(DefaultProfiles())
}
