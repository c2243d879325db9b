package pkpd

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold reduces an identifier to its lookup key: accents stripped, case
// folded and every run of non alphanumeric characters collapsed to a single
// '-'. "Pipéracilline / Tazobactam" and "piperacilline-tazobactam" share a key.
func fold(s string) string {
	// Transformers and casers carry state, so they are built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	parts := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(parts, "-")
}

var siteAliases = map[string]Site{
	"pneumonia":               SitePneumonia,
	"pneumonie":               SitePneumonia,
	"endocarditis":            SiteEndocarditis,
	"endocardite":             SiteEndocarditis,
	"meningitis":              SiteMeningitis,
	"meningite":               SiteMeningitis,
	"uti":                     SiteUTI,
	"urinary-tract-infection": SiteUTI,
	"infection-urinaire":      SiteUTI,
	"sepsis":                  SiteSepsis,
	"osteomyelitis":           SiteOsteomyelitis,
	"osteomyelite":            SiteOsteomyelitis,
	"other":                   SiteOther,
	"autre":                   SiteOther,
}

var organismAliases = map[string]Organism{
	"mssa":                                 OrganismMSSA,
	"staphylococcus-aureus-sensible-mssa":  OrganismMSSA,
	"mrsa":                                 OrganismMRSA,
	"staphylococcus-aureus-resistant-mrsa": OrganismMRSA,
	"s-pneumoniae":                         OrganismSPneumoniae,
	"streptococcus-pneumoniae":             OrganismSPneumoniae,
	"p-aeruginosa":                         OrganismPAeruginosa,
	"pseudomonas-aeruginosa":               OrganismPAeruginosa,
	"e-coli":                               OrganismEColi,
	"escherichia-coli":                     OrganismEColi,
	"e-faecalis":                           OrganismEFaecalis,
	"enterococcus-faecalis":                OrganismEFaecalis,
	"empirical":                            OrganismEmpirical,
	"none":                                 OrganismEmpirical,
	"empirique":                            OrganismEmpirical,
	"aucun-empirique":                      OrganismEmpirical,
}

// ParseSite resolves an infection site from its English or French label.
// An empty label resolves to SiteOther.
func ParseSite(s string) (Site, error) {
	key := fold(s)
	if key == "" {
		return SiteOther, nil
	}
	if site, ok := siteAliases[key]; ok {
		return site, nil
	}
	return "", newError(KindOutOfRange, "site", s, "unknown infection site %q", s)
}

// ParseOrganism resolves an organism from its short name, full name or French
// label. An empty label resolves to OrganismEmpirical.
func ParseOrganism(s string) (Organism, error) {
	key := fold(s)
	if key == "" {
		return OrganismEmpirical, nil
	}
	if organism, ok := organismAliases[key]; ok {
		return organism, nil
	}
	return "", newError(KindOutOfRange, "organism", s, "unknown organism %q", s)
}

// ParseClinicalContext resolves both labels of a clinical context.
func ParseClinicalContext(site, organism string) (ClinicalContext, error) {
	s, err := ParseSite(site)
	if err != nil {
		return ClinicalContext{}, err
	}
	o, err := ParseOrganism(organism)
	if err != nil {
		return ClinicalContext{}, err
	}
	return ClinicalContext{Site: s, Organism: o}, nil
}
