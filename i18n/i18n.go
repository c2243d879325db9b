// Package i18n localizes the advisory texts returned by the API. English is
// the source language and the message key; French is the only translation.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/giygas/pkpd-api/pkpd"
)

// Supported lists the languages served, the first one being the default.
var Supported = []language.Tag{language.English, language.French}

var french = map[string]string{
	pkpd.AdviceMRSAPneumonia: "Viser un AUC/CMI >= 400 pendant 5 à 7 jours minimum (IDSA 2020).",
	pkpd.AdviceEndocarditis:  "Viser un AUC/CMI >= 500 pendant 4 à 6 semaines, selon la valve et la sensibilité.",
	pkpd.AdviceMeningitis:    "Viser un pic > 20-25 mg/L car la barrière hémato-méningée limite la diffusion. L'objectif n'est pas basé sur l'AUC.",
	pkpd.AdviceOsteomyelitis: "Viser un AUC/CMI >= 450 avec une exposition stable sur le long terme. Traitement souvent > 6 semaines.",
	pkpd.AdviceUTI:           "La diffusion urinaire est bonne, mais la pertinence de la molécule est discutable ici.",
	pkpd.AdviceEmpirical:     "Viser un AUC/CMI empirique >= 400. Utiliser les recommandations locales ou consulter l'infectiologue référent.",
	pkpd.Disclaimer:          "Ce modèle est une approximation à but pédagogique. Ne remplace pas un avis médical ou pharmacologique formel.",
	MsgValidationFailed:      "Échec de la validation",
	MsgUnknownDrug:           "Médicament inconnu",
	MsgMalformedBody:         "Corps de requête invalide",
}

// Messages of the HTTP layer.
const (
	MsgValidationFailed = "Validation failed"
	MsgUnknownDrug      = "Unknown drug"
	MsgMalformedBody    = "Malformed request body"
)

var (
	matcher = language.NewMatcher(Supported)
	cat     = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, fr := range french {
		if err := b.SetString(language.English, key, key); err != nil {
			panic(err)
		}
		if err := b.SetString(language.French, key, fr); err != nil {
			panic(err)
		}
	}
	return b
}

// Match picks the best supported language for an Accept-Language header.
// Empty or unparsable headers give English.
func Match(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return Supported[0]
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Translator renders message keys in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for tag, falling back to English for unknown tags.
func New(tag language.Tag) *Translator {
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// FromHeader is New(Match(acceptLanguage)).
func FromHeader(acceptLanguage string) *Translator {
	return New(Match(acceptLanguage))
}

// Language returns the BCP 47 tag in use.
func (t *Translator) Language() string {
	return t.tag.String()
}

// T translates key. Keys without a translation are returned unchanged.
func (t *Translator) T(key string) string {
	if key == "" {
		return ""
	}
	return t.printer.Sprintf(key)
}
