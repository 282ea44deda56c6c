// Package i18n translates the error messages returned by the packing API.
// English, Portuguese and Dutch are supported; the locale comes from the
// Accept-Language header.
package i18n

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLocale is used when the client accepts none of the supported locales.
	DefaultLocale = "en"
	// AcceptLanguageHeader is the HTTP header name for language preference.
	AcceptLanguageHeader = "Accept-Language"
)

var (
	defaultTranslator *Translator
	translatorOnce    sync.Once
)

// Translator holds the messages of every supported locale.
type Translator struct {
	messages map[string]map[string]string
}

// NewTranslator creates a translator with the built-in messages.
func NewTranslator() *Translator {
	return &Translator{messages: getDefaultMessages()}
}

// GetTranslator returns the shared translator.
func GetTranslator() *Translator {
	translatorOnce.Do(func() {
		defaultTranslator = NewTranslator()
	})
	return defaultTranslator
}

// Translate returns the message for key in locale. Unknown locales and keys
// missing from a locale fall back to English; an unknown key is returned as is.
func (t *Translator) Translate(key, locale string) string {
	if msg, ok := t.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := t.messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Supports reports whether locale has translations.
func (t *Translator) Supports(locale string) bool {
	_, ok := t.messages[locale]
	return ok
}

// GetLocale picks the supported locale the client prefers most, honouring
// q-values ("fr;q=1, pt-BR;q=0.8" selects pt). Ties keep header order.
func GetLocale(c *gin.Context) string {
	return ParseAcceptLanguage(c.GetHeader(AcceptLanguageHeader), GetTranslator())
}

type languageRange struct {
	tag     string
	quality float64
}

// ParseAcceptLanguage returns the best locale in header supported by t, or
// DefaultLocale.
func ParseAcceptLanguage(header string, t *Translator) string {
	var ranges []languageRange
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		tag := strings.ToLower(strings.TrimSpace(fields[0]))
		if tag == "" || tag == "*" {
			continue
		}
		if idx := strings.Index(tag, "-"); idx > 0 {
			tag = tag[:idx]
		}

		quality := 1.0
		for _, param := range fields[1:] {
			param = strings.TrimSpace(param)
			if v, ok := strings.CutPrefix(param, "q="); ok {
				q, err := strconv.ParseFloat(v, 64)
				if err != nil {
					q = 0
				}
				quality = q
			}
		}
		if quality <= 0 {
			continue
		}
		ranges = append(ranges, languageRange{tag: tag, quality: quality})
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].quality > ranges[j].quality
	})
	for _, r := range ranges {
		if t.Supports(r.tag) {
			return r.tag
		}
	}
	return DefaultLocale
}

// SupportedLocales returns the locales with translations.
func SupportedLocales() []string {
	return []string{"en", "pt", "nl"}
}

// getDefaultMessages returns the default message translations.
func getDefaultMessages() map[string]map[string]string {
	return map[string]map[string]string{
		"en": {
			"error.invalid_request":          "Invalid request",
			"error.invalid_request_body":     "Invalid request body",
			"error.validation.products":      "products: every product needs a positive width, height, length and weight",
			"error.internal_error":           "An unexpected error occurred",
			"error.not_found":                "Not found",
			"error.rate_limit_exceeded":      "Too many requests, please try again later",
			"error.timeout":                  "Request timeout",
			"error.no_packaging_available":   "No packaging is available",
			"error.no_appropriate_packaging": "No single box can hold all the products",
			"error.service_unavailable":      "Service unavailable",
		},
		"pt": {
			"error.invalid_request":          "Requisição inválida",
			"error.invalid_request_body":     "Corpo da requisição inválido",
			"error.validation.products":      "products: cada produto precisa de largura, altura, comprimento e peso positivos",
			"error.internal_error":           "Ocorreu um erro inesperado",
			"error.not_found":                "Não encontrado",
			"error.rate_limit_exceeded":      "Muitas requisições, tente novamente mais tarde",
			"error.timeout":                  "Tempo limite da requisição excedido",
			"error.no_packaging_available":   "Nenhuma embalagem disponível",
			"error.no_appropriate_packaging": "Nenhuma caixa comporta todos os produtos",
			"error.service_unavailable":      "Serviço indisponível",
		},
		"nl": {
			"error.invalid_request":          "Ongeldig verzoek",
			"error.invalid_request_body":     "Ongeldige aanvraag body",
			"error.validation.products":      "products: elk product heeft een positieve breedte, hoogte, lengte en gewicht nodig",
			"error.internal_error":           "Er is een onverwachte fout opgetreden",
			"error.not_found":                "Niet gevonden",
			"error.rate_limit_exceeded":      "Te veel verzoeken, probeer het later opnieuw",
			"error.timeout":                  "Time-out van het verzoek",
			"error.no_packaging_available":   "Er is geen verpakking beschikbaar",
			"error.no_appropriate_packaging": "Geen enkele doos past alle producten",
			"error.service_unavailable":      "Dienst niet beschikbaar",
		},
	}
}
