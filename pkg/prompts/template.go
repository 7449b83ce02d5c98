package prompts

import (
	"regexp"
	"strings"

	"github.com/leadscout-ai/leadscout/pkg/errors"
)

// The recognized placeholder names. Every template string in the registry may
// reference these and nothing else; anything else is rejected at load time.
const (
	PlaceholderIndustry = "industry"
	PlaceholderCountry  = "country"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Placeholders returns the distinct placeholder names referenced by text, in
// order of first appearance.
func Placeholders(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// ValidateTemplate checks that text references only recognized placeholders.
func ValidateTemplate(text string) error {
	var unknown []string
	for _, name := range Placeholders(text) {
		if name != PlaceholderIndustry && name != PlaceholderCountry {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return errors.New(errors.CodeMalformedTemplate, "template references unknown placeholders", nil).
			WithContext("placeholders", unknown)
	}
	return nil
}

// Render substitutes every {industry} and {country} occurrence in text with
// the supplied values and returns the result verbatim otherwise. It is a pure
// string operation and idempotent on text that contains no placeholders.
func Render(text, industry, country string) (string, error) {
	for _, name := range Placeholders(text) {
		switch name {
		case PlaceholderIndustry:
			if industry == "" {
				return "", errors.New(errors.CodeMissingParameter, "industry value is required", nil).
					WithContext("placeholder", name)
			}
		case PlaceholderCountry:
			if country == "" {
				return "", errors.New(errors.CodeMissingParameter, "country value is required", nil).
					WithContext("placeholder", name)
			}
		default:
			return "", errors.New(errors.CodeMalformedTemplate, "template references unknown placeholders", nil).
				WithContext("placeholders", []string{name})
		}
	}
	r := strings.NewReplacer(
		"{"+PlaceholderIndustry+"}", industry,
		"{"+PlaceholderCountry+"}", country,
	)
	return r.Replace(text), nil
}
