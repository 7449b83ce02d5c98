package prompts

import (
	"testing"

	"github.com/leadscout-ai/leadscout/pkg/errors"
)

func TestRender(t *testing.T) {
	got, err := Render("{industry} companies in {country}", "fintech", "Germany")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "fintech companies in Germany" {
		t.Errorf("Render = %q, want %q", got, "fintech companies in Germany")
	}
}

func TestRenderIdempotentOnResolvedText(t *testing.T) {
	resolved := "fintech companies in Germany, revenue > $10M"
	got, err := Render(resolved, "ignored", "ignored")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != resolved {
		t.Errorf("Render changed placeholder-free text: %q", got)
	}
}

func TestRenderRepeatedPlaceholders(t *testing.T) {
	got, err := Render("{industry} and more {industry} in {country}", "SaaS", "Spain")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "SaaS and more SaaS in Spain" {
		t.Errorf("Render = %q", got)
	}
}

func TestRenderMissingParameter(t *testing.T) {
	tests := []struct {
		name              string
		text              string
		industry, country string
	}{
		{"missing country", "leads in {country}", "fintech", ""},
		{"missing industry", "{industry} leads", "", "Germany"},
		{"both referenced one missing", "{industry} in {country}", "fintech", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Render(tc.text, tc.industry, tc.country)
			if !errors.IsCode(err, errors.CodeMissingParameter) {
				t.Errorf("expected MISSING_PARAMETER, got %v", err)
			}
		})
	}
}

func TestRenderMissingUnreferencedParameterOK(t *testing.T) {
	// A missing value only matters when the template references it.
	got, err := Render("companies in {country}", "", "Germany")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "companies in Germany" {
		t.Errorf("Render = %q", got)
	}
}

func TestRenderUnknownPlaceholder(t *testing.T) {
	_, err := Render("{industry} companies in {region}", "fintech", "Germany")
	if !errors.IsCode(err, errors.CodeMalformedTemplate) {
		t.Errorf("expected MALFORMED_TEMPLATE, got %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"{industry} in {country}", []string{"industry", "country"}},
		{"{country} then {industry} then {country}", []string{"country", "industry"}},
		{"no placeholders here", nil},
		{`JSON example: {"company_name": "Acme"}`, nil},
		{"{Custom_1} token", []string{"Custom_1"}},
	}
	for _, tc := range tests {
		got := Placeholders(tc.text)
		if len(got) != len(tc.want) {
			t.Errorf("Placeholders(%q) = %v, want %v", tc.text, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Placeholders(%q) = %v, want %v", tc.text, got, tc.want)
				break
			}
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	if err := ValidateTemplate("find {industry} leads in {country}"); err != nil {
		t.Errorf("expected valid template, got %v", err)
	}
	err := ValidateTemplate("find {industry} leads in {region}")
	if !errors.IsCode(err, errors.CodeMalformedTemplate) {
		t.Errorf("expected MALFORMED_TEMPLATE, got %v", err)
	}
}
