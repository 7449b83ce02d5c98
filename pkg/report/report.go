// Package report renders the final lead list as a markdown research report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/leads"
)

// Build renders leads into the downloadable markdown report. Empty or
// missing fields are simply omitted from their sections.
func Build(results []leads.Lead) string {
	var b strings.Builder
	b.WriteString("# Lead Generation Report\n\n")

	if len(results) == 0 {
		b.WriteString("No results available.\n")
		return b.String()
	}

	for _, lead := range results {
		name := lead.CompanyName
		if name == "" {
			name = "Unnamed Company"
		}
		fmt.Fprintf(&b, "## %s\n\n", name)

		b.WriteString("### Company Information\n")
		if lead.Score > 0 {
			fmt.Fprintf(&b, "- **Score:** %s\n", formatScore(float64(lead.Score)))
		}
		if loc := lead.Location.String(); loc != "" {
			fmt.Fprintf(&b, "- **Location:** %s\n", loc)
		}
		if lead.WebsiteURL != "" {
			fmt.Fprintf(&b, "- **Website:** %s\n", lead.WebsiteURL)
		}
		if lead.NumEmployees > 0 {
			fmt.Fprintf(&b, "- **Employees:** %d\n", int(lead.NumEmployees))
		}
		if lead.AnnualRevenue != "" {
			fmt.Fprintf(&b, "- **Annual Revenue:** %s\n", string(lead.AnnualRevenue))
		}

		if lead.Review != "" {
			b.WriteString("\n### Overview\n")
			b.WriteString(lead.Review)
			b.WriteString("\n")
		}
		if lead.Assessment != "" {
			b.WriteString("\n### Assessment\n")
			b.WriteString(lead.Assessment)
			b.WriteString("\n")
		}
		if rec := lead.Recommendations(); rec != "" {
			b.WriteString("\n### Sales Recommendations\n")
			b.WriteString(rec)
			b.WriteString("\n")
		}
		if len(lead.KeyDecisionMakers) > 0 {
			b.WriteString("\n### Key Decision Makers\n")
			for _, person := range lead.KeyDecisionMakers {
				if person.LinkedIn != "" {
					fmt.Fprintf(&b, "- **%s** (%s) - [LinkedIn](%s)\n", person.Name, person.Role, person.LinkedIn)
				} else {
					fmt.Fprintf(&b, "- **%s** (%s)\n", person.Name, person.Role)
				}
			}
		}

		b.WriteString("\n---\n\n")
	}

	// Keep the machine-readable form alongside the prose.
	if raw, err := json.MarshalIndent(results, "", "  "); err == nil {
		b.WriteString("\n## Raw JSON Data\n\n```json\n")
		b.Write(raw)
		b.WriteString("\n```\n")
	}

	return b.String()
}

// formatScore prints whole scores without a trailing .0 to match how models
// report them.
func formatScore(score float64) string {
	if score == float64(int(score)) {
		return fmt.Sprintf("%d", int(score))
	}
	return fmt.Sprintf("%.1f", score)
}

// Filename returns the report filename for a pair of inputs, with spaces
// replaced so the name is shell-friendly.
func Filename(industry, country string) string {
	sanitize := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, " ", "_")
		s = strings.ReplaceAll(s, string(filepath.Separator), "_")
		return s
	}
	return fmt.Sprintf("lead_generation_report_%s_%s.md", sanitize(industry), sanitize(country))
}

// Write renders the report and writes it into dir, returning the full path.
func Write(dir, industry, country string, results []leads.Lead) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(errors.CodeInternal, "failed to create report directory", err).
			WithContext("dir", dir)
	}
	path := filepath.Join(dir, Filename(industry, country))
	if err := os.WriteFile(path, []byte(Build(results)), 0o644); err != nil {
		return "", errors.New(errors.CodeInternal, "failed to write report", err).
			WithContext("path", path)
	}
	return path, nil
}
