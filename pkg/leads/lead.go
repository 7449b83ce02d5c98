// Package leads defines the lead data model produced by the crew and the
// parsing of model output into it.
package leads

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Lead is one researched and scored company.
type Lead struct {
	CompanyName          string          `json:"company_name"`
	AnnualRevenue        FlexString      `json:"annual_revenue,omitempty"`
	Location             Location        `json:"location,omitempty"`
	WebsiteURL           string          `json:"website_url,omitempty"`
	Review               string          `json:"review,omitempty"`
	NumEmployees         FlexInt         `json:"num_employees,omitempty"`
	KeyDecisionMakers    []DecisionMaker `json:"key_decision_makers,omitempty"`
	Score                FlexFloat       `json:"score,omitempty"`
	Assessment           string          `json:"assessment,omitempty"`
	SalesRecommendations string          `json:"sales_recommendations,omitempty"`
	Recommendation       string          `json:"recommendation,omitempty"`
}

// Recommendations returns whichever recommendation field the model populated.
func (l Lead) Recommendations() string {
	if l.SalesRecommendations != "" {
		return l.SalesRecommendations
	}
	return l.Recommendation
}

// DecisionMaker is a key person at a lead company.
type DecisionMaker struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Location is a company location. Models emit it either as an object with
// city and country fields or as a plain string, so unmarshalling accepts both.
type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		city, country, found := strings.Cut(s, ",")
		if found {
			l.City = strings.TrimSpace(city)
			l.Country = strings.TrimSpace(country)
		} else {
			l.City = strings.TrimSpace(s)
		}
		return nil
	}
	type plain Location
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// String renders the location as "City, Country", omitting empty parts.
func (l Location) String() string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.City != "":
		return l.City
	default:
		return l.Country
	}
}

// FlexString accepts a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexInt accepts a JSON number or a numeric string like "250" or "250+".
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Tolerate floats emitted for counts.
		var fl float64
		if err := json.Unmarshal(data, &fl); err != nil {
			return err
		}
		*f = FlexInt(int(fl))
		return nil
	}
	s = strings.TrimFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if s == "" {
		*f = 0
		return nil
	}
	parsed, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(parsed)
	return nil
}

// FlexFloat accepts a JSON number or numeric string. Used for the fit score,
// which models emit as 8, 8.5, or "8".
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(parsed)
	return nil
}
