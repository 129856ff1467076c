// Package onboarding turns a first-run preference questionnaire into an
// initial persona. Submissions are validated against an embedded JSON
// Schema before decoding, so malformed client payloads are rejected with a
// useful error instead of silently producing a skewed persona.
package onboarding

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mfaleiro/kaori/internal/kaori/persona"
)

//go:embed schema.json
var schemaJSON string

var submissionSchema = jsonschema.MustCompileString("onboarding/schema.json", schemaJSON)

// Submission is the decoded onboarding questionnaire. All fields are
// optional — an empty submission still yields a valid (neutral-ish)
// initial persona.
type Submission struct {
	BudgetRange       string   `json:"budgetRange,omitempty"`
	Categories        []string `json:"categories,omitempty"`
	Brands            string   `json:"brands,omitempty"` // comma-separated
	QualityVsPrice    int      `json:"qualityVsPrice,omitempty"`
	Household         string   `json:"household,omitempty"`
	ShoppingFrequency string   `json:"shoppingFrequency,omitempty"`
	Retailers         []string `json:"retailers,omitempty"`
}

// Parse validates raw JSON against the submission schema and decodes it.
func Parse(data []byte) (*Submission, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("onboarding: invalid JSON: %w", err)
	}
	if err := submissionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("onboarding: submission rejected: %w", err)
	}

	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("onboarding: decode: %w", err)
	}
	return &sub, nil
}

// householdSizes maps the questionnaire's household choice to a member count.
var householdSizes = map[string]int{
	"living-alone": 1,
	"couple":       2,
	"shared":       3,
	"family":       4,
}

// budgetRangeAOV maps the coarse budget band to a representative average
// order value used to seed the persona.
var budgetRangeAOV = map[string]float64{
	"under-50": 30,
	"50-200":   125,
	"200-500":  350,
	"500+":     750,
}

// onboardingBrandAffinity is the starting affinity for brands the user
// explicitly names during onboarding — strong but below a confirmed
// purchase signal.
const onboardingBrandAffinity = 0.8

// InitialPersona maps a submission to the persona record it seeds:
//
//   - qualityVsPrice 1–5 maps linearly onto the [-1, 1] spectrum (3 is
//     balanced);
//   - named brands start at 0.8 affinity, chosen categories at 1.0
//     interest;
//   - the budget band seeds the average order value.
func InitialPersona(sub *Submission) *persona.Record {
	rec := persona.NewRecord()

	if sub == nil {
		return rec
	}

	if sub.QualityVsPrice >= 1 && sub.QualityVsPrice <= 5 {
		rec.PriceQualitySpectrum = float64(sub.QualityVsPrice-3) / 2
	}

	if size, ok := householdSizes[sub.Household]; ok {
		rec.HouseholdSize = size
	} else if sub.Household != "" {
		rec.HouseholdSize = 1
	}

	for _, brand := range strings.Split(sub.Brands, ",") {
		brand = strings.ToLower(strings.TrimSpace(brand))
		if brand != "" {
			rec.BrandAffinities[brand] = onboardingBrandAffinity
		}
	}

	for _, category := range sub.Categories {
		category = strings.ToLower(strings.TrimSpace(category))
		if category != "" {
			rec.CategoryInterests[category] = 1.0
		}
	}

	for _, retailer := range sub.Retailers {
		retailer = strings.ToLower(strings.TrimSpace(retailer))
		if retailer != "" {
			rec.PreferredRetailers = append(rec.PreferredRetailers, retailer)
		}
	}

	if aov, ok := budgetRangeAOV[sub.BudgetRange]; ok {
		rec.AverageOrderValue = aov
	}

	return rec
}
