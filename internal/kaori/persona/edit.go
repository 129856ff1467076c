package persona

import "math"

// Edit is an explicit user-initiated persona update (from a profile edit
// surface). Pointer fields distinguish "leave unchanged" (nil) from "set to
// this value". Map entries with nil values delete the key; array fields are
// replaced wholesale when present.
type Edit struct {
	Locale                  *string  `json:"locale,omitempty"`
	Currency                *string  `json:"currency,omitempty"`
	Country                 *string  `json:"country,omitempty"`
	HouseholdSize           *int     `json:"householdSize,omitempty"`
	LifeStage               *string  `json:"lifeStage,omitempty"`
	PriceQualitySpectrum    *float64 `json:"priceQualitySpectrum,omitempty"`
	AverageOrderValue       *float64 `json:"averageOrderValue,omitempty"`
	PromotionResponsiveness *float64 `json:"promotionResponsiveness,omitempty"`

	BrandAffinities   map[string]*float64     `json:"brandAffinities,omitempty"`
	CategoryInterests map[string]*float64     `json:"categoryInterests,omitempty"`
	BudgetRanges      map[string]*BudgetRange `json:"budgetRanges,omitempty"`
	SizeData          map[string]*string      `json:"sizeData,omitempty"`

	PreferredRetailers  *[]string `json:"preferredRetailers,omitempty"`
	DietaryRestrictions *[]string `json:"dietaryRestrictions,omitempty"`
	Hobbies             *[]string `json:"hobbies,omitempty"`
	UpcomingNeeds       *[]string `json:"upcomingNeeds,omitempty"`
	SearchPatterns      *[]string `json:"searchPatterns,omitempty"`
}

// ApplyEdit merges a user edit into a persona record and returns the
// result. The input record is not mutated. Range-constrained numeric
// fields are clamped after the overwrite so a hand-edited spectrum cannot
// escape [-1, 1].
func ApplyEdit(rec *Record, edit Edit) *Record {
	out := cloneRecord(rec)

	// Primitives: direct overwrite.
	if edit.Locale != nil {
		out.Locale = *edit.Locale
	}
	if edit.Currency != nil {
		out.Currency = *edit.Currency
	}
	if edit.Country != nil {
		out.Country = *edit.Country
	}
	if edit.HouseholdSize != nil {
		out.HouseholdSize = *edit.HouseholdSize
	}
	if edit.LifeStage != nil {
		out.LifeStage = *edit.LifeStage
	}
	if edit.PriceQualitySpectrum != nil {
		out.PriceQualitySpectrum = clamp(*edit.PriceQualitySpectrum, -1, 1)
	}
	if edit.AverageOrderValue != nil {
		out.AverageOrderValue = *edit.AverageOrderValue
	}
	if edit.PromotionResponsiveness != nil {
		out.PromotionResponsiveness = clamp(*edit.PromotionResponsiveness, 0, 1)
	}

	// Maps: shallow merge, nil values delete keys.
	out.BrandAffinities = mergeEditMap(out.BrandAffinities, edit.BrandAffinities, func(v float64) float64 {
		return clamp(v, -1, 1)
	})
	out.CategoryInterests = mergeEditMap(out.CategoryInterests, edit.CategoryInterests, func(v float64) float64 {
		return math.Max(v, 0)
	})
	out.BudgetRanges = mergeEditMap(out.BudgetRanges, edit.BudgetRanges, nil)
	out.SizeData = mergeEditMap(out.SizeData, edit.SizeData, nil)

	// Arrays: full replacement when present.
	if edit.PreferredRetailers != nil {
		out.PreferredRetailers = normalizeList(*edit.PreferredRetailers)
	}
	if edit.DietaryRestrictions != nil {
		out.DietaryRestrictions = normalizeList(*edit.DietaryRestrictions)
	}
	if edit.Hobbies != nil {
		out.Hobbies = normalizeList(*edit.Hobbies)
	}
	if edit.UpcomingNeeds != nil {
		out.UpcomingNeeds = normalizeList(*edit.UpcomingNeeds)
	}
	if edit.SearchPatterns != nil {
		out.SearchPatterns = append([]string(nil), *edit.SearchPatterns...)
	}

	return out
}

// mergeEditMap applies map edits onto base: non-nil values set (optionally
// normalized), nil values delete. The base map is reused when no edits are
// present.
func mergeEditMap[V any](base map[string]V, edits map[string]*V, normalize func(V) V) map[string]V {
	if len(edits) == 0 {
		return base
	}
	merged := cloneMap(base)
	if merged == nil {
		merged = make(map[string]V, len(edits))
	}
	for k, v := range edits {
		key := normalizeKey(k)
		if key == "" {
			continue
		}
		if v == nil {
			delete(merged, key)
			continue
		}
		val := *v
		if normalize != nil {
			val = normalize(val)
		}
		merged[key] = val
	}
	return merged
}

// normalizeList case-normalizes and deduplicates a replacement list.
func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = normalizeKey(item)
		if item != "" && !containsFold(out, item) {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
