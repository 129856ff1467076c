// Package persona implements Kaori's user-preference engine: extraction of
// behavioral signals from user activity, confidence-weighted merging into a
// durable persona record, and rendering of that record into a context block
// for the model prompt.
package persona

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SignalType enumerates the kinds of preference evidence the extractors
// produce.
type SignalType string

const (
	SignalBrandPreference    SignalType = "brand_preference"
	SignalBudget             SignalType = "budget_signal"
	SignalCategoryInterest   SignalType = "category_interest"
	SignalLifestyle          SignalType = "lifestyle"
	SignalQualityPreference  SignalType = "quality_preference"
	SignalRetailerPreference SignalType = "retailer_preference"
)

// SignalSource identifies where a signal was observed. Sources carry an
// implicit trust ordering: purchases (committed behavior) are the most
// trustworthy, chat statements mid, searches lowest.
type SignalSource string

const (
	SourceChat       SignalSource = "chat"
	SourceSearch     SignalSource = "search"
	SourcePurchase   SignalSource = "purchase"
	SourceClick      SignalSource = "click"
	SourceFeedback   SignalSource = "feedback"
	SourceOnboarding SignalSource = "onboarding"
)

// Signal is a single typed unit of preference evidence. Signals are
// ephemeral: produced per user action, consumed immediately by Merge,
// never persisted standalone (the interaction log keeps a JSON copy for
// audit only).
type Signal struct {
	Type       SignalType   `json:"type"`
	Key        string       `json:"key"`
	Value      Value        `json:"value"`
	Confidence float64      `json:"confidence"`
	Source     SignalSource `json:"source"`
}

// Value is a number-or-string union (signal values are one or the other,
// depending on the signal type). It marshals as a bare JSON number or
// string.
type Value struct {
	num   float64
	str   string
	isNum bool
}

// Number builds a numeric value.
func Number(f float64) Value { return Value{num: f, isNum: true} }

// String builds a string value.
func String(s string) Value { return Value{str: s} }

// Number returns the numeric form; 0 for string values.
func (v Value) Number() float64 { return v.num }

// Text returns the string form; "" for numeric values.
func (v Value) Text() string { return v.str }

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool { return v.isNum }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("signal value must be a number or a string: %w", err)
	}
	*v = String(s)
	return nil
}

// BudgetRange is a per-category spending band.
type BudgetRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Record is the durable per-user persona document. Created lazily on the
// first onboarding submission or signal-bearing interaction; mutated only
// by Merge (automatic) or ApplyEdit (explicit user edit); deleted only by
// the external account-deletion flow.
//
// Invariants: PriceQualitySpectrum and brand-affinity scores stay in
// [-1, 1]; map and set keys are case-normalized; category interests are
// non-negative and unbounded.
type Record struct {
	// Identity.
	Locale        string `json:"locale,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Country       string `json:"country,omitempty"`
	HouseholdSize int    `json:"householdSize,omitempty"`
	LifeStage     string `json:"lifeStage,omitempty"`

	// Shopping DNA.
	BudgetRanges         map[string]BudgetRange `json:"budgetRanges,omitempty"`
	BrandAffinities      map[string]float64     `json:"brandAffinities,omitempty"`
	PriceQualitySpectrum float64                `json:"priceQualitySpectrum"`
	PreferredRetailers   []string               `json:"preferredRetailers,omitempty"`
	SizeData             map[string]string      `json:"sizeData,omitempty"`

	// Behavioral, accumulated over time.
	CategoryInterests       map[string]float64 `json:"categoryInterests,omitempty"`
	SearchPatterns          []string           `json:"searchPatterns,omitempty"`
	PromotionResponsiveness float64            `json:"promotionResponsiveness,omitempty"`
	AverageOrderValue       float64            `json:"averageOrderValue,omitempty"`

	// Lifestyle.
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	Hobbies             []string `json:"hobbies,omitempty"`
	UpcomingNeeds       []string `json:"upcomingNeeds,omitempty"`
}

// NewRecord returns a persona with neutral defaults: balanced price/quality
// spectrum, English locale, USD, empty maps.
func NewRecord() *Record {
	return &Record{
		Locale:               "en",
		Currency:             "USD",
		PriceQualitySpectrum: 0,
		BrandAffinities:      map[string]float64{},
		CategoryInterests:    map[string]float64{},
		BudgetRanges:         map[string]BudgetRange{},
	}
}

// normalizeKey lower-cases and trims a map/set key so that "Sony" and
// "sony " accumulate into one entry.
func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// containsFold reports whether list already holds s under case-normalized
// comparison.
func containsFold(list []string, s string) bool {
	s = normalizeKey(s)
	for _, item := range list {
		if normalizeKey(item) == s {
			return true
		}
	}
	return false
}
