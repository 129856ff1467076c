package persona

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Brand affinity thresholds for the rendered preferred/avoided lists.
const (
	preferredBrandThreshold = 0.3
	avoidedBrandThreshold   = -0.3
)

// maxRenderedCategories caps the "Top interests" line.
const maxRenderedCategories = 5

// ConfidenceLabel maps an aggregate confidence score to the human-readable
// label shown in the profile header.
func ConfidenceLabel(score float64) string {
	switch {
	case score < 0.2:
		return "Just getting to know you"
	case score < 0.4:
		return "Learning your preferences"
	case score < 0.6:
		return "Getting a good sense of your style"
	case score < 0.8:
		return "Know your preferences well"
	default:
		return "Highly personalized"
	}
}

// spectrumLabel discretizes the continuous price/quality spectrum into the
// five buckets used in the rendered profile.
func spectrumLabel(pq float64) string {
	switch {
	case pq < -0.5:
		return "Strongly price-focused"
	case pq < -0.1:
		return "Leans toward value"
	case pq < 0.1:
		return "Balanced price/quality"
	case pq < 0.5:
		return "Leans toward quality"
	default:
		return "Strongly quality-focused"
	}
}

// Render formats a persona record into the plain-text context block that is
// appended to the model's system prompt. Only populated fields are emitted;
// map-derived lists are sorted so the output is a pure, deterministic
// function of the record. Render never mutates the record.
func Render(rec *Record, confidence float64) string {
	if rec == nil {
		return ""
	}

	sections := []string{
		fmt.Sprintf("## User Profile (Confidence: %d%% — %s)",
			int(math.Round(confidence*100)), ConfidenceLabel(confidence)),
	}

	if rec.Country != "" || rec.Locale != "" || rec.Currency != "" {
		var loc []string
		for _, v := range []string{rec.Country, rec.Locale, rec.Currency} {
			if v != "" {
				loc = append(loc, v)
			}
		}
		sections = append(sections, "**Location & Currency:** "+strings.Join(loc, ", "))
	}

	if rec.AverageOrderValue > 0 {
		currency := rec.Currency
		if currency == "" {
			currency = "USD"
		}
		sections = append(sections, fmt.Sprintf("**Average spend:** %s %.0f", currency, rec.AverageOrderValue))
	}

	if len(rec.BudgetRanges) > 0 {
		ranges := make([]string, 0, len(rec.BudgetRanges))
		for _, cat := range sortedKeys(rec.BudgetRanges) {
			r := rec.BudgetRanges[cat]
			ranges = append(ranges, fmt.Sprintf("%s: %s %s-%s", cat, r.Currency,
				formatAmount(r.Min), formatAmount(r.Max)))
		}
		sections = append(sections, "**Budget ranges:** "+strings.Join(ranges, ", "))
	}

	sections = append(sections, "**Price/Quality preference:** "+spectrumLabel(rec.PriceQualitySpectrum))

	if len(rec.BrandAffinities) > 0 {
		var liked, disliked []string
		for _, brand := range sortedKeys(rec.BrandAffinities) {
			score := rec.BrandAffinities[brand]
			switch {
			case score > preferredBrandThreshold:
				liked = append(liked, brand)
			case score < avoidedBrandThreshold:
				disliked = append(disliked, brand)
			}
		}
		if len(liked) > 0 {
			sections = append(sections, "**Preferred brands:** "+strings.Join(liked, ", "))
		}
		if len(disliked) > 0 {
			sections = append(sections, "**Avoided brands:** "+strings.Join(disliked, ", "))
		}
	}

	if len(rec.CategoryInterests) > 0 {
		sections = append(sections, "**Top interests:** "+strings.Join(topCategories(rec.CategoryInterests, maxRenderedCategories), ", "))
	}

	if len(rec.PreferredRetailers) > 0 {
		sections = append(sections, "**Preferred stores:** "+strings.Join(rec.PreferredRetailers, ", "))
	}

	if len(rec.DietaryRestrictions) > 0 {
		sections = append(sections, "**Dietary:** "+strings.Join(rec.DietaryRestrictions, ", "))
	}

	if len(rec.Hobbies) > 0 {
		sections = append(sections, "**Hobbies:** "+strings.Join(rec.Hobbies, ", "))
	}

	return strings.Join(sections, "\n")
}

// topCategories returns up to n category names ordered by descending score,
// ties broken alphabetically.
func topCategories(interests map[string]float64, n int) []string {
	names := sortedKeys(interests)
	sort.SliceStable(names, func(i, j int) bool {
		return interests[names[i]] > interests[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Worker identifies a downstream specialist that receives a persona slice.
type Worker string

const (
	WorkerSearch    Worker = "search"
	WorkerCompare   Worker = "compare"
	WorkerBuy       Worker = "buy"
	WorkerRecommend Worker = "recommend"
)

// Slice returns the subset of a persona relevant to a specific worker.
// Workers get only the fields they act on; the recommender gets the full
// persona for deep personalization. The returned record shares no maps or
// slices with the input.
func Slice(rec *Record, worker Worker) *Record {
	if rec == nil {
		return nil
	}
	full := cloneRecord(rec)
	switch worker {
	case WorkerSearch:
		return &Record{
			BrandAffinities:   full.BrandAffinities,
			BudgetRanges:      full.BudgetRanges,
			CategoryInterests: full.CategoryInterests,
			Currency:          full.Currency,
			Country:           full.Country,
		}
	case WorkerCompare:
		return &Record{
			PriceQualitySpectrum: full.PriceQualitySpectrum,
			PreferredRetailers:   full.PreferredRetailers,
			Currency:             full.Currency,
		}
	case WorkerBuy:
		return &Record{
			SizeData: full.SizeData,
			Currency: full.Currency,
			Country:  full.Country,
		}
	case WorkerRecommend:
		return full
	}
	return full
}

// cloneRecord deep-copies a record so slices handed to workers cannot
// mutate the canonical persona.
func cloneRecord(rec *Record) *Record {
	cp := *rec
	cp.BudgetRanges = cloneMap(rec.BudgetRanges)
	cp.BrandAffinities = cloneMap(rec.BrandAffinities)
	cp.CategoryInterests = cloneMap(rec.CategoryInterests)
	cp.SizeData = cloneMap(rec.SizeData)
	cp.PreferredRetailers = append([]string(nil), rec.PreferredRetailers...)
	cp.SearchPatterns = append([]string(nil), rec.SearchPatterns...)
	cp.DietaryRestrictions = append([]string(nil), rec.DietaryRestrictions...)
	cp.Hobbies = append([]string(nil), rec.Hobbies...)
	cp.UpcomingNeeds = append([]string(nil), rec.UpcomingNeeds...)
	return &cp
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	cp := make(map[string]V, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
