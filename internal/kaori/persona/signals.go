package persona

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Signal extraction is heuristic pattern matching, not natural-language
// understanding: ambiguous or sarcastic text may misfire, and that is an
// accepted trade-off. Each rule is an independent pure function so rules
// can be added or removed without touching the others.
//
// Confidence weights by source: purchases ≥ 0.8 (committed behavior),
// chat statements 0.6–0.95, searches 0.5–0.6.

var (
	budgetPattern = regexp.MustCompile(`(?:budget|spend|afford|under|less than|max|no more than)(?:\s+(?:of|is))?\s*\$?\s*(\d+)`)

	priceFocusedPattern   = regexp.MustCompile(`\b(?:cheap|cheapest|affordable|budget|bargain)\b`)
	qualityFocusedPattern = regexp.MustCompile(`\b(?:premium|luxury|best quality|high[- ]end|top[- ]tier)\b`)

	positiveBrandPattern = regexp.MustCompile(`\b(?:i (?:like|love|prefer|want|use)|fan of|loyal to)\s+(\w+(?:\s+\w+)?)\b`)
	negativeBrandPattern = regexp.MustCompile(`\b(?:not|don't like|hate|avoid)\s+(\w+(?:\s+\w+)?)\b`)
)

// builtinDietaryKeywords is the fixed dietary vocabulary. Matched as
// substrings, one Lifestyle signal per keyword found.
var builtinDietaryKeywords = []string{
	"vegan",
	"vegetarian",
	"gluten-free",
	"organic",
	"kosher",
	"halal",
	"dairy-free",
	"keto",
}

// builtinCategoryKeywords maps product categories to the query keywords
// that indicate interest in them.
var builtinCategoryKeywords = map[string][]string{
	"electronics": {"phone", "laptop", "tablet", "headphone", "speaker", "camera", "tv", "monitor", "iphone", "samsung", "macbook"},
	"clothing":    {"shirt", "pants", "dress", "shoes", "jacket", "sneaker", "boot", "hat", "hoodie"},
	"home":        {"furniture", "lamp", "chair", "table", "sofa", "bed", "pillow", "blanket", "kitchen"},
	"sports":      {"fitness", "gym", "yoga", "running", "bike", "bicycle", "ball", "racket"},
	"beauty":      {"skincare", "makeup", "perfume", "shampoo", "cream", "serum"},
	"toys":        {"toy", "lego", "game", "puzzle", "doll", "action figure"},
	"grocery":     {"food", "snack", "coffee", "tea", "organic", "milk", "bread"},
}

// ExtractorOptions extends the built-in extraction vocabularies. Extras are
// appended, never replace the built-ins, so deployments can tune recall
// without changing baseline behavior.
type ExtractorOptions struct {
	ExtraDietaryKeywords  []string
	ExtraCategoryKeywords map[string][]string
}

// Extractor turns user activity into persona signals. The zero-cost way to
// get one with the default vocabularies is the package-level Extract*
// functions. Extractors are immutable after construction and safe for
// concurrent use.
type Extractor struct {
	dietary    []string
	categories map[string][]string
}

// NewExtractor builds an Extractor with the built-in vocabularies plus any
// configured extras.
func NewExtractor(opts ExtractorOptions) *Extractor {
	dietary := make([]string, 0, len(builtinDietaryKeywords)+len(opts.ExtraDietaryKeywords))
	dietary = append(dietary, builtinDietaryKeywords...)
	for _, kw := range opts.ExtraDietaryKeywords {
		kw = normalizeKey(kw)
		if kw != "" && !containsFold(dietary, kw) {
			dietary = append(dietary, kw)
		}
	}

	categories := make(map[string][]string, len(builtinCategoryKeywords))
	for cat, kws := range builtinCategoryKeywords {
		categories[cat] = append([]string(nil), kws...)
	}
	for cat, kws := range opts.ExtraCategoryKeywords {
		cat = normalizeKey(cat)
		if cat == "" {
			continue
		}
		for _, kw := range kws {
			kw = normalizeKey(kw)
			if kw != "" && !containsFold(categories[cat], kw) {
				categories[cat] = append(categories[cat], kw)
			}
		}
	}

	return &Extractor{dietary: dietary, categories: categories}
}

var defaultExtractor = NewExtractor(ExtractorOptions{})

// ExtractChatSignals runs the default extractor over a chat statement.
func ExtractChatSignals(text string) []Signal {
	return defaultExtractor.ChatSignals(text)
}

// ChatSignals scans a free-text user statement for preference signals.
// Matching is case-insensitive; empty or whitespace-only input yields nil.
// Each rule fires at most once (first match wins) except the dietary rule,
// which fires once per matched keyword.
func (e *Extractor) ChatSignals(text string) []Signal {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var signals []Signal
	rules := []func(string) (Signal, bool){
		budgetRule,
		priceFocusedRule,
		qualityFocusedRule,
		positiveBrandRule,
		negativeBrandRule,
	}
	for _, rule := range rules {
		if s, ok := rule(lower); ok {
			signals = append(signals, s)
		}
	}
	signals = append(signals, e.dietarySignals(lower)...)
	return signals
}

// budgetRule matches explicit price-ceiling statements like
// "my budget is $150" or "no more than 80".
func budgetRule(lower string) (Signal, bool) {
	m := budgetPattern.FindStringSubmatch(lower)
	if m == nil {
		return Signal{}, false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Signal{}, false
	}
	return Signal{
		Type:       SignalBudget,
		Key:        "stated_budget",
		Value:      Number(amount),
		Confidence: 0.9,
		Source:     SourceChat,
	}, true
}

func priceFocusedRule(lower string) (Signal, bool) {
	if !priceFocusedPattern.MatchString(lower) {
		return Signal{}, false
	}
	return Signal{
		Type:       SignalQualityPreference,
		Key:        "price_sensitivity",
		Value:      String("price_focused"),
		Confidence: 0.7,
		Source:     SourceChat,
	}, true
}

func qualityFocusedRule(lower string) (Signal, bool) {
	if !qualityFocusedPattern.MatchString(lower) {
		return Signal{}, false
	}
	return Signal{
		Type:       SignalQualityPreference,
		Key:        "price_sensitivity",
		Value:      String("quality_focused"),
		Confidence: 0.7,
		Source:     SourceChat,
	}, true
}

func positiveBrandRule(lower string) (Signal, bool) {
	m := positiveBrandPattern.FindStringSubmatch(lower)
	if m == nil {
		return Signal{}, false
	}
	return Signal{
		Type:       SignalBrandPreference,
		Key:        strings.TrimSpace(m[1]),
		Value:      Number(1),
		Confidence: 0.8,
		Source:     SourceChat,
	}, true
}

func negativeBrandRule(lower string) (Signal, bool) {
	m := negativeBrandPattern.FindStringSubmatch(lower)
	if m == nil {
		return Signal{}, false
	}
	return Signal{
		Type:       SignalBrandPreference,
		Key:        strings.TrimSpace(m[1]),
		Value:      Number(-1),
		Confidence: 0.6,
		Source:     SourceChat,
	}, true
}

// dietarySignals emits one high-confidence Lifestyle signal per dietary
// keyword found as a substring.
func (e *Extractor) dietarySignals(lower string) []Signal {
	var signals []Signal
	for _, kw := range e.dietary {
		if strings.Contains(lower, kw) {
			signals = append(signals, Signal{
				Type:       SignalLifestyle,
				Key:        "dietary",
				Value:      String(kw),
				Confidence: 0.95,
				Source:     SourceChat,
			})
		}
	}
	return signals
}

// SearchFilters is the structured context a search action carries alongside
// its query.
type SearchFilters struct {
	MaxPrice float64
}

// ExtractSearchSignals runs the default extractor over a search action.
func ExtractSearchSignals(query string, filters SearchFilters) []Signal {
	return defaultExtractor.SearchSignals(query, filters)
}

// SearchSignals derives low-trust signals from a search: category interest
// from query keywords and a price ceiling from the filters.
func (e *Extractor) SearchSignals(query string, filters SearchFilters) []Signal {
	var signals []Signal
	for _, category := range e.inferCategories(query) {
		signals = append(signals, Signal{
			Type:       SignalCategoryInterest,
			Key:        category,
			Value:      Number(1),
			Confidence: 0.5,
			Source:     SourceSearch,
		})
	}

	if filters.MaxPrice > 0 {
		signals = append(signals, Signal{
			Type:       SignalBudget,
			Key:        "search_price_ceiling",
			Value:      Number(filters.MaxPrice),
			Confidence: 0.6,
			Source:     SourceSearch,
		})
	}
	return signals
}

// inferCategories maps a search query to product categories via keyword
// lookup. Queries matching nothing fall back to "general". Results are
// sorted for deterministic output.
func (e *Extractor) inferCategories(query string) []string {
	lower := strings.ToLower(query)
	var categories []string
	for category, keywords := range e.categories {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				categories = append(categories, category)
				break
			}
		}
	}
	if len(categories) == 0 {
		return []string{"general"}
	}
	sort.Strings(categories)
	return categories
}

// PurchasedProduct is the attribute slice of a completed purchase relevant
// to persona learning.
type PurchasedProduct struct {
	Brand    string
	Category string
	Price    float64
	Retailer string
}

// ExtractPurchaseSignals runs the default extractor over a purchase.
func ExtractPurchaseSignals(p PurchasedProduct) []Signal {
	return defaultExtractor.PurchaseSignals(p)
}

// PurchaseSignals derives high-trust signals from a completed purchase —
// committed behavior, so category interest is weighted double a search and
// the spend amount is taken at full confidence.
func (e *Extractor) PurchaseSignals(p PurchasedProduct) []Signal {
	var signals []Signal

	if p.Brand != "" {
		signals = append(signals, Signal{
			Type:       SignalBrandPreference,
			Key:        p.Brand,
			Value:      Number(1),
			Confidence: 0.95,
			Source:     SourcePurchase,
		})
	}

	if p.Category != "" {
		signals = append(signals, Signal{
			Type:       SignalCategoryInterest,
			Key:        p.Category,
			Value:      Number(2),
			Confidence: 0.9,
			Source:     SourcePurchase,
		})
	}

	signals = append(signals, Signal{
		Type:       SignalBudget,
		Key:        "actual_spend",
		Value:      Number(p.Price),
		Confidence: 1.0,
		Source:     SourcePurchase,
	})

	if p.Retailer != "" {
		signals = append(signals, Signal{
			Type:       SignalRetailerPreference,
			Key:        p.Retailer,
			Value:      Number(1),
			Confidence: 0.8,
			Source:     SourcePurchase,
		})
	}

	return signals
}
