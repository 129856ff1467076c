package persona

import (
	"math"
	"reflect"
	"testing"
)

func brandSignal(key string, value, confidence float64) Signal {
	return Signal{
		Type:       SignalBrandPreference,
		Key:        key,
		Value:      Number(value),
		Confidence: confidence,
		Source:     SourceChat,
	}
}

func TestMerge_BrandMovingAverageConverges(t *testing.T) {
	rec := NewRecord()

	var last float64
	for i := 0; i < 20; i++ {
		Merge(rec, []Signal{brandSignal("Nike", 1, 0.8)})
		got := rec.BrandAffinities["nike"]
		if got <= last && got != 1 {
			t.Fatalf("iteration %d: affinity %v did not increase from %v", i, got, last)
		}
		if got > 1 {
			t.Fatalf("iteration %d: affinity %v overshot 1", i, got)
		}
		last = got
	}
	if last < 0.99 {
		t.Errorf("repeated positive signals should converge toward 1, got %v", last)
	}
}

func TestMerge_BrandNegativeThenPositive(t *testing.T) {
	rec := NewRecord()
	Merge(rec, []Signal{brandSignal("Acme", -1, 0.6)})
	if got := rec.BrandAffinities["acme"]; got != -0.6 {
		t.Errorf("after negative signal: %v, want -0.6", got)
	}
	Merge(rec, []Signal{brandSignal("Acme", 1, 0.8)})
	// -0.6*0.2 + 1*0.8 = 0.68
	if got := rec.BrandAffinities["acme"]; math.Abs(got-0.68) > 1e-9 {
		t.Errorf("after positive signal: %v, want 0.68", got)
	}
}

func TestMerge_AverageOrderValue(t *testing.T) {
	rec := NewRecord()

	spend := func(v float64) Signal {
		return Signal{
			Type:       SignalBudget,
			Key:        "actual_spend",
			Value:      Number(v),
			Confidence: 1.0,
			Source:     SourcePurchase,
		}
	}

	// First purchase seeds the average rather than decaying from zero.
	Merge(rec, []Signal{spend(100)})
	if rec.AverageOrderValue != 100 {
		t.Errorf("first spend: AOV = %v, want 100", rec.AverageOrderValue)
	}

	Merge(rec, []Signal{spend(200)})
	if math.Abs(rec.AverageOrderValue-130) > 1e-9 {
		t.Errorf("second spend: AOV = %v, want 130 (100*0.7 + 200*0.3)", rec.AverageOrderValue)
	}
}

func TestMerge_StatedBudgetDoesNotMutate(t *testing.T) {
	rec := NewRecord()
	before := *rec

	boost := Merge(rec, []Signal{
		{Type: SignalBudget, Key: "stated_budget", Value: Number(150), Confidence: 0.9, Source: SourceChat},
		{Type: SignalBudget, Key: "search_price_ceiling", Value: Number(80), Confidence: 0.6, Source: SourceSearch},
	})

	if boost != 0 {
		t.Errorf("evidence-only budget signals should not boost confidence, got %v", boost)
	}
	if rec.AverageOrderValue != before.AverageOrderValue {
		t.Errorf("AOV changed: %v", rec.AverageOrderValue)
	}
}

func TestMerge_CategoryInterestAccumulates(t *testing.T) {
	rec := NewRecord()

	search := Signal{Type: SignalCategoryInterest, Key: "home", Value: Number(1), Confidence: 0.5, Source: SourceSearch}
	purchase := Signal{Type: SignalCategoryInterest, Key: "Home", Value: Number(2), Confidence: 0.9, Source: SourcePurchase}

	Merge(rec, []Signal{search, search, purchase})

	// 0.5 + 0.5 + 1.8, keys folded case-insensitively.
	if got := rec.CategoryInterests["home"]; math.Abs(got-2.8) > 1e-9 {
		t.Errorf("interest = %v, want 2.8", got)
	}
	if len(rec.CategoryInterests) != 1 {
		t.Errorf("expected a single folded key, got %v", rec.CategoryInterests)
	}
}

func TestMerge_QualitySpectrumClamped(t *testing.T) {
	rec := NewRecord()

	quality := Signal{
		Type:       SignalQualityPreference,
		Key:        "price_sensitivity",
		Value:      String("quality_focused"),
		Confidence: 1.0,
		Source:     SourceChat,
	}

	for i := 0; i < 10; i++ {
		Merge(rec, []Signal{quality})
	}
	if rec.PriceQualitySpectrum != 1 {
		t.Errorf("spectrum = %v, want clamp at 1", rec.PriceQualitySpectrum)
	}

	price := quality
	price.Value = String("price_focused")
	Merge(rec, []Signal{price})
	if math.Abs(rec.PriceQualitySpectrum-0.8) > 1e-9 {
		t.Errorf("spectrum = %v, want 0.8 after one price-focused signal", rec.PriceQualitySpectrum)
	}
}

func TestMerge_SetInsertionDeduplicates(t *testing.T) {
	rec := NewRecord()

	signals := []Signal{
		{Type: SignalRetailerPreference, Key: "Amazon", Value: Number(1), Confidence: 0.8, Source: SourcePurchase},
		{Type: SignalRetailerPreference, Key: "amazon", Value: Number(1), Confidence: 0.8, Source: SourcePurchase},
		{Type: SignalLifestyle, Key: "dietary", Value: String("vegan"), Confidence: 0.95, Source: SourceChat},
		{Type: SignalLifestyle, Key: "dietary", Value: String("Vegan"), Confidence: 0.95, Source: SourceChat},
	}

	boost := Merge(rec, signals)

	if !reflect.DeepEqual(rec.PreferredRetailers, []string{"amazon"}) {
		t.Errorf("retailers = %v, want [amazon]", rec.PreferredRetailers)
	}
	if !reflect.DeepEqual(rec.DietaryRestrictions, []string{"vegan"}) {
		t.Errorf("restrictions = %v, want [vegan]", rec.DietaryRestrictions)
	}
	// The lists dedupe, but every signal still counts as evidence: the
	// boost accrues per signal, duplicates included.
	want := 2*boostRetailer + 2*boostLifestyle
	if math.Abs(boost-want) > 1e-9 {
		t.Errorf("boost = %v, want %v", boost, want)
	}
}

func TestMerge_DuplicateSetSignalStillBoosts(t *testing.T) {
	rec := NewRecord()
	retailer := Signal{
		Type: SignalRetailerPreference, Key: "Amazon",
		Value: Number(1), Confidence: 0.8, Source: SourcePurchase,
	}

	Merge(rec, []Signal{retailer})
	boost := Merge(rec, []Signal{retailer})

	if len(rec.PreferredRetailers) != 1 {
		t.Errorf("retailers = %v, want single entry", rec.PreferredRetailers)
	}
	if math.Abs(boost-boostRetailer) > 1e-9 {
		t.Errorf("repeat-signal boost = %v, want %v", boost, boostRetailer)
	}
}

func TestMerge_BoostAccumulates(t *testing.T) {
	rec := NewRecord()

	boost := Merge(rec, []Signal{
		brandSignal("Nike", 1, 0.8),
		{Type: SignalBudget, Key: "actual_spend", Value: Number(50), Confidence: 1.0, Source: SourcePurchase},
		{Type: SignalCategoryInterest, Key: "sports", Value: Number(1), Confidence: 0.5, Source: SourceSearch},
	})

	want := boostBrand + boostSpend + boostCategory
	if math.Abs(boost-want) > 1e-9 {
		t.Errorf("boost = %v, want %v", boost, want)
	}
}

func TestMerge_EmptyBatch(t *testing.T) {
	rec := NewRecord()
	before := *rec
	if boost := Merge(rec, nil); boost != 0 {
		t.Errorf("empty batch boost = %v, want 0", boost)
	}
	if rec.AverageOrderValue != before.AverageOrderValue ||
		rec.PriceQualitySpectrum != before.PriceQualitySpectrum ||
		len(rec.BrandAffinities) != 0 || len(rec.CategoryInterests) != 0 {
		t.Error("empty batch must not mutate the record")
	}
}
