package persona

import (
	"reflect"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestApplyEdit_Primitives(t *testing.T) {
	rec := NewRecord()
	rec.Country = "US"

	out := ApplyEdit(rec, Edit{
		Country:       ptr("DE"),
		Currency:      ptr("EUR"),
		HouseholdSize: ptr(4),
		LifeStage:     ptr("family"),
	})

	if out.Country != "DE" || out.Currency != "EUR" || out.HouseholdSize != 4 || out.LifeStage != "family" {
		t.Errorf("primitives not applied: %+v", out)
	}
	// Untouched fields survive.
	if out.Locale != "en" {
		t.Errorf("locale changed unexpectedly: %q", out.Locale)
	}
	// Input record untouched.
	if rec.Country != "US" || rec.Currency != "USD" {
		t.Error("ApplyEdit mutated its input")
	}
}

func TestApplyEdit_ClampsRangedFields(t *testing.T) {
	out := ApplyEdit(NewRecord(), Edit{
		PriceQualitySpectrum:    ptr(5.0),
		PromotionResponsiveness: ptr(-2.0),
	})
	if out.PriceQualitySpectrum != 1 {
		t.Errorf("spectrum = %v, want clamp at 1", out.PriceQualitySpectrum)
	}
	if out.PromotionResponsiveness != 0 {
		t.Errorf("promotion responsiveness = %v, want clamp at 0", out.PromotionResponsiveness)
	}

	out = ApplyEdit(NewRecord(), Edit{
		BrandAffinities:   map[string]*float64{"Nike": ptr(3.0)},
		CategoryInterests: map[string]*float64{"home": ptr(-1.0)},
	})
	if out.BrandAffinities["nike"] != 1 {
		t.Errorf("brand affinity = %v, want clamp at 1", out.BrandAffinities["nike"])
	}
	if out.CategoryInterests["home"] != 0 {
		t.Errorf("category interest = %v, want floor at 0", out.CategoryInterests["home"])
	}
}

func TestApplyEdit_MapMergeAndDelete(t *testing.T) {
	rec := NewRecord()
	rec.BrandAffinities = map[string]float64{"nike": 0.8, "acme": -0.5}

	out := ApplyEdit(rec, Edit{
		BrandAffinities: map[string]*float64{
			"acme": nil,       // delete
			"sony": ptr(0.4),  // add
			"Nike": ptr(-0.2), // overwrite, key folded
		},
	})

	want := map[string]float64{"nike": -0.2, "sony": 0.4}
	if !reflect.DeepEqual(out.BrandAffinities, want) {
		t.Errorf("affinities = %v, want %v", out.BrandAffinities, want)
	}
	if !reflect.DeepEqual(rec.BrandAffinities, map[string]float64{"nike": 0.8, "acme": -0.5}) {
		t.Error("input record maps mutated")
	}
}

func TestApplyEdit_ArrayReplacement(t *testing.T) {
	rec := NewRecord()
	rec.DietaryRestrictions = []string{"vegan", "kosher"}
	rec.Hobbies = []string{"cycling"}

	out := ApplyEdit(rec, Edit{
		DietaryRestrictions: ptr([]string{"Gluten-Free", "gluten-free", ""}),
	})

	if !reflect.DeepEqual(out.DietaryRestrictions, []string{"gluten-free"}) {
		t.Errorf("restrictions = %v, want replacement list deduplicated", out.DietaryRestrictions)
	}
	// Absent array fields stay as they were.
	if !reflect.DeepEqual(out.Hobbies, []string{"cycling"}) {
		t.Errorf("hobbies = %v, want unchanged", out.Hobbies)
	}

	// Replacing with an empty list clears the field.
	out = ApplyEdit(rec, Edit{DietaryRestrictions: ptr([]string{})})
	if out.DietaryRestrictions != nil {
		t.Errorf("restrictions = %v, want nil after empty replacement", out.DietaryRestrictions)
	}
}

func TestApplyEdit_ZeroEdit(t *testing.T) {
	rec := sampleRecord()
	out := ApplyEdit(rec, Edit{})
	if !reflect.DeepEqual(out, rec) {
		t.Error("zero edit should return an equal record")
	}
	out.BrandAffinities["nike"] = 0
	if rec.BrandAffinities["nike"] != 0.8 {
		t.Error("zero edit must still return an independent copy")
	}
}
