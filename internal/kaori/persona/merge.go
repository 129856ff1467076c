package persona

// Per-signal confidence boosts. Each applied signal nudges the aggregate
// confidence score up; the score never decreases except on explicit reset.
const (
	boostBrand     = 0.02
	boostSpend     = 0.05
	boostCategory  = 0.01
	boostQuality   = 0.03
	boostRetailer  = 0.01
	boostLifestyle = 0.05
)

// qualityShift is the per-signal step along the price/quality spectrum,
// scaled by signal confidence before applying.
const qualityShift = 0.2

// Merge applies a batch of signals to a persona record in place and returns
// the accumulated confidence boost. The caller owns folding the boost into
// the stored confidence score (capped at 1) and stamping the refresh time.
//
// Update rules per signal type:
//
//   - BrandPreference: exponential moving average weighted by confidence,
//     clamped to [-1, 1]. Repeated signals converge toward the signal value
//     without overshooting.
//   - BudgetSignal: only "actual_spend" mutates the record, folding into the
//     average order value at 70/30. Stated budgets and search ceilings are
//     logged evidence, not persona fields.
//   - CategoryInterest: additive accumulation, unbounded above, scaled by
//     confidence.
//   - QualityPreference: shifts the price/quality spectrum by ±0.2 scaled by
//     confidence, clamped to [-1, 1].
//   - RetailerPreference / Lifestyle(dietary): set insertion, deduplicated
//     case-insensitively. The boost is per signal — restating a known
//     retailer or restriction still counts as evidence.
//
// An empty batch is a no-op and returns 0.
func Merge(rec *Record, signals []Signal) float64 {
	var boost float64

	for _, sig := range signals {
		switch sig.Type {
		case SignalBrandPreference:
			if rec.BrandAffinities == nil {
				rec.BrandAffinities = map[string]float64{}
			}
			key := normalizeKey(sig.Key)
			if key == "" {
				continue
			}
			current := rec.BrandAffinities[key]
			updated := current*(1-sig.Confidence) + sig.Value.Number()*sig.Confidence
			rec.BrandAffinities[key] = clamp(updated, -1, 1)
			boost += boostBrand

		case SignalBudget:
			if sig.Key != "actual_spend" {
				continue
			}
			prev := rec.AverageOrderValue
			if prev == 0 {
				prev = sig.Value.Number()
			}
			rec.AverageOrderValue = prev*0.7 + sig.Value.Number()*0.3
			boost += boostSpend

		case SignalCategoryInterest:
			if rec.CategoryInterests == nil {
				rec.CategoryInterests = map[string]float64{}
			}
			key := normalizeKey(sig.Key)
			if key == "" {
				continue
			}
			rec.CategoryInterests[key] += sig.Value.Number() * sig.Confidence
			boost += boostCategory

		case SignalQualityPreference:
			shift := -qualityShift
			if sig.Value.Text() == "quality_focused" {
				shift = qualityShift
			}
			rec.PriceQualitySpectrum = clamp(rec.PriceQualitySpectrum+shift*sig.Confidence, -1, 1)
			boost += boostQuality

		case SignalRetailerPreference:
			retailer := normalizeKey(sig.Key)
			if retailer == "" {
				continue
			}
			if !containsFold(rec.PreferredRetailers, retailer) {
				rec.PreferredRetailers = append(rec.PreferredRetailers, retailer)
			}
			boost += boostRetailer

		case SignalLifestyle:
			if sig.Key != "dietary" {
				continue
			}
			restriction := normalizeKey(sig.Value.Text())
			if restriction == "" {
				continue
			}
			if !containsFold(rec.DietaryRestrictions, restriction) {
				rec.DietaryRestrictions = append(rec.DietaryRestrictions, restriction)
			}
			boost += boostLifestyle
		}
	}

	return boost
}
