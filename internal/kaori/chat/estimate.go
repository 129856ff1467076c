package chat

import "encoding/json"

// Token estimation uses ~4 characters per token (common English heuristic).
// This is intentionally imprecise: the compaction budget is a soft target
// for the selection policy, not a hard slicing boundary, and the downstream
// budget defaults were tuned against this heuristic — do not swap in a real
// tokenizer without re-tuning them.
const charsPerToken = 4

// fallbackPartCost is charged for a part that cannot be serialized. Parts
// carrying unmarshalable outputs are rare; a flat charge keeps the estimator
// total-ordered without inspecting the payload.
const fallbackPartCost = 64

// EstimatePart returns the approximate token cost of a single part.
// Text parts are charged by their text length; tool and opaque parts by
// the length of their JSON serialization, which is what the model would
// actually see if the part were forwarded verbatim.
func EstimatePart(p Part) float64 {
	switch p.Kind {
	case PartText:
		return float64(len(p.Text)) / charsPerToken
	case PartTool, PartOpaque:
		b, err := json.Marshal(p)
		if err != nil {
			return fallbackPartCost
		}
		return float64(len(b)) / charsPerToken
	}
	// Unknown kinds are charged like opaque payloads.
	b, err := json.Marshal(p)
	if err != nil {
		return fallbackPartCost
	}
	return float64(len(b)) / charsPerToken
}

// EstimateMessage returns the approximate token cost of a message.
func EstimateMessage(m Message) float64 {
	var total float64
	for _, p := range m.Parts {
		total += EstimatePart(p)
	}
	return total
}

// EstimateHistory returns the approximate token cost of a message slice.
func EstimateHistory(msgs []Message) float64 {
	var total float64
	for _, m := range msgs {
		total += EstimateMessage(m)
	}
	return total
}
