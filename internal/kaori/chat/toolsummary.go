package chat

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSummaryItems caps how many result items a tool summary lists. Five is
// enough for the model to answer "the second one" style follow-ups without
// re-inflating the history.
const maxSummaryItems = 5

// SummarizeToolResult converts a completed tool call into a short text
// digest the model can use to answer follow-up questions (product names,
// prices, URLs) without carrying the full JSON payload. Returns ok=false
// when the tool produces no durable follow-up context — one-shot actions
// like price tracking and purchases are dropped rather than summarized.
//
// Tool outputs arrive as loosely-shaped maps (they crossed a JSON
// boundary), so field access is defensive throughout. Any panic while
// digging through an unexpected shape is swallowed and treated as
// "no summary": omitting context is safe, corrupting the history is not.
func SummarizeToolResult(toolName string, args map[string]any, output any) (summary string, ok bool) {
	defer func() {
		if recover() != nil {
			summary, ok = "", false
		}
	}()

	switch toolName {
	case "search_products":
		return summarizeSearch(args, output)
	case "get_product_details":
		return summarizeDetails(args, output)
	case "get_recommendations":
		return summarizeRecommendations(output)
	default:
		// compare_prices, track_price, purchase, anything unknown:
		// no useful follow-up context.
		return "", false
	}
}

// SummarizeToolParts returns a copy of msg with every tool part replaced by
// its text digest. Pending and failed tool calls are dropped entirely (no
// partial-result leakage); tool calls without a useful digest are dropped
// too. Text and opaque parts pass through unchanged. The returned message
// may have no parts left — the compactor drops such messages.
func SummarizeToolParts(msg Message) Message {
	parts := make([]Part, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch p.Kind {
		case PartText, PartOpaque:
			parts = append(parts, p)
		case PartTool:
			if p.State != ToolOutputAvailable {
				continue
			}
			if s, ok := SummarizeToolResult(p.ToolName, p.Input, p.Output); ok {
				parts = append(parts, TextPart(s))
			}
		}
	}
	out := msg
	out.Parts = parts
	return out
}

func summarizeSearch(args map[string]any, output any) (string, bool) {
	query := stringArg(args, "query", "unknown")

	items := listField(output, "products", "results")
	if len(items) == 0 {
		return fmt.Sprintf("[Previous search for %q returned no results]", query), true
	}

	fragments := make([]string, 0, maxSummaryItems)
	for _, item := range items {
		if len(fragments) == maxSummaryItems {
			break
		}
		m := asMap(item)
		pieces := []string{stringField(m, "title", "Unknown")}
		if price := priceField(m, "price"); price != "" {
			pieces = append(pieces, "$"+price)
		}
		if u := stringField(m, "retailerUrl", ""); u != "" {
			pieces = append(pieces, u)
		}
		fragments = append(fragments, strings.Join(pieces, " — "))
	}
	return fmt.Sprintf("[Previous search for %q found: %s]", query, strings.Join(fragments, "; ")), true
}

func summarizeDetails(args map[string]any, output any) (string, bool) {
	product := asMap(asMap(output)["product"])
	if product == nil {
		return fmt.Sprintf("[Product details lookup failed for %s]", stringArg(args, "url", "")), true
	}

	pieces := []string{stringField(product, "title", "Unknown product")}
	if price := priceField(product, "price"); price != "" {
		pieces = append(pieces, "$"+price)
	}
	if u := stringField(product, "url", ""); u != "" {
		pieces = append(pieces, u)
	}
	return fmt.Sprintf("[Product details: %s]", strings.Join(pieces, " — ")), true
}

func summarizeRecommendations(output any) (string, bool) {
	items := listField(output, "recommendations", "products")
	if len(items) == 0 {
		return "", false
	}

	fragments := make([]string, 0, maxSummaryItems)
	for _, item := range items {
		if len(fragments) == maxSummaryItems {
			break
		}
		m := asMap(item)
		title := stringField(m, "title", "")
		if title == "" {
			fragments = append(fragments, "item")
			continue
		}
		if price := priceField(m, "price"); price != "" {
			fragments = append(fragments, fmt.Sprintf("%s ($%s)", title, price))
		} else {
			fragments = append(fragments, title)
		}
	}
	return fmt.Sprintf("[Recommendations: %s]", strings.Join(fragments, ", ")), true
}

// asMap coerces a value that crossed a JSON boundary into a map. Returns
// nil for anything that is not a string-keyed map.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// listField returns the first non-empty list found under any of the given
// keys of output (which must itself be a map).
func listField(output any, keys ...string) []any {
	m := asMap(output)
	if m == nil {
		return nil
	}
	for _, key := range keys {
		if list, ok := m[key].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

func stringArg(args map[string]any, key, fallback string) string {
	if args == nil {
		return fallback
	}
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func stringField(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// priceField renders a price that may be a JSON number or a preformatted
// string. Returns "" when absent or zero-valued.
func priceField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	default:
		return ""
	}
}
