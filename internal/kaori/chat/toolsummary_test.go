package chat

import (
	"testing"
)

func TestSummarizeToolResult_SearchProducts(t *testing.T) {
	tests := []struct {
		name   string
		args   map[string]any
		output any
		want   string
		wantOK bool
	}{
		{
			name:   "empty result list",
			args:   map[string]any{"query": "lamp"},
			output: map[string]any{"products": []any{}},
			want:   `[Previous search for "lamp" returned no results]`,
			wantOK: true,
		},
		{
			name: "items joined with title, price and url",
			args: map[string]any{"query": "desk lamp"},
			output: map[string]any{"products": []any{
				map[string]any{"title": "Lamp A", "price": 29.99, "retailerUrl": "https://shop.test/a"},
				map[string]any{"title": "Lamp B", "price": "45", "retailerUrl": "https://shop.test/b"},
			}},
			want:   `[Previous search for "desk lamp" found: Lamp A — $29.99 — https://shop.test/a; Lamp B — $45 — https://shop.test/b]`,
			wantOK: true,
		},
		{
			name: "results key accepted as alias",
			args: map[string]any{"query": "chair"},
			output: map[string]any{"results": []any{
				map[string]any{"title": "Chair"},
			}},
			want:   `[Previous search for "chair" found: Chair]`,
			wantOK: true,
		},
		{
			name:   "missing query falls back to unknown",
			args:   map[string]any{},
			output: map[string]any{"products": []any{}},
			want:   `[Previous search for "unknown" returned no results]`,
			wantOK: true,
		},
		{
			name: "caps at five items",
			args: map[string]any{"query": "socks"},
			output: map[string]any{"products": []any{
				map[string]any{"title": "s1"}, map[string]any{"title": "s2"},
				map[string]any{"title": "s3"}, map[string]any{"title": "s4"},
				map[string]any{"title": "s5"}, map[string]any{"title": "s6"},
			}},
			want:   `[Previous search for "socks" found: s1; s2; s3; s4; s5]`,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SummarizeToolResult("search_products", tt.args, tt.output)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("summary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeToolResult_ProductDetails(t *testing.T) {
	got, ok := SummarizeToolResult("get_product_details",
		map[string]any{"url": "https://shop.test/x"},
		map[string]any{})
	if !ok {
		t.Fatal("expected a failure summary")
	}
	want := "[Product details lookup failed for https://shop.test/x]"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}

	got, ok = SummarizeToolResult("get_product_details", nil,
		map[string]any{"product": map[string]any{
			"title": "Ergo Chair", "price": 349.0, "url": "https://shop.test/chair",
		}})
	if !ok {
		t.Fatal("expected a success summary")
	}
	want = "[Product details: Ergo Chair — $349 — https://shop.test/chair]"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestSummarizeToolResult_Recommendations(t *testing.T) {
	if _, ok := SummarizeToolResult("get_recommendations", nil,
		map[string]any{"recommendations": []any{}}); ok {
		t.Error("empty recommendations should produce no summary")
	}

	got, ok := SummarizeToolResult("get_recommendations", nil,
		map[string]any{"recommendations": []any{
			map[string]any{"title": "Lamp", "price": 30.0},
			map[string]any{"title": "Bulb"},
			map[string]any{},
		}})
	if !ok {
		t.Fatal("expected a summary")
	}
	want := "[Recommendations: Lamp ($30), Bulb, item]"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestSummarizeToolResult_OneShotToolsNeverSummarized(t *testing.T) {
	for _, tool := range []string{"purchase", "track_price", "compare_prices", "totally_unknown"} {
		if s, ok := SummarizeToolResult(tool, map[string]any{"x": 1},
			map[string]any{"products": []any{map[string]any{"title": "x"}}}); ok {
			t.Errorf("tool %q should yield no summary, got %q", tool, s)
		}
	}
}

func TestSummarizeToolResult_MalformedOutputIsSafe(t *testing.T) {
	// Output shapes the summarizer was never designed for must degrade to
	// "no summary" or a fallback string, never panic.
	cases := []any{
		nil,
		"just a string",
		42,
		map[string]any{"products": "not-a-list"},
		map[string]any{"products": []any{"not-a-map", 7}},
	}
	for _, output := range cases {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("SummarizeToolResult panicked on %v: %v", output, r)
				}
			}()
			SummarizeToolResult("search_products", map[string]any{"query": "q"}, output)
			SummarizeToolResult("get_product_details", nil, output)
			SummarizeToolResult("get_recommendations", nil, output)
		}()
	}
}

func TestSummarizeToolParts(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart("Let me search."),
			ToolPart("search_products", "c1", ToolOutputAvailable,
				map[string]any{"query": "lamp"},
				map[string]any{"products": []any{}}),
			ToolPart("search_products", "c2", ToolPending,
				map[string]any{"query": "chair"}, nil),
			ToolPart("purchase", "c3", ToolOutputAvailable,
				map[string]any{}, map[string]any{"ok": true}),
			OpaquePart([]byte(`{"type":"step-start"}`)),
		},
	}

	got := SummarizeToolParts(msg)

	if len(got.Parts) != 3 {
		t.Fatalf("expected 3 parts (text, summary, opaque), got %d: %+v", len(got.Parts), got.Parts)
	}
	if got.Parts[0].Kind != PartText || got.Parts[0].Text != "Let me search." {
		t.Errorf("text part should pass through, got %+v", got.Parts[0])
	}
	if got.Parts[1].Kind != PartText || got.Parts[1].Text != `[Previous search for "lamp" returned no results]` {
		t.Errorf("tool part should become its digest, got %+v", got.Parts[1])
	}
	if got.Parts[2].Kind != PartOpaque {
		t.Errorf("opaque part should pass through, got %+v", got.Parts[2])
	}

	// Original message untouched.
	if len(msg.Parts) != 5 {
		t.Errorf("input message mutated: %d parts", len(msg.Parts))
	}
}
