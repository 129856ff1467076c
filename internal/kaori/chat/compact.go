package chat

// DefaultMaxTokens is the default compaction budget. Chosen against the
// chars/4 estimator, not a real tokenizer.
const DefaultMaxTokens = 6000

// Compact reduces a message history to fit an approximate token budget.
//
// Two regions are always preserved verbatim: the first message (it
// establishes the user's original intent) and the tail window, which starts
// at the previous full conversational turn so that tool results from the
// last turn (product URLs, prices) stay available for follow-up questions.
// The middle is walked newest-first: tool parts are replaced with their
// text digests, emptied messages are dropped, and once the budget is
// exhausted everything older is dropped outright. Recency is the strongest
// predictor of relevance, so distant history is sacrificed first.
//
// Compact never errors and never truncates inside a message: when the
// preserved regions alone exceed the budget they are still returned whole.
// The reduction is lossy and irreversible.
func Compact(msgs []Message, maxTokens float64) []Message {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if len(msgs) <= 3 {
		return msgs
	}

	tailStart := findTailStart(msgs)
	if tailStart == 0 {
		// The tail window reaches back to the first message — nothing in
		// between to compact.
		return msgs
	}

	first := msgs[0]
	tail := msgs[tailStart:]
	middle := msgs[1:tailStart]

	// Seed the running total with the cost of everything preserved verbatim.
	total := EstimateMessage(first) + EstimateHistory(tail)

	var kept []Message
	for i := len(middle) - 1; i >= 0; i-- {
		summarized := SummarizeToolParts(middle[i])
		if len(summarized.Parts) == 0 {
			continue
		}
		cost := EstimateMessage(summarized)
		if total+cost > maxTokens {
			// Budget exhausted — everything older is dropped, not summarized.
			break
		}
		total += cost
		kept = append([]Message{summarized}, kept...)
	}

	out := make([]Message, 0, 1+len(kept)+len(tail))
	out = append(out, first)
	out = append(out, kept...)
	out = append(out, tail...)
	return out
}

// findTailStart returns the index where the preserved tail window begins:
// the earlier of the two most recent user-authored messages, i.e. the start
// of the previous full turn. With only one user message the tail is that
// message onward; with none it is just the final message.
func findTailStart(msgs []Message) int {
	lastUser := len(msgs) - 1
	for lastUser >= 0 && msgs[lastUser].Role != RoleUser {
		lastUser--
	}

	prevUser := lastUser - 1
	for prevUser >= 0 && msgs[prevUser].Role != RoleUser {
		prevUser--
	}

	if prevUser >= 0 {
		return prevUser
	}
	if lastUser >= 0 {
		return lastUser
	}
	return len(msgs) - 1
}
