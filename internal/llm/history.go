package llm

// EstimateTokens gives a rough token count for text (about four characters
// per token for French and English prose).
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// TrimHistory keeps the most recent messages whose estimated size fits in
// budget tokens. A budget of zero or less keeps everything.
func TrimHistory(history []Message, budget int) []Message {
	if budget <= 0 {
		return history
	}
	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := EstimateTokens(history[i].Content)
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	// Never open the window on an assistant turn.
	for start < len(history) && history[start].Role == RoleAssistant {
		start++
	}
	return history[start:]
}
