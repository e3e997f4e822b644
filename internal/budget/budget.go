// Package budget estimates prompt sizes for the answer generator. The service
// can run against several LLM backends with different tokenizers, so the
// estimate uses a character heuristic of 1 token per 4 characters. The figure
// is only reported (logs and metrics); prompts are never trimmed.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// perMessageOverhead approximates the role and framing tokens most chat
	// APIs add to each message.
	perMessageOverhead = 4

	// DefaultMaxContextTokens is the prompt size above which the generator
	// logs a warning. 8k-context models still fit the prompt plus a 1024
	// token completion below this.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for msgs, summing
// role and content for each message plus a fixed per-message overhead.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		if m == nil {
			continue
		}
		total += perMessageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Exceeds reports whether tokens is over max. A non-positive max selects
// DefaultMaxContextTokens.
func Exceeds(tokens, max int) bool {
	if max <= 0 {
		max = DefaultMaxContextTokens
	}
	return tokens > max
}
