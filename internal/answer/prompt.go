// Package answer turns retrieved passages into a grounded completion. It
// renders passages into a plain-text context block, embeds that block and the
// question in a fixed Teaching Assistant prompt, and sends the prompt to an
// eino chat model as a single user message.
//
// Grounding is enforced by the prompt wording alone. Nothing here checks the
// completion against the context.
package answer

import (
	"strings"

	"github.com/54b3r/faqrag-go/internal/rag"
)

// RefusalMessage is the exact sentence the model is instructed to return when
// the context does not contain the answer.
const RefusalMessage = "I'm sorry, but I don't have that information based on the course materials."

// passageSeparator closes every passage in a context block.
var passageSeparator = strings.Repeat("-", 20) + "\n"

// FormatContext renders passages in order as labelled Course/Section/Text
// lines, each entry closed by a line of 20 dashes. Field values are inserted
// verbatim. An empty slice yields "".
func FormatContext(passages []rag.Passage) string {
	var b strings.Builder
	for _, p := range passages {
		b.WriteString("Course: ")
		b.WriteString(p.Course)
		b.WriteString("\nSection: ")
		b.WriteString(p.Section)
		b.WriteString("\nText: ")
		b.WriteString(p.Text)
		b.WriteString("\n")
		b.WriteString(passageSeparator)
	}
	return b.String()
}

const promptHeader = `You are a helpful and concise Teaching Assistant.
Your task is to answer the student's question based ONLY on the provided Context.

GUIDELINES:
1. If the answer is contained within the Context, provide a clear and helpful response.
2. If the answer is NOT in the Context or is unrelated, strictly respond with: "` + RefusalMessage + `"
3. Do not use outside knowledge or make up facts.

CONTEXT:
`

// BuildPrompt renders the Teaching Assistant prompt. Question and context are
// inserted exactly once and never re-scanned, so braces or other template-like
// text in either value reach the model unchanged.
func BuildPrompt(question, context string) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(context) + len(question) + 32)
	b.WriteString(promptHeader)
	b.WriteString(context)
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:\n")
	return b.String()
}
