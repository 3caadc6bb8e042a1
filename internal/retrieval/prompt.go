package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/mallikj2/genai-file-search/internal/model"
)

// Static replies for queries the index cannot support. Returned without a
// generation call so an empty category never burns backend quota.
const (
	insufficientAnswer   = "I couldn't find relevant information to answer your question."
	emptyCategorySummary = "No documents found in this category."
)

const qaPromptTemplate = `You are a helpful assistant answering questions about a document collection.
Answer the question using ONLY the context below.
- If the context does not contain the answer, reply exactly: %q
- Be concise and factual.
- Never invent information that is not in the context.

Context:
%s

Question: %s

Answer:`

const summaryPromptTemplate = `You are a helpful assistant summarizing a document collection.
Write a summary of at most %d words covering the excerpts below.
- Focus on the main topics and key facts.
- Use plain prose without headings.

Excerpts:
%s

Summary:`

const contextSeparator = "\n\n---\n\n"

func passageTexts(passages []model.Passage) []string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	return texts
}

// buildContext joins texts in order until the rune budget is hit and reports
// how many made it in. The first text always fits, truncated if it alone
// exceeds the budget.
func buildContext(texts []string, budget int) (string, int) {
	sepRunes := utf8.RuneCountInString(contextSeparator)
	var b strings.Builder
	used := 0
	total := 0
	for _, text := range texts {
		runes := utf8.RuneCountInString(text)
		if used == 0 {
			if runes > budget {
				r := []rune(text)
				text = string(r[:budget])
				runes = budget
			}
		} else if total+sepRunes+runes > budget {
			break
		} else {
			b.WriteString(contextSeparator)
			total += sepRunes
		}
		b.WriteString(text)
		total += runes
		used++
	}
	return b.String(), used
}
