package synthesis

import (
	"strings"

	"coachrag/internal/domain"
)

// DefaultInstruction is the synthesis query used when none is configured.
const DefaultInstruction = "Write a comprehensive report based on the documents. " +
	"Discuss the current state of the relationship and provide practical advice " +
	"for improving communication and satisfaction."

const textFormat = "Answer in exactly this format:\nReport: <Your report text>\nAdvice: <Your advice text>"

const jsonFormat = `Answer with a JSON object with two string fields, "report" and "advice".`

const directPrefix = "Generate a comprehensive report and practical advice based on the following summaries: "

// ragPrompt stuffs the retrieved summaries into one prompt together with the
// instruction and the output format.
func ragPrompt(results []domain.SearchResult, instruction string, structured bool) string {
	var b strings.Builder
	b.WriteString("Use the following summaries of a user's answers as context. ")
	b.WriteString("If they do not contain enough information, say so instead of inventing details.\n\n")
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Document.Text)
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(instruction)
	b.WriteString("\n")
	if structured {
		b.WriteString(jsonFormat)
	} else {
		b.WriteString(textFormat)
	}
	b.WriteString("\nHelpful Answer:")
	return b.String()
}

func directPrompt(docs []domain.Document) string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return directPrefix + strings.Join(texts, "\n")
}
