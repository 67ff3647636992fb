package synthesis

import (
	"encoding/json"
	"strings"

	"coachrag/internal/domain"
)

const (
	reportLabel = "Report:"
	adviceLabel = "Advice:"
)

// Parse splits raw model output into report and advice. It never fails:
// without an "Advice:" label the whole text is the report and advice is empty.
// The split happens at the first "Advice:", and the first "Report:" label is
// removed from the report part.
func Parse(raw string) domain.SynthesisResult {
	before, after, found := strings.Cut(raw, adviceLabel)
	if !found {
		return domain.SynthesisResult{Report: raw}
	}
	return domain.SynthesisResult{
		Report: strings.TrimSpace(strings.Replace(before, reportLabel, "", 1)),
		Advice: strings.TrimSpace(after),
	}
}

// ParseStructured decodes a {"report": ..., "advice": ...} object, falling
// back to Parse for anything else.
func ParseStructured(raw string) domain.SynthesisResult {
	var out struct {
		Report *string `json:"report"`
		Advice *string `json:"advice"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil || out.Report == nil || out.Advice == nil {
		return Parse(raw)
	}
	return domain.SynthesisResult{
		Report: strings.TrimSpace(*out.Report),
		Advice: strings.TrimSpace(*out.Advice),
	}
}
