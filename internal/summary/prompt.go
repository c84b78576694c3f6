package summary

import (
	"strings"

	"github.com/dgallion1/kozlony/internal/toc"
)

const PromptPrefix = "Itt egy lista az aktuális Magyar közlönyből, írj egy rövid összefoglalót:\n\n"

// BuildPrompt renders entries as "num\nname\nid" separated by blank lines.
// Entries are added in order until maxTokens would be exceeded; maxTokens
// <= 0 disables the limit. It returns the prompt and how many entries made it in.
func BuildPrompt(entries []toc.Entry, maxTokens int) (string, int) {
	var sb strings.Builder
	sb.WriteString(PromptPrefix)
	budget := EstimateTokens(PromptPrefix)

	n := 0
	for _, e := range entries {
		item := e.Num + "\n" + strings.TrimSpace(e.Name) + "\n" + e.ID
		cost := EstimateTokens(item)
		if maxTokens > 0 && budget+cost > maxTokens {
			break
		}
		if n > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(item)
		budget += cost
		n++
	}
	return sb.String(), n
}
