package pdfdoc

import "strings"

const (
	tableMinLines     = 3
	tableMinLineShare = 0.6
)

// looksLikeTable reports whether page text reads as tabular data: enough of
// its non-empty lines carry repeated column separators. The decision is made
// once here at extraction time and travels with the fragment.
func looksLikeTable(text string) bool {
	lines := strings.Split(text, "\n")
	nonEmpty := 0
	tabular := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		nonEmpty++
		if countSeparators(line) >= 2 {
			tabular++
		}
	}
	if tabular < tableMinLines {
		return false
	}
	return float64(tabular) >= tableMinLineShare*float64(nonEmpty)
}

func countSeparators(line string) int {
	count := strings.Count(line, "\t") + strings.Count(line, "|")
	// Runs of multiple spaces act as column gaps in extracted PDF text.
	for _, gap := range strings.Split(line, "  ") {
		if gap != "" {
			count++
		}
	}
	if count > 0 {
		count--
	}
	return count
}
