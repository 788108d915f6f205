package extract

import "strings"

// ExtractSectionedLines returns the bullet lines of the first section whose
// header satisfies isHeader. A section is a header line followed by lines
// starting with "-"; it ends at a blank line or at a non-bullet line
// containing a colon (the next header). Bullet lines are always items, even
// when they contain a colon ("- Origine: France").
func ExtractSectionedLines(rawText string, isHeader func(string) bool) []string {
	items := []string{}
	lines := strings.Split(strings.ReplaceAll(rawText, "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		if isHeader(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return items
	}

	for _, line := range lines[start+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if strings.HasPrefix(trimmed, "-") {
			if item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-")); item != "" {
				items = append(items, item)
			}
			continue
		}
		if strings.Contains(trimmed, ":") {
			break
		}
	}

	return items
}

// HeaderMatcher returns a predicate matching lines that contain token,
// ignoring case and accents
func HeaderMatcher(token string) func(string) bool {
	folded := Fold(token)
	return func(line string) bool {
		return strings.Contains(Fold(line), folded)
	}
}
