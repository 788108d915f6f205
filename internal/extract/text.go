package extract

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Fold lower-cases s and strips diacritics so that "INGRÉDIENTS" and
// "ingredients" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return lower.String(folded)
}

// normalizeToken lower-cases s and collapses internal whitespace to sep
func normalizeToken(s, sep string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(lower.String(s)), sep)
}

// words splits folded text into alphanumeric words
func words(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = true
	}
	return set
}

// firstKeyword returns the index of the first keyword set with a word in text
func firstKeyword(text string, sets [][]string) int {
	present := words(text)
	for i, set := range sets {
		for _, kw := range set {
			if present[kw] {
				return i
			}
		}
	}
	return -1
}

// LooksLikeHTML reports whether s appears to be an HTML document rather than plain text
func LooksLikeHTML(s string) bool {
	head := strings.ToLower(strings.TrimSpace(s))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.Contains(head, "<html") ||
		strings.Contains(head, "<body")
}

// VisibleText extracts the text nodes of an HTML document, one per line,
// skipping scripts and styles. Input that fails to parse is returned as is.
func VisibleText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if text := strings.TrimSpace(line); text != "" {
					lines = append(lines, text)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.Join(lines, "\n")
}

// ContainsWord reports whether text holds any keyword as a whole word, ignoring case and accents
func ContainsWord(text string, keywords ...string) bool {
	return firstKeyword(text, [][]string{keywords}) == 0
}
