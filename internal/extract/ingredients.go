package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// DefaultMassFraction is assigned to ingredients without a percentage.
// It is a placeholder, not a measurement.
const DefaultMassFraction = 0.1

// IngredientNameSeparator joins the words of a normalized ingredient name
const IngredientNameSeparator = "_"

// percentPattern matches a trailing "(NN%)" or "NN%"
var percentPattern = regexp.MustCompile(`^(.*?)\s*(?:\(\s*(\d+(?:[.,]\d+)?)\s*%\s*\)|(\d+(?:[.,]\d+)?)\s*%)\s*$`)

// ParseIngredientList parses a composition list such as
// "Tomates bio (92%), Sucre (5%)" into normalized ingredients.
func ParseIngredientList(text string) []model.NormalizedIngredient {
	ingredients := []model.NormalizedIngredient{}

	for _, chunk := range splitTopLevel(text, ',') {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		name := chunk
		fraction := DefaultMassFraction

		if m := percentPattern.FindStringSubmatch(chunk); m != nil {
			num := m[2]
			if num == "" {
				num = m[3]
			}
			if p, err := parseNumber(num); err == nil {
				name = m[1]
				fraction = clamp(p/100, 0, 1)
			}
		}

		name = normalizeToken(name, IngredientNameSeparator)
		if name == "" {
			continue
		}

		ingredients = append(ingredients, model.NormalizedIngredient{
			Name:         name,
			MassFraction: fraction,
		})
	}

	return ingredients
}

// splitTopLevel splits s at sep, ignoring separators nested in brackets.
// A comma between two digits is a decimal comma ("92,5%") and never splits.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	runes := []rune(s)

	for i, r := range runes {
		switch {
		case r == '(' || r == '[':
			depth++
		case (r == ')' || r == ']') && depth > 0:
			depth--
		case r == sep && depth == 0 && !isDecimalComma(runes, i):
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isDecimalComma(runes []rune, i int) bool {
	if runes[i] != ',' || i == 0 || i == len(runes)-1 {
		return false
	}
	return unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}

// parseNumber accepts both decimal points and decimal commas
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
