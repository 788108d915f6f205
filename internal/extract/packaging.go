package extract

import (
	"regexp"
	"strings"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// Packaging defaults used when the text carries no recognisable token
const (
	DefaultMaterial = model.MaterialPlastic
	DefaultWeightKg = 0.5
)

// Material keyword sets in priority order. Keywords are folded (lowercase, no accents).
var materialKeywords = []struct {
	material model.Material
	terms    []string
}{
	{model.MaterialGlass, []string{"verre", "glass", "bocal"}},
	{model.MaterialPaper, []string{"papier", "paper", "kraft"}},
	{model.MaterialPlastic, []string{"plastique", "plastic", "pet", "pehd", "hdpe", "pp"}},
	{model.MaterialCardboard, []string{"carton", "cardboard", "brique"}},
}

var weightPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|g)\b`)

// ParsePackaging parses a packaging summary such as "Verre recyclable 720g"
func ParsePackaging(text string) model.PackagingDescriptor {
	return model.PackagingDescriptor{
		Material: parseMaterial(text),
		WeightKg: parseWeightKg(text),
	}
}

func parseMaterial(text string) model.Material {
	sets := make([][]string, len(materialKeywords))
	for i, mk := range materialKeywords {
		sets[i] = mk.terms
	}

	if i := firstKeyword(text, sets); i >= 0 {
		return materialKeywords[i].material
	}
	return DefaultMaterial
}

func parseWeightKg(text string) float64 {
	m := weightPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultWeightKg
	}

	value, err := parseNumber(m[1])
	if err != nil || value <= 0 {
		return DefaultWeightKg
	}

	if strings.EqualFold(m[2], "g") {
		value /= 1000
	}
	return value
}
