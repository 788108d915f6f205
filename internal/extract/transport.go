package extract

import (
	"regexp"
	"strings"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// Transport defaults used when the text carries no recognisable token
const (
	DefaultDistanceKm = 250.0
	DefaultMode       = model.ModeTruck
)

var modeKeywords = []struct {
	mode  model.TransportMode
	terms []string
}{
	{model.ModeAir, []string{"avion", "air", "aerien", "plane", "flight"}},
	{model.ModeShip, []string{"bateau", "ship", "boat", "navire", "maritime"}},
	{model.ModeBike, []string{"velo", "bike", "bicycle", "cycle"}},
}

// distancePattern accepts space-grouped thousands ("1 200 km", including
// no-break spaces) ahead of plain numbers
var distancePattern = regexp.MustCompile(`(?i)(\d{1,3}(?:[ \x{00a0}\x{202f}]\d{3})+(?:[.,]\d+)?|\d+(?:[.,]\d+)?)\s*km\b`)

var groupSpaces = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// ParseTransport parses a transport summary such as "Camion - 250km"
func ParseTransport(text string) model.TransportDescriptor {
	desc := model.TransportDescriptor{
		DistanceKm: DefaultDistanceKm,
		Mode:       DefaultMode,
	}

	if m := distancePattern.FindStringSubmatch(text); m != nil {
		if d, err := parseNumber(groupSpaces.Replace(m[1])); err == nil && d >= 0 {
			desc.DistanceKm = d
		}
	}

	sets := make([][]string, len(modeKeywords))
	for i, mk := range modeKeywords {
		sets[i] = mk.terms
	}
	if i := firstKeyword(text, sets); i >= 0 {
		desc.Mode = modeKeywords[i].mode
	}

	return desc
}
