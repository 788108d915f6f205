package autofill

import (
	"regexp"
	"strings"

	"github.com/ghassane04/EcoLabel-MS/internal/extract"
	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// Markers recognised in product sheets
const (
	TitleMarker       = "FICHE PRODUIT"
	IngredientsHeader = "INGRÉDIENTS"
	PackagingHeader   = "EMBALLAGE"
	TransportHeader   = "TRANSPORT"
)

// maxSummaryEntities bounds how many entities feed the ingredients summary
const maxSummaryEntities = 5

const summarySeparator = ", "

var titlePattern = regexp.MustCompile(`(?i)` + strings.Join(strings.Fields(regexp.QuoteMeta(TitleMarker)), `\s+`))

var (
	isIngredientsHeader = extract.HeaderMatcher(IngredientsHeader)
	isPackagingHeader   = extract.HeaderMatcher(PackagingHeader)
	isTransportHeader   = extract.HeaderMatcher(TransportHeader)
)

// Fields holds values derived from upstream stage output.
// An empty field means nothing could be derived for it.
type Fields struct {
	ProductName    string
	ExtractionText string
	Ingredients    string
	Packaging      string
	Transport      string
}

// Derive computes editable-field values from an ingested document and/or
// an entity-extraction result. Either may be nil. Derive is pure.
func Derive(doc *model.IngestedDocument, extraction *model.ExtractionResult) Fields {
	var f Fields

	if doc != nil {
		text := documentText(doc)
		ingredients := extract.ExtractSectionedLines(text, isIngredientsHeader)

		f.ProductName = productName(text)
		f.Ingredients = strings.Join(ingredients, summarySeparator)
		f.Packaging = strings.Join(extract.ExtractSectionedLines(text, isPackagingHeader), summarySeparator)
		f.Transport = strings.Join(extract.ExtractSectionedLines(text, isTransportHeader), summarySeparator)

		if len(ingredients) > 0 {
			f.ExtractionText = f.Ingredients
		} else {
			f.ExtractionText = strings.TrimSpace(text)
		}
	}

	// Entities are the latest upstream output for the calculation stage
	if extraction != nil && len(extraction.Entities) > 0 {
		f.Ingredients = entitySummary(extraction.Entities)
	}

	return f
}

// documentText returns the plain text of a document, reducing HTML sources to visible text
func documentText(doc *model.IngestedDocument) string {
	if doc.SourceType == model.SourceHTML || extract.LooksLikeHTML(doc.RawText) {
		return extract.VisibleText(doc.RawText)
	}
	return doc.RawText
}

// productName returns the first title line with the marker and dashes removed
func productName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		loc := titlePattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		name := line[:loc[0]] + line[loc[1]:]
		return strings.Trim(name, " \t\r-–—:")
	}
	return ""
}

func entitySummary(entities []model.ExtractedEntity) string {
	n := len(entities)
	if n > maxSummaryEntities {
		n = maxSummaryEntities
	}

	names := make([]string, 0, n)
	for _, e := range entities[:n] {
		names = append(names, e.NormalizedText)
	}
	return strings.Join(names, summarySeparator)
}
