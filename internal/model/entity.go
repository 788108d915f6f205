package model

import "strings"

// EntityGroup classifies an extracted entity
type EntityGroup string

const (
	GroupIngredient EntityGroup = "ingredient"
	GroupLabel      EntityGroup = "label"
	GroupOrigin     EntityGroup = "origin"
	GroupPackaging  EntityGroup = "packaging"
)

// ExtractedEntity is a single entity recognised by the extraction service
type ExtractedEntity struct {
	Text           string      `json:"text"`
	Group          EntityGroup `json:"group"`
	NormalizedText string      `json:"normalized_text"`
	Confidence     float64     `json:"confidence"` // 0-1
}

// ExtractionResult is the output of the entity-extraction stage
type ExtractionResult struct {
	Entities              []ExtractedEntity `json:"entities"`
	NormalizedIngredients []string          `json:"normalized_ingredients,omitempty"`
}

// GroupFromNER maps a NER entity_group label onto an EntityGroup.
// ORG and MISC are what the multilingual model emits for ingredient names.
func GroupFromNER(label string) EntityGroup {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "ORG", "MISC", "INGREDIENT":
		return GroupIngredient
	case "LOC", "ORIGIN":
		return GroupOrigin
	case "PACKAGING":
		return GroupPackaging
	default:
		return GroupLabel
	}
}
