package model

// NormalizedIngredient is one ingredient of a composition list
type NormalizedIngredient struct {
	Name         string  `json:"name"`          // Lowercase token
	MassFraction float64 `json:"mass_fraction"` // 0-1
}

// Material is a packaging material
type Material string

const (
	MaterialGlass     Material = "glass"
	MaterialPaper     Material = "paper"
	MaterialPlastic   Material = "plastic"
	MaterialCardboard Material = "cardboard"
)

// PackagingDescriptor describes a product's packaging
type PackagingDescriptor struct {
	Material Material `json:"material"`
	WeightKg float64  `json:"weight_kg"` // > 0
}

// TransportMode is a freight mode
type TransportMode string

const (
	ModeTruck TransportMode = "truck"
	ModeAir   TransportMode = "air"
	ModeShip  TransportMode = "ship"
	ModeBike  TransportMode = "bike"
)

// TransportDescriptor describes how a product reaches the shelf
type TransportDescriptor struct {
	DistanceKm float64       `json:"distance_km"` // >= 0
	Mode       TransportMode `json:"mode"`
}
