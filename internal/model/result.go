package model

// ImpactResult is the output of the life-cycle-impact stage
type ImpactResult struct {
	ProductName string  `json:"product_name"`
	CO2Kg       float64 `json:"co2_kg"`
	WaterL      float64 `json:"water_l"`
	EnergyMJ    float64 `json:"energy_mj"`
}

// ScoreLetter is the A-E environmental grade
type ScoreLetter string

const (
	ScoreA ScoreLetter = "A"
	ScoreB ScoreLetter = "B"
	ScoreC ScoreLetter = "C"
	ScoreD ScoreLetter = "D"
	ScoreE ScoreLetter = "E"
)

// ScoreResult is the output of the scoring stage
type ScoreResult struct {
	ProductName  string      `json:"product_name"`
	Letter       ScoreLetter `json:"letter"`
	NumericScore float64     `json:"numeric_score"` // 0-100
	Confidence   float64     `json:"confidence"`    // 0-1
	Explanation  string      `json:"explanation"`
	ModelUsed    string      `json:"model_used,omitempty"` // rule-based or ml
}
