package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// ExtractionRequest is the entity-extraction payload
type ExtractionRequest struct {
	Text string `json:"text"`
}

type extractionResponse struct {
	Entities []struct {
		Word        string  `json:"word"`
		EntityGroup string  `json:"entity_group"`
		Score       float64 `json:"score"`
	} `json:"entities"`
	NormalizedIngredients []string `json:"normalized_ingredients"`
}

// IngredientLine is one ingredient of an impact request
type IngredientLine struct {
	Name       string  `json:"name"`
	QuantityKg float64 `json:"quantity_kg"`
}

// ImpactRequest is the life-cycle-impact payload
type ImpactRequest struct {
	ProductName string                    `json:"product_name"`
	Ingredients []IngredientLine          `json:"ingredients"`
	Packaging   model.PackagingDescriptor `json:"packaging"`
	Transport   model.TransportDescriptor `json:"transport"`
}

type impactResponse struct {
	ProductName   string  `json:"product_name"`
	TotalCO2Kg    float64 `json:"total_co2_kg"`
	TotalWaterL   float64 `json:"total_water_l"`
	TotalEnergyMJ float64 `json:"total_energy_mj"`
}

// ScoringRequest is the scoring payload. Packaging and transport hints are
// optional; the service applies its own defaults when they are absent.
type ScoringRequest struct {
	ProductName       string   `json:"product_name"`
	TotalCO2          float64  `json:"total_co2"`
	TotalWater        float64  `json:"total_water"`
	TotalEnergy       float64  `json:"total_energy"`
	PackagingType     string   `json:"packaging_type,omitempty"`
	PackagingWeightKg *float64 `json:"packaging_weight_kg,omitempty"`
	TransportKm       *float64 `json:"transport_km,omitempty"`
	HasBioLabel       int      `json:"has_bio_label"`
	HasRecyclable     int      `json:"has_recyclable"`
	MaxCO2Ref         float64  `json:"max_co2_ref"`
	MaxWaterRef       float64  `json:"max_water_ref"`
	MaxEnergyRef      float64  `json:"max_energy_ref"`
}

type scoringResponse struct {
	ProductName     string  `json:"product_name"`
	ScoreLetter     string  `json:"score_letter"`
	ScoreNumerical  float64 `json:"score_numerical"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Explanation     string  `json:"explanation"`
	ModelUsed       string  `json:"model_used"`
}

// ExtractEntities runs entity extraction over req.Text
func (c *Client) ExtractEntities(ctx context.Context, req ExtractionRequest) (*model.ExtractionResult, error) {
	var resp extractionResponse
	if err := c.postJSON(ctx, endpoint(c.urls.Extraction, ExtractionPath), extractionContract, req, &resp); err != nil {
		return nil, err
	}

	result := &model.ExtractionResult{
		Entities:              make([]model.ExtractedEntity, 0, len(resp.Entities)),
		NormalizedIngredients: resp.NormalizedIngredients,
	}
	for _, e := range resp.Entities {
		result.Entities = append(result.Entities, model.ExtractedEntity{
			Text:           e.Word,
			Group:          model.GroupFromNER(e.EntityGroup),
			NormalizedText: strings.ToLower(strings.TrimSpace(e.Word)),
			Confidence:     e.Score,
		})
	}

	c.logger.Info("service.extract.ok", zap.Int("entities", len(result.Entities)))
	return result, nil
}

// CalculateImpact computes the life-cycle impact of a product
func (c *Client) CalculateImpact(ctx context.Context, req ImpactRequest) (*model.ImpactResult, error) {
	var resp impactResponse
	if err := c.postJSON(ctx, endpoint(c.urls.Impact, ImpactPath), impactContract, req, &resp); err != nil {
		return nil, err
	}

	name := resp.ProductName
	if name == "" {
		name = req.ProductName
	}

	c.logger.Info("service.impact.ok",
		zap.String("product", name),
		zap.Float64("co2_kg", resp.TotalCO2Kg))

	return &model.ImpactResult{
		ProductName: name,
		CO2Kg:       resp.TotalCO2Kg,
		WaterL:      resp.TotalWaterL,
		EnergyMJ:    resp.TotalEnergyMJ,
	}, nil
}

// ComputeScore grades a product from its impact totals
func (c *Client) ComputeScore(ctx context.Context, req ScoringRequest) (*model.ScoreResult, error) {
	var resp scoringResponse
	if err := c.postJSON(ctx, endpoint(c.urls.Scoring, ScoringPath), scoringContract, req, &resp); err != nil {
		return nil, err
	}

	name := resp.ProductName
	if name == "" {
		name = req.ProductName
	}

	c.logger.Info("service.score.ok",
		zap.String("product", name),
		zap.String("letter", resp.ScoreLetter))

	return &model.ScoreResult{
		ProductName:  name,
		Letter:       model.ScoreLetter(resp.ScoreLetter),
		NumericScore: resp.ScoreNumerical,
		Confidence:   resp.ConfidenceLevel,
		Explanation:  resp.Explanation,
		ModelUsed:    resp.ModelUsed,
	}, nil
}
