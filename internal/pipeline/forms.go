package pipeline

import (
	"strings"

	"github.com/ghassane04/EcoLabel-MS/internal/autofill"
	"github.com/ghassane04/EcoLabel-MS/internal/extract"
	"github.com/ghassane04/EcoLabel-MS/internal/model"
	"github.com/ghassane04/EcoLabel-MS/internal/service"
)

// ExtractionForm is the edited input of the extraction stage
type ExtractionForm struct {
	Text string
}

// ImpactForm is the edited input of the calculation stage
type ImpactForm struct {
	ProductName string
	Ingredients string // "Tomates bio (92%), Sucre (5%)"
	Packaging   string // "Verre recyclable 720g"
	Transport   string // "Camion - 250km"
}

// ScoringForm is the edited input of the scoring stage.
// Packaging and Transport are optional hints for the scoring model.
type ScoringForm struct {
	ProductName string
	CO2Kg       float64
	WaterL      float64
	EnergyMJ    float64
	Packaging   string
	Transport   string
}

// ExtractionFormFrom reads the extraction input off an auto-filled form
func ExtractionFormFrom(f autofill.Form) ExtractionForm {
	return ExtractionForm{Text: f.ExtractionText.Value}
}

// ImpactFormFrom reads the calculation input off an auto-filled form
func ImpactFormFrom(f autofill.Form) ImpactForm {
	return ImpactForm{
		ProductName: f.ProductName.Value,
		Ingredients: f.Ingredients.Value,
		Packaging:   f.Packaging.Value,
		Transport:   f.Transport.Value,
	}
}

// ScoringFormFrom pre-fills the scoring input from an impact result
func ScoringFormFrom(impact *model.ImpactResult, f autofill.Form) ScoringForm {
	form := ScoringForm{
		ProductName: f.ProductName.Value,
		Packaging:   f.Packaging.Value,
		Transport:   f.Transport.Value,
	}
	if impact != nil {
		if impact.ProductName != "" {
			form.ProductName = impact.ProductName
		}
		form.CO2Kg = impact.CO2Kg
		form.WaterL = impact.WaterL
		form.EnergyMJ = impact.EnergyMJ
	}
	return form
}

func buildImpactRequest(f ImpactForm) service.ImpactRequest {
	ingredients := extract.ParseIngredientList(f.Ingredients)
	lines := make([]service.IngredientLine, 0, len(ingredients))
	for _, ing := range ingredients {
		// Mass fraction of one kilogram of product
		lines = append(lines, service.IngredientLine{Name: ing.Name, QuantityKg: ing.MassFraction})
	}

	return service.ImpactRequest{
		ProductName: strings.TrimSpace(f.ProductName),
		Ingredients: lines,
		Packaging:   extract.ParsePackaging(f.Packaging),
		Transport:   extract.ParseTransport(f.Transport),
	}
}

func buildScoringRequest(f ScoringForm, refs model.ScoringConfig) service.ScoringRequest {
	req := service.ScoringRequest{
		ProductName:  strings.TrimSpace(f.ProductName),
		TotalCO2:     f.CO2Kg,
		TotalWater:   f.WaterL,
		TotalEnergy:  f.EnergyMJ,
		MaxCO2Ref:    refs.MaxCO2Ref,
		MaxWaterRef:  refs.MaxWaterRef,
		MaxEnergyRef: refs.MaxEnergyRef,
	}

	if strings.TrimSpace(f.Packaging) != "" {
		pkg := extract.ParsePackaging(f.Packaging)
		req.PackagingType = string(pkg.Material)
		req.PackagingWeightKg = &pkg.WeightKg
		if extract.ContainsWord(f.Packaging, "recyclable", "recycle") {
			req.HasRecyclable = 1
		}
	}
	if strings.TrimSpace(f.Transport) != "" {
		km := extract.ParseTransport(f.Transport).DistanceKm
		req.TransportKm = &km
	}
	if extract.ContainsWord(f.ProductName, "bio", "organic") {
		req.HasBioLabel = 1
	}
	return req
}
