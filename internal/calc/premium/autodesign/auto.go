package autodesign

import (
	"fmt"
	"math"

	"Solaire/internal/calc/solar"
)

const (
	defaultPanelAreaM2 = 1.7
	defaultCoverage    = 0.75
)

type SolarAutoInput struct {
	RoofAreaM2     float64            `json:"roof_area"`
	PanelWattage   float64            `json:"panel_wattage"`
	PanelAreaM2    float64            `json:"panel_area"`
	Coverage       float64            `json:"coverage"`
	OrientationDeg float64            `json:"orientation"`
	TiltDeg        float64            `json:"tilt"`
	Location       solar.SiteLocation `json:"coordinates"`
	PricePerKWh    float64            `json:"price_per_kwh"`
	InstallCost    float64            `json:"install_cost"`
}

type SolarAutoResult struct {
	PanelCount   int          `json:"panel_count"`
	InstalledKWc float64      `json:"installed_kwc"`
	UsedAreaM2   float64      `json:"used_area"`
	Simulation   solar.Result `json:"simulation"`
	Notes        string       `json:"notes"`
}

// Roof fills the usable share of the roof with panels and simulates the
// resulting array. Coverage defaults to 75% of the area, panels to 1.7 m2.
func Roof(in SolarAutoInput) (SolarAutoResult, error) {
	if in.RoofAreaM2 <= 0 || in.PanelWattage <= 0 {
		return SolarAutoResult{}, fmt.Errorf("invalid input")
	}
	if in.PanelAreaM2 <= 0 {
		in.PanelAreaM2 = defaultPanelAreaM2
	}
	if in.Coverage <= 0 || in.Coverage > 1 {
		in.Coverage = defaultCoverage
	}

	count := int(math.Floor(in.RoofAreaM2 * in.Coverage / in.PanelAreaM2))
	if count == 0 {
		return SolarAutoResult{}, fmt.Errorf("roof too small for a single panel")
	}
	sim, err := solar.Calculate(solar.Input{
		PanelCount:     count,
		PanelWattage:   in.PanelWattage,
		OrientationDeg: in.OrientationDeg,
		TiltDeg:        in.TiltDeg,
		Location:       in.Location,
		PricePerKWh:    in.PricePerKWh,
		InstallCost:    in.InstallCost,
	})
	if err != nil {
		return SolarAutoResult{}, err
	}
	return SolarAutoResult{
		PanelCount:   count,
		InstalledKWc: float64(count) * in.PanelWattage,
		UsedAreaM2:   float64(count) * in.PanelAreaM2,
		Simulation:   sim,
		Notes:        "Auto-laid array (panel count selected from usable roof area).",
	}, nil
}
