package solar

import (
	"fmt"
	"math"
)

const (
	DefaultElectricityPrice = 0.20

	// idealized full-sun-hours baseline, kWh per installed unit of wattage
	yieldPerWatt = 1000.0

	optimalOrientationDeg = 180.0
	geoBase               = 0.8

	horizonYears      = 20
	degradationFactor = 0.9
	lifetimeFactor    = horizonYears * degradationFactor
)

type PanelArrayConfig struct {
	PanelCount   int     `json:"panel_count"`
	PanelWattage float64 `json:"panel_wattage"`
}

type SiteOrientation struct {
	OrientationDeg float64 `json:"orientation"`
	TiltDeg        float64 `json:"tilt"`
}

type SiteLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type YieldEstimate struct {
	AnnualProductionKWh float64 `json:"annual_production"`
}

type SavingsProjection struct {
	AnnualSavings     float64 `json:"annual_savings"`
	MonthlySavings    float64 `json:"monthly_savings"`
	TwentyYearSavings float64 `json:"twenty_year_savings"`
}

// EstimateAnnualProduction returns the estimated yearly yield in kWh.
// Orientation is in degrees with 180 (south) optimal, tilt in degrees from
// horizontal. Factors are not clamped: arrays more than 90 degrees off
// optimal yield a negative figure. Longitude does not take part.
func EstimateAnnualProduction(panelCount int, panelWattage, orientationDeg, tiltDeg float64, loc SiteLocation) float64 {
	base := float64(panelCount) * panelWattage * yieldPerWatt
	orientationFactor := math.Cos(radians(math.Abs(orientationDeg - optimalOrientationDeg)))
	optimalTilt := math.Abs(loc.Lat)
	tiltFactor := math.Cos(radians(math.Abs(tiltDeg - optimalTilt)))
	geoFactor := geoBase + loc.Lat/100
	return base * orientationFactor * tiltFactor * geoFactor
}

func Estimate(cfg PanelArrayConfig, o SiteOrientation, loc SiteLocation) YieldEstimate {
	return YieldEstimate{
		AnnualProductionKWh: EstimateAnnualProduction(cfg.PanelCount, cfg.PanelWattage, o.OrientationDeg, o.TiltDeg, loc),
	}
}

// ProjectSavings converts a yearly yield into savings at the given price.
// The twenty year figure applies a flat 10% degradation over the horizon.
func ProjectSavings(annualKWh, pricePerKWh float64) SavingsProjection {
	annual := annualKWh * pricePerKWh
	return SavingsProjection{
		AnnualSavings:     annual,
		MonthlySavings:    annual / 12,
		TwentyYearSavings: annual * lifetimeFactor,
	}
}

func ProjectSavingsDefault(annualKWh float64) SavingsProjection {
	return ProjectSavings(annualKWh, DefaultElectricityPrice)
}

// PaybackYears is zero when either the cost or the savings are not positive.
func PaybackYears(installCost, annualSavings float64) float64 {
	if installCost <= 0 || annualSavings <= 0 {
		return 0
	}
	return installCost / annualSavings
}

type Input struct {
	PanelCount     int          `json:"panel_count"`
	PanelWattage   float64      `json:"panel_wattage"`
	OrientationDeg float64      `json:"orientation"`
	TiltDeg        float64      `json:"tilt"`
	Location       SiteLocation `json:"coordinates"`
	PricePerKWh    float64      `json:"price_per_kwh"`
	InstallCost    float64      `json:"install_cost"`
}

type Result struct {
	AnnualProduction  float64  `json:"annual_production"`
	AnnualSavings     float64  `json:"annual_savings"`
	MonthlySavings    float64  `json:"monthly_savings"`
	TwentyYearSavings float64  `json:"twenty_year_savings"`
	PaybackPeriod     float64  `json:"payback_period"`
	PricePerKWh       float64  `json:"price_per_kwh"`
	Warnings          []string `json:"warnings,omitempty"`
	Notes             string   `json:"notes"`
}

const WarnNegativeProduction = "orientation or tilt more than 90 degrees off optimal, production is negative"

func Calculate(in Input) (Result, error) {
	if in.PanelCount < 0 || in.PanelWattage <= 0 {
		return Result{}, fmt.Errorf("invalid panel configuration")
	}
	if in.PricePerKWh <= 0 {
		in.PricePerKWh = DefaultElectricityPrice
	}

	production := EstimateAnnualProduction(in.PanelCount, in.PanelWattage, in.OrientationDeg, in.TiltDeg, in.Location)
	savings := ProjectSavings(production, in.PricePerKWh)

	res := Result{
		AnnualProduction:  production,
		AnnualSavings:     savings.AnnualSavings,
		MonthlySavings:    savings.MonthlySavings,
		TwentyYearSavings: savings.TwentyYearSavings,
		PaybackPeriod:     PaybackYears(in.InstallCost, savings.AnnualSavings),
		PricePerKWh:       in.PricePerKWh,
		Notes:             "Simplified yield model: orientation, tilt and latitude factors over a 1000 h baseline.",
	}
	if production < 0 {
		res.Warnings = append(res.Warnings, WarnNegativeProduction)
	}
	return res, nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
