package recommend

import (
	"fmt"
	"math"

	"Solaire/internal/calc/solar"
)

const defaultMaxPanels = 1000

type SolarRecommendInput struct {
	// TargetConsumptionKWh is the yearly consumption the array should cover.
	TargetConsumptionKWh float64            `json:"target_consumption"`
	PanelWattage         float64            `json:"panel_wattage"`
	OrientationDeg       float64            `json:"orientation"`
	TiltDeg              float64            `json:"tilt"`
	Location             solar.SiteLocation `json:"coordinates"`
	PricePerKWh          float64            `json:"price_per_kwh"`
	MaxPanels            int                `json:"max_panels"`
}

type SolarRecommendResult struct {
	PanelCount       int          `json:"panel_count"`
	AnnualProduction float64      `json:"annual_production"`
	Coverage         float64      `json:"coverage"`
	Simulation       solar.Result `json:"simulation"`
	Notes            string       `json:"notes"`
}

// PanelCount returns the smallest array whose estimated production covers
// the target. Geometry that yields nothing per panel cannot be sized.
func PanelCount(in SolarRecommendInput) (SolarRecommendResult, error) {
	if !(in.TargetConsumptionKWh > 0) || !(in.PanelWattage > 0) {
		return SolarRecommendResult{}, fmt.Errorf("invalid input")
	}
	if in.MaxPanels <= 0 {
		in.MaxPanels = defaultMaxPanels
	}
	perPanel := solar.EstimateAnnualProduction(1, in.PanelWattage, in.OrientationDeg, in.TiltDeg, in.Location)
	if !(perPanel > 0) {
		return SolarRecommendResult{}, fmt.Errorf("orientation and tilt yield no production")
	}

	produce := func(n int) float64 {
		return solar.EstimateAnnualProduction(n, in.PanelWattage, in.OrientationDeg, in.TiltDeg, in.Location)
	}
	need := math.Ceil(in.TargetConsumptionKWh / perPanel)
	if need > float64(in.MaxPanels) {
		return SolarRecommendResult{}, fmt.Errorf("target needs %.0f panels, limit is %d", need, in.MaxPanels)
	}
	n := int(need)
	// float rounding can leave n one off either way
	for n > 1 && produce(n-1) >= in.TargetConsumptionKWh {
		n--
	}
	for n <= in.MaxPanels && produce(n) < in.TargetConsumptionKWh {
		n++
	}
	if n > in.MaxPanels {
		return SolarRecommendResult{}, fmt.Errorf("target needs %d panels, limit is %d", n, in.MaxPanels)
	}

	sim, err := solar.Calculate(solar.Input{
		PanelCount:     n,
		PanelWattage:   in.PanelWattage,
		OrientationDeg: in.OrientationDeg,
		TiltDeg:        in.TiltDeg,
		Location:       in.Location,
		PricePerKWh:    in.PricePerKWh,
	})
	if err != nil {
		return SolarRecommendResult{}, err
	}
	return SolarRecommendResult{
		PanelCount:       n,
		AnnualProduction: sim.AnnualProduction,
		Coverage:         sim.AnnualProduction / in.TargetConsumptionKWh,
		Simulation:       sim,
		Notes:            "Smallest panel count covering the yearly consumption.",
	}, nil
}
