package batch

import (
	"fmt"

	"Solaire/internal/calc/solar"
)

const maxItems = 500

type SolarBatchInput struct {
	Items []solar.Input `json:"items"`
}

type SolarBatchResult struct {
	Results            []solar.Result `json:"results"`
	TotalProduction    float64        `json:"total_production"`
	TotalAnnualSavings float64        `json:"total_annual_savings"`
}

// CalculateSolar runs every item through solar.Calculate. The first invalid
// item fails the whole batch.
func CalculateSolar(in SolarBatchInput) (SolarBatchResult, error) {
	if len(in.Items) == 0 {
		return SolarBatchResult{}, fmt.Errorf("no items")
	}
	if len(in.Items) > maxItems {
		return SolarBatchResult{}, fmt.Errorf("too many items: %d > %d", len(in.Items), maxItems)
	}
	out := SolarBatchResult{Results: make([]solar.Result, 0, len(in.Items))}
	for i, item := range in.Items {
		res, err := solar.Calculate(item)
		if err != nil {
			return SolarBatchResult{}, fmt.Errorf("item %d: %w", i, err)
		}
		out.Results = append(out.Results, res)
		out.TotalProduction += res.AnnualProduction
		out.TotalAnnualSavings += res.AnnualSavings
	}
	return out, nil
}
