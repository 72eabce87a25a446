package batch

import (
	"encoding/json"
	"net/http"

	"Solaire/internal/metrics"
)

type Handler struct {
	DefaultPrice float64
}

func (h *Handler) Solar(w http.ResponseWriter, r *http.Request) {
	var input SolarBatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	for i := range input.Items {
		if input.Items[i].PricePerKWh <= 0 && h.DefaultPrice > 0 {
			input.Items[i].PricePerKWh = h.DefaultPrice
		}
	}
	res, err := CalculateSolar(input)
	if err != nil {
		http.Error(w, "Calculation error: "+err.Error(), http.StatusBadRequest)
		return
	}
	for _, item := range res.Results {
		metrics.ObserveSimulation("batch", item.AnnualProduction)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
