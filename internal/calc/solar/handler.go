package solar

import (
	"encoding/json"
	"net/http"

	"Solaire/internal/metrics"
)

type Handler struct {
	// DefaultPrice replaces DefaultElectricityPrice when the request has none.
	DefaultPrice float64
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if input.PricePerKWh <= 0 && h.DefaultPrice > 0 {
		input.PricePerKWh = h.DefaultPrice
	}
	res, err := Calculate(input)
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}
	metrics.ObserveSimulation("tool", res.AnnualProduction)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
