package autodesign

import (
	"encoding/json"
	"net/http"

	"Solaire/internal/metrics"
)

type Handler struct {
	DefaultPrice float64
}

func (h *Handler) Solar(w http.ResponseWriter, r *http.Request) {
	var input SolarAutoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if input.PricePerKWh <= 0 && h.DefaultPrice > 0 {
		input.PricePerKWh = h.DefaultPrice
	}
	res, err := Roof(input)
	if err != nil {
		http.Error(w, "Calculation error: "+err.Error(), http.StatusBadRequest)
		return
	}
	metrics.ObserveSimulation("autodesign", res.Simulation.AnnualProduction)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
