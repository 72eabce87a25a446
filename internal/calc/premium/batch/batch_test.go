package batch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Solaire/internal/calc/solar"
)

func item(count int) solar.Input {
	return solar.Input{
		PanelCount:     count,
		PanelWattage:   0.4,
		OrientationDeg: 180,
		TiltDeg:        30,
		Location:       solar.SiteLocation{Lat: 45},
	}
}

func TestCalculateSolar(t *testing.T) {
	t.Parallel()

	res, err := CalculateSolar(SolarBatchInput{Items: []solar.Input{item(10), item(20)}})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.InDelta(t, 2*res.Results[0].AnnualProduction, res.Results[1].AnnualProduction, 1e-9)
	assert.InDelta(t, res.Results[0].AnnualProduction+res.Results[1].AnnualProduction, res.TotalProduction, 1e-9)
	assert.InDelta(t, res.Results[0].AnnualSavings+res.Results[1].AnnualSavings, res.TotalAnnualSavings, 1e-9)
}

func TestCalculateSolar_Errors(t *testing.T) {
	t.Parallel()

	_, err := CalculateSolar(SolarBatchInput{})
	assert.Error(t, err)

	bad := item(5)
	bad.PanelWattage = 0
	_, err = CalculateSolar(SolarBatchInput{Items: []solar.Input{item(5), bad}})
	assert.ErrorContains(t, err, "item 1")

	_, err = CalculateSolar(SolarBatchInput{Items: make([]solar.Input, maxItems+1)})
	assert.ErrorContains(t, err, "too many items")
}

func TestHandler_AppliesDefaultPrice(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(SolarBatchInput{Items: []solar.Input{item(20)}})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	(&Handler{DefaultPrice: 0.25}).Solar(rec, httptest.NewRequest(http.MethodPost, "/api/user/tools/solar/batch", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var res SolarBatchResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, 0.25, res.Results[0].PricePerKWh)

	rec = httptest.NewRecorder()
	(&Handler{}).Solar(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"items":[]}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
