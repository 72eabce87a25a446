package recommend

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Solaire/internal/calc/solar"
)

func input(target float64) SolarRecommendInput {
	return SolarRecommendInput{
		TargetConsumptionKWh: target,
		PanelWattage:         0.4,
		OrientationDeg:       180,
		TiltDeg:              30,
		Location:             solar.SiteLocation{Lat: 45},
	}
}

func TestPanelCount_IsMinimal(t *testing.T) {
	t.Parallel()

	for _, target := range []float64{1, 482.96, 4500, 9659, 12000, 50000} {
		res, err := PanelCount(input(target))
		require.NoError(t, err, "target %v", target)

		assert.GreaterOrEqual(t, res.AnnualProduction, target)
		if res.PanelCount > 1 {
			below := solar.EstimateAnnualProduction(res.PanelCount-1, 0.4, 180, 30, solar.SiteLocation{Lat: 45})
			assert.Less(t, below, target)
		}
		assert.GreaterOrEqual(t, res.Coverage, 1.0)
	}
}

func TestPanelCount_Scenario(t *testing.T) {
	t.Parallel()

	// 20 panels of 400 W produce about 9659 kWh at 45N, south, 30 degrees
	res, err := PanelCount(input(9600))
	require.NoError(t, err)
	assert.Equal(t, 20, res.PanelCount)
	assert.Equal(t, solar.DefaultElectricityPrice, res.Simulation.PricePerKWh)
}

func TestPanelCount_Errors(t *testing.T) {
	t.Parallel()

	_, err := PanelCount(input(0))
	assert.Error(t, err)
	_, err = PanelCount(input(math.NaN()))
	assert.Error(t, err)

	north := input(5000)
	north.OrientationDeg = 0
	_, err = PanelCount(north)
	assert.ErrorContains(t, err, "no production")

	capped := input(50000)
	capped.MaxPanels = 10
	_, err = PanelCount(capped)
	assert.ErrorContains(t, err, "limit is 10")
}

func TestPanelCount_HugeTargetReturns(t *testing.T) {
	t.Parallel()

	for _, target := range []float64{1e30, 1e300, 9.3e18 * 482.96} {
		done := make(chan error, 1)
		go func() {
			_, err := PanelCount(input(target))
			done <- err
		}()
		select {
		case err := <-done:
			assert.ErrorContains(t, err, "limit is 1000", "target %v", target)
		case <-time.After(5 * time.Second):
			t.Fatalf("PanelCount did not return for target %v", target)
		}
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(input(4000))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	(&Handler{DefaultPrice: 0.18}).Solar(rec, httptest.NewRequest(http.MethodPost, "/api/user/tools/solar/recommend", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var res SolarRecommendResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Positive(t, res.PanelCount)
	assert.Equal(t, 0.18, res.Simulation.PricePerKWh)

	rec = httptest.NewRecorder()
	(&Handler{}).Solar(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
