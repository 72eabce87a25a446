package solar

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateAnnualProduction_OptimalGeometry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		count   int
		wattage float64
		lat     float64
	}{
		{name: "mid latitude", count: 20, wattage: 0.4, lat: 45},
		{name: "southern hemisphere", count: 12, wattage: 0.375, lat: -33.9},
		{name: "equator", count: 1, wattage: 0.3, lat: 0},
		{name: "large array", count: 400, wattage: 0.55, lat: 51.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			loc := SiteLocation{Lat: tt.lat, Lng: 2.35}
			got := EstimateAnnualProduction(tt.count, tt.wattage, 180, math.Abs(tt.lat), loc)
			want := float64(tt.count) * tt.wattage * 1000 * (0.8 + tt.lat/100)
			assert.Equal(t, want, got)
		})
	}
}

func TestEstimateAnnualProduction_ZeroPanels(t *testing.T) {
	t.Parallel()

	for _, orientation := range []float64{0, 90, 180, 270, 359} {
		got := EstimateAnnualProduction(0, 0.4, orientation, 60, SiteLocation{Lat: 48.8})
		assert.Equal(t, 0.0, got, "orientation %v", orientation)
	}
}

func TestEstimateAnnualProduction_Scenario(t *testing.T) {
	t.Parallel()

	production := EstimateAnnualProduction(20, 0.4, 180, 30, SiteLocation{Lat: 45, Lng: 0})
	assert.InDelta(t, 8000*math.Cos(15*math.Pi/180)*1.25, production, 1e-9)
	assert.InDelta(t, 9659, production, 1)

	savings := ProjectSavingsDefault(production)
	assert.InDelta(t, 1931.8, savings.AnnualSavings, 0.1)
	assert.InDelta(t, 161.0, savings.MonthlySavings, 0.1)
	assert.InDelta(t, 34772.4, savings.TwentyYearSavings, 2)
}

func TestEstimateAnnualProduction_IgnoresLongitude(t *testing.T) {
	t.Parallel()

	a := EstimateAnnualProduction(10, 0.4, 160, 25, SiteLocation{Lat: 43.6, Lng: 1.44})
	b := EstimateAnnualProduction(10, 0.4, 160, 25, SiteLocation{Lat: 43.6, Lng: -120})
	assert.Equal(t, a, b)
}

func TestEstimateAnnualProduction_NorthFacingIsNegative(t *testing.T) {
	t.Parallel()

	got := EstimateAnnualProduction(10, 0.4, 0, 45, SiteLocation{Lat: 45})
	assert.Less(t, got, 0.0)
}

func TestEstimate_MatchesScalarForm(t *testing.T) {
	t.Parallel()

	loc := SiteLocation{Lat: 47.2, Lng: -1.55}
	got := Estimate(PanelArrayConfig{PanelCount: 8, PanelWattage: 0.42}, SiteOrientation{OrientationDeg: 200, TiltDeg: 35}, loc)
	assert.Equal(t, EstimateAnnualProduction(8, 0.42, 200, 35, loc), got.AnnualProductionKWh)
}

func TestProjectSavings(t *testing.T) {
	t.Parallel()

	for _, price := range []float64{0.20, 0.2516, 0, 1.5} {
		assert.Equal(t, SavingsProjection{}, ProjectSavings(0, price))
	}

	for _, kwh := range []float64{1, 9659.26, 12345.678, -420} {
		for _, price := range []float64{0.1, 0.20, 0.27} {
			p := ProjectSavings(kwh, price)
			assert.Equal(t, kwh*price, p.AnnualSavings)
			assert.Equal(t, p.AnnualSavings/12, p.MonthlySavings)
			assert.Equal(t, p.AnnualSavings*18, p.TwentyYearSavings)
		}
	}
}

func TestProjectSavings_NegativePropagates(t *testing.T) {
	t.Parallel()

	p := ProjectSavings(-1000, 0.2)
	assert.Less(t, p.AnnualSavings, 0.0)
	assert.Less(t, p.TwentyYearSavings, 0.0)
}

func TestPaybackYears(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 6.25, PaybackYears(12500, 2000), 1e-9)
	assert.Zero(t, PaybackYears(0, 2000))
	assert.Zero(t, PaybackYears(12500, 0))
	assert.Zero(t, PaybackYears(12500, -50))
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	t.Run("defaults price", func(t *testing.T) {
		res, err := Calculate(Input{PanelCount: 20, PanelWattage: 0.4, OrientationDeg: 180, TiltDeg: 30, Location: SiteLocation{Lat: 45}})
		require.NoError(t, err)
		assert.Equal(t, DefaultElectricityPrice, res.PricePerKWh)
		assert.InDelta(t, 1931.8, res.AnnualSavings, 0.1)
		assert.Zero(t, res.PaybackPeriod)
		assert.Empty(t, res.Warnings)
	})

	t.Run("payback with install cost", func(t *testing.T) {
		res, err := Calculate(Input{PanelCount: 20, PanelWattage: 0.4, OrientationDeg: 180, TiltDeg: 45, Location: SiteLocation{Lat: 45}, PricePerKWh: 0.25, InstallCost: 10000})
		require.NoError(t, err)
		assert.InDelta(t, 10000/(10000*0.25), res.PaybackPeriod, 1e-9)
	})

	t.Run("warns on negative production", func(t *testing.T) {
		res, err := Calculate(Input{PanelCount: 10, PanelWattage: 0.4, OrientationDeg: 0, TiltDeg: 45, Location: SiteLocation{Lat: 45}})
		require.NoError(t, err)
		assert.Less(t, res.AnnualProduction, 0.0)
		assert.Contains(t, res.Warnings, WarnNegativeProduction)
	})

	t.Run("rejects unusable array", func(t *testing.T) {
		_, err := Calculate(Input{PanelCount: -1, PanelWattage: 0.4})
		require.Error(t, err)
		_, err = Calculate(Input{PanelCount: 4, PanelWattage: 0})
		require.Error(t, err)
	})
}

func TestHandlerCalc(t *testing.T) {
	t.Parallel()

	h := &Handler{DefaultPrice: 0.25}

	body, err := json.Marshal(Input{PanelCount: 10, PanelWattage: 0.4, OrientationDeg: 180, TiltDeg: 45, Location: SiteLocation{Lat: 45}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/api/user/tools/solar/calc", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 0.25, res.PricePerKWh)
	assert.InDelta(t, 5000, res.AnnualProduction, 1e-6)

	rec = httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/api/user/tools/solar/calc", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
