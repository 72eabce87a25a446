package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Solaire/internal/calc/solar"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEstimateJSON(t *testing.T) {
	out, err := run(t, "estimate", "--panels", "20", "--wattage", "0.4", "--lat", "45", "--tilt", "30", "--json")
	require.NoError(t, err)

	var res solar.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 9659, res.AnnualProduction, 1)
	assert.InDelta(t, 1931.8, res.AnnualSavings, 0.1)
}

func TestEstimateTable(t *testing.T) {
	out, err := run(t, "estimate", "--panels", "20", "--cost", "15000")
	require.NoError(t, err)
	assert.Contains(t, out, "Production annuelle")
	assert.Contains(t, out, "Retour sur investissement")
	assert.Contains(t, out, "€")
}

func TestEstimateNorthFacingWarns(t *testing.T) {
	out, err := run(t, "estimate", "--orientation", "0")
	require.NoError(t, err)
	assert.Contains(t, out, solar.WarnNegativeProduction)
}

func TestEstimateRejectsBadWattage(t *testing.T) {
	_, err := run(t, "estimate", "--wattage", "0")
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	out, err := run(t, "recommend", "--consumption", "9600")
	require.NoError(t, err)
	assert.Contains(t, out, "Panels: 20")

	_, err = run(t, "recommend")
	assert.Error(t, err)
}
