package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEV-2026-0001", QuoteNumber(2026, 1))
	assert.Equal(t, "DEV-2025-0420", QuoteNumber(2025, 420))
	assert.Equal(t, "DEV-2025-12345", QuoteNumber(2025, 12345))
}

func TestStatusValidation(t *testing.T) {
	t.Parallel()

	for _, s := range ProjectStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ProjectStatus("archived").Valid())
	assert.True(t, QuoteAccepted.Valid())
	assert.False(t, QuoteStatus("").Valid())
	assert.True(t, RoleTechnician.Valid())
	assert.False(t, Role("root").Valid())
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	var roof RoofData
	require.NoError(t, fromJSON(nil, &roof))
	assert.Equal(t, RoofData{}, roof)

	body, err := toJSON(RoofData{Orientation: 180, Tilt: 30, Coordinates: Coordinates{Lat: 45}})
	require.NoError(t, err)
	require.NoError(t, fromJSON([]byte(body), &roof))
	assert.Equal(t, 180.0, roof.Orientation)
	assert.Equal(t, 45.0, roof.Coordinates.Lat)
}

func TestErrorTranslation(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, notFound(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, notFound(fmt.Errorf("scan: %w", sql.ErrNoRows)), ErrNotFound)
	assert.Nil(t, notFound(nil))

	other := errors.New("boom")
	assert.Equal(t, other, notFound(other))

	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(other))
}
