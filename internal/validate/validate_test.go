package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"jean.dupont@email.com", true},
		{"a@b.fr", true},
		{"prenom+tag@sous.domaine.org", true},
		{"not-an-email", false},
		{"", false},
		{"jean@localhost", false},
		{"jean dupont@email.com", false},
		{"@email.com", false},
		{"jean@@email.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Email(tt.in), "Email(%q)", tt.in)
	}
}

func TestPhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"06 12 34 56 78", true},
		{"+33 6 12 34 56 78", true},
		{"0612345678", true},
		{"+33612345678", true},
		{"0033612345678", true},
		{"01.23.45.67.89", true},
		{"07-12-34-56-78", true},
		{"123", false},
		{"", false},
		{"00 12 34 56 78", false},
		{"06 12 34 56 7", false},
		{"+44 20 7946 0958", false},
		{"+1 555 123 4567", false},
		{"06  12 34 56 78", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Phone(tt.in), "Phone(%q)", tt.in)
	}
}

func TestPDL(t *testing.T) {
	t.Parallel()

	assert.True(t, PDL("12345678901234"))
	assert.False(t, PDL("1234567890123"))
	assert.False(t, PDL("1234567890123a"))
	assert.False(t, PDL("123456789012345"))
	assert.False(t, PDL("1234 5678 9012 34"))
	assert.False(t, PDL(""))
}

func TestPostalCode(t *testing.T) {
	t.Parallel()

	assert.True(t, PostalCode("75001"))
	assert.False(t, PostalCode("7500"))
	assert.False(t, PostalCode("75 001"))
	assert.False(t, PostalCode(""))
}

func validClient() ClientFields {
	return ClientFields{
		FirstName:  "Jean",
		LastName:   "Dupont",
		Email:      "jean.dupont@email.com",
		Phone:      "06 12 34 56 78",
		Address:    "123 rue de la République",
		City:       "Paris",
		PostalCode: "75001",
	}
}

func TestClient(t *testing.T) {
	t.Parallel()

	require.NoError(t, Client(validClient()))

	withPDL := validClient()
	withPDL.PDL = "12345678901234"
	require.NoError(t, Client(withPDL))

	bad := validClient()
	bad.Email = "not-an-email"
	bad.Phone = "123"
	bad.PostalCode = "7500"
	bad.PDL = "123"
	bad.City = "  "
	err := Client(bad)
	require.Error(t, err)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 5)
	assert.Equal(t, "Format d'email invalide", fe["email"])
	assert.Equal(t, "La ville est requise", fe["city"])
	assert.Contains(t, err.Error(), "pdl: ")
}

func TestClient_EmptyForm(t *testing.T) {
	t.Parallel()

	var fe FieldErrors
	require.True(t, errors.As(Client(ClientFields{}), &fe))
	assert.Len(t, fe, 7)
	assert.NotContains(t, fe, "pdl")
}
