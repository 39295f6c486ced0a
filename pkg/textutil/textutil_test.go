package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCityPostal(t *testing.T) {
	testCases := []struct {
		input  string
		city   string
		postal string
	}{
		{input: "METZ 57000", city: "METZ", postal: "57000"},
		{input: "ST SEBASTIEN SUR LOIRE 44230", city: "ST SEBASTIEN SUR LOIRE", postal: "44230"},
		{input: "PARIS 16EME ARRONDISSEMENT 75016", city: "PARIS 16EME ARRONDISSEMENT", postal: "75016"},
		{input: "AIX EN PROVENCE 13090", city: "AIX EN PROVENCE", postal: "13090"},
		{input: "BARCELONNETTE 04400", city: "BARCELONNETTE", postal: "04400"},
		{input: "SAINT-DENIS 93200", city: "SAINT-DENIS", postal: "93200"},
		{input: "FORT DE FRANCE 97200", city: "FORT DE FRANCE", postal: "97200"},
		{input: "NOUMEA 98800", city: "NOUMEA", postal: "98800"},
		{input: "  LA GARDE 83130  ", city: "LA GARDE", postal: "83130"},
		{input: "VILLE SANS CODE", city: "VILLE SANS CODE", postal: ""},
		{input: "CODE TROP LONG 123456", city: "CODE TROP LONG 123456", postal: ""},
		{input: "", city: "", postal: ""},
	}

	for _, test := range testCases {
		t.Run(test.input, func(t *testing.T) {
			city, postal := SplitCityPostal(test.input)
			require.Equal(t, test.city, city)
			require.Equal(t, test.postal, postal)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Raison Sociale", expected: "raison sociale"},
		{input: " Tél. ", expected: "tel."},
		{input: "N° d'agrément", expected: "n° d'agrement"},
		{input: "Site\n   Internet", expected: "site internet"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeName(test.input))
	}
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("N° d'Agrément", []string{"agrement"}))
	require.True(t, MatchName("Tél.", []string{"tel"}))
	require.False(t, MatchName("Adresse", []string{"ville", "tel"}))
}

func TestSimilar(t *testing.T) {
	require.True(t, Similar("Raison socale", "raison sociale", 0.9))
	require.False(t, Similar("Option", "raison sociale", 0.9))
	require.False(t, Similar("", "ville", 0.9))
}
