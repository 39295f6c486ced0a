package utac

import (
	"testing"
	"utac-backend/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var ubayeCenter = CenterRecord{
	RaisonSociale:   "SARL CONTROLE TECHNIQUE UBAYE",
	AgreementNumber: "S044C203",
	Enseigne:        "AUTOSUR",
	Adresse:         "ZA DU PLAN DE BARCELONNETTE",
	Ville:           "BARCELONNETTE",
	Telephone:       "04 92 81 00 00",
	Option:          "VL",
	SiteInternet:    "www.autosur.fr",
}

func TestExtractMatchWithHeaders(t *testing.T) {
	tel := telemetry.NewRecorder()
	extractor := NewExtractor(tel)
	doc := parseDoc(t, readFixture(t, "identifier_results.html"))

	record, ok := extractor.ExtractMatch(doc, "S044C203")
	require.True(t, ok)
	if diff := cmp.Diff(ubayeCenter, record); diff != "" {
		t.Fatal(diff)
	}
	require.False(t, tel.Has(telemetry.REPORT_WARNING, report_extractor_match))

	record, ok = extractor.ExtractMatch(doc, "S004A118")
	require.True(t, ok)
	require.Equal(t, "SAS SECURITEST DIGNE", record.RaisonSociale)
	require.Equal(t, "DIGNE LES BAINS 04000", record.Ville)
	require.Equal(t, "04000", record.CodePostal)
	require.Equal(t, "", record.SiteInternet)
}

func TestExtractMatchPositionalFallback(t *testing.T) {
	tel := telemetry.NewRecorder()
	extractor := NewExtractor(tel)
	doc := parseDoc(t, readFixture(t, "identifier_results_no_headers.html"))

	record, ok := extractor.ExtractMatch(doc, "S044C203")
	require.True(t, ok)

	expected := ubayeCenter
	expected.Ville = "BARCELONNETTE 04400"
	expected.CodePostal = "04400"
	if diff := cmp.Diff(expected, record); diff != "" {
		t.Fatal(diff)
	}
	require.True(t, tel.Has(telemetry.REPORT_WARNING, report_extractor_match))
}

func TestExtractMatchReorderedHeaders(t *testing.T) {
	doc := parseDoc(t, `<table>
		<tr><th>Ville</th><th>Raison Sociale</th><th>N° Agrément</th><th>Téléphone</th></tr>
		<tr><td>METZ 57000</td><td>CT METZ</td><td>S057B001</td><td>03 87 00 00 00</td></tr>
	</table>`)

	record, ok := NewExtractor(telemetry.NewRecorder()).ExtractMatch(doc, "S057B001")
	require.True(t, ok)
	require.Equal(t, CenterRecord{
		RaisonSociale:   "CT METZ",
		AgreementNumber: "S057B001",
		Ville:           "METZ 57000",
		CodePostal:      "57000",
		Telephone:       "03 87 00 00 00",
	}, record)
}

func TestExtractMatchFuzzyHeader(t *testing.T) {
	doc := parseDoc(t, `<table>
		<tr><th>Raison socale</th><th>Adrese</th></tr>
		<tr><td>CT DIGNE</td><td>S004A118 ZONE ARTISANALE</td></tr>
	</table>`)

	record, ok := NewExtractor(telemetry.NewRecorder()).ExtractMatch(doc, "S004A118")
	require.True(t, ok)
	require.Equal(t, "CT DIGNE", record.RaisonSociale)
	require.Equal(t, "S004A118 ZONE ARTISANALE", record.Adresse)
	require.Equal(t, "S004A118", record.AgreementNumber)
}

func TestExtractMatchMissing(t *testing.T) {
	extractor := NewExtractor(telemetry.NewRecorder())

	testCases := []struct {
		name       string
		body       string
		identifier string
	}{
		{name: "no rows", body: readFixture(t, "no_results.html"), identifier: "S044C203"},
		{name: "other identifier", body: readFixture(t, "identifier_results.html"), identifier: "S999Z999"},
		{name: "short row without headers", body: `<table><tr><td>S044C203</td><td>x</td></tr></table>`, identifier: "S044C203"},
		{name: "empty identifier", body: readFixture(t, "identifier_results.html"), identifier: ""},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, ok := extractor.ExtractMatch(parseDoc(t, test.body), test.identifier)
			require.False(t, ok)
		})
	}
}

func TestExtractRegion(t *testing.T) {
	extractor := NewExtractor(telemetry.NewRecorder())
	doc := parseDoc(t, renderResultsPage(regionCenters("04", 10), 1, 2))

	records := extractor.ExtractRegion(doc, "04")
	require.Len(t, records, 10)
	require.Equal(t, CenterRecord{
		RaisonSociale:   "CENTRE 04-00",
		AgreementNumber: "S04A000",
		Enseigne:        "AUTOSUR",
		Adresse:         "1 RUE DU STADE",
		Ville:           "VILLE 04000",
		CodePostal:      "04000",
		Telephone:       "01 02 03 04 05",
		Option:          "VL",
		SiteInternet:    "",
	}, records[0])
	for _, r := range records {
		require.Empty(t, r.RegionCode)
		require.NotEqual(t, "S057Z999", r.AgreementNumber)
	}
}

func TestExtractRegionPositional(t *testing.T) {
	doc := parseDoc(t, `<table>
		<tr><td>A</td><td>B</td><td>C</td><td>D</td><td>E 97110</td><td>F</td><td>G</td><td>H</td><td>Voir</td></tr>
		<tr><td>A</td><td>B</td><td>C</td><td>D</td><td>E 97110</td><td>F</td><td>G</td></tr>
		<tr><td>A</td><td>B</td><td>C</td><td>D</td><td>E 97200</td><td>F</td><td>G</td><td>H</td></tr>
	</table>`)

	records := NewExtractor(telemetry.NewRecorder()).ExtractRegion(doc, "971")
	require.Equal(t, []CenterRecord{{
		RaisonSociale:   "A",
		AgreementNumber: "B",
		Enseigne:        "C",
		Adresse:         "D",
		Ville:           "E 97110",
		CodePostal:      "97110",
		Telephone:       "F",
		Option:          "G",
		SiteInternet:    "H",
	}}, records)
}

func TestExtractRegionNoRows(t *testing.T) {
	records := NewExtractor(telemetry.NewRecorder()).ExtractRegion(parseDoc(t, readFixture(t, "no_results.html")), "04")
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestParseDetailPage(t *testing.T) {
	record := parseDetailPage(parseDoc(t, readFixture(t, "detail_page.html")), "S044C203")
	require.Equal(t, CenterRecord{
		AgreementNumber: "S044C203",
		RaisonSociale:   "SARL CONTROLE TECHNIQUE UBAYE",
		Enseigne:        "AUTOSUR",
		Adresse:         "ZA DU PLAN DE BARCELONNETTE",
		Ville:           "BARCELONNETTE 04400",
		CodePostal:      "04400",
		Telephone:       "04 92 81 00 00",
	}, record)
}

func TestParseDetailPageElements(t *testing.T) {
	doc := parseDoc(t, `<div><span>Option: VL</span><span>Enseigne: DEKRA</span></div>`)
	record := parseDetailPage(doc, "S005X001")
	require.Equal(t, "DEKRA", record.Enseigne)
	require.Equal(t, "VL", record.Option)
	require.Equal(t, "S005X001", record.AgreementNumber)
}
