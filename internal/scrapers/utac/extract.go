package utac

import (
	"strings"
	"utac-backend/internal/components/assert"
	"utac-backend/internal/components/telemetry"
	"utac-backend/pkg/htmlutil"
	"utac-backend/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	report_extractor_match  = "extractor.match"
	report_extractor_region = "extractor.region"
)

// positionalColumns is the layout of the result grid, some of these
// columns are hidden by the site but are still present in the markup.
const positionalColumns = 8

type column int

const (
	COLUMN_RAISON_SOCIALE column = iota
	COLUMN_AGREEMENT_NUMBER
	COLUMN_ENSEIGNE
	COLUMN_ADRESSE
	COLUMN_VILLE
	COLUMN_TELEPHONE
	COLUMN_OPTION
	COLUMN_SITE_INTERNET
)

// headerKeywords are tried in order, the first one a header contains wins.
var headerKeywords = []struct {
	keyword string
	column  column
}{
	{keyword: "raison sociale", column: COLUMN_RAISON_SOCIALE},
	{keyword: "agrement", column: COLUMN_AGREEMENT_NUMBER},
	{keyword: "enseigne", column: COLUMN_ENSEIGNE},
	{keyword: "adresse", column: COLUMN_ADRESSE},
	{keyword: "ville", column: COLUMN_VILLE},
	{keyword: "tel", column: COLUMN_TELEPHONE},
	{keyword: "option", column: COLUMN_OPTION},
	{keyword: "site internet", column: COLUMN_SITE_INTERNET},
}

const headerSimilarity = 0.9

func matchHeader(text string) (column, bool) {
	normalized := textutil.NormalizeName(text)
	if normalized == "" {
		return 0, false
	}
	for _, k := range headerKeywords {
		if textutil.MatchName(normalized, []string{k.keyword}) {
			return k.column, true
		}
	}
	for _, k := range headerKeywords {
		if textutil.Similar(normalized, k.keyword, headerSimilarity) {
			return k.column, true
		}
	}
	return 0, false
}

// headerMap maps columns to cell indexes using the th cells of a table.
type headerMap map[column]int

func tableHeaderMap(table *goquery.Selection) headerMap {
	out := headerMap{}
	for _, row := range htmlutil.OwnRows(table) {
		headers := row.ChildrenFiltered("th")
		if headers.Length() == 0 {
			continue
		}
		headers.Each(func(i int, th *goquery.Selection) {
			col, ok := matchHeader(th.Text())
			if !ok {
				return
			}
			if _, exists := out[col]; !exists {
				out[col] = i
			}
		})
		break
	}
	return out
}

func cellAt(cells []*html.Node, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return htmlutil.NodeText(cells[i])
}

func recordFromPositions(cells []*html.Node) CenterRecord {
	return CenterRecord{
		RaisonSociale:   cellAt(cells, int(COLUMN_RAISON_SOCIALE)),
		AgreementNumber: cellAt(cells, int(COLUMN_AGREEMENT_NUMBER)),
		Enseigne:        cellAt(cells, int(COLUMN_ENSEIGNE)),
		Adresse:         cellAt(cells, int(COLUMN_ADRESSE)),
		Ville:           cellAt(cells, int(COLUMN_VILLE)),
		Telephone:       cellAt(cells, int(COLUMN_TELEPHONE)),
		Option:          cellAt(cells, int(COLUMN_OPTION)),
		SiteInternet:    cellAt(cells, int(COLUMN_SITE_INTERNET)),
	}
}

func recordFromHeaders(cells []*html.Node, headers headerMap) CenterRecord {
	at := func(col column) string {
		i, ok := headers[col]
		if !ok {
			return ""
		}
		return cellAt(cells, i)
	}
	return CenterRecord{
		RaisonSociale:   at(COLUMN_RAISON_SOCIALE),
		AgreementNumber: at(COLUMN_AGREEMENT_NUMBER),
		Enseigne:        at(COLUMN_ENSEIGNE),
		Adresse:         at(COLUMN_ADRESSE),
		Ville:           at(COLUMN_VILLE),
		Telephone:       at(COLUMN_TELEPHONE),
		Option:          at(COLUMN_OPTION),
		SiteInternet:    at(COLUMN_SITE_INTERNET),
	}
}

// withPostalCode fills CodePostal from the city cell, Ville is kept as
// the site renders it.
func withPostalCode(r CenterRecord) CenterRecord {
	_, r.CodePostal = textutil.SplitCityPostal(r.Ville)
	return r
}

// Extractor turns result pages into center records.
type Extractor struct {
	tel telemetry.API
}

func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{tel: tel}
}

// ExtractMatch returns the first row of any table whose text contains the
// identifier. Columns come from the table headers when they can be
// recognized, rows of 8 or more cells fall back to the fixed layout.
func (x Extractor) ExtractMatch(doc *goquery.Document, identifier string) (CenterRecord, bool) {
	if identifier == "" {
		return CenterRecord{}, false
	}

	var record CenterRecord
	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := tableHeaderMap(table)
		for _, row := range htmlutil.OwnRows(table) {
			cells := htmlutil.Cells(row)
			if !strings.Contains(htmlutil.RowText(cells), identifier) {
				continue
			}

			switch {
			case len(headers) > 0:
				record = recordFromHeaders(cells, headers)
			case len(cells) >= positionalColumns:
				x.tel.ReportWarning(report_extractor_match, "parse ambiguous: no recognizable headers, using fixed columns", identifier)
				record = recordFromPositions(cells)
			default:
				continue
			}
			found = true
			return false
		}
		return true
	})
	if !found {
		return CenterRecord{}, false
	}

	if record.AgreementNumber == "" {
		record.AgreementNumber = identifier
	}
	return withPostalCode(record), true
}

// ExtractRegion returns every row of 8 or more cells that belongs to the
// region, mapped with the fixed layout.
func (x Extractor) ExtractRegion(doc *goquery.Document, region RegionCode) []CenterRecord {
	records := []CenterRecord{}
	skipped := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		for _, row := range htmlutil.OwnRows(table) {
			cells := htmlutil.Cells(row)
			if len(cells) < positionalColumns {
				continue
			}
			if !region.Matches(htmlutil.RowText(cells)) {
				skipped++
				continue
			}
			records = append(records, withPostalCode(recordFromPositions(cells)))
		}
	})
	if skipped > 0 {
		x.tel.ReportDebug(report_extractor_region, "rows outside of region", region.String(), skipped)
	}
	return records
}
