package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
	"utac-backend/internal/crawl"
	"utac-backend/internal/scrapers/utac"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func printJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(value)
}

func renderCenter(c utac.CenterRecord) {
	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Agreement", c.AgreementNumber},
		{"Raison sociale", c.RaisonSociale},
		{"Enseigne", c.Enseigne},
		{"Adresse", c.Adresse},
		{"Ville", c.Ville},
		{"Code postal", c.CodePostal},
		{"Telephone", c.Telephone},
		{"Option", c.Option},
		{"Site internet", c.SiteInternet},
		{"Source", c.Source},
	})
	t.Render()
}

func renderCenters(centers []utac.CenterRecord) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Agreement", "Raison sociale", "Enseigne", "Ville", "Telephone"})
	for i, c := range centers {
		t.AppendRow(table.Row{i + 1, c.AgreementNumber, c.RaisonSociale, c.Enseigne, c.Ville, c.Telephone})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(centers)})
	t.Render()
}

func renderReport(report crawl.AggregateReport) {
	t := newTable()
	t.AppendHeader(table.Row{"Region", "Status", "Centers", "Duration", "Error"})
	for _, stat := range report.PerRegion {
		status := string(stat.Status)
		if stat.Resumed {
			status += " (resumed)"
		}
		t.AppendRow(table.Row{
			stat.Code,
			status,
			stat.Count,
			stat.Duration.Round(time.Millisecond),
			stat.ErrorMessage,
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		fmt.Sprintf("%d/%d ok", report.SuccessfulRegions, report.TotalRegions),
		report.TotalCenters,
		report.TotalDuration.Round(time.Second),
		"",
	})
	t.Render()
}
