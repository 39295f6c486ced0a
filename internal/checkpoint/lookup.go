package checkpoint

import (
	"context"
	"fmt"
	"strings"
	"time"
	"utac-backend/internal/components/db"
	"utac-backend/internal/crawl"
	"utac-backend/internal/scrapers/utac"
	"utac-backend/pkg/textutil"
)

// FindCenters looks saved centers up by agreement number, or by a name
// contained in the raison sociale, enseigne or ville when nothing has that
// agreement number. Accents and case are ignored for names.
func (s DBSink) FindCenters(ctx context.Context, query string) ([]utac.CenterRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []utac.CenterRecord{}, nil
	}

	rows, err := db.FindCenters(ctx, s.db, strings.ToUpper(query))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		all, err := db.ListCenters(ctx, s.db)
		if err != nil {
			return nil, err
		}
		matchers := []string{textutil.NormalizeName(query)}
		for _, row := range all {
			if textutil.MatchName(row.RaisonSociale, matchers) ||
				textutil.MatchName(row.Enseigne, matchers) ||
				textutil.MatchName(row.Ville, matchers) {
				rows = append(rows, row)
			}
		}
	}

	out := make([]utac.CenterRecord, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

// LoadReport rebuilds the summary of a saved run, without its centers.
func (s DBSink) LoadReport(ctx context.Context, runID string) (crawl.AggregateReport, error) {
	run, stats, err := db.GetRun(ctx, s.db, runID)
	if err != nil {
		return crawl.AggregateReport{}, err
	}

	report := crawl.AggregateReport{
		RunID:             run.RunID,
		StartedAt:         run.StartedAt,
		TotalCenters:      run.TotalCenters,
		TotalRegions:      run.TotalRegions,
		SuccessfulRegions: run.SuccessfulRegions,
		FailedRegions:     run.FailedRegions,
		TotalDuration:     time.Duration(run.TotalDurationNs),
		PerRegion:         make([]crawl.RegionStat, len(stats)),
		Errors:            []string{},
		Centers:           []utac.CenterRecord{},
	}
	for i, stat := range stats {
		report.PerRegion[i] = crawl.RegionStat{
			Code:         stat.RegionCode,
			Count:        stat.Count,
			Duration:     time.Duration(stat.DurationNs),
			Status:       crawl.Status(stat.Status),
			ErrorMessage: stat.ErrorMessage,
		}
		switch crawl.Status(stat.Status) {
		case crawl.STATUS_ERROR:
			report.Errors = append(report.Errors, fmt.Sprintf("region %s: %s", stat.RegionCode, stat.ErrorMessage))
		case crawl.STATUS_EXCEPTION:
			report.Errors = append(report.Errors, fmt.Sprintf("region %s: exception: %s", stat.RegionCode, stat.ErrorMessage))
		}
	}
	if report.TotalRegions > 0 {
		report.AverageCentersPerRegion = float64(report.TotalCenters) / float64(report.TotalRegions)
	}
	if seconds := report.TotalDuration.Seconds(); seconds > 0 {
		report.CentersPerSecond = float64(report.TotalCenters) / seconds
	}
	return report, nil
}
