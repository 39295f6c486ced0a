package checkpoint

import (
	"context"
	"utac-backend/internal/components/db"
	"utac-backend/internal/crawl"
	"utac-backend/internal/scrapers/utac"

	"github.com/jmoiron/sqlx"
)

// DBSink stores checkpoints in the database opened by db.Open.
type DBSink struct {
	db *sqlx.DB
}

func NewDBSink(conn *sqlx.DB) DBSink {
	return DBSink{db: conn}
}

func toRow(c utac.CenterRecord) db.Center {
	return db.Center{
		AgreementNumber: c.AgreementNumber,
		RaisonSociale:   c.RaisonSociale,
		Enseigne:        c.Enseigne,
		Adresse:         c.Adresse,
		Ville:           c.Ville,
		CodePostal:      c.CodePostal,
		Telephone:       c.Telephone,
		Option:          c.Option,
		SiteInternet:    c.SiteInternet,
		Source:          c.Source,
	}
}

func fromRow(row db.Center) utac.CenterRecord {
	return utac.CenterRecord{
		AgreementNumber: row.AgreementNumber,
		RaisonSociale:   row.RaisonSociale,
		Enseigne:        row.Enseigne,
		Adresse:         row.Adresse,
		Ville:           row.Ville,
		CodePostal:      row.CodePostal,
		Telephone:       row.Telephone,
		Option:          row.Option,
		SiteInternet:    row.SiteInternet,
		RegionCode:      row.RegionCode,
		Source:          row.Source,
	}
}

func (s DBSink) SaveRegion(ctx context.Context, checkpoint crawl.RegionCheckpoint) error {
	rows := make([]db.Center, len(checkpoint.Centers))
	for i, c := range checkpoint.Centers {
		rows[i] = toRow(c)
	}
	return db.ReplaceRegion(ctx, s.db, db.RegionCheckpoint{
		RegionCode:   checkpoint.RegionCode,
		TotalCenters: checkpoint.TotalCenters,
		SavedAt:      checkpoint.Timestamp,
	}, rows)
}

// SaveReport stores the run summary and its region stats, the centers are
// already stored region by region.
func (s DBSink) SaveReport(ctx context.Context, report crawl.AggregateReport) error {
	stats := make([]db.RegionStat, len(report.PerRegion))
	for i, stat := range report.PerRegion {
		stats[i] = db.RegionStat{
			RegionCode:   stat.Code,
			Count:        stat.Count,
			DurationNs:   int64(stat.Duration),
			Status:       string(stat.Status),
			ErrorMessage: stat.ErrorMessage,
		}
	}
	return db.SaveRun(ctx, s.db, db.CrawlRun{
		RunID:             report.RunID,
		StartedAt:         report.StartedAt,
		TotalCenters:      report.TotalCenters,
		TotalRegions:      report.TotalRegions,
		SuccessfulRegions: report.SuccessfulRegions,
		FailedRegions:     report.FailedRegions,
		TotalDurationNs:   int64(report.TotalDuration),
	}, stats)
}

func (s DBSink) LoadRegion(ctx context.Context, code string) (crawl.RegionCheckpoint, bool, error) {
	checkpoint, rows, ok, err := db.GetRegion(ctx, s.db, code)
	if err != nil || !ok {
		return crawl.RegionCheckpoint{}, false, err
	}
	centers := make([]utac.CenterRecord, len(rows))
	for i, row := range rows {
		centers[i] = fromRow(row)
	}
	return crawl.RegionCheckpoint{
		RegionCode:   checkpoint.RegionCode,
		TotalCenters: checkpoint.TotalCenters,
		Centers:      centers,
		Timestamp:    checkpoint.SavedAt,
	}, true, nil
}
