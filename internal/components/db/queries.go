package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Center struct {
	RegionCode      string `db:"region_code"`
	Idx             int    `db:"idx"`
	AgreementNumber string `db:"agreement_number"`
	RaisonSociale   string `db:"raison_sociale"`
	Enseigne        string `db:"enseigne"`
	Adresse         string `db:"adresse"`
	Ville           string `db:"ville"`
	CodePostal      string `db:"code_postal"`
	Telephone       string `db:"telephone"`
	Option          string `db:"option"`
	SiteInternet    string `db:"site_internet"`
	Source          string `db:"source"`
}

type RegionCheckpoint struct {
	RegionCode   string    `db:"region_code"`
	TotalCenters int       `db:"total_centers"`
	SavedAt      time.Time `db:"saved_at"`
}

type CrawlRun struct {
	RunID             string    `db:"run_id"`
	StartedAt         time.Time `db:"started_at"`
	TotalCenters      int       `db:"total_centers"`
	TotalRegions      int       `db:"total_regions"`
	SuccessfulRegions int       `db:"successful_regions"`
	FailedRegions     int       `db:"failed_regions"`
	TotalDurationNs   int64     `db:"total_duration_ns"`
}

type RegionStat struct {
	RunID        string `db:"run_id"`
	RegionCode   string `db:"region_code"`
	Count        int    `db:"count"`
	DurationNs   int64  `db:"duration_ns"`
	Status       string `db:"status"`
	ErrorMessage string `db:"error_message"`
}

// WithTx runs fn in a transaction, committing when fn succeeds.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	err = fn(tx)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

const insertCenter = `insert into center (
	region_code, idx, agreement_number, raison_sociale, enseigne, adresse,
	ville, code_postal, telephone, option, site_internet, source
) values (
	:region_code, :idx, :agreement_number, :raison_sociale, :enseigne, :adresse,
	:ville, :code_postal, :telephone, :option, :site_internet, :source
)`

// ReplaceRegion replaces everything saved for a region.
func ReplaceRegion(ctx context.Context, db *sqlx.DB, checkpoint RegionCheckpoint, centers []Center) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "delete from center where region_code = ?", checkpoint.RegionCode)
		if err != nil {
			return fmt.Errorf("delete centers: %w", err)
		}
		_, err = tx.ExecContext(ctx, "delete from region_checkpoint where region_code = ?", checkpoint.RegionCode)
		if err != nil {
			return fmt.Errorf("delete checkpoint: %w", err)
		}
		_, err = tx.NamedExecContext(
			ctx,
			`insert into region_checkpoint (region_code, total_centers, saved_at)
			values (:region_code, :total_centers, :saved_at)`,
			checkpoint,
		)
		if err != nil {
			return fmt.Errorf("insert checkpoint: %w", err)
		}
		for i, c := range centers {
			c.RegionCode = checkpoint.RegionCode
			c.Idx = i
			_, err = tx.NamedExecContext(ctx, insertCenter, c)
			if err != nil {
				return fmt.Errorf("insert center %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetRegion returns false when the region was never saved.
func GetRegion(ctx context.Context, db *sqlx.DB, regionCode string) (RegionCheckpoint, []Center, bool, error) {
	var checkpoint RegionCheckpoint
	err := db.GetContext(
		ctx, &checkpoint,
		"select region_code, total_centers, saved_at from region_checkpoint where region_code = ?",
		regionCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return RegionCheckpoint{}, nil, false, nil
	}
	if err != nil {
		return RegionCheckpoint{}, nil, false, fmt.Errorf("get checkpoint: %w", err)
	}

	centers := []Center{}
	err = db.SelectContext(
		ctx, &centers,
		"select * from center where region_code = ? order by idx",
		regionCode,
	)
	if err != nil {
		return RegionCheckpoint{}, nil, false, fmt.Errorf("get centers: %w", err)
	}
	return checkpoint, centers, true, nil
}

// FindCenters returns every saved center with the given agreement number.
func FindCenters(ctx context.Context, db *sqlx.DB, agreementNumber string) ([]Center, error) {
	centers := []Center{}
	err := db.SelectContext(
		ctx, &centers,
		"select * from center where agreement_number = ? order by region_code, idx",
		agreementNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("find centers: %w", err)
	}
	return centers, nil
}

// ListCenters returns every saved center in region order.
func ListCenters(ctx context.Context, db *sqlx.DB) ([]Center, error) {
	centers := []Center{}
	err := db.SelectContext(ctx, &centers, "select * from center order by region_code, idx")
	if err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	return centers, nil
}

// SaveRun stores a crawl summary with its region stats, replacing a run with
// the same id.
func SaveRun(ctx context.Context, db *sqlx.DB, run CrawlRun, stats []RegionStat) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "delete from region_stat where run_id = ?", run.RunID)
		if err != nil {
			return fmt.Errorf("delete stats: %w", err)
		}
		_, err = tx.NamedExecContext(
			ctx,
			`insert or replace into crawl_run (
				run_id, started_at, total_centers, total_regions,
				successful_regions, failed_regions, total_duration_ns
			) values (
				:run_id, :started_at, :total_centers, :total_regions,
				:successful_regions, :failed_regions, :total_duration_ns
			)`,
			run,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, s := range stats {
			s.RunID = run.RunID
			_, err = tx.NamedExecContext(
				ctx,
				`insert into region_stat (
					run_id, region_code, count, duration_ns, status, error_message
				) values (
					:run_id, :region_code, :count, :duration_ns, :status, :error_message
				)`,
				s,
			)
			if err != nil {
				return fmt.Errorf("insert stat %s: %w", s.RegionCode, err)
			}
		}
		return nil
	})
}

func GetRun(ctx context.Context, db *sqlx.DB, runID string) (CrawlRun, []RegionStat, error) {
	var run CrawlRun
	err := db.GetContext(ctx, &run, "select * from crawl_run where run_id = ?", runID)
	if err != nil {
		return CrawlRun{}, nil, fmt.Errorf("get run: %w", err)
	}
	stats := []RegionStat{}
	err = db.SelectContext(
		ctx, &stats,
		"select * from region_stat where run_id = ? order by region_code",
		runID,
	)
	if err != nil {
		return CrawlRun{}, nil, fmt.Errorf("get stats: %w", err)
	}
	return run, stats, nil
}
