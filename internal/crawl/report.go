package crawl

import (
	"context"
	"time"
	"utac-backend/internal/scrapers/utac"
)

type Status string

const (
	STATUS_SUCCESS Status = "success"
	// STATUS_ERROR is an expected failure, like a transport error or a
	// changed page layout.
	STATUS_ERROR Status = "error"
	// STATUS_EXCEPTION is anything else, including recovered panics.
	STATUS_EXCEPTION Status = "exception"
)

// RegionStat is the outcome of one region, it is not modified once the
// region is done.
type RegionStat struct {
	Code         string        `json:"code"`
	Count        int           `json:"count"`
	Duration     time.Duration `json:"duration_ns"`
	Status       Status        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	// Pagination is how the walk over result pages ended.
	Pagination string `json:"pagination,omitempty"`
	// Resumed is set when the records were loaded from an earlier checkpoint.
	Resumed bool `json:"resumed,omitempty"`
}

type AggregateReport struct {
	RunID                   string        `json:"run_id"`
	StartedAt               time.Time     `json:"started_at"`
	TotalCenters            int           `json:"total_centers"`
	TotalRegions            int           `json:"total_regions"`
	SuccessfulRegions       int           `json:"successful_regions"`
	FailedRegions           int           `json:"failed_regions"`
	AverageCentersPerRegion float64       `json:"average_centers_per_region"`
	CentersPerSecond        float64       `json:"centers_per_second"`
	TotalDuration           time.Duration `json:"total_duration_ns"`
	PerRegion               []RegionStat  `json:"per_region"`
	Errors                  []string      `json:"errors"`
	// Centers are the records of every successful region, in region order.
	Centers []utac.CenterRecord `json:"centers"`
}

// RegionCheckpoint is the persisted output of one region.
type RegionCheckpoint struct {
	RegionCode   string              `json:"region_code"`
	TotalCenters int                 `json:"total_centers"`
	Centers      []utac.CenterRecord `json:"centers"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Sink persists checkpoints. Each region is saved independently and saving a
// region again replaces what was saved before.
type Sink interface {
	SaveRegion(ctx context.Context, checkpoint RegionCheckpoint) error
	SaveReport(ctx context.Context, report AggregateReport) error
	// LoadRegion returns false when the region was never saved.
	LoadRegion(ctx context.Context, code string) (RegionCheckpoint, bool, error)
}
