package crawl

import (
	"fmt"
	"sync"
	"time"
	"utac-backend/internal/components/chrono"
	"utac-backend/internal/components/telemetry"
	"utac-backend/internal/scrapers/utac"
)

const report_crawl_progress = "crawl.progress"

// aggregator is the only place region outcomes are written to. Slots are
// indexed by work list position so the report keeps region order no matter
// which worker finishes first.
type aggregator struct {
	mutex     sync.Mutex
	stats     []RegionStat
	centers   [][]utac.CenterRecord
	processed int
	total     int

	startedAt time.Time
	clock     chrono.API
	tel       telemetry.API
}

func newAggregator(regions int, clock chrono.API, tel telemetry.API) *aggregator {
	return &aggregator{
		stats:     make([]RegionStat, regions),
		centers:   make([][]utac.CenterRecord, regions),
		startedAt: clock.Now(),
		clock:     clock,
		tel:       tel,
	}
}

func (a *aggregator) record(i int, stat RegionStat, centers []utac.CenterRecord) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.stats[i] = stat
	if stat.Status == STATUS_SUCCESS {
		a.centers[i] = centers
		a.total += len(centers)
	}
	a.processed++

	elapsed := a.clock.Now().Sub(a.startedAt)
	remaining := elapsed / time.Duration(a.processed) * time.Duration(len(a.stats)-a.processed)
	a.tel.ReportDebug(
		"progress",
		fmt.Sprintf("%d/%d", a.processed, len(a.stats)),
		stat.Code,
		string(stat.Status),
		a.total,
		elapsed.Round(time.Second).String(),
		remaining.Round(time.Second).String(),
	)
	a.tel.ReportCount(report_crawl_progress, int64(a.processed))
}

func (a *aggregator) finalize(runID string) AggregateReport {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	report := AggregateReport{
		RunID:         runID,
		StartedAt:     a.startedAt,
		TotalRegions:  len(a.stats),
		TotalDuration: a.clock.Now().Sub(a.startedAt),
		PerRegion:     make([]RegionStat, len(a.stats)),
		Errors:        []string{},
		Centers:       []utac.CenterRecord{},
	}
	copy(report.PerRegion, a.stats)

	for i, stat := range a.stats {
		switch stat.Status {
		case STATUS_SUCCESS:
			report.SuccessfulRegions++
			report.TotalCenters += len(a.centers[i])
			report.Centers = append(report.Centers, a.centers[i]...)
		case STATUS_EXCEPTION:
			report.FailedRegions++
			report.Errors = append(report.Errors, fmt.Sprintf("region %s: exception: %s", stat.Code, stat.ErrorMessage))
		default:
			report.FailedRegions++
			report.Errors = append(report.Errors, fmt.Sprintf("region %s: %s", stat.Code, stat.ErrorMessage))
		}
	}

	if report.TotalRegions > 0 {
		report.AverageCentersPerRegion = float64(report.TotalCenters) / float64(report.TotalRegions)
	}
	if seconds := report.TotalDuration.Seconds(); seconds > 0 {
		report.CentersPerSecond = float64(report.TotalCenters) / seconds
	}
	return report
}
