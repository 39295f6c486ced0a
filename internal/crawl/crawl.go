package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"
	"utac-backend/internal/components/assert"
	"utac-backend/internal/components/chrono"
	"utac-backend/internal/components/telemetry"
	"utac-backend/internal/scrapers/utac"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("utac-backend/internal/crawl")

var meter = otel.Meter("utac-backend/internal/crawl")
var regionsCounter, _ = meter.Int64Counter("utac.crawl.regions")
var centersCounter, _ = meter.Int64Counter("utac.crawl.centers")

const (
	report_crawler_region     = "crawler.region"
	report_crawler_checkpoint = "crawler.checkpoint"
	report_crawler_report     = "crawler.report"
)

// Searcher is what a crawl needs of a scraper.
type Searcher interface {
	SearchByRegion(ctx context.Context, code string) (utac.RegionResult, error)
}

// SearcherFactory creates one Searcher per worker, each with its own
// session.
type SearcherFactory func() (Searcher, error)

type Options struct {
	// Regions restricts the crawl, every region is crawled when empty.
	Regions []string
	// Concurrency is the number of regions crawled at once, it defaults to 1.
	Concurrency int
	// RegionTimeout bounds the work on a single region, 0 means no bound.
	RegionTimeout time.Duration
	// Resume loads regions that already have a checkpoint instead of
	// crawling them again.
	Resume bool
	// Sink is optional.
	Sink  Sink
	Clock chrono.API
}

type Crawler struct {
	factory SearcherFactory
	opts    Options
	tel     telemetry.API
}

func NewCrawler(factory SearcherFactory, opts Options, tel telemetry.API) *Crawler {
	assert.NotNil(factory)
	assert.NotNil(opts.Clock)
	assert.NotNil(tel)
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Crawler{
		factory: factory,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("crawl", tel),
	}
}

func (c *Crawler) workList() ([]string, error) {
	if len(c.opts.Regions) == 0 {
		all := utac.AllRegionCodes()
		out := make([]string, len(all))
		for i, code := range all {
			out[i] = code.String()
		}
		return out, nil
	}

	out := make([]string, 0, len(c.opts.Regions))
	seen := map[utac.RegionCode]bool{}
	for _, raw := range c.opts.Regions {
		code, err := utac.ParseRegionCode(raw)
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code.String())
	}
	return out, nil
}

// CrawlAllRegions searches every region of the work list and aggregates the
// results. A failing region is recorded in the report and never stops the
// crawl, the returned error is only for failures to start the crawl or to
// save the final report.
func (c *Crawler) CrawlAllRegions(ctx context.Context) (AggregateReport, error) {
	ctx, span := tracer.Start(ctx, "CrawlAllRegions")
	defer span.End()

	regions, err := c.workList()
	if err != nil {
		return AggregateReport{}, err
	}

	workers := min(c.opts.Concurrency, len(regions))
	pool := make(chan Searcher, max(workers, 1))
	for i := 0; i < workers; i++ {
		searcher, err := c.factory()
		if err != nil {
			return AggregateReport{}, fmt.Errorf("create searcher: %w", err)
		}
		pool <- searcher
	}

	runID := uuid.NewString()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Int("regions", len(regions)),
		attribute.Int("workers", workers),
	)
	c.tel.ReportDebug("crawl started", runID, len(regions), workers)

	agg := newAggregator(len(regions), c.opts.Clock, c.tel)

	group := errgroup.Group{}
	group.SetLimit(max(workers, 1))
	for i, code := range regions {
		group.Go(func() error {
			searcher := <-pool
			defer func() { pool <- searcher }()

			stat, centers := c.crawlRegion(ctx, searcher, code)
			agg.record(i, stat, centers)

			regionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(stat.Status))))
			centersCounter.Add(ctx, int64(len(centers)))
			return nil
		})
	}
	// workers never return errors, failures live in the report
	_ = group.Wait()

	report := agg.finalize(runID)
	span.SetAttributes(
		attribute.Int("centers", report.TotalCenters),
		attribute.Int("failed_regions", report.FailedRegions),
	)

	if c.opts.Sink != nil {
		// an interrupted crawl still saves what it gathered
		err = c.opts.Sink.SaveReport(context.WithoutCancel(ctx), report)
		if err != nil {
			c.tel.ReportBroken(report_crawler_report, err, runID)
			return report, fmt.Errorf("save report: %w", err)
		}
	}
	return report, nil
}

func classify(err error) Status {
	if utac.IsSearchError(err) || errors.Is(err, errCheckpoint) {
		return STATUS_ERROR
	}
	return STATUS_EXCEPTION
}

var errCheckpoint = errors.New("checkpoint")

func (c *Crawler) crawlRegion(ctx context.Context, searcher Searcher, code string) (stat RegionStat, centers []utac.CenterRecord) {
	start := c.opts.Clock.Now()
	stat = RegionStat{Code: code}

	fail := func(err error) {
		stat.Status = classify(err)
		stat.ErrorMessage = err.Error()
		centers = nil
		c.tel.ReportBroken(report_crawler_region, err, code)
	}

	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
		}
		stat.Duration = c.opts.Clock.Now().Sub(start)
	}()

	if err := ctx.Err(); err != nil {
		fail(err)
		return stat, nil
	}

	if c.opts.Resume && c.opts.Sink != nil {
		checkpoint, ok, err := c.opts.Sink.LoadRegion(ctx, code)
		if err != nil {
			c.tel.ReportWarning(report_crawler_checkpoint, fmt.Errorf("load: %w", err), code)
		}
		if ok {
			centers = tagRegion(checkpoint.Centers, code)
			stat.Status = STATUS_SUCCESS
			stat.Count = len(centers)
			stat.Resumed = true
			return stat, centers
		}
	}

	regionCtx := ctx
	if c.opts.RegionTimeout > 0 {
		var cancel context.CancelFunc
		regionCtx, cancel = context.WithTimeout(ctx, c.opts.RegionTimeout)
		defer cancel()
	}

	result, err := searcher.SearchByRegion(regionCtx, code)
	if err != nil {
		fail(err)
		return stat, nil
	}
	centers = tagRegion(result.Centers, code)
	stat.Pagination = result.Pagination.Reason.String()

	if c.opts.Sink != nil {
		err = c.opts.Sink.SaveRegion(context.WithoutCancel(ctx), RegionCheckpoint{
			RegionCode:   code,
			TotalCenters: len(centers),
			Centers:      centers,
			Timestamp:    c.opts.Clock.Now(),
		})
		if err != nil {
			fail(fmt.Errorf("%w: %w", errCheckpoint, err))
			return stat, nil
		}
	}

	stat.Status = STATUS_SUCCESS
	stat.Count = len(centers)
	return stat, centers
}

func tagRegion(records []utac.CenterRecord, code string) []utac.CenterRecord {
	out := make([]utac.CenterRecord, len(records))
	for i, r := range records {
		r.RegionCode = code
		out[i] = r
	}
	return out
}
