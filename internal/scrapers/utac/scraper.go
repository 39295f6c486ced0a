package utac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"utac-backend/internal/components/assert"
	"utac-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("utac-backend/internal/scrapers/utac")

const (
	report_scraper_search_by_identifier = "scraper.search-by-identifier"
	report_scraper_search_by_region     = "scraper.search-by-region"
)

const sourceResultsPage = "results-page"

type Options struct {
	// SearchUrl defaults to DefaultSearchUrl.
	SearchUrl string
	// MaxPageTransitions defaults to DefaultMaxPageTransitions.
	MaxPageTransitions int
}

// Scraper runs searches against the site. A Scraper holds one Transport,
// it must not be shared by concurrent searches when that Transport keeps
// session state.
type Scraper struct {
	transport Transport
	searchUrl string
	executor  Executor
	extractor Extractor
	navigator Navigator
	tel       telemetry.API
}

func NewScraper(transport Transport, opts Options, tel telemetry.API) *Scraper {
	assert.NotNil(transport)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("utac_scraper", tel)

	if opts.SearchUrl == "" {
		opts.SearchUrl = DefaultSearchUrl
	}

	return &Scraper{
		transport: transport,
		searchUrl: opts.SearchUrl,
		executor:  NewExecutor(transport, opts.SearchUrl, tel),
		extractor: NewExtractor(tel),
		navigator: NewNavigator(transport, opts.SearchUrl, opts.MaxPageTransitions, tel),
		tel:       tel,
	}
}

// SearchByIdentifier looks a center up by its agreement number. ErrNotFound
// is returned when neither the results page nor its detail page carry a
// usable record.
func (s *Scraper) SearchByIdentifier(ctx context.Context, identifier string) (CenterRecord, error) {
	ctx, span := tracer.Start(ctx, "SearchByIdentifier")
	defer span.End()

	identifier = strings.TrimSpace(identifier)
	span.SetAttributes(attribute.String("identifier", identifier))
	if identifier == "" {
		return CenterRecord{}, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	results, err := s.executor.Execute(ctx, MODE_IDENTIFIER, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.tel.ReportBroken(report_scraper_search_by_identifier, err, identifier)
		return CenterRecord{}, err
	}

	record, ok := s.extractor.ExtractMatch(results, identifier)
	if ok && record.Identified() {
		record.Source = sourceResultsPage
		return record, nil
	}

	record, ok, err = s.followDetail(ctx, results, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail page failed")
		s.tel.ReportBroken(report_scraper_search_by_identifier, err, identifier)
		return CenterRecord{}, err
	}
	if ok {
		return record, nil
	}

	return CenterRecord{}, fmt.Errorf("%w: %s", ErrNotFound, identifier)
}

// SearchByRegion collects the centers of a region across every result
// page. A failure while paginating keeps the pages gathered so far and is
// only reported through RegionResult.Pagination.
func (s *Scraper) SearchByRegion(ctx context.Context, code string) (RegionResult, error) {
	ctx, span := tracer.Start(ctx, "SearchByRegion")
	defer span.End()

	region, err := ParseRegionCode(code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid region code")
		return RegionResult{}, err
	}
	span.SetAttributes(attribute.String("region", region.String()))

	results, err := s.executor.Execute(ctx, MODE_REGION, region.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.tel.ReportBroken(report_scraper_search_by_region, err, region.String())
		return RegionResult{}, err
	}

	centers := []CenterRecord{}
	outcome := s.navigator.Walk(ctx, results, func(page int, doc *goquery.Document) {
		batch := s.extractor.ExtractRegion(doc, region)
		s.tel.ReportDebug("extracted page", region.String(), page, len(batch))
		centers = append(centers, batch...)
	})
	if outcome.Err != nil {
		span.RecordError(outcome.Err)
		s.tel.ReportWarning(
			report_scraper_search_by_region,
			fmt.Errorf("pagination stopped early (%s): %w", outcome.Reason, outcome.Err),
			region.String(),
			len(centers),
		)
	}
	span.SetAttributes(
		attribute.Int("pages", outcome.Pages),
		attribute.Int("centers", len(centers)),
		attribute.String("termination", outcome.Reason.String()),
	)

	return RegionResult{
		RegionCode:   region.String(),
		TotalCenters: len(centers),
		Centers:      centers,
		Pagination:   outcome,
	}, nil
}

// IsSearchError reports whether err is one of the failures a search is
// expected to produce, anything else is a bug or an unexpected condition.
func IsSearchError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) ||
		errors.Is(err, ErrFormNotFound) ||
		errors.Is(err, ErrControlsNotFound) ||
		errors.Is(err, ErrInvalidRegionCode) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
