package commands

import (
	"utac-backend/internal/components/telemetry"
	"utac-backend/internal/crawl"
	"utac-backend/internal/scrapers/utac"

	"golang.org/x/time/rate"
)

// newLimiter returns nil when requests_per_second is not positive.
func newLimiter(cfg Config) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
}

func newScraper(cfg Config, limiter *rate.Limiter, tel telemetry.API) (*utac.Scraper, error) {
	session, err := utac.NewSession(utac.SessionOptions{
		Timeout:          cfg.Timeout(),
		Limiter:          limiter,
		CloudflareBypass: cfg.CloudflareBypass,
	}, tel)
	if err != nil {
		return nil, err
	}
	return utac.NewScraper(session, utac.Options{
		SearchUrl:          cfg.SearchUrl,
		MaxPageTransitions: cfg.MaxPageTransitions,
	}, tel), nil
}

// scraperFactory gives every crawl worker its own session, all of them
// sharing one request limiter.
func scraperFactory(cfg Config, tel telemetry.API) crawl.SearcherFactory {
	limiter := newLimiter(cfg)
	return func() (crawl.Searcher, error) {
		return newScraper(cfg, limiter, tel)
	}
}
