package checkpoint

import (
	"context"
	"errors"
	"utac-backend/internal/crawl"
)

type multiSink []crawl.Sink

// Multi saves to every sink and loads from the first sink that has the
// region.
func Multi(sinks ...crawl.Sink) crawl.Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return multiSink(sinks)
}

func (m multiSink) SaveRegion(ctx context.Context, checkpoint crawl.RegionCheckpoint) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SaveRegion(ctx, checkpoint))
	}
	return errors.Join(errs...)
}

func (m multiSink) SaveReport(ctx context.Context, report crawl.AggregateReport) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SaveReport(ctx, report))
	}
	return errors.Join(errs...)
}

func (m multiSink) LoadRegion(ctx context.Context, code string) (crawl.RegionCheckpoint, bool, error) {
	var errs []error
	for _, s := range m {
		checkpoint, ok, err := s.LoadRegion(ctx, code)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return checkpoint, true, nil
		}
	}
	return crawl.RegionCheckpoint{}, false, errors.Join(errs...)
}
