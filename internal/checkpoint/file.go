package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"utac-backend/internal/crawl"
)

const AggregateFile = "all_centers.json"

func RegionFile(code string) string {
	return fmt.Sprintf("region_%s.json", code)
}

// FileSink writes one JSON document per region and one for the aggregate
// report in a directory.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) (FileSink, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FileSink{}, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return FileSink{dir: dir}, nil
}

func (s FileSink) Dir() string {
	return s.dir
}

// writeJSON replaces path atomically so readers never see a partial file.
func writeJSON(path string, value any) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	err = enc.Encode(value)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	err = f.Close()
	if err != nil {
		os.Remove(tmp)
		return err
	}
	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s FileSink) SaveRegion(_ context.Context, checkpoint crawl.RegionCheckpoint) error {
	err := writeJSON(filepath.Join(s.dir, RegionFile(checkpoint.RegionCode)), checkpoint)
	if err != nil {
		return fmt.Errorf("save region %s: %w", checkpoint.RegionCode, err)
	}
	return nil
}

func (s FileSink) SaveReport(_ context.Context, report crawl.AggregateReport) error {
	err := writeJSON(filepath.Join(s.dir, AggregateFile), report)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s FileSink) LoadRegion(_ context.Context, code string) (crawl.RegionCheckpoint, bool, error) {
	buff, err := os.ReadFile(filepath.Join(s.dir, RegionFile(code)))
	if errors.Is(err, os.ErrNotExist) {
		return crawl.RegionCheckpoint{}, false, nil
	}
	if err != nil {
		return crawl.RegionCheckpoint{}, false, fmt.Errorf("load region %s: %w", code, err)
	}
	var checkpoint crawl.RegionCheckpoint
	err = json.Unmarshal(buff, &checkpoint)
	if err != nil {
		return crawl.RegionCheckpoint{}, false, fmt.Errorf("load region %s: %w", code, err)
	}
	return checkpoint, true, nil
}

// LoadReport reads the aggregate report written by SaveReport.
func (s FileSink) LoadReport() (crawl.AggregateReport, error) {
	buff, err := os.ReadFile(filepath.Join(s.dir, AggregateFile))
	if err != nil {
		return crawl.AggregateReport{}, err
	}
	var report crawl.AggregateReport
	err = json.Unmarshal(buff, &report)
	return report, err
}
