package checkpoint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	"utac-backend/internal/components/db"
	"utac-backend/internal/crawl"
	"utac-backend/internal/scrapers/utac"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func testCheckpoint() crawl.RegionCheckpoint {
	return crawl.RegionCheckpoint{
		RegionCode:   "04",
		TotalCenters: 2,
		Timestamp:    time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		Centers: []utac.CenterRecord{
			{
				AgreementNumber: "S044C203",
				RaisonSociale:   "CONTROLE TECHNIQUE DE L'UBAYE",
				Enseigne:        "AUTOSUR",
				Adresse:         "ZA DU TOURNEL",
				Ville:           "BARCELONNETTE 04400",
				CodePostal:      "04400",
				Telephone:       "04 92 81 00 00",
				Option:          "VL",
				RegionCode:      "04",
			},
			{
				AgreementNumber: "S004A118",
				RaisonSociale:   "DIGNE CONTROLE AUTO",
				Ville:           "DIGNE LES BAINS",
				RegionCode:      "04",
			},
		},
	}
}

func testReport() crawl.AggregateReport {
	checkpoint := testCheckpoint()
	return crawl.AggregateReport{
		RunID:             "run-1",
		StartedAt:         time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		TotalCenters:      2,
		TotalRegions:      2,
		SuccessfulRegions: 1,
		FailedRegions:     1,
		TotalDuration:     2 * time.Second,
		PerRegion: []crawl.RegionStat{
			{Code: "04", Count: 2, Status: crawl.STATUS_SUCCESS, Duration: time.Second},
			{Code: "75", Status: crawl.STATUS_ERROR, ErrorMessage: "status 503", Duration: time.Second},
		},
		Errors:  []string{"region 75: status 503"},
		Centers: checkpoint.Centers,
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := sink.LoadRegion(ctx, "04")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, sink.SaveRegion(ctx, testCheckpoint()))
	require.FileExists(t, filepath.Join(dir, "region_04.json"))

	loaded, ok, err := sink.LoadRegion(ctx, "04")
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(testCheckpoint(), loaded, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("checkpoint (-want +got):\n%s", diff)
	}

	require.NoError(t, sink.SaveReport(ctx, testReport()))
	report, err := sink.LoadReport()
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalCenters)
	require.Equal(t, []string{"region 75: status 503"}, report.Errors)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"region_04.json", "all_centers.json"}, names)
}

func TestFileSinkCorrupt(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "region_05.json"), []byte("{"), 0666))

	_, ok, err := sink.LoadRegion(context.Background(), "05")
	require.Error(t, err)
	require.False(t, ok)
}

func TestDBSink(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()
	sink := NewDBSink(conn)
	ctx := context.Background()

	require.NoError(t, sink.SaveRegion(ctx, testCheckpoint()))
	loaded, ok, err := sink.LoadRegion(ctx, "04")
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(testCheckpoint(), loaded, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("checkpoint (-want +got):\n%s", diff)
	}

	_, ok, err = sink.LoadRegion(ctx, "05")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, sink.SaveReport(ctx, testReport()))
	run, stats, err := db.GetRun(ctx, conn, "run-1")
	require.NoError(t, err)
	require.Equal(t, 1, run.FailedRegions)
	require.Len(t, stats, 2)
	require.Equal(t, "error", stats[1].Status)
}

type failingSink struct{}

func (failingSink) SaveRegion(context.Context, crawl.RegionCheckpoint) error {
	return errors.New("read-only")
}

func (failingSink) SaveReport(context.Context, crawl.AggregateReport) error {
	return errors.New("read-only")
}

func (failingSink) LoadRegion(context.Context, string) (crawl.RegionCheckpoint, bool, error) {
	return crawl.RegionCheckpoint{}, false, errors.New("unreachable")
}

func TestMulti(t *testing.T) {
	files, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	sink := Multi(failingSink{}, files)
	err = sink.SaveRegion(ctx, testCheckpoint())
	require.ErrorContains(t, err, "read-only")

	// the healthy sink still got the region
	loaded, ok, err := sink.LoadRegion(ctx, "04")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Centers, 2)

	_, ok, err = sink.LoadRegion(ctx, "05")
	require.ErrorContains(t, err, "unreachable")
	require.False(t, ok)

	require.Equal(t, files, Multi(files))
}
