package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"utac-backend/internal/checkpoint"
	"utac-backend/internal/components/chrono"
	"utac-backend/internal/components/db"
	"utac-backend/internal/components/telemetry"
	"utac-backend/internal/crawl"
	"utac-backend/internal/notify"

	"github.com/spf13/cobra"
)

var (
	crawlConcurrency int
	crawlResume      bool
	crawlRegions     []string
	crawlOut         string
	crawlJson        bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl every region and write checkpoints and an aggregate report.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config
		if cmd.Flags().Changed("concurrency") {
			cfg.Concurrency = crawlConcurrency
		}
		if cmd.Flags().Changed("resume") {
			cfg.Resume = crawlResume
		}
		if cmd.Flags().Changed("out") {
			cfg.CheckpointDir = crawlOut
		}
		return runCrawl(cmd.Context(), cfg, crawlRegions)
	},
}

func runCrawl(ctx context.Context, cfg Config, regions []string) error {
	tel := telemetry.SlogAPI{}

	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return err
	}

	files, err := checkpoint.NewFileSink(cfg.CheckpointDir)
	if err != nil {
		return err
	}
	sinks := []crawl.Sink{files}
	if cfg.Database != "" {
		conn, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()
		sinks = append(sinks, checkpoint.NewDBSink(conn))
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	telemetry.InstrumentPerfStats(statsCtx, 15*time.Second, tel)

	crawler := crawl.NewCrawler(scraperFactory(cfg, tel), crawl.Options{
		Regions:       regions,
		Concurrency:   cfg.Concurrency,
		RegionTimeout: cfg.RegionTimeout(),
		Resume:        cfg.Resume,
		Sink:          checkpoint.Multi(sinks...),
		Clock:         clock,
	}, tel)

	report, err := crawler.CrawlAllRegions(ctx)
	if err != nil {
		return err
	}

	if cfg.Smtp.Enabled() {
		err = notify.NewMailer(cfg.Smtp).SendReport(ctx, report)
		if err != nil {
			slog.Warn("could not email report", "err", err)
		}
	}

	if crawlJson {
		return printJSON(report)
	}
	renderReport(report)
	fmt.Printf("report written to %s\n", files.Dir())
	return nil
}

var crawlStatusCmd = &cobra.Command{
	Use:   "status <run id>",
	Short: "Show the summary of a crawl saved in the database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(config)
		if err != nil {
			return err
		}
		defer closeStore()

		report, err := store.LoadReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if crawlJson {
			return printJSON(report)
		}
		renderReport(report)
		return nil
	},
}

func init() {
	crawlCmd.AddCommand(crawlStatusCmd)
	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", 1, "number of regions crawled at once")
	crawlCmd.Flags().BoolVar(&crawlResume, "resume", false, "load regions that already have a checkpoint")
	crawlCmd.Flags().StringSliceVar(&crawlRegions, "regions", nil, "only crawl these region codes")
	crawlCmd.Flags().StringVar(&crawlOut, "out", "", "checkpoint directory")
	crawlCmd.PersistentFlags().BoolVar(&crawlJson, "json", false, "print the aggregate report as JSON")
	rootCmd.AddCommand(crawlCmd)
}
