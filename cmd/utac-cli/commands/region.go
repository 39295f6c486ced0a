package commands

import (
	"log/slog"
	"utac-backend/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var regionJson bool

var regionCmd = &cobra.Command{
	Use:   "region <code>",
	Short: "List every center of a region, following result pages.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scraper, err := newScraper(config, newLimiter(config), telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		result, err := scraper.SearchByRegion(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		slog.Debug(
			"pagination finished",
			"region", result.RegionCode,
			"pages", result.Pagination.Pages,
			"reason", result.Pagination.Reason.String(),
		)
		if regionJson {
			return printJSON(result)
		}
		renderCenters(result.Centers)
		return nil
	},
}

func init() {
	regionCmd.Flags().BoolVar(&regionJson, "json", false, "print the result as JSON")
	rootCmd.AddCommand(regionCmd)
}
