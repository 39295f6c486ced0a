package commands

import (
	"utac-backend/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var agreementJson bool

var agreementCmd = &cobra.Command{
	Use:   "agreement <identifier>",
	Short: "Look a center up by its agreement number.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scraper, err := newScraper(config, newLimiter(config), telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		center, err := scraper.SearchByIdentifier(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if agreementJson {
			return printJSON(center)
		}
		renderCenter(center)
		return nil
	},
}

func init() {
	agreementCmd.Flags().BoolVar(&agreementJson, "json", false, "print the record as JSON")
	rootCmd.AddCommand(agreementCmd)
}
