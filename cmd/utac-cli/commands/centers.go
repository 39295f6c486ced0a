package commands

import (
	"fmt"
	"utac-backend/internal/checkpoint"
	"utac-backend/internal/components/db"

	"github.com/spf13/cobra"
)

// openStore opens the configured database, the caller closes it.
func openStore(cfg Config) (checkpoint.DBSink, func() error, error) {
	if cfg.Database == "" {
		return checkpoint.DBSink{}, nil, fmt.Errorf("no database configured, set \"database\" in the config")
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return checkpoint.DBSink{}, nil, err
	}
	return checkpoint.NewDBSink(conn), conn.Close, nil
}

var centersJson bool

var centersCmd = &cobra.Command{
	Use:   "centers",
	Short: "Query the centers saved by previous crawls.",
}

var centersFindCmd = &cobra.Command{
	Use:   "find <agreement number or name>",
	Short: "Find saved centers by agreement number or by name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(config)
		if err != nil {
			return err
		}
		defer closeStore()

		centers, err := store.FindCenters(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if centersJson {
			return printJSON(centers)
		}
		renderCenters(centers)
		return nil
	},
}

func init() {
	centersFindCmd.Flags().BoolVar(&centersJson, "json", false, "print the records as JSON")
	centersCmd.AddCommand(centersFindCmd)
	rootCmd.AddCommand(centersCmd)
}
