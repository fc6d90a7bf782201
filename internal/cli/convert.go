package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "Rebuild the website dataset from the latest detailed report",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := NewDatasetStore(cfg)
			if err != nil {
				return err
			}

			site, key, err := store.ConvertLatest(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to convert latest report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s (%d keywords, %d queries)\n",
				key, store.WebsiteKey(), len(site.Data), site.TotalQueries)
			return nil
		},
	}
}
