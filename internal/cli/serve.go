package cli

import (
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard, dataset API and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := BuildServer(cfg)
			if err != nil {
				return err
			}
			return server.Start(cmd.Context())
		},
	}

	flags := cmd.Flags()
	bindIntFlag(flags, "port", "server.port", 8000, "first port to try; the next 9 are tried if busy")
	bindFlag(flags, "host", "server.host", "127.0.0.1", "listen host")
	bindFlag(flags, "static-dir", "server.static_dir", "", "directory of static dashboard files")
	bindBoolFlag(flags, "open", "server.open_browser", "open the dashboard in a browser")
	bindBoolFlag(flags, "refresh-stale", "server.refresh_stale", "refresh in the background when data is missing or stale")
	bindFlag(flags, "refresh-cron", "server.refresh_cron", "", "cron schedule for periodic refresh")
	return cmd
}
