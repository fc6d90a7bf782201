package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trends-go/pkg/logger"
	"trends-go/pkg/pipeline"
)

func newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one collection over the seed keywords and write the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args)
		},
	}

	flags := cmd.Flags()
	bindFlag(flags, "keywords", "keywords.file", "", "seed keyword file")
	bindIntFlag(flags, "limit", "keywords.limit", 0, "process only the first N keywords")
	bindFlag(flags, "time-range", "api.time_range", "", "named range (past_7_days) or \"YYYY-MM-DD YYYY-MM-DD\"")
	bindIntFlag(flags, "batch-size", "submit.batch_size", 1, "task objects per task_post call")
	bindFlag(flags, "backend-url", "backend.url", "", "collector URL to publish the dataset to")
	return cmd
}

// runFetch loads keywords from the file or positional args and runs the pipeline.
// Only persistence failures make the command fail.
func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.GetLogger().WithField("command", "fetch")

	kws := args
	if len(kws) == 0 {
		var err error
		kws, err = NewKeywordLoader(cfg).LoadFile(ctx, cfg.Keywords.File)
		if err != nil {
			return fmt.Errorf("failed to load keywords: %w", err)
		}
	} else if cfg.Keywords.Limit > 0 && len(kws) > cfg.Keywords.Limit {
		kws = kws[:cfg.Keywords.Limit]
	}
	if len(kws) == 0 {
		return fmt.Errorf("no keywords to process in %s", cfg.Keywords.File)
	}

	store, err := NewDatasetStore(cfg)
	if err != nil {
		return err
	}
	p, err := NewPipeline(cfg, store)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, kws)
	if err != nil {
		return err
	}

	printSummary(cmd, report)
	if ctx.Err() != nil {
		log.Warn("Run interrupted, partial results saved")
	}
	return nil
}

func printSummary(cmd *cobra.Command, report *pipeline.RunReport) {
	s := report.Summary
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", s.RunID, s.TimeRange)
	fmt.Fprintf(out, "  seeds:             %d\n", s.TotalSeeds)
	fmt.Fprintf(out, "  submitted:         %d (failed %d)\n", s.Submitted, s.SubmitFailures)
	fmt.Fprintf(out, "  ready:             %d (abandoned %d)\n", s.Ready, s.Abandoned)
	fmt.Fprintf(out, "  fetched:           %d (failed %d)\n", s.Fetched, s.FetchFailures)
	fmt.Fprintf(out, "  with rising data:  %d (%s)\n", s.KeywordsWithData, s.CompletionRate)
	fmt.Fprintf(out, "  rising queries:    %d\n", s.TotalEntries)
	fmt.Fprintf(out, "  average score:     %.1f\n", s.AverageScore)
	fmt.Fprintf(out, "Website data: %s\n", report.Files.WebsiteKey)
	fmt.Fprintf(out, "Report:       %s\n", report.Files.ReportKey)
}
