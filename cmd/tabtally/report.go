package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/report"
)

func reportCmd() *cobra.Command {
	var f sessionFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Count open tabs and send the count to the configured API",
		Long: `Runs the same pass as count, prints the summary, then POSTs
{"time": <unix seconds>, "tabs": <count>} to $API_URL/tabs with the bearer
token from $ACCESS_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(f.logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := cfg.ValidateReport(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			res, err := analyze(cfg, &f, log)
			if err != nil {
				return err
			}
			printSummary(res, f.plain)

			now := time.Now()
			client := report.New(report.Options{
				APIURL:      cfg.Report.APIURL,
				AccessToken: cfg.Report.AccessToken,
				Retries:     cfg.Report.Retries,
				Timeout:     cfg.Report.Timeout,
				Logger:      log,
				Now:         func() time.Time { return now },
			})
			sendErr := client.Send(cmd.Context(), res.Summary.Tabs)
			if sendErr == nil {
				fmt.Fprintf(os.Stderr, "Reported %d tabs to %s\n", res.Summary.Tabs, report.Endpoint(cfg.Report.APIURL))
			}

			// The run is recorded even when sending failed, marked unreported.
			if _, err := afterRun(cfg, &f, res, now, sendErr == nil, log); err != nil {
				log.Warn("post-run outputs failed", zap.Error(err))
			}
			return sendErr
		},
	}

	f.register(cmd)
	return cmd
}

// markReported is used by `history --resend` after a successful retry.
func markReported(db *history.DB, id int64) error {
	if err := db.MarkReported(id); err != nil {
		return fmt.Errorf("mark run %d reported: %w", id, err)
	}
	return nil
}
