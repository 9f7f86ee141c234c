package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/render"
	"github.com/Zuo-Peng/tabtally/internal/report"
)

func historyCmd() *cobra.Command {
	var limit int
	var pruneOlder time.Duration
	var resend bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			if _, err := os.Stat(cfg.History.DBPath); os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "No history at %s (run 'tabtally count --record' first)\n", cfg.History.DBPath)
				return nil
			}

			db, err := history.OpenDB(cfg.History.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if pruneOlder > 0 {
				n, err := db.Prune(time.Now().Add(-pruneOlder))
				if err != nil {
					return fmt.Errorf("prune: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Pruned %d runs\n", n)
			}

			runs, err := db.Recent(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if resend {
				if err := cfg.ValidateReport(); err != nil {
					return fmt.Errorf("config: %w", err)
				}
				client := report.New(report.Options{
					APIURL:      cfg.Report.APIURL,
					AccessToken: cfg.Report.AccessToken,
					Retries:     cfg.Report.Retries,
					Timeout:     cfg.Report.Timeout,
					Logger:      log,
				})
				var errs []error
				for i, r := range runs {
					if r.Reported {
						continue
					}
					if err := client.SendAt(cmd.Context(), r.Time, clampTabs(r.Tabs)); err != nil {
						log.Warn("resend failed", zap.Int64("run", r.ID), zap.Error(err))
						errs = append(errs, fmt.Errorf("run %d: %w", r.ID, err))
						continue
					}
					if err := markReported(db, r.ID); err != nil {
						errs = append(errs, err)
						continue
					}
					runs[i].Reported = true
				}
				if err := errors.Join(errs...); err != nil {
					return err
				}
			}

			width := 0
			if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
				width, _, _ = term.GetSize(fd)
			}
			fmt.Print(render.History(runs, width))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().DurationVar(&pruneOlder, "prune-older-than", 0, "Delete runs older than this duration first (e.g. 720h)")
	cmd.Flags().BoolVar(&resend, "resend", false, "Send listed runs that were never reported")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	return cmd
}

// clampTabs narrows a stored count to the reported width.
func clampTabs(n int) int16 {
	const maxTabs = 1<<15 - 1
	if n > maxTabs {
		return maxTabs
	}
	return int16(n)
}
