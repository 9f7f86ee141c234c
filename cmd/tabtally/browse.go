package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/tui"
)

func browseCmd() *cobra.Command {
	var f sessionFlags
	var runs int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the domain ranking and its trend across recorded runs",
		Long:  `Opens a TUI panel listing the current session's top domains. The right pane shows the selected domain's count in recent recorded runs.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(f.logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			res, err := analyze(cfg, &f, log)
			if err != nil {
				return err
			}

			var db *history.DB
			if _, err := os.Stat(cfg.History.DBPath); err == nil {
				db, err = history.OpenDB(cfg.History.DBPath)
				if err != nil {
					log.Warn("history unavailable", zap.Error(err))
					db = nil
				} else {
					defer db.Close()
				}
			}

			return tui.Run(res.Summary, db, runs)
		},
	}

	f.register(cmd)
	cmd.Flags().IntVar(&runs, "runs", 30, "Number of recorded runs in the trend pane")
	return cmd
}
