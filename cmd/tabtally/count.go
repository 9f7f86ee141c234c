package main

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tabtally/internal/pipeline"
	"github.com/Zuo-Peng/tabtally/internal/tally"
)

func countCmd() *cobra.Command {
	var f sessionFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count open tabs in the first window and rank their domains",
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

			if asJSON {
				if err := printJSON(res); err != nil {
					return err
				}
			} else {
				printSummary(res, f.plain)
			}

			_, err = afterRun(cfg, &f, res, time.Now(), false, log)
			return err
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

type jsonSummary struct {
	File       string              `json:"file"`
	Tabs       int16               `json:"tabs"`
	Windows    int                 `json:"windows"`
	TopDomains []tally.DomainCount `json:"top_domains"`
	Skipped    int                 `json:"skipped_urls"`
}

func printJSON(res *pipeline.Result) error {
	top := res.Summary.TopDomains
	if top == nil {
		top = []tally.DomainCount{}
	}
	out, err := sonic.MarshalIndent(jsonSummary{
		File:       res.Path,
		Tabs:       res.Summary.Tabs,
		Windows:    res.Summary.Windows,
		TopDomains: top,
		Skipped:    len(res.Summary.Skipped),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
