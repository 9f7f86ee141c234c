package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Zuo-Peng/tabtally/internal/config"
	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/logging"
	"github.com/Zuo-Peng/tabtally/internal/metrics"
	"github.com/Zuo-Peng/tabtally/internal/pipeline"
	"github.com/Zuo-Peng/tabtally/internal/render"
	"github.com/Zuo-Peng/tabtally/internal/scan"
)

// sessionFlags are shared by every command that reads a session file.
type sessionFlags struct {
	file        string
	profile     string
	top         int
	logLevel    string
	plain       bool
	metricsFile string
	record      bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Session file to read (default: newest recovery.jsonlz4 under the profiles root)")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Profile directory name to read from")
	cmd.Flags().IntVarP(&f.top, "top", "n", 0, "Number of top domains (0 = config value, -1 = none)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Plain output even on a terminal")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus gauges for this run to a textfile")
	cmd.Flags().BoolVar(&f.record, "record", false, "Record this run in the history database")
}

// setup loads configuration and builds the logger, applying flag overrides.
func setup(logLevel string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

// analyze locates the session file and runs the decode pipeline over it.
func analyze(cfg *config.Config, f *sessionFlags, log *zap.Logger) (*pipeline.Result, error) {
	file := cfg.SessionFile
	if f.file != "" {
		file = f.file
	}
	profile := cfg.Profile
	if f.profile != "" {
		profile = f.profile
	}
	path, err := scan.Locate(file, cfg.ProfilesRoot, profile)
	if err != nil {
		return nil, err
	}
	log.Debug("reading session file", zap.String("path", path))

	top := cfg.Top
	if f.top != 0 {
		top = f.top
	}
	return pipeline.Run(path, top, log)
}

// printSummary writes the styled table on a terminal and the plain format
// otherwise.
func printSummary(res *pipeline.Result, plain bool) {
	fd := int(os.Stdout.Fd())
	if plain || !term.IsTerminal(fd) {
		fmt.Print(render.Plain(res.Summary))
		return
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}
	fmt.Print(render.Summary(res.Summary, render.Options{Width: width}))
}

// afterRun handles the optional outputs of a successful run.
func afterRun(cfg *config.Config, f *sessionFlags, res *pipeline.Result, at time.Time, reported bool, log *zap.Logger) (int64, error) {
	if f.metricsFile != "" {
		m := metrics.New()
		m.Observe(res, at)
		if err := m.WriteTextfile(f.metricsFile); err != nil {
			return 0, fmt.Errorf("write metrics: %w", err)
		}
		log.Debug("wrote metrics", zap.String("path", f.metricsFile))
	}

	if !f.record && !cfg.History.Enabled {
		return 0, nil
	}
	db, err := history.OpenDB(cfg.History.DBPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	id, err := db.Record(history.Run{
		Time:       at,
		FilePath:   res.Path,
		Tabs:       int(res.Summary.Tabs),
		Windows:    res.Summary.Windows,
		Reported:   reported,
		TopDomains: res.Summary.TopDomains,
	})
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	log.Debug("recorded run", zap.Int64("id", id))
	return id, nil
}
