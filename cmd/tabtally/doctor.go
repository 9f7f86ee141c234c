package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tabtally/internal/config"
	"github.com/Zuo-Peng/tabtally/internal/history"
	"github.com/Zuo-Peng/tabtally/internal/mozlz4"
	"github.com/Zuo-Peng/tabtally/internal/rawfile"
	"github.com/Zuo-Peng/tabtally/internal/report"
	"github.com/Zuo-Peng/tabtally/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify profiles, session files, report settings and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return runDoctor(os.Stdout, cfg)
		},
	}
}

// runDoctor writes the self-check report for cfg to w.
func runDoctor(w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, "=== Profiles ===")
	checkDir(w, "Root", cfg.ProfilesRoot)
	if cfg.Profile != "" {
		fmt.Fprintf(w, "  Selected profile: %s\n", cfg.Profile)
	}

	fmt.Fprintln(w, "\n=== Session Files ===")
	if cfg.SessionFile != "" {
		fmt.Fprintf(w, "  Override: %s\n", cfg.SessionFile)
		checkSessionFile(w, cfg.SessionFile)
	}
	files, err := scan.FindSessionFiles(cfg.ProfilesRoot)
	if err != nil {
		fmt.Fprintf(w, "  scan error: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintln(w, "  none found")
	}
	for _, f := range files {
		fmt.Fprintf(w, "  %s  %-8s %8s  %s\n", f.Profile, f.Kind, humanize.Bytes(uint64(f.Size)), humanize.Time(f.Mtime))
		checkSessionFile(w, f.Path)
	}

	fmt.Fprintln(w, "\n=== Report ===")
	if err := cfg.ValidateReport(); err != nil {
		fmt.Fprintf(w, "  NOT CONFIGURED: %v\n", err)
	} else {
		fmt.Fprintf(w, "  Endpoint: %s (retries=%d, timeout=%s)\n", report.Endpoint(cfg.Report.APIURL), cfg.Report.Retries, cfg.Report.Timeout)
	}

	fmt.Fprintln(w, "\n=== History ===")
	fmt.Fprintf(w, "  Path: %s (recording %s)\n", cfg.History.DBPath, onOff(cfg.History.Enabled))
	info, err := os.Stat(cfg.History.DBPath)
	if os.IsNotExist(err) {
		fmt.Fprintln(w, "  Status: NOT FOUND (no runs recorded yet)")
		return nil
	}

	db, err := history.OpenDB(cfg.History.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	n, err := db.RunCount()
	if err != nil {
		return fmt.Errorf("count runs: %w", err)
	}
	fmt.Fprintf(w, "  Runs: %d\n", n)
	if info != nil {
		fmt.Fprintf(w, "  Size: %s\n", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// checkSessionFile reports a file whose header is not the expected magic.
func checkSessionFile(w io.Writer, path string) {
	f, err := rawfile.Open(path)
	if err != nil {
		fmt.Fprintf(w, "    ERROR: %v\n", err)
		return
	}
	defer f.Close()

	if !mozlz4.CheckMagic(f.Bytes()) {
		fmt.Fprintf(w, "    WARNING: %s does not start with %q\n", path, mozlz4.Magic)
		return
	}
	size, err := mozlz4.DeclaredSize(f.Bytes()[mozlz4.HeaderSize:])
	if err != nil {
		fmt.Fprintf(w, "    ERROR: %v\n", err)
		return
	}
	fmt.Fprintf(w, "    OK: header valid, %s decompressed\n", humanize.Bytes(uint64(size)))
}

func checkDir(w io.Writer, name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Fprintf(w, "  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Fprintf(w, "  %s: %s (OK)\n", name, path)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
