// skillchart renders therapy progress charts and reports.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seenimoa/skillchart/api"
	"github.com/seenimoa/skillchart/internal/chart"
	"github.com/seenimoa/skillchart/internal/config"
	"github.com/seenimoa/skillchart/internal/infra"
	"github.com/seenimoa/skillchart/internal/report"
	"github.com/seenimoa/skillchart/internal/store"
	"github.com/seenimoa/skillchart/pkg/metrics"
	"github.com/seenimoa/skillchart/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set up before every command.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skillchart",
	Short: "skillchart: progress charts for therapy skill tracking",
	Long: `skillchart turns a skill's recorded progress updates into a compact
SVG line chart with a target line, and bundles those charts into
HTML, text or PDF progress reports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		if _, err := infra.ParseLevel(level); err != nil {
			return err
		}
		logger = infra.NewLogger(level, cfg.Logging.Format, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("skillchart %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ui, _ := cmd.Flags().GetBool("ui")
		srv, err := api.NewServer(cfg, api.Options{
			Store:   st,
			Metrics: metrics.NewManager(),
			Logger:  logger,
			Version: version,
			ServeUI: ui,
		})
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting skillchart API server on %s\n", addr)
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
	serveCmd.Flags().Bool("ui", true, "serve the chart playground at /")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  skillchart: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Chart Mode:    %s\n", cfg.Chart.Mode)
		fmt.Printf("    API Server:    %s:%d (cache %ds)\n", cfg.API.Host, cfg.API.Port, cfg.API.CacheTTL)
		fmt.Printf("    Image Dir:     %s\n", cfg.Report.ImageDir)
		fmt.Printf("    Report Output: %s\n", cfg.Report.OutputDir)

		fmt.Printf("    PDF Engine:    %s\n", pdfEngineStatus(cfg.PDF.Engine))
		fmt.Println()

		fmt.Println("  Storage:")
		path, err := dbPath()
		if err != nil {
			fmt.Printf("    Database:      ❌ %v\n", err)
		} else {
			fmt.Printf("    Database:      %s\n", path)
			if st, err := openStore(); err != nil {
				fmt.Printf("    Skills:        ❌ %v\n", err)
			} else {
				skills, err := st.ListSkills(cmd.Context())
				st.Close()
				if err != nil {
					fmt.Printf("    Skills:        ❌ %v\n", err)
				} else {
					fmt.Printf("    Skills:        %d\n", len(skills))
				}
			}
		}

		fmt.Printf("  Time:          %s\n", utils.FormatDateTime(timeNow()))
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Shared helpers ---

// pdfEngineStatus describes the configured PDF engine for status output.
func pdfEngineStatus(raw string) string {
	engine, err := report.ParsePDFEngine(raw)
	if err != nil {
		return fmt.Sprintf("❌ %v (reports fall back to HTML)", err)
	}
	if engine == report.EngineAuto {
		return fmt.Sprintf("%s (auto-detected)", report.DetectPDFEngine())
	}
	return string(engine)
}

// dbPath resolves the configured database file, creating its directory.
func dbPath() (string, error) {
	if cfg.Storage.Path == "" {
		return store.DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return "", fmt.Errorf("creating storage directory: %w", err)
	}
	return cfg.Storage.Path, nil
}

func openStore() (*store.Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening progress store: %w", err)
	}
	return st, nil
}

// resolveMode picks the --mode flag over the configured default.
func resolveMode(cmd *cobra.Command) (chart.Mode, error) {
	raw, _ := cmd.Flags().GetString("mode")
	if raw == "" {
		raw = cfg.Chart.Mode
	}
	return chart.ParseMode(raw)
}

// isNotFound reports whether err means a skill is missing.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrSkillNotFound)
}
