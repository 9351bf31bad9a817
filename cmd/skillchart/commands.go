package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/skillchart/internal/chart"
	"github.com/seenimoa/skillchart/internal/records"
	"github.com/seenimoa/skillchart/internal/report"
	"github.com/seenimoa/skillchart/internal/store"
	"github.com/seenimoa/skillchart/pkg/models"
	"github.com/seenimoa/skillchart/pkg/utils"
)

var timeNow = time.Now

// --- Render Command ---

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one progress chart as SVG",
	Long: `Render a progress chart from a JSON file of records (--input, "-" for
stdin) or from a stored skill (--skill). Prints nothing and exits cleanly
when no update has a plottable score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := resolveMode(cmd)
		if err != nil {
			return err
		}
		input, _ := cmd.Flags().GetString("input")
		skillID, _ := cmd.Flags().GetString("skill")
		out, _ := cmd.Flags().GetString("out")

		var updates []models.ProgressUpdate
		switch {
		case input != "" && skillID != "":
			return fmt.Errorf("use either --input or --skill, not both")
		case input != "":
			updates, err = readRecords(input, cmd.InOrStdin())
		case skillID != "":
			updates, err = storedUpdates(cmd.Context(), skillID)
		default:
			return fmt.Errorf("one of --input or --skill is required")
		}
		if err != nil {
			return err
		}

		svg := chart.Render(updates, mode)
		if svg == "" {
			logger.Warn("no plottable scores", "updates", len(updates), "mode", mode.String())
			fmt.Fprintln(cmd.ErrOrStderr(), report.NoChartNotice)
			return nil
		}
		return writeOutput(out, cmd.OutOrStdout(), svg)
	},
}

func init() {
	renderCmd.Flags().String("input", "", "JSON file of progress records (\"-\" for stdin)")
	renderCmd.Flags().String("skill", "", "stored skill id")
	renderCmd.Flags().String("mode", "", "numeric_preferred or numeric_only (default: chart.mode)")
	renderCmd.Flags().String("out", "", "output file (default: stdout)")
}

// --- Import Command ---

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import progress records into the store",
	Long: `Import a JSON array of progress records (or {"updates": [...]}) for a
skill. Field names are matched loosely: date/recorded_at, score/raw_score,
target/goal, notes/comments and so on. Files ending in .html or .htm are
read as an exported table whose header cells name the fields. The skill is
created if missing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skillID, _ := cmd.Flags().GetString("skill")
		name, _ := cmd.Flags().GetString("name")
		desc, _ := cmd.Flags().GetString("description")
		if strings.TrimSpace(skillID) == "" {
			return fmt.Errorf("--skill is required")
		}

		updates, err := readRecords(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := importUpdates(cmd.Context(), st, models.Skill{ID: skillID, Name: name, Description: desc}, updates)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d update(s) into %s\n", n, skillID)
		return nil
	},
}

func init() {
	importCmd.Flags().String("skill", "", "skill id to import into (required)")
	importCmd.Flags().String("name", "", "skill name when creating it")
	importCmd.Flags().String("description", "", "skill description when creating it")
}

// importUpdates saves sk when it does not exist yet (or when a name or
// description is given) and appends updates in order.
func importUpdates(ctx context.Context, st *store.Store, sk models.Skill, updates []models.ProgressUpdate) (int, error) {
	existing, err := st.Skill(ctx, sk.ID)
	switch {
	case isNotFound(err):
		if err := st.SaveSkill(ctx, sk); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	case sk.Name != "" || sk.Description != "":
		if sk.Name == "" {
			sk.Name = existing.Name
		}
		if sk.Description == "" {
			sk.Description = existing.Description
		}
		if err := st.SaveSkill(ctx, sk); err != nil {
			return 0, err
		}
	}

	for i, u := range updates {
		if _, err := st.AddUpdate(ctx, sk.ID, u); err != nil {
			return i, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return len(updates), nil
}

// --- Skills Command ---

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List stored skills with their latest score",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := resolveMode(cmd)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return listSkills(cmd.Context(), cmd.OutOrStdout(), st, mode)
	},
}

func init() {
	skillsCmd.Flags().String("mode", "", "numeric_preferred or numeric_only (default: chart.mode)")
}

func listSkills(ctx context.Context, w io.Writer, st *store.Store, mode chart.Mode) error {
	skills, err := st.ListSkills(ctx)
	if err != nil {
		return err
	}
	if len(skills) == 0 {
		fmt.Fprintln(w, "No skills stored. Use `skillchart import` to add some.")
		return nil
	}

	fmt.Fprintf(w, "%-20s %-32s %7s %7s %8s\n", "ID", "NAME", "UPDATES", "LATEST", "TARGET")
	for _, sk := range skills {
		updates, err := st.Updates(ctx, sk.ID)
		if err != nil {
			return err
		}
		latest, target := "-", "-"
		for _, u := range updates {
			if p, ok := chart.Normalize(u.RawScore, mode); ok {
				latest = chart.FormatPercent(p) + "%"
			}
			if p, ok := chart.Normalize(u.RawTarget, mode); ok {
				target = chart.FormatPercent(p) + "%"
			}
		}
		fmt.Fprintf(w, "%-20s %-32s %7d %7s %8s\n", sk.ID, truncate(sk.Name, 32), len(updates), latest, target)
	}
	return nil
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a progress report for stored skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := resolveMode(cmd)
		if err != nil {
			return err
		}
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		skillIDs, _ := cmd.Flags().GetStringSlice("skill")
		client, _ := cmd.Flags().GetString("client")
		clinician, _ := cmd.Flags().GetString("clinician")
		out, _ := cmd.Flags().GetString("out")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		req, err := loadReport(cmd.Context(), st, skillIDs)
		if err != nil {
			return err
		}
		req.ClientName, req.Clinician = client, clinician

		rc := report.DefaultReportConfig()
		rc.Format = format
		rc.Mode = mode
		rc.Title = cfg.Report.Title
		rc.ImageDir = cfg.Report.ImageDir
		if cfg.Report.Author != "" {
			rc.Author = cfg.Report.Author
		}
		rc.Logger = logger

		if out == "" {
			out = defaultReportPath(cfg.Report.OutputDir, client, format, timeNow())
		}

		start := timeNow()
		written, err := exportReport(cmd.Context(), req, rc, out)
		if err != nil {
			return err
		}
		logger.Info("report exported", "path", written, "skills", len(req.Skills),
			"elapsed", utils.FormatDuration(timeNow().Sub(start)))
		fmt.Fprintf(cmd.OutOrStdout(), "📄 Report written to %s\n", written)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringSlice("skill", nil, "skill ids to include (default: all)")
	reportCmd.Flags().String("client", "", "client name for the report header")
	reportCmd.Flags().String("clinician", "", "clinician name for the report header")
	reportCmd.Flags().String("format", "html", "html, text or pdf")
	reportCmd.Flags().String("mode", "", "numeric_preferred or numeric_only (default: chart.mode)")
	reportCmd.Flags().String("out", "", "output file (default: report.output_dir)")
}

// loadReport gathers skills and their updates. With no ids, every stored
// skill is included. The period spans the earliest to latest dated update.
func loadReport(ctx context.Context, st *store.Store, ids []string) (models.ProgressReport, error) {
	var req models.ProgressReport
	if len(ids) == 0 {
		skills, err := st.ListSkills(ctx)
		if err != nil {
			return req, err
		}
		for _, sk := range skills {
			ids = append(ids, sk.ID)
		}
	}

	for _, id := range ids {
		sk, err := st.Skill(ctx, id)
		if err != nil {
			return req, err
		}
		updates, err := st.Updates(ctx, id)
		if err != nil {
			return req, err
		}
		for _, u := range updates {
			if u.RecordedAt.IsZero() {
				continue
			}
			if req.PeriodStart.IsZero() || u.RecordedAt.Before(req.PeriodStart) {
				req.PeriodStart = u.RecordedAt
			}
			if u.RecordedAt.After(req.PeriodEnd) {
				req.PeriodEnd = u.RecordedAt
			}
		}
		req.Skills = append(req.Skills, models.SkillProgress{Skill: sk, Updates: updates})
	}
	return req, nil
}

// exportReport renders the report in rc.Format and writes it to out,
// returning the path actually written.
func exportReport(ctx context.Context, req models.ProgressReport, rc report.ReportConfig, out string) (string, error) {
	data, err := report.Build(ctx, req, rc)
	if err != nil {
		return "", err
	}

	switch rc.Format {
	case report.FormatText:
		return out, writeOutput(out, nil, report.RenderText(data))
	case report.FormatPDF:
		html, err := report.RenderHTML(data)
		if err != nil {
			return "", err
		}
		// An unknown engine is passed through; GeneratePDF falls back to HTML.
		engine, err := report.ParsePDFEngine(cfg.PDF.Engine)
		if err != nil {
			engine = report.PDFEngine(cfg.PDF.Engine)
		}
		pc := report.DefaultPDFConfig()
		pc.Engine = engine
		pc.Logger = logger
		if cfg.PDF.PageSize != "" {
			pc.PageSize = cfg.PDF.PageSize
		}
		if cfg.PDF.Orientation != "" {
			pc.Orientation = cfg.PDF.Orientation
		}
		pc.OutputPath = out
		return report.GeneratePDF(ctx, html, pc)
	default:
		html, err := report.RenderHTML(data)
		if err != nil {
			return "", err
		}
		return out, writeOutput(out, nil, html)
	}
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func defaultReportPath(dir, client string, format report.ReportFormat, now time.Time) string {
	stem := "progress"
	if c := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(client), "-"), "-"); c != "" {
		stem = c
	}
	ext := ".html"
	switch format {
	case report.FormatText:
		ext = ".txt"
	case report.FormatPDF:
		ext = ".pdf"
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, stem+"_"+now.Format("20060102")+ext)
}

// --- I/O helpers ---

func readRecords(path string, stdin io.Reader) ([]models.ProgressUpdate, error) {
	if path == "-" {
		return records.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return records.DecodeHTMLTable(f)
	default:
		return records.Decode(f)
	}
}

func storedUpdates(ctx context.Context, skillID string) ([]models.ProgressUpdate, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Updates(ctx, skillID)
}

// writeOutput writes s to path, or to w when path is empty.
func writeOutput(path string, w io.Writer, s string) error {
	if path == "" {
		_, err := io.WriteString(w, s)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
