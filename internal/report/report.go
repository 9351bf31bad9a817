// Package report turns skill progress into shareable HTML, text and PDF
// reports with embedded progress charts.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/skillchart/internal/chart"
	"github.com/seenimoa/skillchart/pkg/metrics"
	"github.com/seenimoa/skillchart/pkg/models"
	"github.com/seenimoa/skillchart/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator: orchestrates chart + template rendering
// ════════════════════════════════════════════════════════════════════

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatPDF  ReportFormat = "pdf"
	FormatText ReportFormat = "text"
)

// ParseFormat accepts html, pdf, text (or txt).
func ParseFormat(s string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// NoChartNotice is shown when a skill has neither a chart nor a stored image.
const NoChartNotice = "No chart available"

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Format   ReportFormat // output format (default: HTML)
	Title    string       // custom report title (optional)
	Author   string       // author name (optional)
	ImageDir string       // fallback chart images, matched by skill id
	Mode     chart.Mode   // score normalization mode

	Logger  *slog.Logger     // optional
	Metrics *metrics.Manager // optional
	Now     func() time.Time // optional, for tests
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Format: FormatHTML,
		Author: "skillchart",
		Mode:   chart.NumericPreferred,
	}
}

func (rc ReportConfig) logger() *slog.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}
	return slog.Default()
}

func (rc ReportConfig) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}

// ════════════════════════════════════════════════════════════════════
// Report Data: flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model passed to the HTML and text renderers.
type ReportData struct {
	Title       string
	ClientName  string
	Clinician   string
	Period      string
	Author      string
	GeneratedAt string
	Mode        string
	Skills      []SkillSection
}

// ChartSource says where a section's chart came from.
type ChartSource string

const (
	ChartRendered ChartSource = "rendered"
	ChartFallback ChartSource = "fallback"
	ChartNone     ChartSource = "none"
)

// SkillSection is one skill's block in the report.
type SkillSection struct {
	ID          string
	Name        string
	Description string

	Source     ChartSource
	ChartSVG   template.HTML // set when Source is ChartRendered
	ChartImage template.URL  // data: URI, set when Source is ChartFallback
	ImagePath  string

	LatestScore  string
	LatestTarget string
	Plotted      int
	Total        int
	Rows         []UpdateRow
}

// UpdateRow is one progress update as shown in the notes table.
type UpdateRow struct {
	Date   string
	Score  string
	Target string
	Notes  string
}

// ════════════════════════════════════════════════════════════════════
// Build
// ════════════════════════════════════════════════════════════════════

// Build renders every skill's chart concurrently and assembles the report
// model. Skill order is preserved.
func Build(ctx context.Context, req models.ProgressReport, cfg ReportConfig) (ReportData, error) {
	data := ReportData{
		Title:       cfg.Title,
		ClientName:  req.ClientName,
		Clinician:   req.Clinician,
		Period:      formatPeriod(req.PeriodStart, req.PeriodEnd),
		Author:      cfg.Author,
		GeneratedAt: utils.FormatDateTime(cfg.now()),
		Mode:        cfg.Mode.String(),
		Skills:      make([]SkillSection, len(req.Skills)),
	}
	if data.Title == "" {
		data.Title = "Progress Report"
		if req.ClientName != "" {
			data.Title = "Progress Report: " + req.ClientName
		}
	}
	if data.Author == "" {
		data.Author = DefaultReportConfig().Author
	}

	renderer := chart.Renderer{Mode: cfg.Mode}
	log := cfg.logger()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sp := range req.Skills {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data.Skills[i] = buildSection(sp, renderer, cfg, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ReportData{}, fmt.Errorf("building report: %w", err)
	}
	return data, nil
}

func buildSection(sp models.SkillProgress, r chart.Renderer, cfg ReportConfig, log *slog.Logger) SkillSection {
	sec := SkillSection{
		ID:          sp.Skill.ID,
		Name:        sp.Skill.Name,
		Description: sp.Skill.Description,
		Total:       len(sp.Updates),
		Rows:        make([]UpdateRow, len(sp.Updates)),
	}
	if sec.Name == "" {
		sec.Name = sec.ID
	}

	for i, u := range sp.Updates {
		sec.Rows[i] = UpdateRow{
			Date:   utils.FormatDate(u.RecordedAt),
			Score:  percentOrBlank(u.RawScore, cfg.Mode),
			Target: percentOrBlank(u.RawTarget, cfg.Mode),
			Notes:  u.Notes,
		}
		if sec.Rows[i].Score != "" {
			sec.Plotted++
			sec.LatestScore = sec.Rows[i].Score
		}
		if sec.Rows[i].Target != "" {
			sec.LatestTarget = sec.Rows[i].Target
		}
	}

	start := time.Now()
	svg := r.Render(sp.Updates)
	cfg.Metrics.ObserveRender(svg, time.Since(start))

	if svg != "" {
		sec.Source = ChartRendered
		sec.ChartSVG = template.HTML(svg)
		return sec
	}

	img, err := FindFallbackImage(cfg.ImageDir, sp.Skill.ID)
	if err != nil {
		log.Warn("fallback image lookup failed", "skill", sp.Skill.ID, "error", err)
	}
	if img == nil {
		sec.Source = ChartNone
		return sec
	}
	log.Debug("using fallback image", "skill", sp.Skill.ID, "path", img.Path)
	sec.Source = ChartFallback
	sec.ChartImage = template.URL(img.DataURI)
	sec.ImagePath = img.Path
	return sec
}

func percentOrBlank(raw any, mode chart.Mode) string {
	pct, ok := chart.Normalize(raw, mode)
	if !ok {
		return ""
	}
	return chart.FormatPercent(pct) + "%"
}

func formatPeriod(start, end time.Time) string {
	switch {
	case start.IsZero() && end.IsZero():
		return ""
	case start.IsZero():
		return "through " + utils.FormatDate(end)
	case end.IsZero():
		return "from " + utils.FormatDate(start)
	default:
		return utils.FormatDate(start) + " to " + utils.FormatDate(end)
	}
}

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// GenerateHTML builds a self-contained HTML progress report.
func GenerateHTML(ctx context.Context, req models.ProgressReport, cfg ReportConfig) (string, error) {
	data, err := Build(ctx, req, cfg)
	if err != nil {
		return "", err
	}
	return RenderHTML(data)
}

// RenderHTML executes the report template against data.
func RenderHTML(data ReportData) (string, error) {
	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateText builds a plain-text progress report for terminals and email.
func GenerateText(ctx context.Context, req models.ProgressReport, cfg ReportConfig) (string, error) {
	data, err := Build(ctx, req, cfg)
	if err != nil {
		return "", err
	}
	return RenderText(data), nil
}

// RenderText formats data as a plain-text report.
func RenderText(d ReportData) string {
	var sb strings.Builder

	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Generated: %s | Author: %s\n", d.GeneratedAt, d.Author))
	if d.Clinician != "" {
		sb.WriteString(fmt.Sprintf("  Clinician: %s\n", d.Clinician))
	}
	if d.Period != "" {
		sb.WriteString(fmt.Sprintf("  Period: %s\n", d.Period))
	}
	sb.WriteString(line + "\n")

	if len(d.Skills) == 0 {
		sb.WriteString("\n  No skills recorded.\n")
	}

	for _, s := range d.Skills {
		sb.WriteString(fmt.Sprintf("\n  ■ %s\n", s.Name))
		if s.Description != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", s.Description))
		}
		sb.WriteString(fmt.Sprintf("  Latest: %s | Target: %s | Plotted: %d of %d\n",
			orDash(s.LatestScore), orDash(s.LatestTarget), s.Plotted, s.Total))

		switch s.Source {
		case ChartRendered:
			sb.WriteString("  Chart: rendered\n")
		case ChartFallback:
			sb.WriteString(fmt.Sprintf("  Chart: stored image %s\n", s.ImagePath))
		default:
			sb.WriteString("  Chart: " + NoChartNotice + "\n")
		}

		for _, r := range s.Rows {
			sb.WriteString(fmt.Sprintf("    %-10s %7s %7s  %s\n", orDash(r.Date), orDash(r.Score), orDash(r.Target), r.Notes))
		}
		sb.WriteString(thinLine + "\n")
	}

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
