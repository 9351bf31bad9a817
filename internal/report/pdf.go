package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// PDF Generator: HTML → PDF via wkhtmltopdf / chromium headless
// ════════════════════════════════════════════════════════════════════

// PDFEngine specifies which engine to use for HTML→PDF conversion.
type PDFEngine string

const (
	EngineAuto     PDFEngine = ""
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none" // skip PDF, write HTML
)

var chromiumBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// PDFConfig holds configuration for PDF generation.
type PDFConfig struct {
	Engine       PDFEngine // default: auto-detect
	PageSize     string    // default: "A4"
	Orientation  string    // "portrait" (default) or "landscape"
	MarginTop    string    // default: "15mm"
	MarginBottom string    // default: "15mm"
	MarginLeft   string    // default: "10mm"
	MarginRight  string    // default: "10mm"
	OutputPath   string    // required: output PDF file path
	Logger       *slog.Logger
}

// DefaultPDFConfig returns sensible defaults for PDF generation.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		Engine:       EngineAuto,
		PageSize:     "A4",
		Orientation:  "portrait",
		MarginTop:    "15mm",
		MarginBottom: "15mm",
		MarginLeft:   "10mm",
		MarginRight:  "10mm",
	}
}

// ParsePDFEngine maps a config value to an engine.
func ParsePDFEngine(s string) (PDFEngine, error) {
	switch e := PDFEngine(strings.ToLower(strings.TrimSpace(s))); e {
	case EngineAuto, EngineWKHTML, EngineChromium, EngineNone:
		return e, nil
	case "auto":
		return EngineAuto, nil
	default:
		return "", fmt.Errorf("unsupported PDF engine: %s", s)
	}
}

// DetectPDFEngine checks which PDF engine is available on the system.
func DetectPDFEngine() PDFEngine {
	if _, err := lookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML
	}
	if chromiumPath() != "" {
		return EngineChromium
	}
	return EngineNone
}

func chromiumPath() string {
	for _, name := range chromiumBinaries {
		if path, err := lookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// GeneratePDF converts an HTML report to a PDF file and returns the path
// written. When the engine is none, unknown, missing or fails, the HTML is
// written next to the requested path with an .html extension instead and
// that path is returned.
func GeneratePDF(ctx context.Context, html string, cfg PDFConfig) (string, error) {
	if cfg.OutputPath == "" {
		return "", fmt.Errorf("output path is required")
	}
	def := DefaultPDFConfig()
	if cfg.PageSize == "" {
		cfg.PageSize = def.PageSize
	}
	if cfg.Orientation == "" {
		cfg.Orientation = def.Orientation
	}
	if cfg.MarginTop == "" {
		cfg.MarginTop, cfg.MarginBottom = def.MarginTop, def.MarginBottom
		cfg.MarginLeft, cfg.MarginRight = def.MarginLeft, def.MarginRight
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	engine := cfg.Engine
	if engine == EngineAuto {
		engine = DetectPDFEngine()
	}

	var err error
	switch engine {
	case EngineNone:
		return writeHTMLFallback(html, cfg.OutputPath)
	case EngineWKHTML, EngineChromium:
		if err = os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		if engine == EngineWKHTML {
			err = generateWithWKHTML(ctx, html, cfg)
		} else {
			err = generateWithChromium(ctx, html, cfg)
		}
		if err == nil {
			return cfg.OutputPath, nil
		}
	default:
		err = fmt.Errorf("unsupported PDF engine: %s", engine)
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	log.Warn("PDF export failed, writing HTML instead", "engine", string(engine), "error", err)
	os.Remove(cfg.OutputPath)
	return writeHTMLFallback(html, cfg.OutputPath)
}

func generateWithWKHTML(ctx context.Context, html string, cfg PDFConfig) error {
	if _, err := lookPath("wkhtmltopdf"); err != nil {
		return fmt.Errorf("wkhtmltopdf not found in PATH")
	}

	tmpFile, err := writeTempHTML(html)
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile)

	args := []string{
		"--page-size", cfg.PageSize,
		"--orientation", cfg.Orientation,
		"--margin-top", cfg.MarginTop,
		"--margin-bottom", cfg.MarginBottom,
		"--margin-left", cfg.MarginLeft,
		"--margin-right", cfg.MarginRight,
		"--encoding", "UTF-8",
		"--quiet",
		tmpFile,
		cfg.OutputPath,
	}

	cmd := exec.CommandContext(ctx, "wkhtmltopdf", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wkhtmltopdf failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

func generateWithChromium(ctx context.Context, html string, cfg PDFConfig) error {
	chromiumBin := chromiumPath()
	if chromiumBin == "" {
		return fmt.Errorf("chromium not found in PATH")
	}

	tmpFile, err := writeTempHTML(html)
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile)

	// Chromium resolves --print-to-pdf relative to its own cwd.
	absOutput, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--print-to-pdf=" + absOutput,
		"--print-to-pdf-no-header",
	}
	if strings.EqualFold(cfg.Orientation, "landscape") {
		args = append(args, "--landscape")
	}
	args = append(args, "file://"+tmpFile)

	cmd := exec.CommandContext(ctx, chromiumBin, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("chromium PDF export failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

func writeTempHTML(html string) (string, error) {
	f, err := os.CreateTemp("", "skillchart_report_*.html")
	if err != nil {
		return "", fmt.Errorf("creating temp HTML: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(html); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temp HTML: %w", err)
	}
	return f.Name(), nil
}

func writeHTMLFallback(html string, outputPath string) (string, error) {
	// Change extension to .html if .pdf was specified
	if strings.HasSuffix(strings.ToLower(outputPath), ".pdf") {
		outputPath = outputPath[:len(outputPath)-4] + ".html"
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("writing HTML fallback: %w", err)
	}
	return outputPath, nil
}

// IsPDFSupported returns true if a PDF engine is available.
func IsPDFSupported() bool {
	return DetectPDFEngine() != EngineNone
}
