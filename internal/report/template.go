package report

// ReportTemplate is the HTML template for the progress report.
// It is embedded as a Go constant: charts are inline SVG or data: URIs, so
// the output has no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 8px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }

  .skill { page-break-inside: avoid; margin-bottom: 24px; }
  .stats {
    display: grid;
    grid-template-columns: repeat(3, 1fr);
    gap: 8px;
    background: var(--section-bg);
    padding: 10px;
    border-radius: 8px;
    margin: 8px 0;
  }
  .stat { text-align: center; }
  .stat .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .stat .value { font-size: 1rem; font-weight: 600; }

  .chart { margin: 12px 0; }
  .chart svg, .chart img { max-width: 100%; height: auto; }
  .no-chart {
    padding: 24px;
    text-align: center;
    color: var(--muted);
    border: 1px dashed var(--border);
    border-radius: 8px;
  }

  table { width: 100%; border-collapse: collapse; font-size: 0.85rem; margin-top: 8px; }
  th, td { padding: 6px 8px; border-bottom: 1px solid var(--border); text-align: left; }
  th { background: var(--section-bg); font-weight: 600; }

  .footer {
    margin-top: 32px;
    padding-top: 12px;
    border-top: 1px solid var(--border);
    font-size: 0.75rem;
    color: var(--muted);
    text-align: center;
  }
  @media print { body { padding: 0; } }
</style>
</head>
<body>

<div class="header">
  <div class="header-left">
    <h1>{{.Title}}</h1>
    {{if .ClientName}}<p class="client">{{.ClientName}}</p>{{end}}
    {{if .Period}}<p class="muted period">{{.Period}}</p>{{end}}
  </div>
  <div class="header-right">
    {{if .Clinician}}<p class="clinician">{{.Clinician}}</p>{{end}}
    <p class="muted">Generated {{.GeneratedAt}}</p>
  </div>
</div>

{{if not .Skills}}<p class="no-chart">No skills recorded.</p>{{end}}

{{range .Skills}}
<section class="skill" id="skill-{{.ID}}" data-source="{{.Source}}">
  <h2>{{.Name}}</h2>
  {{if .Description}}<p class="description">{{.Description}}</p>{{end}}

  <div class="stats">
    <div class="stat"><div class="label">Latest</div><div class="value latest">{{if .LatestScore}}{{.LatestScore}}{{else}}-{{end}}</div></div>
    <div class="stat"><div class="label">Target</div><div class="value target">{{if .LatestTarget}}{{.LatestTarget}}{{else}}-{{end}}</div></div>
    <div class="stat"><div class="label">Plotted</div><div class="value">{{.Plotted}} / {{.Total}}</div></div>
  </div>

  <div class="chart">
    {{if eq .Source "rendered"}}{{.ChartSVG}}
    {{else if eq .Source "fallback"}}<img src="{{.ChartImage}}" alt="Progress chart for {{.Name}}">
    {{else}}<div class="no-chart">No chart available</div>{{end}}
  </div>

  {{if .Rows}}
  <table class="updates">
    <thead><tr><th>Date</th><th>Score</th><th>Target</th><th>Notes</th></tr></thead>
    <tbody>
    {{range .Rows}}<tr><td>{{.Date}}</td><td>{{.Score}}</td><td>{{.Target}}</td><td>{{.Notes}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</section>
{{end}}

<div class="footer">
  <p>Prepared by {{.Author}} · Scores shown as percent of mastery ({{.Mode}})</p>
</div>

</body>
</html>`
