// Package reporter renders cost reports in HTML, CSV, and JSON, grounded on
// the teacher's internal/reporter package: the same dark-mode HTML
// dashboard template and OutputDir-rooted file naming, rebuilt over
// model.CostAggregation, anomaly.Anomaly, and model.Alert instead of the
// teacher's aggregator.AggregationResult/Anomaly/BudgetAlert.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lvonguyen/costintel/internal/anomaly"
	"github.com/lvonguyen/costintel/internal/config"
	"github.com/lvonguyen/costintel/internal/model"
)

// ReportData carries everything a report rendering pass needs.
type ReportData struct {
	Period       string
	Aggregation  model.CostAggregation
	Entries      []model.NormalizedCostEntry
	Anomalies    []anomaly.Anomaly
	BudgetAlerts []model.Alert
	GeneratedAt  time.Time
}

// costRow is one line of the aggregation's group-by breakdown; sortedRows
// orders the rows by cost descending for the HTML group table.
type costRow struct {
	Key   string
	Cost  string
	Count int
}

func (d ReportData) sortedRows() []costRow {
	rows := make([]costRow, 0, len(d.Aggregation.Costs))
	for key, cost := range d.Aggregation.Costs {
		rows = append(rows, costRow{Key: key, Cost: cost.Amount.StringFixed(2), Count: d.Aggregation.Counts[key]})
	}
	sort.Slice(rows, func(i, j int) bool {
		return d.Aggregation.Costs[rows[i].Key].Cmp(d.Aggregation.Costs[rows[j].Key]) > 0
	})
	return rows
}

// Reporter renders report files under a configured output directory.
type Reporter struct {
	config config.ReporterConfig
}

// New creates a new Reporter.
func New(cfg config.ReporterConfig) *Reporter {
	return &Reporter{config: cfg}
}

// GenerateHTML renders the dashboard-style HTML report.
func (r *Reporter) GenerateHTML(data ReportData) (string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("cost-report-%s.html", time.Now().Format("20060102-150405"))
	outputPath := filepath.Join(r.config.OutputDir, filename)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	view := struct {
		Period       string
		GeneratedAt  time.Time
		TotalCost    string
		Currency     string
		GroupCount   int
		Rows         []costRow
		Anomalies    []anomaly.Anomaly
		BudgetAlerts []model.Alert
	}{
		Period:       data.Period,
		GeneratedAt:  data.GeneratedAt,
		TotalCost:    data.Aggregation.TotalCost.Amount.StringFixed(2),
		Currency:     data.Aggregation.Currency,
		GroupCount:   len(data.Aggregation.Costs),
		Rows:         data.sortedRows(),
		Anomalies:    data.Anomalies,
		BudgetAlerts: data.BudgetAlerts,
	}

	tmpl := template.Must(template.New("report").Parse(htmlTemplate))
	if err := tmpl.Execute(f, view); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return outputPath, nil
}

// GenerateCSV renders the per-entry CSV report.
func (r *Reporter) GenerateCSV(data ReportData) (string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("cost-report-%s.csv", time.Now().Format("20060102-150405"))
	outputPath := filepath.Join(r.config.OutputDir, filename)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write([]string{"Provider", "AccountID", "ResourceType", "Region", "WindowStart", "Cost", "Currency"}); err != nil {
		return "", err
	}

	for _, e := range data.Entries {
		if err := writer.Write([]string{
			string(e.Resource.Provider),
			e.AccountID,
			string(e.Resource.CanonicalType),
			string(e.Resource.Region),
			e.Window.Start.Format("2006-01-02"),
			e.TotalCost().Amount.StringFixed(2),
			e.Currency,
		}); err != nil {
			return "", err
		}
	}

	return outputPath, nil
}

// GenerateJSON renders the raw ReportData as JSON.
func (r *Reporter) GenerateJSON(data ReportData) (string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("cost-report-%s.json", time.Now().Format("20060102-150405"))
	outputPath := filepath.Join(r.config.OutputDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return outputPath, nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Cloud Cost Report - {{.Period}}</title>
    <style>
        :root {
            --bg-dark: #0f172a;
            --bg-card: #1e293b;
            --text-primary: #f1f5f9;
            --text-secondary: #94a3b8;
            --accent-blue: #3b82f6;
            --accent-green: #22c55e;
            --accent-yellow: #eab308;
            --accent-red: #ef4444;
            --border: #334155;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: 'Inter', -apple-system, BlinkMacSystemFont, sans-serif;
            background: var(--bg-dark);
            color: var(--text-primary);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1400px; margin: 0 auto; }
        h1 {
            font-size: 2rem;
            margin-bottom: 0.5rem;
            background: linear-gradient(135deg, var(--accent-blue), #8b5cf6);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
        }
        .subtitle { color: var(--text-secondary); margin-bottom: 2rem; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .stat-card {
            background: var(--bg-card);
            border: 1px solid var(--border);
            border-radius: 12px;
            padding: 1.5rem;
        }
        .stat-label { color: var(--text-secondary); font-size: 0.875rem; }
        .stat-value { font-size: 2rem; font-weight: 700; }
        .stat-value.green { color: var(--accent-green); }
        .stat-value.yellow { color: var(--accent-yellow); }
        .stat-value.red { color: var(--accent-red); }
        .section { margin-bottom: 2rem; }
        .section-title {
            font-size: 1.25rem;
            margin-bottom: 1rem;
            padding-bottom: 0.5rem;
            border-bottom: 1px solid var(--border);
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: var(--bg-card);
            border-radius: 12px;
            overflow: hidden;
        }
        th, td { padding: 1rem; text-align: left; }
        th {
            background: rgba(59, 130, 246, 0.1);
            font-weight: 600;
            color: var(--accent-blue);
        }
        tr:not(:last-child) { border-bottom: 1px solid var(--border); }
        .badge {
            display: inline-block;
            padding: 0.25rem 0.75rem;
            border-radius: 9999px;
            font-size: 0.75rem;
            font-weight: 600;
        }
        .badge.low { background: rgba(34, 197, 94, 0.2); color: var(--accent-green); }
        .badge.medium { background: rgba(234, 179, 8, 0.2); color: var(--accent-yellow); }
        .badge.high { background: rgba(239, 68, 68, 0.2); color: var(--accent-red); }
        .badge.critical { background: rgba(239, 68, 68, 0.35); color: var(--accent-red); }
        .badge.active { background: rgba(239, 68, 68, 0.2); color: var(--accent-red); }
        .badge.acknowledged { background: rgba(234, 179, 8, 0.2); color: var(--accent-yellow); }
        .badge.resolved { background: rgba(34, 197, 94, 0.2); color: var(--accent-green); }
        .footer {
            margin-top: 3rem;
            padding-top: 1rem;
            border-top: 1px solid var(--border);
            color: var(--text-secondary);
            font-size: 0.875rem;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Multi-Cloud Cost Report</h1>
        <p class="subtitle">{{.Period}} | Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>

        <div class="stats-grid">
            <div class="stat-card">
                <div class="stat-label">Total Cost</div>
                <div class="stat-value">{{.TotalCost}} {{.Currency}}</div>
            </div>
            <div class="stat-card">
                <div class="stat-label">Groups</div>
                <div class="stat-value">{{.GroupCount}}</div>
            </div>
            <div class="stat-card">
                <div class="stat-label">Anomalies</div>
                <div class="stat-value {{if gt (len .Anomalies) 0}}red{{else}}green{{end}}">{{len .Anomalies}}</div>
            </div>
            <div class="stat-card">
                <div class="stat-label">Budget Alerts</div>
                <div class="stat-value {{if gt (len .BudgetAlerts) 0}}yellow{{else}}green{{end}}">{{len .BudgetAlerts}}</div>
            </div>
        </div>

        <div class="section">
            <h2 class="section-title">Cost by Group</h2>
            <table>
                <thead>
                    <tr>
                        <th>Group</th>
                        <th>Entries</th>
                        <th>Cost</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Rows}}
                    <tr>
                        <td>{{.Key}}</td>
                        <td>{{.Count}}</td>
                        <td>{{.Cost}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        {{if .Anomalies}}
        <div class="section">
            <h2 class="section-title">Cost Anomalies</h2>
            <table>
                <thead>
                    <tr>
                        <th>Provider</th>
                        <th>Resource Type</th>
                        <th>Actual Cost</th>
                        <th>Expected</th>
                        <th>Deviation</th>
                        <th>Severity</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Anomalies}}
                    <tr>
                        <td>{{.Provider}}</td>
                        <td>{{.ResourceType}}</td>
                        <td>${{printf "%.2f" .ActualCost}}</td>
                        <td>${{printf "%.2f" .ExpectedCost}}</td>
                        <td>{{printf "%.1f" .PercentChange}}%</td>
                        <td><span class="badge {{.Severity}}">{{.Severity}}</span></td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .BudgetAlerts}}
        <div class="section">
            <h2 class="section-title">Budget Alerts</h2>
            <table>
                <thead>
                    <tr>
                        <th>Budget</th>
                        <th>Threshold</th>
                        <th>Observed Spend</th>
                        <th>Status</th>
                        <th>Evaluated</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .BudgetAlerts}}
                    <tr>
                        <td>{{.BudgetID}}</td>
                        <td>{{printf "%.0f" .Threshold.Percentage}}%</td>
                        <td>{{.ObservedSpend.String}}</td>
                        <td><span class="badge {{.Status}}">{{.Status}}</span></td>
                        <td>{{.EvaluatedAt.Format "2006-01-02 15:04"}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="footer">
            <p>Generated by costintel</p>
        </div>
    </div>
</body>
</html>`
