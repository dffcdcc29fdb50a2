package dashboard

import (
	"fmt"
	"html/template"
)

var pageFuncs = template.FuncMap{
	"add":   func(a, b int) int { return a + b },
	"score": func(p float64) string { return fmt.Sprintf("%.3f", p) },
	"pct": func(n, total int) string {
		if total == 0 {
			return "0.0%"
		}
		return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
	},
	"f1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f4": func(v float64) string { return fmt.Sprintf("%.4f", v) },
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(pageFuncs).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Student Dropout Risk System</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f7fb; color: #1f2933; }
        .container { max-width: 1400px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #273f75 0%, #4d73b0 100%); color: white; padding: 20px; border-radius: 15px; margin-bottom: 20px; }
        .header h1 { margin: 0 0 8px 0; }
        .card { background: white; border-radius: 15px; padding: 20px; margin-bottom: 20px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); overflow-x: auto; }
        .card h3 { margin-top: 0; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .grid { display: grid; grid-template-columns: repeat(4, 1fr); gap: 20px; margin-bottom: 20px; }
        .split { display: grid; grid-template-columns: 1fr 1fr; gap: 20px; }
        .metric-box { background: linear-gradient(135deg, #273f75, #4d73b0); padding: 20px; border-radius: 15px; color: white; text-align: center; }
        .metric-box h2 { margin: 0; font-size: 2.2em; }
        .error { background: #fdecea; color: #b71c1c; border-left: 4px solid #dc3545; padding: 12px 16px; border-radius: 8px; margin-bottom: 20px; }
        .warning { background: #fff8e1; border-left: 4px solid #ffc107; padding: 8px 16px; margin: 4px 0; border-radius: 4px; }
        table { width: 100%; border-collapse: collapse; font-size: 0.9em; }
        th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #eee; white-space: nowrap; }
        th { background-color: #f8f9fa; font-weight: 600; }
        .tier-High { color: #dc3545; font-weight: bold; }
        .tier-Medium { color: #e0a800; font-weight: bold; }
        .tier-Low { color: #28a745; font-weight: bold; }
        .bar { fill: #4d73b0; }
        .footer { text-align: center; color: gray; padding: 20px; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>Student Dropout Early Warning System</h1>
        <p>Upload a student CSV or XLSX file to identify at-risk students early.</p>
    </div>

    <div class="card">
        <form action="/upload" method="post" enctype="multipart/form-data">
            <input type="file" name="file" accept=".csv,.xlsx" required>
            <button type="submit">Analyze</button>
            {{if .FileName}}<span>Current file: <strong>{{.FileName}}</strong></span>{{end}}
        </form>
    </div>

    {{if .Error}}<div class="error">{{.Error}}</div>{{end}}

    {{if .HasUpload}}
    {{range .Warnings}}<div class="warning">{{.}}</div>{{end}}

    <div class="grid">
        <div class="metric-box"><h2 id="total-count">{{.Summary.Total}}</h2><p>Total Students</p></div>
        <div class="metric-box"><h2 id="high-count">{{.Summary.High}}</h2><p>High Risk ({{pct .Summary.High .Summary.Total}})</p></div>
        <div class="metric-box"><h2 id="medium-count">{{.Summary.Medium}}</h2><p>Medium Risk ({{pct .Summary.Medium .Summary.Total}})</p></div>
        <div class="metric-box"><h2 id="low-count">{{.Summary.Low}}</h2><p>Low Risk ({{pct .Summary.Low .Summary.Total}})</p></div>
    </div>

    <div class="card">
        <h3>Top {{.TopN}} High-Risk Students</h3>
        <table id="top-students">
            <thead>
                <tr>
                    <th>student_id</th><th>risk_score</th><th>risk_level</th><th>predicted_dropout</th>
                    {{range .Columns}}<th>{{.}}</th>{{end}}
                </tr>
            </thead>
            <tbody>
            {{range .Top}}
                <tr>
                    <td><a href="/?student={{.StudentID}}">{{.StudentID}}</a></td>
                    <td>{{score .Probability}}</td>
                    <td class="tier-{{.Tier}}">{{.Tier}}</td>
                    <td>{{.Predicted}}</td>
                    {{range .Fields}}<td>{{.Value}}</td>{{end}}
                </tr>
            {{end}}
            </tbody>
        </table>
    </div>

    <div class="split">
        <div class="card">
            <h3>Individual Student Analysis</h3>
            <form method="get" action="/">
                <label for="student">Select Student ID</label>
                <select id="student" name="student" onchange="this.form.submit()">
                {{$sel := -1}}{{if .Selected}}{{$sel = .Selected.StudentID}}{{end}}
                {{range .StudentIDs}}<option value="{{.}}"{{if eq . $sel}} selected{{end}}>{{.}}</option>{{end}}
                </select>
                <noscript><button type="submit">Show</button></noscript>
            </form>
            {{with .Selected}}
            <table id="student-detail">
                <tr><th>student_id</th><td>{{.StudentID}}</td></tr>
                <tr><th>risk_score</th><td>{{score .Probability}}</td></tr>
                <tr><th>risk_level</th><td class="tier-{{.Tier}}">{{.Tier}}</td></tr>
                <tr><th>predicted_dropout</th><td>{{.Predicted}}</td></tr>
                {{range .Fields}}<tr><th>{{.Name}}</th><td>{{.Value}}</td></tr>{{end}}
            </table>
            {{end}}
        </div>

        <div class="card">
            <h3>Key Risk Factors</h3>
            <svg id="importance-chart" width="760" height="{{.ChartHeight}}" role="img" aria-label="Top Predictors">
            {{range .Bars}}
                <text x="0" y="{{add .Y 19}}" font-size="13">{{.Name}}</text>
                <rect class="bar" x="240" y="{{add .Y 4}}" width="{{f1 .Width}}" height="20"></rect>
                <text x="{{f1 .Width}}" dx="248" y="{{add .Y 19}}" font-size="12">{{f4 .Importance}}</text>
            {{end}}
            </svg>
            <p>Importance</p>
        </div>
    </div>
    {{end}}

    <div class="footer">
        <hr>
        <p>Student Dropout Prediction System | High &ge; {{index .Thresholds 0}}, Medium &ge; {{index .Thresholds 1}}, predicted dropout when risk &gt; {{index .Thresholds 2}}</p>
    </div>
</div>
</body>
</html>
`
