package web

const baseHTML = `{{define "base"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>manimator runs</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: .35rem .6rem; border-bottom: 1px solid #ddd; }
pre { background: #f6f6f6; padding: .75rem; overflow-x: auto; }
.badge { padding: .1rem .45rem; border-radius: .3rem; font-size: .85em; background: #eee; }
.badge-completed, .badge-rendered { background: #d4f5d4; }
.badge-failed, .badge-exhausted, .badge-generation-failed { background: #f8d0d0; }
.badge-no-artifacts { background: #f5ecc4; }
.badge-in-progress { background: #d6e6fa; }
</style>
</head>
<body>
<p><a href="/">runs</a></p>
{{template "content" .}}
</body>
</html>{{end}}`

const dashboardHTML = `<h1>Runs</h1>
{{if not .Runs}}<p>No runs recorded yet.</p>{{else}}
<table>
<tr><th>Run</th><th>Document</th><th>Status</th><th>Scenes</th><th>Clips</th><th>Started</th></tr>
{{range .Runs}}<tr>
<td><a href="/run/{{.RunID}}">{{.RunID}}</a></td>
<td>{{.Document}}</td>
<td><span class="{{badgeClass .Status}}">{{.Status}}</span></td>
<td>{{.Units}}</td>
<td>{{.Artifacts}}</td>
<td>{{relTime .StartedAt}}</td>
</tr>{{end}}
</table>{{end}}`

const runHTML = `<h1>Run {{.Run.RunID}}</h1>
<p>{{.Run.Document}} &middot; <span class="{{badgeClass .Run.Status}}">{{.Run.Status}}</span>
{{if .Run.FinalPath}} &middot; output <code>{{.Run.FinalPath}}</code>{{end}}</p>
{{if .Run.AggregationError}}<pre>{{.Run.AggregationError}}</pre>{{end}}
<h2>Scenes</h2>
<table>
<tr><th>Scene</th><th>State</th><th>Renders</th><th>Repairs</th><th>Artifact</th><th>Duration</th></tr>
{{range .Run.Units}}<tr>
<td><a href="/run/{{$.Run.RunID}}/unit/{{.Slug}}">{{.ID}}</a></td>
<td><span class="{{badgeClass .State}}">{{.State}}</span>{{if .ValidationBypassed}} (validation bypassed){{end}}</td>
<td>{{.RenderAttempts}}</td>
<td>{{.RepairRounds}}</td>
<td>{{if .Resolved}}<code>{{.ArtifactPath}}</code>{{else if eq .State "rendered"}}unresolved{{end}}</td>
<td>{{.Duration}}</td>
</tr>{{end}}
</table>
{{if .Events}}<h2>Events</h2>
<table>
<tr><th>Time</th><th>Scene</th><th>Event</th><th>Attempt</th><th>Detail</th></tr>
{{range .Events}}<tr><td>{{relTime .Timestamp}}</td><td>{{.Slug}}</td><td>{{.Event}}</td><td>{{.Attempt}}</td><td>{{.Detail}}</td></tr>{{end}}
</table>{{end}}`

const unitHTML = `<h1>{{.Slug}}</h1>
<p><a href="/run/{{.RunID}}">back to run {{.RunID}}</a></p>
<h2>Attempts</h2>
{{range .Attempts}}<h3>{{.Name}}</h3><pre>{{.Content}}</pre>{{else}}<p>No attempts saved.</p>{{end}}
{{if .Logs}}<h2>Render logs</h2>
{{range .Logs}}<h3>{{.Name}}</h3><pre>{{.Content}}</pre>{{end}}{{end}}`
