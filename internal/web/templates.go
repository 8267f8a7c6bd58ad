package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/slok/stagewatch/internal/printer"
	"github.com/slok/stagewatch/internal/view"
)

type pageData struct {
	Dashboard view.Dashboard
	Intervals []int64
	Search    string
	// Order is the rendered card order.
	Order []string
}

var funcMap = template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return printer.FormatTimestamp(t)
	},
	"timeAgo": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return printer.TimeAgo(time.Now(), t)
	},
	"fmtInterval": printer.FormatInterval,
	"orDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
	"stateColor": func(state string) string {
		switch state {
		case "running":
			return "#56d364"
		case "stopped":
			return "#f87171"
		default:
			return "#8b949e"
		}
	},
	"join": strings.Join,
	// sparkline returns the SVG polyline points of a series scaled to w x h.
	"sparkline": func(points []view.SeriesPoint, w, h int) string {
		if len(points) == 0 {
			return ""
		}

		minT, maxT := points[0].Timestamp, points[0].Timestamp
		var maxV int64
		for _, p := range points {
			minT = min(minT, p.Timestamp)
			maxT = max(maxT, p.Timestamp)
			maxV = max(maxV, p.Value)
		}

		var sb strings.Builder
		for i, p := range points {
			x := 0.0
			if maxT > minT {
				x = (p.Timestamp - minT) / (maxT - minT) * float64(w)
			}
			y := float64(h)
			if maxV > 0 {
				y = float64(h) - float64(p.Value)/float64(maxV)*float64(h)
			}
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		}
		return sb.String()
	},
	"seconds": func(ms int64) int64 { return max(ms/1000, 1) },
}

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<meta http-equiv="refresh" content="{{seconds .Dashboard.RefreshIntervalMS}}">
<title>Stagewatch</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body.theme-dark{--bg:#0d1117;--panel:#161b22;--line:#30363d;--fg:#c9d1d9;--dim:#8b949e;--strong:#f0f6fc;--hover:#21262d}
body.theme-light{--bg:#f6f8fa;--panel:#ffffff;--line:#d0d7de;--fg:#24292f;--dim:#57606a;--strong:#1f2328;--hover:#eaeef2}
body{font-family:'JetBrains Mono',monospace,sans-serif;background:var(--bg);color:var(--fg);font-size:13px;line-height:1.5}
nav{background:var(--panel);border-bottom:1px solid var(--line);padding:8px 16px;display:flex;gap:16px;align-items:center;flex-wrap:wrap}
nav .brand{color:var(--strong);font-weight:700;font-size:15px;margin-right:8px}
main{padding:16px}
h2{font-size:13px;font-weight:600;color:var(--dim);text-transform:uppercase;letter-spacing:.06em;margin:16px 0 8px}
form.inline{display:inline}
select,input,button{background:var(--bg);border:1px solid var(--line);color:var(--fg);border-radius:4px;padding:3px 6px;font-size:12px;font-family:inherit}
button{cursor:pointer}
button.primary{background:#1f6feb;border-color:#1f6feb;color:#fff}
button.danger{background:#da3633;border-color:#da3633;color:#fff}
.cards{display:flex;gap:12px;flex-wrap:wrap;margin-bottom:16px}
.card{background:var(--panel);border:1px solid var(--line);border-radius:6px;padding:12px 16px;min-width:220px}
.card .val{font-size:22px;font-weight:700;color:var(--strong)}
.card .lbl{font-size:11px;color:var(--dim);margin-top:2px}
.card .title{font-weight:700;color:var(--strong)}
.stat{display:flex;justify-content:space-between;gap:8px}
.delta-up{color:#56d364}
.delta-down{color:#f87171}
.progress{background:var(--hover);border-radius:3px;height:6px;margin:6px 0}
.progress span{background:#1f6feb;border-radius:3px;height:6px;display:block}
.badge{display:inline-block;padding:1px 6px;border-radius:10px;font-size:10px;font-weight:600;color:#0d1117}
.section{background:var(--panel);border:1px solid var(--line);border-radius:6px;margin-bottom:16px;overflow:hidden}
.section-hdr{padding:8px 12px;border-bottom:1px solid var(--line);font-size:11px;font-weight:600;color:var(--dim);text-transform:uppercase;letter-spacing:.05em;display:flex;gap:8px;align-items:center}
table{width:100%;border-collapse:collapse;font-size:12px}
th{text-align:left;padding:6px 10px;border-bottom:1px solid var(--line);color:var(--dim);font-weight:600;font-size:11px;text-transform:uppercase}
td{padding:5px 10px;border-bottom:1px solid var(--hover);vertical-align:top}
.dim{color:var(--dim)}
.err{color:#f87171}
.warn{color:#f59e0b}
.tree{padding:8px 12px}
.tree-node{margin:2px 0;padding:2px 8px;border-left:2px solid var(--line);margin-left:16px}
.tree-root{margin-left:0;border-left:2px solid #1f6feb}
.glyph{border:none;background:none;padding:0 4px}
.series{display:flex;gap:12px;flex-wrap:wrap;padding:8px 12px}
.series svg{stroke:#1f6feb;fill:none;stroke-width:1.5}
</style>
</head>
<body class="theme-{{.Dashboard.Theme}}">
<nav>
  <span class="brand">stagewatch</span>
  <span class="dim">updated {{timeAgo .Dashboard.UpdatedAt}}</span>
  <form class="inline" method="post" action="/api/interval">
    <select name="interval" onchange="this.form.submit()">
    {{range .Intervals}}<option value="{{.}}"{{if eq . $.Dashboard.RefreshIntervalMS}} selected{{end}}>{{fmtInterval .}}</option>{{end}}
    </select>
  </form>
  <form class="inline" method="post" action="/api/refresh"><button>Refresh</button></form>
  <form class="inline" method="post" action="/api/theme">
    {{if eq .Dashboard.Theme "dark"}}<input type="hidden" name="theme" value="light"><button>Light</button>
    {{else}}<input type="hidden" name="theme" value="dark"><button>Dark</button>{{end}}
  </form>
  <form class="inline" method="post" action="/api/shutdown" onsubmit="return confirm('Shutdown the backend? All the running tasks will be stopped')">
    <input type="hidden" name="confirm" value="yes"><button class="danger">Shutdown</button>
  </form>
</nav>
<main>
{{if .Dashboard.FailedEndpoints}}<div class="section"><div class="section-hdr warn">stale data: {{join .Dashboard.FailedEndpoints ", "}}</div></div>{{end}}
{{template "content" .}}
</main>
</body>
</html>{{end}}
`

const tmplDashboard = `
{{define "content"}}
{{with .Dashboard.Summary}}
<div class="cards">
  <div class="card"><div class="val">{{.Processed}}</div><div class="lbl">processed</div></div>
  <div class="card"><div class="val">{{.Pending}}</div><div class="lbl">pending</div></div>
  <div class="card"><div class="val err">{{.Failed}}</div><div class="lbl">failed</div></div>
  <div class="card"><div class="val">{{.ActiveNodes}}/{{.TotalNodes}}</div><div class="lbl">active nodes</div></div>
</div>
{{end}}

<h2>Nodes</h2>
<div class="cards">
{{range .Dashboard.Cards}}
  <div class="card" id="card-{{.Name}}">
    <div class="title">{{.Name}} <span class="badge" style="background:{{stateColor .State}}">{{.State}}</span></div>
    <div class="dim">{{orDash .Mode}} · {{orDash .FuncName}}</div>
    <div class="progress"><span style="width:{{.Progress}}%"></span></div>
    <div class="stat"><span>processed</span><span>{{.Processed.Value}} <span class="{{.Processed.DeltaClass}}">{{.Processed.Delta}}</span></span></div>
    <div class="stat"><span>pending</span><span>{{.Pending.Value}} <span class="{{.Pending.DeltaClass}}">{{.Pending.Delta}}</span></span></div>
    <div class="stat"><span>failed</span><span>{{.Failed.Value}} <span class="{{.Failed.DeltaClass}}">{{.Failed.Delta}}</span></span></div>
    <div class="stat"><span>duplicated</span><span>{{.Duplicated}}</span></div>
    <div class="stat dim"><span>start</span><span>{{orDash .StartTime}}</span></div>
    <div class="stat dim"><span>elapsed</span><span>{{orDash .ElapsedTime}}</span></div>
    <div class="stat dim"><span>remaining</span><span>{{orDash .RemainingTime}}</span></div>
    <div class="stat dim"><span>avg task</span><span>{{orDash .TaskAvgTime}}</span></div>
  </div>
{{else}}
  <div class="dim">No nodes</div>
{{end}}
</div>
<form method="post" action="/api/order">
  <input name="order" size="60" placeholder="card order, comma separated" value="{{join .Order ", "}}">
  <button>Reorder</button>
</form>

<div class="section">
  <div class="section-hdr">Processed history</div>
  <div class="series">
  {{range .Dashboard.Series}}
    <div>
      <form class="inline" method="post" action="/api/hidden">
        <input type="hidden" name="node" value="{{.Name}}"><button class="glyph">{{if .Hidden}}☐{{else}}☑{{end}}</button>
      </form>{{.Name}}
      {{if not .Hidden}}<svg width="240" height="48"><polyline points="{{sparkline .Points 240 48}}"/></svg>{{end}}
    </div>
  {{else}}
    <span class="dim">No history</span>
  {{end}}
  </div>
</div>

<div class="section">
  <div class="section-hdr">
    Errors
    <form class="inline" method="get" action="/">
      <select name="node" onchange="this.form.submit()">
        <option value="">all</option>
        {{range .Dashboard.NodeOptions}}<option value="{{.}}"{{if eq . $.Dashboard.NodeFilter}} selected{{end}}>{{.}}</option>{{end}}
      </select>
    </form>
  </div>
  <table>
    <tr><th>time</th><th>node</th><th>task</th><th>error</th></tr>
    {{range .Dashboard.Errors}}
      {{if .Placeholder}}<tr><td colspan="4" class="dim">{{.Error}}</td></tr>
      {{else}}<tr><td>{{fmtTime .Time}}</td><td>{{.Node}}</td><td>{{orDash .TaskID}}</td><td class="err">{{.Error}}</td></tr>{{end}}
    {{end}}
  </table>
</div>

<div class="section">
  <div class="section-hdr">Inject tasks</div>
  <div class="tree">
    <form method="get" action="/">
      <input name="search" value="{{.Search}}" placeholder="search nodes"><button>Search</button>
    </form>
    <form method="post" action="/api/inject">
      <select name="node">
      {{range .Dashboard.InjectionNodes}}<option value="{{.Name}}">{{.Name}} ({{.Mode}}{{if .Active}}, active{{end}})</option>{{end}}
      </select>
      <input name="data" size="60" placeholder='{"key": "value"}'>
      <button class="primary">Inject</button>
    </form>
  </div>
</div>

<div class="section">
  <div class="section-hdr">Structure</div>
  <div class="tree">
  {{with .Dashboard.Tree}}{{template "tree" .}}{{else}}<span class="dim">No structure available</span>{{end}}
  </div>
</div>
{{end}}

{{define "tree"}}
<div class="tree-node" id="{{.ID}}">
  {{if .HasChildren}}<form class="inline" method="post" action="/api/collapse"><input type="hidden" name="id" value="{{.ID}}"><button class="glyph">{{.Glyph}}</button></form>{{end}}
  <strong>{{.Name}}</strong> <span class="dim">[mode: {{orDash .Mode}}, func: {{orDash .FuncName}}]</span>{{if .Visited}} <span class="dim">(already visited)</span>{{end}}
  {{if .HasChildren}}<div class="children"{{if .Collapsed}} hidden{{end}}>{{range .Children}}{{template "tree" .}}{{end}}</div>{{end}}
</div>
{{end}}
`
