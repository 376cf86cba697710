package monitor

// echartsAssetsPrefix is where the debug chart pages load the echarts
// bundle from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// dashboardHTML is the debug chart dashboard. It takes two format args: the
// escaped session id for the heading and the escaped query string appended
// to the per-session chart iframes.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Form Report Debug Charts</title>
    <style>
        body { font-family: monospace; background-color: #1e1e2e; color: #cdd6f4; margin: 1rem; }
        h1 { color: #94e2d5; font-size: 1.2rem; }
        .hint { color: #6c7086; font-size: 0.85rem; }
        iframe { border: 1px solid #45475a; background: #11111b; width: 100%%; height: 640px; margin-bottom: 1rem; }
    </style>
</head>
<body>
    <h1>Debug Charts <span class="hint">session=%[1]s</span></h1>
    <p class="hint">Pass ?session_id=&lt;id&gt; to load the per-session charts.</p>
    <iframe src="/debug/charts/score%[2]s"></iframe>
    <iframe src="/debug/charts/depth%[2]s"></iframe>
    <iframe src="/debug/charts/ingest"></iframe>
</body>
</html>
`
