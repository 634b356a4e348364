package templates

import (
	"context"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2933}
header{background:#1f2933;color:#fff;padding:1rem 2rem}
main{max-width:72rem;margin:0 auto;padding:1.5rem 2rem}
section,article{background:#fff;border:1px solid #d9dee4;border-radius:.5rem;padding:1rem 1.25rem;margin-bottom:1.25rem}
table{border-collapse:collapse;font-size:.875rem}
th,td{border:1px solid #d9dee4;padding:.25rem .5rem;text-align:left}
td.missing{color:#9aa5b1;font-style:italic}
.alert{border-left:4px solid #d64545;background:#fdeaea;padding:.75rem 1rem;margin-bottom:1rem}
.alert.warn{border-color:#de911d;background:#fff6e0}
.muted{color:#616e7c;font-size:.875rem}
.row{display:flex;flex-wrap:wrap;gap:.5rem;align-items:center}
.code{font-family:monospace;font-size:.75rem;color:#616e7c}
svg.chart{background:#fbfcfd;border:1px solid #d9dee4}
`

// Layout wraps body in the page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.rawf(`<title>%s</title><style>%s</style></head><body>`, esc(title), styles)
		h.raw(`<header><h1>Data Sweeper</h1><p class="muted">Upload, clean, select and export tabular files.</p></header><main>`)
		h.child(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(` `)
			h.text(action)
		}
		if code != "" {
			h.rawf(` <span class="code">(Code: %s)</span>`, esc(code))
		}
		h.raw(`</div>`)
	})
}

// ErrorPage is a full page holding a single error alert.
func ErrorPage(message, action, code string) templ.Component {
	return Layout("Error", component(func(ctx context.Context, h *html) {
		h.child(ctx, ErrorAlert(message, action, code))
		h.raw(`<p><a href="/">Back to your files</a></p>`)
	}))
}
