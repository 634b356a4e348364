package templates

import (
	"context"
	"math"

	"github.com/JonMunkholm/datasweeper/internal/table"
	"github.com/a-h/templ"
)

const (
	chartWidth  = 640.0
	chartHeight = 240.0
	chartPad    = 36.0

	// MaxChartPoints caps the rows drawn per series.
	MaxChartPoints = 200
)

var chartColors = []string{"#2680c2", "#de911d", "#3ebd93", "#d64545"}

// Chart draws the series as a grouped bar chart, one bar per row and series.
func Chart(series []table.Series) templ.Component {
	return component(func(_ context.Context, h *html) {
		points := 0
		lo, hi := 0.0, 0.0
		for _, s := range series {
			points = max(points, min(len(s.Values), MaxChartPoints))
			for _, v := range s.Values[:min(len(s.Values), MaxChartPoints)] {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
		if points == 0 {
			h.raw(`<p class="muted">Nothing to chart.</p>`)
			return
		}
		if hi == lo {
			hi = lo + 1
		}

		plotW := chartWidth - 2*chartPad
		plotH := chartHeight - 2*chartPad
		y := func(v float64) float64 {
			return chartPad + (hi-v)/(hi-lo)*plotH
		}
		group := plotW / float64(points)
		bar := group * 0.8 / float64(len(series))

		h.rawf(`<svg class="chart" role="img" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg">`,
			chartWidth, chartHeight, chartWidth, chartHeight)
		h.rawf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#9aa5b1"/>`, chartPad, y(0), chartWidth-chartPad, y(0))
		h.rawf(`<text x="4" y="%.1f" font-size="10">%s</text>`, chartPad, esc(table.FormatNumber(hi)))
		h.rawf(`<text x="4" y="%.1f" font-size="10">%s</text>`, chartHeight-chartPad, esc(table.FormatNumber(lo)))

		for si, s := range series {
			color := chartColors[si%len(chartColors)]
			for i, v := range s.Values[:min(len(s.Values), MaxChartPoints)] {
				x := chartPad + float64(i)*group + group*0.1 + float64(si)*bar
				top, bottom := y(math.Max(v, 0)), y(math.Min(v, 0))
				h.rawf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>`, x, top, bar, bottom-top, color)
				h.text(s.Column)
				h.rawf(` row %d: %s</title></rect>`, i, esc(table.FormatNumber(v)))
			}
		}

		for si, s := range series {
			lx := chartPad + float64(si)*140
			h.rawf(`<rect x="%.1f" y="%.1f" width="10" height="10" fill="%s"/>`, lx, chartHeight-14, chartColors[si%len(chartColors)])
			h.rawf(`<text x="%.1f" y="%.1f" font-size="11">`, lx+14, chartHeight-5)
			h.text(s.Column)
			h.raw(`</text>`)
		}
		h.raw(`</svg>`)

		if points == MaxChartPoints {
			h.rawf(`<p class="muted">Showing the first %d rows.</p>`, MaxChartPoints)
		}
	})
}
