package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/angle.receiver/internal/db"
	"github.com/banshee-data/angle.receiver/internal/units"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const defaultChartLimit = 1000

// chartSamples loads the requested window oldest first. It writes the error
// response itself and returns ok=false on failure.
func (s *Server) chartSamples(w http.ResponseWriter, r *http.Request) ([]db.AngleSample, display, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, display{}, false
	}
	if s.store == nil {
		http.Error(w, "No database configured", http.StatusServiceUnavailable)
		return nil, display{}, false
	}
	limit, err := queryInt(r, "limit", defaultChartLimit, maxSampleLimit)
	if err != nil {
		http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
		return nil, display{}, false
	}
	d, err := parseDisplay(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, display{}, false
	}
	samples, err := s.store.RecentSamples(s.sessionParam(r), limit)
	if err != nil {
		http.Error(w, "Failed to retrieve samples", http.StatusInternalServerError)
		return nil, display{}, false
	}
	out := make([]db.AngleSample, len(samples))
	for i, smp := range samples {
		out[len(samples)-1-i] = d.apply(smp)
	}
	return out, d, true
}

// angleChart renders the recent processed and raw angles as an interactive
// go-echarts line chart.
func (s *Server) angleChart(w http.ResponseWriter, r *http.Request) {
	samples, d, ok := s.chartSamples(w, r)
	if !ok {
		return
	}

	x := make([]string, len(samples))
	processed := make([]opts.LineData, len(samples))
	raw := make([]opts.LineData, len(samples))
	for i, smp := range samples {
		x[i] = smp.ReceivedAt.Format("15:04:05.000")
		processed[i] = opts.LineData{Value: smp.Processed}
		raw[i] = opts.LineData{Value: smp.Raw}
	}

	subtitle := fmt.Sprintf("samples=%d", len(samples))
	if len(samples) > 0 {
		subtitle += " since " + samples[0].ReceivedAt.Format(time.RFC3339)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Encoder Angle", Theme: "dark", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Encoder Angle", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: units.FullTurn(d.units), Name: d.axisName(), NameLocation: "middle", NameGap: 35}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(x).
		AddSeries("processed", processed, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("raw", raw, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// anglePlot renders the processed angle against seconds since the first
// sample as a static PNG.
func (s *Server) anglePlot(w http.ResponseWriter, r *http.Request) {
	samples, d, ok := s.chartSamples(w, r)
	if !ok {
		return
	}

	p := plot.New()
	p.Title.Text = "Encoder Angle"
	p.X.Label.Text = "seconds"
	p.Y.Label.Text = d.axisName()
	p.Y.Min, p.Y.Max = 0, units.FullTurn(d.units)
	p.Add(plotter.NewGrid())

	if len(samples) > 0 {
		t0 := samples[0].ReceivedAt
		pts := make(plotter.XYs, len(samples))
		for i, smp := range samples {
			pts[i] = plotter.XY{X: smp.ReceivedAt.Sub(t0).Seconds(), Y: smp.Processed}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			http.Error(w, "failed to build plot", http.StatusInternalServerError)
			return
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		http.Error(w, "failed to render plot", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		http.Error(w, "failed to render plot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
