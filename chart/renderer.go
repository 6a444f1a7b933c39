// Package chart renders the bounded series of the priority device as HTML
// line charts.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/matt-g-everett/sensorar/registry"
	"github.com/matt-g-everett/sensorar/router"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Domain is the fixed y axis range of a chart.
type Domain struct {
	Min, Max float64
}

// Domains gives the y axis range used for each series.
var Domains = map[registry.SeriesKind]Domain{
	registry.TemperatureSeries: {0, 40},
	registry.HumiditySeries:    {0, 60},
	registry.ProximitySeries:   {0, 255},
}

type key struct {
	device int
	kind   registry.SeriesKind
}

type job struct {
	key
	values []float64
}

// Renderer regenerates charts when the router reports a stale series.
type Renderer struct {
	AssetsHost string

	queue  chan job
	mu     sync.RWMutex
	charts map[key][]byte
}

// NewRenderer creates a Renderer buffering up to backlog stale series.
func NewRenderer(backlog int) *Renderer {
	r := new(Renderer)
	r.queue = make(chan job, backlog)
	r.charts = make(map[key][]byte)
	return r
}

// Publish queues series events for rendering and ignores everything else.
func (r *Renderer) Publish(e router.Event) {
	if e.Kind != router.EventSeries {
		return
	}
	kind, ok := registry.ParseSeriesKind(e.Series)
	if !ok {
		return
	}
	select {
	case r.queue <- job{key{e.DeviceID, kind}, e.Values}:
	default:
		log.Printf("dropping %s chart for device %d: render queue full", kind, e.DeviceID)
	}
}

// Run renders queued series until ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) {
	for {
		select {
		case j := <-r.queue:
			b, err := r.Render(j.device, j.kind, j.values)
			if err != nil {
				log.Printf("render %s chart for device %d: %v", j.kind, j.device, err)
				continue
			}
			r.mu.Lock()
			r.charts[j.key] = b
			r.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Get returns the last chart rendered for the device and series.
func (r *Renderer) Get(device int, kind registry.SeriesKind) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.charts[key{device, kind}]
	return b, ok
}

// Summary describes values as the chart subtitle.
func Summary(values []float64) string {
	if len(values) == 0 {
		return "no samples"
	}
	return fmt.Sprintf("n=%d min=%.2f max=%.2f mean=%.2f",
		len(values), floats.Min(values), floats.Max(values), stat.Mean(values, nil))
}

// Render draws values as a line chart page.
func (r *Renderer) Render(device int, kind registry.SeriesKind, values []float64) ([]byte, error) {
	domain, ok := Domains[kind]
	if !ok {
		return nil, fmt.Errorf("no domain for series %s", kind)
	}

	x := make([]string, len(values))
	y := make([]opts.LineData, len(values))
	for i, v := range values {
		x[i] = strconv.Itoa(i)
		y[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	page := opts.Initialization{PageTitle: fmt.Sprintf("Device %d %s", device, kind), Width: "100%", Height: "480px"}
	if r.AssetsHost != "" {
		page.AssetsHost = r.AssetsHost
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(page),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Device %d %s", device, kind), Subtitle: Summary(values)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: domain.Min, Max: domain.Max, Name: kind.String()}),
	)
	line.SetXAxis(x).AddSeries(kind.String(), y)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
