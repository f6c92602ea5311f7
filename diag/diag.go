/*
Package diag turns the per-snapshot bookkeeping counts of a run into plots
and metrics files.
*/
package diag

import (
	"fmt"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/phil-mansfield/galtree/engine"
)

// History is the bookkeeping record of one realization, stored as columns
// so that it can be plotted directly.
type History struct {
	Snapshots []float64
	Live      []float64
	Ghosts    []float64
	Kills     []float64
	Mergers   []float64
	New       []float64
}

// NewHistory builds a History from the results of a realization.
func NewHistory(results []engine.Result) *History {
	h := &History{}
	for _, res := range results {
		h.Add(res)
	}
	return h
}

// Add appends the counts of one snapshot.
func (h *History) Add(res engine.Result) {
	h.Snapshots = append(h.Snapshots, float64(res.Snapshot))
	h.Live = append(h.Live, float64(res.Live))
	h.Ghosts = append(h.Ghosts, float64(res.Ghosts))
	h.Kills = append(h.Kills, float64(res.Kills))
	h.Mergers = append(h.Mergers, float64(res.Mergers))
	h.New = append(h.New, float64(res.New))
}

// Len returns the number of snapshots in h.
func (h *History) Len() int { return len(h.Snapshots) }

// Totals sums each event count over every snapshot.
func (h *History) Totals() (kills, mergers, created int) {
	for i := range h.Snapshots {
		kills += int(h.Kills[i])
		mergers += int(h.Mergers[i])
		created += int(h.New[i])
	}
	return kills, mergers, created
}

var historyColors = []string{"k", "r", "b", "g", "m"}

// PlotHistory queues a figure of h which will be saved to fname. Nothing is
// drawn until plt.Execute is called.
func PlotHistory(fname string, h *History) error {
	if h.Len() == 0 {
		return fmt.Errorf("Cannot plot an empty history to %s.", fname)
	}

	plt.Figure(plt.FigSize(8, 6))
	series := [][]float64{h.Live, h.Ghosts, h.Kills, h.Mergers, h.New}
	for i, ys := range series {
		plt.Plot(h.Snapshots, ys, plt.LW(2), plt.C(historyColors[i]))
	}

	plt.Title("Live (k), ghost (r), killed (b), merged (g), and new (m) galaxies")
	plt.XLabel("Snapshot", plt.FontSize(16))
	plt.YLabel(`$N_{\rm gal}$`, plt.FontSize(16))
	plt.XLim(h.Snapshots[0], h.Snapshots[h.Len()-1])
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
	return nil
}

// WriteMetrics writes everything gathered by g to fname in the Prometheus
// text format.
func WriteMetrics(fname string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(fname, g); err != nil {
		return fmt.Errorf("write metrics to %s: %w", fname, err)
	}
	return nil
}
