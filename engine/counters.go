package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Bookkeeping event labels.
const (
	EventKilled  = "killed"
	EventMerged  = "merged"
	EventNew     = "new"
	EventGhost   = "ghost"
	EventEvolved = "evolved"
)

// Counters accumulates bookkeeping totals over a run. Each Counters has its
// own registry so that concurrent runs in one process do not collide.
type Counters struct {
	Registry *prometheus.Registry

	Events    *prometheus.CounterVec
	Snapshots prometheus.Counter
	Live      prometheus.Gauge
	Ghosts    prometheus.Gauge
}

// NewCounters registers a fresh set of counters.
func NewCounters() *Counters {
	c := &Counters{
		Registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "galtree_galaxy_events_total",
				Help: "Galaxy bookkeeping events, by kind.",
			},
			[]string{"event"},
		),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "galtree_snapshots_total",
			Help: "Snapshots advanced, summed over realizations.",
		}),
		Live: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "galtree_galaxies_live",
			Help: "Live galaxies after the most recent snapshot.",
		}),
		Ghosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "galtree_galaxies_ghost",
			Help: "Ghost galaxies in the most recent snapshot.",
		}),
	}
	c.Registry.MustRegister(c.Events, c.Snapshots, c.Live, c.Ghosts)
	return c
}

// Observe adds the counts of one snapshot.
func (c *Counters) Observe(res Result) {
	c.Events.WithLabelValues(EventKilled).Add(float64(res.Kills))
	c.Events.WithLabelValues(EventMerged).Add(float64(res.Mergers))
	c.Events.WithLabelValues(EventNew).Add(float64(res.New))
	c.Events.WithLabelValues(EventGhost).Add(float64(res.Ghosts))
	c.Events.WithLabelValues(EventEvolved).Add(float64(res.Evolved))
	c.Snapshots.Inc()
	c.Live.Set(float64(res.Live))
	c.Ghosts.Set(float64(res.Ghosts))
}
