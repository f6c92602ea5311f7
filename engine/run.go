package engine

import (
	"fmt"
	"time"

	"github.com/phil-mansfield/galtree/halo"
)

// RunConfig controls the outer loop of a run.
type RunConfig struct {
	// OutputSnaps are the snapshots written by the Writer. The run stops
	// after the largest of them.
	OutputSnaps []int
	// MultipleRuns keeps every catalog in memory and repeats the run
	// NMultipleRuns times.
	MultipleRuns  bool
	NMultipleRuns int
}

// LastSnap returns the final snapshot of the run.
func (con *RunConfig) LastSnap() int {
	last := -1
	for _, s := range con.OutputSnaps {
		if s > last {
			last = s
		}
	}
	return last
}

// Realizations returns the number of times the snapshots are iterated over.
func (con *RunConfig) Realizations() int {
	if con.MultipleRuns && con.NMultipleRuns > 1 {
		return con.NMultipleRuns
	}
	return 1
}

// Report holds the per-snapshot results of every realization of a run.
type Report struct {
	Results [][]Result
}

// Final returns the results of the last completed realization.
func (r *Report) Final() []Result {
	if len(r.Results) == 0 {
		return nil
	}
	return r.Results[len(r.Results)-1]
}

// Run advances ctx.Pop through snapshots 0 to con.LastSnap() once per
// realization, loading catalogs through loader. The population is written
// to w at each output snapshot of the final realization. w may be nil.
func Run(ctx *Context, loader halo.Loader, w Writer, con *RunConfig) (*Report, error) {
	last := con.LastSnap()
	if last < 0 {
		return nil, fmt.Errorf("No output snapshots were requested.")
	}
	if last >= len(ctx.LTTime) {
		return nil, fmt.Errorf(
			"Final output snapshot is %d, but lookback times are only known "+
				"for %d snapshots.", last, len(ctx.LTTime),
		)
	}

	cache := NewCache(loader, last, con.MultipleRuns)
	runs := con.Realizations()
	rep := &Report{}

	for run := 0; run < runs; run++ {
		ctx.Log.Info().Int("realization", run).Int("of", runs).
			Msg("Starting realization")
		if rs, ok := ctx.Physics.(Reseeder); ok {
			rs.Reseed(run)
		}

		results := make([]Result, 0, last+1)
		for i := 0; i <= last; i++ {
			start := time.Now()
			snap, err := cache.Get(i)
			if err != nil {
				return rep, fmt.Errorf("realization %d, snapshot %d: %w", run, i, err)
			}

			ev := ctx.Log.Info().Int("snapshot", i).Int("halos", len(snap.Catalog.Halos))
			if ctx.Redshift != nil && i < len(ctx.Redshift) {
				ev = ev.Float64("z", ctx.Redshift[i])
			}
			ev.Msg("Processing snapshot")

			res, err := Advance(ctx, snap, i)
			if err != nil {
				return rep, fmt.Errorf("realization %d, snapshot %d: %w", run, i, err)
			}
			results = append(results, res)

			if run == runs-1 && w != nil {
				for iOut, s := range con.OutputSnaps {
					if s != i {
						continue
					}
					if err := w.Write(ctx.Pop, snap.Catalog, i, iOut, res.Evolved); err != nil {
						return rep, fmt.Errorf(
							"writing output %d of snapshot %d: %w", iOut, i, err,
						)
					}
				}
			}

			ctx.Log.Info().Int("snapshot", i).Int("galaxies", res.Evolved).
				Dur("elapsed", time.Since(start)).Msg("Finished snapshot")
		}
		rep.Results = append(rep.Results, results)

		cache.ResetCentrals()
		ctx.Pop.Reset()
		ctx.NGhosts = 0
	}

	return rep, nil
}
