/*
Package config reads the gcfg files which drive a galtree run.
*/
package config

import (
	"fmt"
	"os"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/galtree/cosmo"
	"github.com/phil-mansfield/galtree/engine"
	"github.com/phil-mansfield/galtree/logging"
	"github.com/phil-mansfield/galtree/physics"
)

const ExampleRunFile = `[Run]

#######################
# Required Parameters #
#######################

# Directory containing halos_%03d.txt and (optionally) lookup_%03d.txt for
# every snapshot.
CatalogDir = path/to/catalogs

# File listing the scale factor of every snapshot, one per line.
SnaplistFile = path/to/snaplist.txt

# Snapshots to write out. Give one line per snapshot. The run stops after the
# largest one.
OutputSnaps = 63
OutputSnaps = 99

#######################
# Optional Parameters #
#######################

# SQLite database which galaxies are written to. If not set, nothing is
# written.
# OutputFile = path/to/galaxies.db

# Repeat the whole run NMultipleRuns times, keeping every catalog in memory
# between realizations. Only the final realization is written.
# MultipleRuns = false
# NMultipleRuns = 1
# RandomSeed = 1

# Cosmology.
# OmegaM = 0.308
# OmegaL = 0.692
# H100 = 0.678

# Physics.
# BaryonFrac = 0.17
# SfEfficiency = 0.03
# MergerTimeFactor = 1.0

# Check that galaxy counts and satellite chains are consistent after every
# snapshot. This is slow.
# CheckCounts = false

# LogLevel can be one of trace, debug, info, warn, or error.
# LogFile = path/to/log.txt
# LogLevel = info
# ProfileFile = path/to/cpu.prof
# MetricsFile = path/to/metrics.prom
# PlotFile = path/to/history.png`

type RunConfig struct {
	// Required
	CatalogDir   string
	SnaplistFile string
	OutputSnaps  []int

	// Optional
	OutputFile string

	MultipleRuns  bool
	NMultipleRuns int
	RandomSeed    int64

	OmegaM, OmegaL, H100 float64

	BaryonFrac       float64
	SfEfficiency     float64
	MergerTimeFactor float64

	CheckCounts bool

	LogFile     string
	LogLevel    string
	ProfileFile string
	MetricsFile string
	PlotFile    string
}

type RunWrapper struct {
	Run RunConfig
}

func DefaultRunWrapper() *RunWrapper {
	p := physics.DefaultParams()
	rc := RunConfig{
		NMultipleRuns:    1,
		RandomSeed:       p.Seed,
		OmegaM:           0.308,
		OmegaL:           0.692,
		H100:             0.678,
		BaryonFrac:       p.BaryonFrac,
		SfEfficiency:     p.SfEfficiency,
		MergerTimeFactor: p.MergerTimeFactor,
		LogLevel:         "info",
	}
	return &RunWrapper{rc}
}

// ReadRunConfig reads the [Run] section of fname on top of the defaults and
// checks the result.
func ReadRunConfig(fname string) (*RunConfig, error) {
	wrap := DefaultRunWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Run.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Run, nil
}

// ParseRunConfig is ReadRunConfig for a config which is already in memory.
func ParseRunConfig(text string) (*RunConfig, error) {
	wrap := DefaultRunWrapper()
	if err := gcfg.ReadStringInto(wrap, text); err != nil {
		return nil, err
	}
	if err := wrap.Run.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Run, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (con *RunConfig) ValidCatalogDir() bool   { return isDir(con.CatalogDir) }
func (con *RunConfig) ValidSnaplistFile() bool { return isFile(con.SnaplistFile) }
func (con *RunConfig) ValidOutputFile() bool   { return con.OutputFile != "" }
func (con *RunConfig) ValidLogFile() bool      { return con.LogFile != "" }
func (con *RunConfig) ValidProfileFile() bool  { return con.ProfileFile != "" }
func (con *RunConfig) ValidMetricsFile() bool  { return con.MetricsFile != "" }
func (con *RunConfig) ValidPlotFile() bool     { return con.PlotFile != "" }

func (con *RunConfig) ValidOutputSnaps() bool {
	if len(con.OutputSnaps) == 0 {
		return false
	}
	for _, s := range con.OutputSnaps {
		if s < 0 {
			return false
		}
	}
	return true
}

func (con *RunConfig) ValidLogLevel() bool {
	_, ok := logging.ParseLevel(con.LogLevel)
	return ok
}

// CheckInit returns an error describing the first invalid parameter in con.
// The directory and file parameters are checked against the filesystem.
func (con *RunConfig) CheckInit() error {
	switch {
	case con.CatalogDir == "":
		return fmt.Errorf("Need to specify a 'CatalogDir'.")
	case !con.ValidCatalogDir():
		return fmt.Errorf("'CatalogDir' %s is not a directory.", con.CatalogDir)
	case con.SnaplistFile == "":
		return fmt.Errorf("Need to specify a 'SnaplistFile'.")
	case !con.ValidSnaplistFile():
		return fmt.Errorf("'SnaplistFile' %s does not exist.", con.SnaplistFile)
	case !con.ValidOutputSnaps():
		return fmt.Errorf(
			"Need to specify at least one non-negative 'OutputSnaps', "+
				"but got %v.", con.OutputSnaps,
		)
	case con.NMultipleRuns < 1:
		return fmt.Errorf(
			"'NMultipleRuns' must be positive, but is %d.", con.NMultipleRuns,
		)
	case con.OmegaM <= 0 || con.OmegaL < 0 || con.H100 <= 0:
		return fmt.Errorf(
			"Invalid cosmology: OmegaM = %g, OmegaL = %g, H100 = %g.",
			con.OmegaM, con.OmegaL, con.H100,
		)
	case con.BaryonFrac < 0 || con.BaryonFrac > 1:
		return fmt.Errorf(
			"'BaryonFrac' must be in [0, 1], but is %g.", con.BaryonFrac,
		)
	case con.SfEfficiency < 0:
		return fmt.Errorf(
			"'SfEfficiency' must be non-negative, but is %g.", con.SfEfficiency,
		)
	case con.MergerTimeFactor <= 0:
		return fmt.Errorf(
			"'MergerTimeFactor' must be positive, but is %g.",
			con.MergerTimeFactor,
		)
	case !con.ValidLogLevel():
		return fmt.Errorf("Unrecognized 'LogLevel', '%s'.", con.LogLevel)
	}
	return nil
}

// Engine returns the run loop's part of the configuration.
func (con *RunConfig) Engine() *engine.RunConfig {
	snaps := make([]int, len(con.OutputSnaps))
	copy(snaps, con.OutputSnaps)
	return &engine.RunConfig{
		OutputSnaps:   snaps,
		MultipleRuns:  con.MultipleRuns,
		NMultipleRuns: con.NMultipleRuns,
	}
}

func (con *RunConfig) Cosmology() cosmo.Params {
	return cosmo.Params{OmegaM: con.OmegaM, OmegaL: con.OmegaL, H100: con.H100}
}

func (con *RunConfig) Physics() physics.Params {
	return physics.Params{
		BaryonFrac:       con.BaryonFrac,
		SfEfficiency:     con.SfEfficiency,
		MergerTimeFactor: con.MergerTimeFactor,
		Seed:             con.RandomSeed,
	}
}
