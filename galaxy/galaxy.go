/*
Package galaxy contains the long-lived galaxy type and the Population arena
which owns every live galaxy.

A galaxy never holds a Go pointer to another galaxy. All of the relations
between galaxies (the global sequence, the satellite chain of a halo, the
chain head and the merger target) are expressed as Handles into the
Population, and handles to freed galaxies become stale instead of dangling.
*/
package galaxy

import (
	"github.com/phil-mansfield/galtree/halo"
)

// Type is the position a galaxy holds within its halo.
type Type int

const (
	Central Type = iota
	Satellite
	// Orphan is a satellite whose own halo has merged into a larger host.
	Orphan
)

func (t Type) String() string {
	switch t {
	case Central:
		return "Central"
	case Satellite:
		return "Satellite"
	case Orphan:
		return "Orphan"
	}
	return "Unknown"
}

// Status distinguishes galaxies which are waiting for their halo merger to
// be resolved from all others. While a galaxy is PendingMerger its Halo
// field is the merger's target halo and its Type is the type it had before
// the merger was detected.
type Status int

const (
	Active Status = iota
	PendingMerger
)

// Galaxy is a single model galaxy.
type Galaxy struct {
	ID      int64
	Type    Type
	OldType Type
	Status  Status

	// Tracking state carried over from the tree.
	HaloDescIndex   int
	TreeFlags       halo.Flags
	SnapSkipCounter int
	Ghost           bool

	// Halo is the index of the halo the galaxy occupies in the current
	// snapshot's catalog, or halo.NoIndex.
	Halo int

	Next         Handle // Global sequence.
	NextInHalo   Handle // Satellite chain.
	FirstInHalo  Handle // Head of the satellite chain.
	MergerTarget Handle
	self         Handle

	// Properties of the halo at the last time this galaxy was type < 2.
	Len  int
	Pos  [3]float64
	Vel  [3]float64
	Mvir float64
	DM   float64
	Rvir float64
	Vvir float64
	Vmax float64

	LTTime   float64 // Lookback time of the last update.
	Dt       float64 // Time elapsed since the last update.
	MergTime float64 // Merger clock.
	CosInc   float64

	// Baryonic reservoirs. These belong to the physics and are never
	// touched by the bookkeeping passes.
	HotGas        float64
	ColdGas       float64
	MetalsColdGas float64
	StellarMass   float64
	BlackHoleMass float64
	Sfr           float64
}

// Handle returns the handle which refers to g in its Population.
func (g *Galaxy) Handle() Handle { return g.self }

// IsHead returns true if g is the head of its satellite chain.
func (g *Galaxy) IsHead() bool { return g.FirstInHalo == g.self }

// IsPendingMerger returns true if g is waiting for its halo merger to be
// resolved.
func (g *Galaxy) IsPendingMerger() bool { return g.Status == PendingMerger }
