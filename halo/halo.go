/*
Package halo contains the snapshot-scoped halo and FOF group types that the
galaxy bookkeeping engine threads its galaxies through, along with the
loaders which produce them.

Halos are owned by the Catalog for their snapshot and are never freed
individually. Everything which refers to a halo does so through its index
into Catalog.Halos.
*/
package halo

// Type distinguishes the central halo of a FOF group from its satellites.
type Type int

const (
	Central Type = iota
	Satellite
)

func (t Type) String() string {
	switch t {
	case Central:
		return "Central"
	case Satellite:
		return "Satellite"
	}
	return "Unknown"
}

// NoIndex marks a missing descendant, halo, or group.
const NoIndex = -1

// Halo is a single subhalo at one snapshot.
type Halo struct {
	ID         int
	Type       Type
	DescIndex  int   // Index of the descendant in the next relevant snapshot.
	TreeFlags  Flags // How the descendant link was resolved.
	SnapOffset int   // Number of snapshots until the descendant appears.
	NSubgroups int

	FOFGroup  int // Index into Catalog.Groups.
	NextInFOF int // Next halo in the same FOF group, NoIndex at the end.

	Mvir    float64    // Virial mass [10^10 M_sol/h]
	Len     int        // Number of particles
	Pos     [3]float64 // Most bound particle position [Mpc/h]
	Vel     [3]float64 // Centre-of-mass velocity [km/s]
	Rvir    float64    // Virial radius [Mpc/h]
	Rmax    float64    // Radius of maximum circular velocity [Mpc/h]
	Vmax    float64    // Maximum circular velocity [km/s]
	VelDisp float64    // Total 3D velocity dispersion [km/s]
	Spin    [3]float64 // Specific angular momentum [Mpc/h * km/s]
}

// FOFGroup is a friends-of-friends group. Its halos are reached by following
// NextInFOF from FirstHalo.
type FOFGroup struct {
	FirstHalo int
}
