package halo

import (
	"fmt"
	"os"
	"path"

	"github.com/phil-mansfield/table"
)

const (
	// HaloFileFormat is the name of a snapshot's halo catalog within a
	// TextLoader's directory.
	HaloFileFormat = "halos_%03d.txt"
	// LookupFileFormat is the name of a snapshot's optional index lookup
	// table within a TextLoader's directory.
	LookupFileFormat = "lookup_%03d.txt"
)

// Column identifies a column of an ASCII halo catalog.
type Column int

const (
	ID Column = iota
	TypeCol
	DescIndex
	TreeFlags
	SnapOffset
	NSubgroups
	FOFGroupCol
	Mvir
	Len
	X
	Y
	Z
	Vx
	Vy
	Vz
	Rvir
	Rmax
	Vmax
	VelDisp
	Jx
	Jy
	Jz
	columnNum
)

// TextLoader reads whitespace-separated halo catalogs with one halo per line
// in the column order given by Column. Lines beginning with '#' are ignored.
// If a lookup file exists for a snapshot, its first column is used as the
// snapshot's index lookup table.
type TextLoader struct {
	Dir string
}

var _ Loader = &TextLoader{}

// NewTextLoader creates a TextLoader reading from dir.
func NewTextLoader(dir string) *TextLoader {
	return &TextLoader{Dir: dir}
}

// HaloFile returns the path of the halo catalog for snap.
func (tl *TextLoader) HaloFile(snap int) string {
	return path.Join(tl.Dir, fmt.Sprintf(HaloFileFormat, snap))
}

// LookupFile returns the path of the index lookup table for snap.
func (tl *TextLoader) LookupFile(snap int) string {
	return path.Join(tl.Dir, fmt.Sprintf(LookupFileFormat, snap))
}

// Load reads the catalog for snap. An empty halo file is a snapshot without
// halos, but a missing one is an error. The lookup file is optional.
func (tl *TextLoader) Load(snap int) (*Catalog, error) {
	halos, err := ReadHalos(tl.HaloFile(snap))
	if err != nil {
		return nil, err
	}

	var lookup []int
	if lookupFile := tl.LookupFile(snap); fileHasData(lookupFile) {
		lookup, err = ReadLookup(lookupFile)
		if err != nil {
			return nil, err
		}
	}

	return NewCatalog(snap, halos, lookup)
}

// ReadHalos reads every halo in the given ASCII catalog. The file must
// exist, but may be empty.
func ReadHalos(file string) ([]Halo, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("Could not open halo catalog: %w", err)
	}
	if info.Size() == 0 {
		return []Halo{}, nil
	}

	colIdxs := make([]int, columnNum)
	for i := range colIdxs {
		colIdxs[i] = i
	}
	cols, err := table.ReadTable(file, colIdxs, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not read halo catalog %s: %s", file, err)
	}

	n := len(cols[ID])
	halos := make([]Halo, n)
	for i := range halos {
		h := &halos[i]
		h.ID = int(cols[ID][i])
		h.Type = Type(cols[TypeCol][i])
		h.DescIndex = int(cols[DescIndex][i])
		h.TreeFlags = Flags(cols[TreeFlags][i])
		h.SnapOffset = int(cols[SnapOffset][i])
		h.NSubgroups = int(cols[NSubgroups][i])
		h.FOFGroup = int(cols[FOFGroupCol][i])
		h.NextInFOF = NoIndex

		h.Mvir = cols[Mvir][i]
		h.Len = int(cols[Len][i])
		h.Pos = [3]float64{cols[X][i], cols[Y][i], cols[Z][i]}
		h.Vel = [3]float64{cols[Vx][i], cols[Vy][i], cols[Vz][i]}
		h.Rvir = cols[Rvir][i]
		h.Rmax = cols[Rmax][i]
		h.Vmax = cols[Vmax][i]
		h.VelDisp = cols[VelDisp][i]
		h.Spin = [3]float64{cols[Jx][i], cols[Jy][i], cols[Jz][i]}

		if h.Type != Central && h.Type != Satellite {
			return nil, fmt.Errorf(
				"Halo on line %d of %s has unrecognized type %d.",
				i+1, file, h.Type,
			)
		}
	}

	return halos, nil
}

// ReadLookup reads an index lookup table from the first column of file.
func ReadLookup(file string) ([]int, error) {
	cols, err := table.ReadTable(file, []int{0}, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not read lookup table %s: %s", file, err)
	}

	lookup := make([]int, len(cols[0]))
	for i := range lookup {
		lookup[i] = int(cols[0][i])
	}
	return lookup, nil
}

func fileHasData(file string) bool {
	info, err := os.Stat(file)
	return err == nil && info.Size() > 0
}

func init() {
	if columnNum != 22 {
		panic("Internal galtree setup error.")
	}
}
