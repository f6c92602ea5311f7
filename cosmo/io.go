package cosmo

import (
	"fmt"

	"github.com/phil-mansfield/table"
)

// ReadSnaplist reads the scale factor of every snapshot from the first
// column of file, in snapshot order.
func ReadSnaplist(file string) ([]float64, error) {
	cols, err := table.ReadTable(file, []int{0}, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not read snapshot list %s: %s", file, err)
	}
	if len(cols[0]) == 0 {
		return nil, fmt.Errorf("Snapshot list %s is empty.", file)
	}
	return cols[0], nil
}
