package output

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

func testPopulation(t *testing.T) (*galaxy.Population, *halo.Catalog) {
	cat, err := halo.NewCatalog(4, []halo.Halo{{ID: 1234, Type: halo.Central}}, nil)
	require.NoError(t, err)

	pop := galaxy.NewPopulation()
	central := pop.New()
	central.Halo = 0
	pop.Append(central.Handle())

	sat := pop.New()
	sat.Type = galaxy.Orphan
	sat.Halo = 0
	sat.FirstInHalo = central.Handle()
	sat.MergerTarget = central.Handle()
	central.NextInHalo = sat.Handle()
	pop.Append(sat.Handle())

	ghost := pop.New()
	ghost.Ghost = true
	pop.Append(ghost.Handle())

	return pop, cat
}

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "galaxies.db")
	w, err := NewSQLiteWriter(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = uuid.Parse(w.RunID())
	require.NoError(t, err)

	pop, cat := testPopulation(t)
	require.NoError(t, w.Write(pop, cat, 4, 0, 3))

	n, err := w.CountGalaxies(4)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = w.CountGalaxies(5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var haloID, target int64
	require.NoError(t, w.db.QueryRow(
		`SELECT halo_id, merger_target_id FROM galaxies
		WHERE run_id = ? AND galaxy_id = 1`, w.RunID(),
	).Scan(&haloID, &target))
	assert.Equal(t, int64(1234), haloID)
	assert.Equal(t, int64(0), target)

	var ghostHalo *int64
	require.NoError(t, w.db.QueryRow(
		`SELECT halo_id FROM galaxies WHERE run_id = ? AND galaxy_id = 2`,
		w.RunID(),
	).Scan(&ghostHalo))
	assert.Nil(t, ghostHalo)

	// The same output index cannot be written twice, and a failed write
	// leaves nothing behind.
	assert.Error(t, w.Write(pop, cat, 5, 0, 3))
	n, err = w.CountGalaxies(5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLiteWriterRepeatedSnapshot(t *testing.T) {
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "galaxies.db"))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	pop, cat := testPopulation(t)
	require.NoError(t, w.Write(pop, cat, 4, 0, 2))
	require.NoError(t, w.Write(pop, cat, 4, 1, 2))

	n, err := w.CountGalaxies(4)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	var outputs int
	require.NoError(t, w.db.QueryRow(
		`SELECT COUNT(DISTINCT output_index) FROM galaxies WHERE run_id = ?`,
		w.RunID(),
	).Scan(&outputs))
	assert.Equal(t, 2, outputs)
}

func TestSQLiteWritersShareDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galaxies.db")
	pop, cat := testPopulation(t)

	ids := map[string]bool{}
	for i := 0; i < 2; i++ {
		w, err := NewSQLiteWriter(path)
		require.NoError(t, err)
		require.NoError(t, w.Write(pop, cat, 4, 0, 3))
		n, err := w.CountGalaxies(4)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		ids[w.RunID()] = true
		require.NoError(t, w.Close())
	}
	assert.Len(t, ids, 2)
}

func TestDiscard(t *testing.T) {
	pop, cat := testPopulation(t)
	assert.NoError(t, Discard{}.Write(pop, cat, 0, 0, 0))
}
