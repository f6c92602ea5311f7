package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

type stubPhysics struct {
	mergingTime float64
	copies      int
	evolves     int
	reseeds     []int
}

func (p *stubPhysics) CopyHaloToGalaxy(h *halo.Halo, gal *galaxy.Galaxy, snap int) {
	p.copies++
	gal.Type = galaxy.Type(h.Type)
	gal.HaloDescIndex = h.DescIndex
	gal.TreeFlags = h.TreeFlags
	gal.SnapSkipCounter = h.SnapOffset
	gal.Mvir = h.Mvir
	gal.Len = h.Len
}

func (p *stubPhysics) MergingTime(gal, target *galaxy.Galaxy, host *halo.Halo, snap int) float64 {
	return p.mergingTime
}

func (p *stubPhysics) Evolve(pop *galaxy.Population, cat *halo.Catalog, snap int) (int, error) {
	p.evolves++
	n := 0
	for gal := pop.Get(pop.First()); gal != nil; gal = pop.Get(gal.Next) {
		if !gal.Ghost {
			n++
		}
	}
	return n, nil
}

func (p *stubPhysics) Reseed(realization int) {
	p.reseeds = append(p.reseeds, realization)
}

var testLTTime = []float64{0.3, 0.2, 0.1, 0}

func newTestContext() (*Context, *stubPhysics) {
	phys := &stubPhysics{}
	ctx := NewContext(phys, testLTTime)
	ctx.CheckCounts = true
	return ctx, phys
}

func snapshot(t *testing.T, snap int, halos ...halo.Halo) *Snapshot {
	cat, err := halo.NewCatalog(snap, halos, nil)
	require.NoError(t, err)
	return NewSnapshot(cat)
}

// resident adds a galaxy which was last updated at snapshot 0.
func resident(pop *galaxy.Population, typ galaxy.Type, desc int, mvir float64) *galaxy.Galaxy {
	gal := pop.New()
	gal.Type = typ
	gal.HaloDescIndex = desc
	gal.Mvir = mvir
	gal.LTTime = testLTTime[0]
	pop.Append(gal.Handle())
	return gal
}

// follow makes sat the last member of head's satellite chain.
func follow(pop *galaxy.Population, head, sat *galaxy.Galaxy) {
	pop.ChainTail(head.Handle()).NextInHalo = sat.Handle()
	sat.FirstInHalo = head.Handle()
}

func TestAdvanceContinuingCentral(t *testing.T) {
	ctx, phys := newTestContext()
	gal := resident(ctx.Pop, galaxy.Central, 0, 40)
	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 100, DescIndex: 3})

	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.Equal(t, 60.0, gal.DM)
	assert.Equal(t, gal.Handle(), snap.Central(0))
	assert.Equal(t, galaxy.Central, gal.Type)
	assert.Equal(t, galaxy.Central, gal.OldType)
	assert.Equal(t, 0, gal.Halo)
	assert.InDelta(t, 0.1, gal.Dt, 1e-12)
	assert.Equal(t, 0.2, gal.LTTime)

	// Property sync ran.
	assert.Equal(t, 100.0, gal.Mvir)
	assert.Equal(t, 3, gal.HaloDescIndex)
	assert.Equal(t, 1, phys.copies)

	assert.Equal(t, Result{Snapshot: 1, Live: 1, Evolved: 1}, res)
	assert.Equal(t, 1, ctx.Pop.SequenceLen())
}

func TestAdvanceLoneCentralDies(t *testing.T) {
	ctx, phys := newTestContext()
	resident(ctx.Pop, galaxy.Central, halo.NoIndex, 40)
	survivor := resident(ctx.Pop, galaxy.Central, 0, 10)
	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 20})

	before := ctx.Pop.Len()
	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.Equal(t, before-1, ctx.Pop.Len())
	assert.Equal(t, 1, res.Kills)
	assert.Equal(t, survivor.Handle(), ctx.Pop.First())
	assert.Equal(t, survivor.Handle(), ctx.Pop.Last())
	assert.Equal(t, 1, ctx.Pop.ChainLen(survivor.Handle()))
	assert.Equal(t, 1, phys.evolves)
}

func TestAdvanceEmptyPopulationSkipsPhysics(t *testing.T) {
	ctx, phys := newTestContext()
	resident(ctx.Pop, galaxy.Central, halo.NoIndex, 40)

	res, err := Advance(ctx, snapshot(t, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ctx.Pop.Len())
	assert.Equal(t, 0, res.Evolved)
	assert.Equal(t, 0, phys.evolves)
}

func TestAdvanceDeadHeadTakesChain(t *testing.T) {
	table := []struct {
		headFirst bool
	}{
		{true},
		{false},
	}

	for i, test := range table {
		ctx, _ := newTestContext()
		var head, sat *galaxy.Galaxy
		if test.headFirst {
			head = resident(ctx.Pop, galaxy.Central, halo.NoIndex, 10)
			sat = resident(ctx.Pop, galaxy.Orphan, 0, 1)
		} else {
			sat = resident(ctx.Pop, galaxy.Orphan, 0, 1)
			head = resident(ctx.Pop, galaxy.Central, halo.NoIndex, 10)
		}
		follow(ctx.Pop, head, sat)
		hh, sh := head.Handle(), sat.Handle()

		// A satellite halo is a valid index but never receives a new galaxy.
		snap := snapshot(t, 1, halo.Halo{Type: halo.Satellite, Mvir: 5})
		res, err := Advance(ctx, snap, 1)
		if err != nil {
			t.Errorf("%d) Unexpected error: %s", i+1, err)
			continue
		}

		if ctx.Pop.Len() != 0 {
			t.Errorf("%d) Expected empty population, got %d galaxies.",
				i+1, ctx.Pop.Len())
		}
		if res.Kills != 2 {
			t.Errorf("%d) Expected 2 kills, got %d.", i+1, res.Kills)
		}
		if ctx.Pop.Alive(hh) || ctx.Pop.Alive(sh) {
			t.Errorf("%d) Chain members survived.", i+1)
		}
		if !ctx.Pop.First().IsNil() || !ctx.Pop.Last().IsNil() {
			t.Errorf("%d) Global sequence was not emptied.", i+1)
		}
	}
}

func TestAdvanceSpawn(t *testing.T) {
	ctx, _ := newTestContext()
	snap := snapshot(t, 2,
		halo.Halo{Type: halo.Central, Mvir: 50, FOFGroup: 0},
		halo.Halo{Type: halo.Satellite, Mvir: 10, FOFGroup: 0},
		halo.Halo{Type: halo.Central, Mvir: 70, FOFGroup: 1, TreeFlags: halo.Strayed},
		halo.Halo{Type: halo.Central, Mvir: 70, FOFGroup: 2, TreeFlags: halo.FragmentedReturned},
	)

	res, err := Advance(ctx, snap, 2)
	require.NoError(t, err)

	require.Equal(t, 1, ctx.Pop.Len())
	assert.Equal(t, 1, res.New)
	gal := ctx.Pop.Get(ctx.Pop.First())
	assert.Equal(t, gal.Handle(), snap.Central(0))
	assert.True(t, gal.IsHead())
	assert.Equal(t, 1, ctx.Pop.ChainLen(gal.Handle()))
	assert.Equal(t, 50.0, gal.DM)
	assert.InDelta(t, 0.2, gal.Dt, 1e-12)
	assert.Equal(t, 0.1, gal.LTTime)
	for _, i := range []int{1, 2, 3} {
		assert.True(t, snap.Central(i).IsNil(), "halo %d", i)
	}
}

func TestAdvanceMergerIntoEmptyHalo(t *testing.T) {
	ctx, _ := newTestContext()
	gal := resident(ctx.Pop, galaxy.Central, 0, 30)
	gal.TreeFlags = halo.Merger | halo.Bridged
	sat := resident(ctx.Pop, galaxy.Orphan, 0, 1)
	follow(ctx.Pop, gal, sat)

	snap := snapshot(t, 1, halo.Halo{Type: halo.Satellite, Mvir: 80, TreeFlags: halo.Found})
	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Mergers)
	assert.Equal(t, 0, res.New)
	assert.Equal(t, gal.Handle(), snap.Central(0))
	assert.Equal(t, galaxy.Satellite, gal.Type)
	assert.Equal(t, galaxy.Central, gal.OldType)
	assert.Equal(t, galaxy.Active, gal.Status)
	assert.Equal(t, 50.0, gal.DM)
	assert.Equal(t, 0, sat.Halo)
	assert.Equal(t, gal.Handle(), sat.FirstInHalo)
	assert.True(t, gal.MergerTarget.IsNil())
}

func TestAdvanceMergerIntoOccupiedHalo(t *testing.T) {
	ctx, phys := newTestContext()
	phys.mergingTime = 5

	central := resident(ctx.Pop, galaxy.Central, 0, 150)
	s1 := resident(ctx.Pop, galaxy.Orphan, 0, 1)
	follow(ctx.Pop, central, s1)

	incoming := resident(ctx.Pop, galaxy.Satellite, 0, 20)
	incoming.TreeFlags = halo.Merger
	q := resident(ctx.Pop, galaxy.Orphan, 0, 2)
	follow(ctx.Pop, incoming, q)

	k := ctx.Pop.ChainLen(central.Handle())
	incomingLen := ctx.Pop.ChainLen(incoming.Handle())

	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 200})
	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	ch := central.Handle()
	assert.Equal(t, 1, res.Mergers)
	assert.Equal(t, ch, snap.Central(0))
	assert.Equal(t, k+1+(incomingLen-1), ctx.Pop.ChainLen(ch))
	assert.Equal(t, q, ctx.Pop.ChainTail(ch))
	assert.Equal(t, incoming.Handle(), s1.NextInHalo)

	for _, gal := range []*galaxy.Galaxy{central, s1, incoming, q} {
		assert.Equal(t, ch, gal.FirstInHalo, "galaxy %d", gal.ID)
		assert.Equal(t, 0, gal.Halo, "galaxy %d", gal.ID)
	}

	assert.Equal(t, galaxy.Orphan, incoming.Type)
	assert.Equal(t, galaxy.Satellite, incoming.OldType)
	assert.Equal(t, galaxy.Active, incoming.Status)
	assert.Equal(t, ch, incoming.MergerTarget)
	assert.InDelta(t, 5+incoming.Dt, incoming.MergTime, 1e-12)
	assert.InDelta(t, 0.1, incoming.Dt, 1e-12)
	assert.NoError(t, Verify(ctx.Pop, snap, 1))
}

func TestAdvanceMergerWithSpawnedOccupant(t *testing.T) {
	// An empty central target receives a new galaxy before mergers are
	// resolved, so the merging galaxy becomes its orphan.
	ctx, _ := newTestContext()
	gal := resident(ctx.Pop, galaxy.Central, 0, 30)
	gal.TreeFlags = halo.Merger

	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 80})
	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, res.New)
	assert.Equal(t, galaxy.Orphan, gal.Type)
	assert.Equal(t, snap.Central(0), gal.FirstInHalo)
	assert.Equal(t, 2, ctx.Pop.ChainLen(snap.Central(0)))
}

func TestAdvanceGhosts(t *testing.T) {
	ctx, phys := newTestContext()
	head := resident(ctx.Pop, galaxy.Central, 3, 10)
	head.SnapSkipCounter = 2
	sat := resident(ctx.Pop, galaxy.Orphan, 3, 1)
	follow(ctx.Pop, head, sat)
	doomed := resident(ctx.Pop, galaxy.Orphan, halo.NoIndex, 1)
	follow(ctx.Pop, head, doomed)

	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 50})
	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Ghosts)
	assert.Equal(t, 2, ctx.NGhosts)
	assert.Equal(t, 1, res.Kills)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 3, res.Live)
	assert.Equal(t, 1+2, res.Evolved)

	for _, gal := range []*galaxy.Galaxy{head, sat} {
		assert.True(t, gal.Ghost, "galaxy %d", gal.ID)
		assert.Equal(t, halo.NoIndex, gal.Halo, "galaxy %d", gal.ID)
		assert.Equal(t, testLTTime[0], gal.LTTime, "galaxy %d", gal.ID)
	}
	assert.Equal(t, 1, head.SnapSkipCounter)
	assert.Equal(t, 2, ctx.Pop.ChainLen(head.Handle()))
	// Only the spawned galaxy had its halo properties copied.
	assert.Equal(t, 1, phys.copies)
}

func TestAdvanceGhostReturns(t *testing.T) {
	ctx, _ := newTestContext()
	gal := resident(ctx.Pop, galaxy.Central, 0, 10)
	gal.SnapSkipCounter = 1

	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 15})
	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Ghosts)
	assert.False(t, gal.Ghost)
	assert.Equal(t, gal.Handle(), snap.Central(0))
}

func TestAdvanceLookupRemapping(t *testing.T) {
	ctx, _ := newTestContext()
	hit := resident(ctx.Pop, galaxy.Central, 20, 10)
	miss := resident(ctx.Pop, galaxy.Central, 25, 10)
	mh := miss.Handle()

	halos := []halo.Halo{
		{Type: halo.Central, FOFGroup: 0},
		{Type: halo.Central, FOFGroup: 1},
		{Type: halo.Central, FOFGroup: 2, TreeFlags: halo.Sputtered},
	}
	cat, err := halo.NewCatalog(1, halos, []int{10, 20, 30})
	require.NoError(t, err)
	snap := NewSnapshot(cat)

	res, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, hit.Halo)
	assert.Equal(t, hit.Handle(), snap.Central(1))
	assert.False(t, ctx.Pop.Alive(mh))
	assert.Equal(t, 1, res.Kills)
	assert.Equal(t, 1, res.New)
}

func TestAdvanceOutOfRangeIndexDies(t *testing.T) {
	ctx, _ := newTestContext()
	resident(ctx.Pop, galaxy.Central, 5, 10)

	res, err := Advance(ctx, snapshot(t, 1, halo.Halo{Type: halo.Satellite}), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Kills)
	assert.Equal(t, 0, ctx.Pop.Len())
}

func TestAdvanceInvariantViolations(t *testing.T) {
	double := func(pop *galaxy.Population, snap *Snapshot) {
		resident(pop, galaxy.Central, 0, 1)
		resident(pop, galaxy.Satellite, 0, 1)
	}
	missing := func(pop *galaxy.Population, snap *Snapshot) {
		// An orphan heading its own chain has no one to give it a halo.
		resident(pop, galaxy.Orphan, 0, 1)
	}
	staleHead := func(pop *galaxy.Population, snap *Snapshot) {
		gone := pop.New()
		pop.Append(gone.Handle())
		snap.central[0] = gone.Handle()
		pop.Remove(galaxy.Nil, gone.Handle())

		gal := resident(pop, galaxy.Satellite, 0, 1)
		gal.TreeFlags = halo.Merger
	}

	table := []struct {
		setup func(*galaxy.Population, *Snapshot)
		kind  error
		pass  string
	}{
		{double, ErrDoubleAssignment, "assignment"},
		{missing, ErrMissingHalo, "sync"},
		{staleHead, ErrNullChainHead, "merger"},
	}

	for i, test := range table {
		ctx, _ := newTestContext()
		snap := snapshot(t, 1, halo.Halo{Type: halo.Central})
		test.setup(ctx.Pop, snap)
		_, err := Advance(ctx, snap, 1)

		if !errors.Is(err, test.kind) {
			t.Errorf("%d) Expected %v, got %v.", i+1, test.kind, err)
			continue
		}
		var ie *InvariantError
		if !errors.As(err, &ie) {
			t.Errorf("%d) Expected an *InvariantError, got %T.", i+1, err)
			continue
		}
		if ie.Pass != test.pass || ie.Snapshot != 1 {
			t.Errorf("%d) Got pass %q of snapshot %d.", i+1, ie.Pass, ie.Snapshot)
		}
	}
}

func TestAdvanceUnknownSnapshot(t *testing.T) {
	ctx, _ := newTestContext()
	_, err := Advance(ctx, snapshot(t, 9), 9)
	assert.Error(t, err)
}

func TestVerifyDetectsBrokenChain(t *testing.T) {
	ctx, _ := newTestContext()
	head := resident(ctx.Pop, galaxy.Central, 0, 1)
	sat := resident(ctx.Pop, galaxy.Orphan, 0, 1)
	follow(ctx.Pop, head, sat)

	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 2})
	_, err := Advance(ctx, snap, 1)
	require.NoError(t, err)
	require.NoError(t, Verify(ctx.Pop, snap, 1))

	sat.FirstInHalo = sat.Handle()
	assert.ErrorIs(t, Verify(ctx.Pop, snap, 1), ErrBrokenChain)

	sat.FirstInHalo = head.Handle()
	sat.Status = galaxy.PendingMerger
	assert.ErrorIs(t, Verify(ctx.Pop, snap, 1), ErrUnresolvedMerger)
}

func TestCheckCountsDetectsMismatch(t *testing.T) {
	ctx, _ := newTestContext()
	resident(ctx.Pop, galaxy.Central, 0, 1)
	snap := snapshot(t, 1, halo.Halo{Type: halo.Central, Mvir: 2})
	_, err := Advance(ctx, snap, 1)
	require.NoError(t, err)

	assert.NoError(t, CheckCounts(ctx.Pop, snap, 1, 0))
	assert.ErrorIs(t, CheckCounts(ctx.Pop, snap, 1, 1), ErrCountMismatch)
}
