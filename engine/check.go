package engine

import (
	"fmt"

	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

// CheckCounts compares the number of galaxies reachable from the catalog's
// FOF groups with the number of non-ghost galaxies in pop, and the length of
// the global sequence with pop.Len().
func CheckCounts(pop *galaxy.Population, snap *Snapshot, i, nGhosts int) error {
	if n := pop.SequenceLen(); n != pop.Len() {
		return &InvariantError{
			Kind: ErrCountMismatch, Pass: "check", Snapshot: i,
			Galaxy: -1, Halo: -1,
			Detail: fmt.Sprintf("sequence holds %d galaxies, population %d", n, pop.Len()),
		}
	}

	cat := snap.Catalog
	counter := 0
	for _, g := range cat.Groups {
		for hi := g.FirstHalo; hi != halo.NoIndex; hi = cat.Halos[hi].NextInFOF {
			counter += pop.ChainLen(snap.central[hi])
		}
	}

	if expected := pop.Len() - nGhosts; counter != expected {
		return &InvariantError{
			Kind: ErrCountMismatch, Pass: "check", Snapshot: i,
			Galaxy: -1, Halo: -1,
			Detail: fmt.Sprintf(
				"%d galaxies reachable from halos, expected %d", counter, expected,
			),
		}
	}
	return nil
}

// Verify checks that the chains hanging off of snap's halos agree with the
// halo assignments of the galaxies in pop and that no merger is left
// unresolved.
func Verify(pop *galaxy.Population, snap *Snapshot, i int) error {
	fail := func(kind error, gal *galaxy.Galaxy, h int, detail string) error {
		id := int64(-1)
		if gal != nil {
			id = gal.ID
		}
		return &InvariantError{
			Kind: kind, Pass: "verify", Snapshot: i,
			Galaxy: id, Halo: h, Detail: detail,
		}
	}

	occupants := make([]int, len(snap.central))
	for gal := pop.Get(pop.First()); gal != nil; gal = pop.Get(gal.Next) {
		if gal.IsPendingMerger() {
			return fail(ErrUnresolvedMerger, gal, gal.Halo, "")
		}
		if gal.Ghost && gal.Halo == halo.NoIndex {
			continue
		}
		if gal.Halo < 0 || gal.Halo >= len(snap.central) {
			return fail(ErrMissingHalo, gal, gal.Halo, "")
		}
		occupants[gal.Halo]++

		if gal.Type < galaxy.Orphan && snap.central[gal.Halo] != gal.FirstInHalo {
			return fail(ErrBrokenChain, gal, gal.Halo, "halo's central is not the galaxy's chain head")
		}
	}

	for hi, c := range snap.central {
		if c.IsNil() {
			if occupants[hi] != 0 {
				return fail(ErrBrokenChain, nil, hi, "occupied halo has no central")
			}
			continue
		}
		n := 0
		for cur := pop.Get(c); cur != nil; cur = pop.Get(cur.NextInHalo) {
			if cur.Halo != hi {
				return fail(ErrBrokenChain, cur, hi, "chain member assigned to another halo")
			}
			if cur.FirstInHalo != c {
				return fail(ErrBrokenChain, cur, hi, "chain member has the wrong head")
			}
			n++
		}
		if n != occupants[hi] {
			return fail(ErrBrokenChain, nil, hi, fmt.Sprintf(
				"chain holds %d galaxies but %d are assigned to the halo",
				n, occupants[hi],
			))
		}
	}
	return nil
}
