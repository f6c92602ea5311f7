package galaxy

import (
	"github.com/phil-mansfield/galtree/halo"
)

// Handle is a weak reference to a galaxy in a Population. The zero value is
// the nil handle. A handle to a galaxy which has been removed is stale and
// resolves to nil.
type Handle struct {
	slot, gen int32
}

// Nil is the nil handle.
var Nil Handle

// IsNil returns true if h is the nil handle.
func (h Handle) IsNil() bool { return h.gen == 0 }

// Population is an arena which exclusively owns every live galaxy. It
// threads all of them together into a single global sequence.
type Population struct {
	gals []*Galaxy
	gens []int32
	free []int32

	first, last Handle
	n           int
	nextID      int64
}

// NewPopulation returns an empty Population.
func NewPopulation() *Population {
	return &Population{}
}

// Len returns the number of live galaxies.
func (p *Population) Len() int { return p.n }

// First returns the head of the global sequence.
func (p *Population) First() Handle { return p.first }

// Last returns the tail of the global sequence.
func (p *Population) Last() Handle { return p.last }

// Get returns the galaxy referred to by h, or nil if h is nil or stale.
func (p *Population) Get(h Handle) *Galaxy {
	if h.gen == 0 || int(h.slot) >= len(p.gals) || p.gens[h.slot] != h.gen {
		return nil
	}
	return p.gals[h.slot]
}

// Alive returns true if h refers to a live galaxy.
func (p *Population) Alive(h Handle) bool { return p.Get(h) != nil }

// New allocates a galaxy with a fresh ID. The galaxy is the head of its own
// satellite chain and is not yet part of the global sequence: call Append
// to add it.
func (p *Population) New() *Galaxy {
	var slot int32
	if len(p.free) > 0 {
		slot = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
	} else {
		slot = int32(len(p.gals))
		p.gals = append(p.gals, nil)
		p.gens = append(p.gens, 1)
	}

	h := Handle{slot, p.gens[slot]}
	gal := &Galaxy{
		ID:            p.nextID,
		Type:          Central,
		OldType:       Central,
		HaloDescIndex: halo.NoIndex,
		Halo:          halo.NoIndex,
		FirstInHalo:   h,
		self:          h,
	}
	p.nextID++
	p.gals[slot] = gal
	p.n++
	return gal
}

// Append adds h to the tail of the global sequence.
func (p *Population) Append(h Handle) {
	gal := p.Get(h)
	if gal == nil {
		panic("Append called on a stale galaxy handle.")
	}
	gal.Next = Nil
	if tail := p.Get(p.last); tail != nil {
		tail.Next = h
	} else {
		p.first = h
	}
	p.last = h
}

// Remove unlinks h from the global sequence and frees it. prev must be the
// galaxy directly before h in the sequence, or Nil if h is the first galaxy.
// If h is not the head of its satellite chain it is also unlinked from that
// chain. If the chain head has already been removed the chain is left as it
// is, since every other member is about to be removed too.
//
// Remove returns the galaxy which followed h, so that a traversal can carry
// on from it.
func (p *Population) Remove(prev, h Handle) Handle {
	gal := p.Get(h)
	if gal == nil {
		panic("Remove called on a stale galaxy handle.")
	}
	next := gal.Next

	if prevGal := p.Get(prev); prevGal != nil {
		prevGal.Next = next
	} else {
		p.first = next
	}
	if p.last == h {
		p.last = prev
	}

	if !gal.IsHead() {
		for cur := p.Get(gal.FirstInHalo); cur != nil; cur = p.Get(cur.NextInHalo) {
			if cur.NextInHalo == h {
				cur.NextInHalo = gal.NextInHalo
				break
			}
		}
	}

	p.gals[h.slot] = nil
	p.gens[h.slot]++
	p.free = append(p.free, h.slot)
	p.n--
	return next
}

// ChainTail returns the last galaxy in the satellite chain starting at head.
func (p *Population) ChainTail(head Handle) *Galaxy {
	cur := p.Get(head)
	if cur == nil {
		return nil
	}
	for next := p.Get(cur.NextInHalo); next != nil; next = p.Get(cur.NextInHalo) {
		cur = next
	}
	return cur
}

// ChainLen returns the number of galaxies in the satellite chain starting at
// head.
func (p *Population) ChainLen(head Handle) int {
	n := 0
	for cur := p.Get(head); cur != nil; cur = p.Get(cur.NextInHalo) {
		n++
	}
	return n
}

// SequenceLen walks the global sequence and counts its galaxies.
func (p *Population) SequenceLen() int {
	n := 0
	for cur := p.Get(p.first); cur != nil; cur = p.Get(cur.Next) {
		n++
	}
	return n
}

// Reset frees every galaxy and restarts the ID counter. Handles obtained
// before the reset must not be used afterwards.
func (p *Population) Reset() {
	*p = Population{}
}
