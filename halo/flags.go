package halo

import (
	"strings"
)

// Flags is the bitmask written by the tree builder which classifies how a
// halo's descendant link was resolved.
type Flags int

const (
	NoProgenitors Flags = 1 << iota
	MainProgenitor
	Merger
	Dropped
	Strayed
	Sputtered
	Bridged
	EmergedCandidate
	Found
	FragmentedLost
	FragmentedReturned
	FragmentedExchanged
	endFlag
)

var flagNames = []string{
	"NoProgenitors", "MainProgenitor", "Merger", "Dropped", "Strayed",
	"Sputtered", "Bridged", "EmergedCandidate", "Found", "FragmentedLost",
	"FragmentedReturned", "FragmentedExchanged",
}

// InvalidHostFlags are the flags which stop an empty central halo from
// receiving a newly created galaxy.
const InvalidHostFlags = FragmentedReturned | Strayed | Sputtered

// Has returns true if every bit of flag is set in f.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// Any returns true if at least one bit of flag is set in f.
func (f Flags) Any(flag Flags) bool {
	return f&flag != 0
}

// Clear returns f with the bits in flag turned off.
func (f Flags) Clear(flag Flags) Flags {
	return f &^ flag
}

func (f Flags) String() string {
	if f == 0 {
		return "None"
	}
	names := []string{}
	for i, name := range flagNames {
		if f&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	if f >= endFlag {
		names = append(names, "Unknown")
	}
	return strings.Join(names, "|")
}
