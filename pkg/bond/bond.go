// Package bond infers a bond topology from atom positions and covalent radii.
//
// A bond is a pure function of two atoms' positions and element properties:
// atoms i and j are bonded iff their distance is strictly less than the
// threshold the active Policy computes for them. Every neighbor strategy
// (brute force, R-tree, sharded) evaluates the same predicate, so they all
// produce the same Set.
package bond

import (
	"fmt"
	"sort"
)

// Bond is an unordered pair of atom indices, stored with A < B.
type Bond struct {
	A int `json:"a"`
	B int `json:"b"`
}

// New returns the canonical bond for the pair (a, b).
func New(a, b int) Bond {
	if a > b {
		a, b = b, a
	}
	return Bond{A: a, B: b}
}

func (b Bond) String() string { return fmt.Sprintf("%d-%d", b.A, b.B) }

// Other returns the partner of atom i in b, or -1 if i is not an endpoint.
func (b Bond) Other(i int) int {
	switch i {
	case b.A:
		return b.B
	case b.B:
		return b.A
	}
	return -1
}

// Set is a bond list sorted by (A, B) without duplicates. Sets are rebuilt on
// every inference and never patched in place.
type Set []Bond

func less(x, y Bond) bool {
	if x.A != y.A {
		return x.A < y.A
	}
	return x.B < y.B
}

// canonicalize sorts s and removes duplicates in place.
func canonicalize(s Set) Set {
	if s == nil {
		return Set{}
	}
	sort.Slice(s, func(i, j int) bool { return less(s[i], s[j]) })
	out := s[:0]
	for _, b := range s {
		if len(out) > 0 && out[len(out)-1] == b {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Len returns the number of bonds.
func (s Set) Len() int { return len(s) }

// Contains reports whether atoms a and b are bonded.
func (s Set) Contains(a, b int) bool {
	want := New(a, b)
	i := sort.Search(len(s), func(i int) bool { return !less(s[i], want) })
	return i < len(s) && s[i] == want
}

// Neighbors returns the atoms bonded to i in ascending order.
func (s Set) Neighbors(i int) []int {
	var out []int
	for _, b := range s {
		if o := b.Other(i); o >= 0 {
			out = append(out, o)
		}
	}
	sort.Ints(out)
	return out
}

// Degree returns the number of bonds touching atom i.
func (s Set) Degree(i int) int {
	n := 0
	for _, b := range s {
		if b.A == i || b.B == i {
			n++
		}
	}
	return n
}

// Equal reports whether two sets hold the same bonds.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Pairs returns the bonds as [a, b] pairs.
func (s Set) Pairs() [][2]int {
	out := make([][2]int, len(s))
	for i, b := range s {
		out[i] = [2]int{b.A, b.B}
	}
	return out
}

// Validate checks that every bond is canonical and refers to an atom index
// below n.
func (s Set) Validate(n int) error {
	for k, b := range s {
		if b.A < 0 || b.A >= b.B || b.B >= n {
			return fmt.Errorf("bond: bond %d (%s) invalid for %d atoms", k, b, n)
		}
		if k > 0 && !less(s[k-1], b) {
			return fmt.Errorf("bond: bond %d (%s) out of order", k, b)
		}
	}
	return nil
}
