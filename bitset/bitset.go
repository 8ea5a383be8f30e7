// Package bitset implements the fixed-capacity 256-bit state set used
// throughout nx: one bit per NFA state, plus the two reserved sentinel
// positions (accept, fail).
package bitset

import "math/bits"

// Capacity is the number of addressable bit positions. It must cover
// every real NFA state plus the accept/fail sentinels used by package nx.
const Capacity = 256

const words = Capacity / 64

// Set is a fixed 256-bit vector. The zero value is the empty set.
// Sets are plain comparable values: copy them like any other struct,
// and compare two sets for exact equality with ==.
type Set struct {
	w [words]uint64
}

// From builds a Set containing exactly the given positions.
func From(ids ...int) Set {
	var s Set
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Test reports whether i is a member of s. Out-of-range indices are
// never members.
func (s *Set) Test(i int) bool {
	if i < 0 || i >= Capacity {
		return false
	}
	return s.w[i>>6]&(uint64(1)<<uint(i&63)) != 0
}

// Add inserts i into s and reports whether it was not already present.
// It panics if i is out of range: callers only ever add state IDs or
// the AcceptState/FailState sentinels, all of which fit in [0, Capacity).
func (s *Set) Add(i int) bool {
	if i < 0 || i >= Capacity {
		panic("bitset: index out of range")
	}
	word := i >> 6
	bit := uint64(1) << uint(i&63)
	was := s.w[word]&bit != 0
	s.w[word] |= bit
	return !was
}

// IsEmpty reports whether s has no members.
func (s *Set) IsEmpty() bool {
	for _, w := range s.w {
		if w != 0 {
			return false
		}
	}
	return true
}

// UnionAssign sets s to the union of s and other.
func (s *Set) UnionAssign(other *Set) {
	for i := range s.w {
		s.w[i] |= other.w[i]
	}
}

// Intersects reports whether s and other share any member.
func (s *Set) Intersects(other *Set) bool {
	for i := range s.w {
		if s.w[i]&other.w[i] != 0 {
			return true
		}
	}
	return false
}

// ForEach calls fn once for every member of s, in ascending order.
func (s *Set) ForEach(fn func(int)) {
	for wi, w := range s.w {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			fn(wi*64 + tz)
			w &= w - 1
		}
	}
}

// Count returns the number of members in s.
func (s *Set) Count() int {
	n := 0
	for _, w := range s.w {
		n += bits.OnesCount64(w)
	}
	return n
}

// Raw exposes the backing words, for hashing and low-level interning
// in package combocache.
func (s Set) Raw() [words]uint64 { return s.w }
