// Package nx compiles NX puzzle expressions into Thompson NFAs and runs
// exact and fuzzy (edit-distance) matches against them.
package nx

import (
	"github.com/coregx/nxsearch/bitset"
	"github.com/coregx/nxsearch/charclass"
	"github.com/coregx/nxsearch/word"
)

// StateID indexes into an Nfa's state table, or names one of the two
// sentinel positions AcceptState/FailState.
type StateID int32

// SMax is the exclusive upper bound of the bitset.Set index space.
// AcceptState and FailState occupy the top two slots within that same
// 256-bit space so state-set membership tests ("has this NFA reached
// accept?") are ordinary bitset.Test calls, not a special case. Real
// compiled states therefore occupy [0, AcceptState).
const SMax = StateID(bitset.Capacity)

const (
	FailState   = SMax - 1
	AcceptState = SMax - 2
)

// MaxFuzz bounds the configurable edit-distance budget.
const MaxFuzz = 8

type stateKind uint8

const (
	kindAtom stateKind = iota
	kindSplit
)

type edge struct {
	mask charclass.Mask
	next StateID
}

// nfaState is either an "atom" (consumes one input symbol via one of
// its two edges, the second almost always the implicit SPACE/PUNCT
// self-loop) or a "split" (two epsilon edges, folded into closure and
// then cleared).
type nfaState struct {
	kind    stateKind
	edges   [2]edge
	closure bitset.Set
}

// Flags configures compilation.
type Flags struct {
	// Fuzz is the maximum total edit distance (substitutions,
	// insertions, deletions) a match may accumulate.
	Fuzz int
	// ExplicitSpace disables the implicit SPACE self-loop on every
	// atom state; set automatically when the expression uses '_'.
	ExplicitSpace bool
	// ExplicitPunct disables the implicit PUNCT self-loop; set
	// automatically when the expression uses '-'.
	ExplicitPunct bool
}

// FuzzSet is the per-error-budget family of state sets the fuzzy
// matcher and ComboCache both thread through a word's letters: FuzzSet
// has length fuzz+1, and FuzzSet[e] holds every state reachable with
// exactly e accumulated edits.
type FuzzSet []bitset.Set

// CacheBinding is implemented by combocache.ComboCache. It lets an Nfa
// own a single lazily-built cache without package nx importing
// combocache (which itself must import nx).
type CacheBinding interface {
	BoundTo() interface{}
}

// Nfa is a compiled NX expression.
type Nfa struct {
	states      []nfaState
	start       StateID
	expr        string
	flags       Flags
	literalRuns []string

	cache        CacheBinding
	cacheWordSet *word.WordSet
}

// NumStates returns the number of real (non-sentinel) states.
func (n *Nfa) NumStates() int { return len(n.states) }

// Start returns the entry state.
func (n *Nfa) Start() StateID { return n.start }

// Expr returns the original (pre-normalization) expression text.
func (n *Nfa) Expr() string { return n.expr }

// Flags returns the effective compilation flags (ExplicitSpace/Punct
// reflect what the expression actually used, not just what the
// caller requested).
func (n *Nfa) Flags() Flags { return n.flags }

// LiteralRuns returns the required literal substrings extracted at
// compile time for combocache's Aho-Corasick prefilter, or nil if the
// expression isn't a pure literal alternation.
func (n *Nfa) LiteralRuns() []string { return n.literalRuns }

// Destroy releases the Nfa's cache binding. Go's GC reclaims the
// states table itself; this exists so callers ported from the
// destroy_nx/ComboCache-ownership model have an explicit release
// point instead of relying on scope exit.
func (n *Nfa) Destroy() {
	n.cache = nil
	n.cacheWordSet = nil
}

// CacheFor returns the Nfa's bound cache if it was built against ws,
// or nil otherwise (including when no cache has been built yet).
func (n *Nfa) CacheFor(ws *word.WordSet) CacheBinding {
	if n.cacheWordSet == ws {
		return n.cache
	}
	return nil
}

// SetCache binds c to ws, replacing (and thereby dropping) any
// previous binding.
func (n *Nfa) SetCache(ws *word.WordSet, c CacheBinding) {
	n.cacheWordSet = ws
	n.cache = c
}

func (n *Nfa) closureOf(id StateID) bitset.Set {
	if int(id) >= len(n.states) {
		var single bitset.Set
		single.Add(int(id))
		return single
	}
	return n.states[id].closure
}

func (n *Nfa) closureOfSet(s bitset.Set) bitset.Set {
	var out bitset.Set
	s.ForEach(func(id int) {
		c := n.closureOf(StateID(id))
		out.UnionAssign(&c)
	})
	return out
}

// Step computes the closure-expanded state set reached by consuming a
// single class c from s.
func (n *Nfa) Step(s bitset.Set, c charclass.Class) bitset.Set {
	var dst bitset.Set
	s.ForEach(func(id int) {
		if id >= len(n.states) {
			return
		}
		st := &n.states[id]
		if st.kind != kindAtom {
			return
		}
		for _, e := range st.edges {
			if e.mask.Has(c) {
				dst.Add(int(e.next))
			}
		}
	})
	return n.closureOfSet(dst)
}

// StepMask computes the closure-expanded state set reached by
// consuming any single class in m from s. Used by the fuzzy matcher's
// substitute/insert steps, which may consume any letter.
func (n *Nfa) StepMask(s bitset.Set, m charclass.Mask) bitset.Set {
	var dst bitset.Set
	s.ForEach(func(id int) {
		if id >= len(n.states) {
			return
		}
		st := &n.states[id]
		if st.kind != kindAtom {
			return
		}
		for _, e := range st.edges {
			if e.mask&m != 0 {
				dst.Add(int(e.next))
			}
		}
	})
	return n.closureOfSet(dst)
}

// SeedFuzz builds the initial FuzzSet for starting a simulation at
// start: zero accumulated error, closure-expanded.
func (n *Nfa) SeedFuzz(start StateID, fuzz int) FuzzSet {
	fs := make(FuzzSet, fuzz+1)
	fs[0] = n.closureOf(start)
	return fs
}

// FuzzStep advances fs by one input class c, accounting for exact
// transitions plus, at each non-maximal error level, the delete,
// substitute and insert edits (spec.md §4.4's forward DP). The result
// is computed entirely from fs (the "old" array) into a fresh slice so
// no step reads state it has itself already written this round.
func (n *Nfa) FuzzStep(fs FuzzSet, c charclass.Class) FuzzSet {
	fuzz := len(fs) - 1
	next := make(FuzzSet, fuzz+1)
	for e := 0; e <= fuzz; e++ {
		exact := n.Step(fs[e], c)
		next[e].UnionAssign(&exact)
	}
	for e := 0; e < fuzz; e++ {
		// delete: drop the input symbol, state carries forward unconsumed.
		next[e+1].UnionAssign(&fs[e])
		// substitute: consume c as if it had been any letter.
		afterLetter := n.StepMask(fs[e], charclass.LetterMask)
		next[e+1].UnionAssign(&afterLetter)
		// insert: consume a phantom letter, then the real symbol c.
		ins := n.Step(afterLetter, c)
		next[e+1].UnionAssign(&ins)
	}
	return next
}

// MatchClasses runs a full simulation over a pre-translated class
// sequence (which must end in charclass.End) and returns the smallest
// accumulated edit distance at which AcceptState is reached, or -1.
func (n *Nfa) MatchClasses(classes []charclass.Class) int {
	fuzz := n.flags.Fuzz
	fs := n.SeedFuzz(n.start, fuzz)
	for _, c := range classes {
		fs = n.FuzzStep(fs, c)
	}
	for e := 0; e <= fuzz; e++ {
		if fs[e].Test(int(AcceptState)) {
			return e
		}
	}
	return -1
}

// Match translates text and runs MatchClasses against it.
func (n *Nfa) Match(text string) int {
	return n.MatchClasses(charclass.Translate(text))
}
