package combosearch

import (
	"github.com/coregx/nxsearch/bitset"
	"github.com/coregx/nxsearch/charclass"
	"github.com/coregx/nxsearch/combocache"
	"github.com/coregx/nxsearch/nx"
	"github.com/coregx/nxsearch/word"
)

// Config configures a search, in meta.Config/meta.DefaultConfig's
// style.
type Config struct {
	MaxPhraseWords int
	MaxNFAs        int
}

// DefaultConfig returns sane bounds.
func DefaultConfig() Config {
	return Config{MaxPhraseWords: MaxPhraseWords, MaxNFAs: 8}
}

type engine struct {
	nfas     []*nx.Nfa
	baseDict *word.WordSet
	maxWords int
	cursor   *Cursor

	caches []*combocache.ComboCache
	input  *word.WordSet
	seeds  []nx.FuzzSet
}

// ComboMulti searches dict for phrases of up to maxPhraseWords words,
// formed by concatenating the phrase's words with a single space, such
// that the whole phrase is accepted by every one of nfas (a
// conjunction, not a per-slot assignment: each candidate word is
// stepped through all of nfas in lockstep at every recursion depth,
// and a phrase is emitted only once every NFA has reached its accept
// state on it). It delivers results through cursor's callback and
// returns when either the whole search space has been explored or the
// cursor's deadline/cap stops it early; in the latter case, calling
// ComboMulti again with the same nfas, dict and cursor resumes exactly
// where it left off, in the same delivery order an uninterrupted run
// would have produced.
func ComboMulti(nfas []*nx.Nfa, dict *word.WordSet, maxPhraseWords int, cursor *Cursor) {
	if cursor == nil {
		panic("combosearch: ComboMulti requires a non-nil cursor")
	}
	if len(nfas) == 0 {
		panic("combosearch: ComboMulti requires at least one NFA")
	}
	if maxPhraseWords < 1 || maxPhraseWords > MaxPhraseWords {
		panic("combosearch: max phrase words out of bounds")
	}

	e := &engine{nfas: nfas, baseDict: dict, maxWords: maxPhraseWords, cursor: cursor}
	if !e.setup() {
		cursor.suspended = true
		return
	}
	if !cursor.setupDone {
		cursor.setupDone = true
		cursor.totalInput = e.input.Len()
		cursor.m = 1
	}
	cursor.suspended = false
	e.run()
}

// setup builds (or, on a resumed call, re-fetches) each NFA's cache
// against the progressively narrowed dictionary, compresses every
// cache onto the final shared non-null input, and seeds each NFA's
// starting state. It is idempotent: calling it again after it has
// already completed yields the same final input. The first NFA's cache
// is re-fetched without work; each later NFA's cache is rebuilt,
// because Compress gives the previous cache a new non-null WordSet and
// the later cache is bound to the old one.
func (e *engine) setup() bool {
	current := e.baseDict
	e.caches = e.caches[:0]
	for _, n := range e.nfas {
		cc := combocache.Build(n, current, e.cursor)
		if !cc.Done() {
			return false
		}
		e.caches = append(e.caches, cc)
		current = cc.NonNullWordSet()
	}
	final := current
	for _, cc := range e.caches {
		cc.Compress(final)
	}
	e.input = final

	e.seeds = make([]nx.FuzzSet, len(e.nfas))
	for k, n := range e.nfas {
		e.seeds[k] = n.SeedFuzz(n.Start(), n.Flags().Fuzz)
	}
	return true
}

func (e *engine) run() {
	c := e.cursor
	for {
		if c.m < 1 {
			c.m = 1
		}
		ss := &searchState{e: e, cursor: c, m: c.m}
		ok := ss.search(0, e.seeds)
		if !ok {
			c.suspended = true
			return
		}
		if c.hasPartial && c.m < e.maxWords {
			c.m++
			for i := range c.index {
				c.index[i] = 0
			}
			c.hasPartial = false
			continue
		}
		return
	}
}

type searchState struct {
	e      *engine
	cursor *Cursor
	m      int
	stems  [MaxPhraseWords]word.Ref
}

// search explores tuples of length up to ss.m starting at recursion
// depth. stemStates[k] is NFA k's FuzzSet upon entering this depth.
// It returns false if the cursor asked the search to stop, in which
// case cursor.index[depth:] records where to resume.
func (ss *searchState) search(depth int, stemStates []nx.FuzzSet) bool {
	total := ss.e.input.Len()
	start := ss.cursor.index[depth]

	for i := start; i < total; i++ {
		ss.cursor.index[depth] = i

		checkIdx := i
		if depth != 0 {
			checkIdx = ss.cursor.inputIndex
		}
		if !ss.cursor.UpdateInput(checkIdx) {
			return false
		}

		newStates, ok := ss.step(i, stemStates)
		if !ok {
			continue
		}
		if sameStates(newStates, stemStates) {
			continue // no progress: consuming this word changed nothing
		}

		ss.stems[depth] = ss.e.input.At(i)

		if depth+1 < ss.m {
			if !ss.search(depth+1, newStates) {
				return false
			}
			ss.cursor.index[depth+1] = 0
		} else if allAccept(ss.e.nfas, newStates) {
			tuple := makeTuple(ss.stems[:depth+1])
			if !ss.cursor.emit(tuple) {
				// This word's tuple has been delivered: resume after it.
				ss.cursor.index[depth] = i + 1
				return false
			}
		} else {
			ss.cursor.hasPartial = true
		}
	}
	if depth == 0 {
		ss.cursor.UpdateInput(total)
	}
	return true
}

// step advances every NFA's stem state by word i, returning the new
// per-NFA FuzzSets and whether every NFA could still possibly match
// (false means this word is a dead end for at least one NFA and the
// caller should skip it).
func (ss *searchState) step(i int, stemStates []nx.FuzzSet) ([]nx.FuzzSet, bool) {
	K := len(ss.e.nfas)
	newStates := make([]nx.FuzzSet, K)
	for k := 0; k < K; k++ {
		cc := ss.e.caches[k]
		classIdx := cc.ClassOf(i)
		nonnullStarts := cc.NonNullStarts(classIdx)

		var relevant bitset.Set
		for e := range stemStates[k] {
			relevant.UnionAssign(&stemStates[k][e])
		}
		if !relevant.Intersects(&nonnullStarts) {
			return nil, false
		}

		fuzz := len(stemStates[k]) - 1
		ns := make(nx.FuzzSet, fuzz+1)
		relevant.ForEach(func(s int) {
			for e := 0; e <= fuzz; e++ {
				if !stemStates[k][e].Test(s) {
					continue
				}
				for d := 0; e+d <= fuzz; d++ {
					t := cc.Transition(classIdx, s, d)
					ns[e+d].UnionAssign(&t)
				}
			}
		})
		if fuzzSetEmpty(ns) {
			return nil, false
		}
		newStates[k] = ns
	}
	return newStates, true
}

func fuzzSetEmpty(fs nx.FuzzSet) bool {
	for i := range fs {
		if !fs[i].IsEmpty() {
			return false
		}
	}
	return true
}

// allAccept reports whether every NFA accepts once the phrase ends:
// cached word transitions never consume End, so each NFA's states are
// stepped over End here before testing for AcceptState.
func allAccept(nfas []*nx.Nfa, states []nx.FuzzSet) bool {
	for k, fs := range states {
		fs = nfas[k].FuzzStep(fs, charclass.End)
		ok := false
		for _, s := range fs {
			if s.Test(int(nx.AcceptState)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func sameStates(a, b []nx.FuzzSet) bool {
	for k := range a {
		if len(a[k]) != len(b[k]) {
			return false
		}
		for e := range a[k] {
			if a[k][e] != b[k][e] {
				return false
			}
		}
	}
	return true
}

func makeTuple(refs []word.Ref) Tuple {
	w := word.Tuple(refs...)
	return Tuple{Words: append([]word.Ref(nil), refs...), Text: w.Canonical()}
}
