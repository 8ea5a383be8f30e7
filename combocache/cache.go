// Package combocache builds, per (Nfa, WordSet) pair, the transition
// table that lets combosearch avoid re-running the NFA simulation for
// every word at every recursion depth: each word is classified once
// into a transition class, and words that behave identically share
// storage.
package combocache

import (
	"encoding/binary"
	"hash/fnv"
	"sync/atomic"

	"github.com/coregx/ahocorasick"
	"github.com/projectdiscovery/gologger"

	"github.com/coregx/nxsearch/bitset"
	"github.com/coregx/nxsearch/charclass"
	"github.com/coregx/nxsearch/nx"
	"github.com/coregx/nxsearch/word"
)

// Stats tracks cache construction counters, in dfa/lazy.Cache's
// hits/misses style.
type Stats struct {
	WordsClassified uint64
	ClassesInterned uint64
	PrefilterSkips  uint64
}

// Progress lets cache construction yield control to a caller-supplied
// deadline/cap check (combosearch.Cursor satisfies this) without
// combocache depending on package combosearch.
type Progress interface {
	UpdateInput(i int) bool
}

type class struct {
	// transitions[s][e] is the state set reached consuming this word's
	// letters from NFA state s with exactly e edits spent inside the word.
	transitions []nx.FuzzSet
	nonnull     bitset.Set
}

// ComboCache is the per-(Nfa, WordSet) transition-class cache.
type ComboCache struct {
	nfa    *nx.Nfa
	source *word.WordSet

	classes []*class
	byHash  map[uint64][]int

	wordClass    []int
	nonnullWords *word.WordSet

	prefilter *ahocorasick.Automaton

	buildIndex int
	built      bool

	stats Stats
}

// BoundTo implements nx.CacheBinding.
func (cc *ComboCache) BoundTo() interface{} { return cc.source }

// Build returns the ComboCache for (n, source), building (or
// continuing to build) it if necessary. progress may be nil.
func Build(n *nx.Nfa, source *word.WordSet, progress Progress) *ComboCache {
	if cached := n.CacheFor(source); cached != nil {
		cc := cached.(*ComboCache)
		cc.Resume(progress)
		return cc
	}
	cc := &ComboCache{
		nfa:       n,
		source:    source,
		byHash:    make(map[uint64][]int),
		wordClass: make([]int, source.Len()),
	}
	cc.classes = append(cc.classes, &class{}) // class 0: reserved "all empty"
	cc.prefilter = buildPrefilter(n)
	n.SetCache(source, cc)
	cc.Resume(progress)
	return cc
}

// Resume continues classifying words from wherever construction left
// off, stopping early if progress says to. It returns cc.Done().
func (cc *ComboCache) Resume(progress Progress) bool {
	total := cc.source.Len()
	for i := cc.buildIndex; i < total; i++ {
		if progress != nil && !progress.UpdateInput(i) {
			cc.buildIndex = i
			return false
		}
		cc.classifyWord(i)
		cc.buildIndex = i + 1
	}
	if !cc.built {
		cc.built = true
		cc.materializeNonNull()
		gologger.Debug().Msgf("combocache: classified %d words into %d classes for %q",
			total, len(cc.classes), cc.nfa.Expr())
	}
	return true
}

// Done reports whether construction has fully completed.
func (cc *ComboCache) Done() bool { return cc.built }

func (cc *ComboCache) classifyWord(i int) {
	ref := cc.source.At(i)
	canon := ref.Canonical()
	if canon == "" || !word.IsLoadableWord(ref.Raw()) {
		cc.wordClass[i] = 0
		return
	}
	if cc.prefilter != nil && !cc.prefilter.IsMatch([]byte(canon)) {
		cc.wordClass[i] = 0
		atomic.AddUint64(&cc.stats.PrefilterSkips, 1)
		return
	}

	classes := charclass.Translate(canon)
	classes = classes[:len(classes)-1] // drop the trailing End: words consume letters only

	table, nonnull := cc.computeTable(classes)
	if nonnull.IsEmpty() {
		cc.wordClass[i] = 0
		return
	}
	key := hashTable(table)
	cc.wordClass[i] = cc.findOrInternClass(key, table, nonnull)
	atomic.AddUint64(&cc.stats.WordsClassified, 1)
}

func (cc *ComboCache) computeTable(classes []charclass.Class) ([]nx.FuzzSet, bitset.Set) {
	n := cc.nfa.NumStates()
	fuzz := cc.nfa.Flags().Fuzz
	table := make([]nx.FuzzSet, n)
	var nonnull bitset.Set
	for s := 0; s < n; s++ {
		fs := cc.nfa.SeedFuzz(nx.StateID(s), fuzz)
		for _, c := range classes {
			fs = cc.nfa.FuzzStep(fs, c)
		}
		table[s] = fs
		if !fuzzSetEmpty(fs) {
			nonnull.Add(s)
		}
	}
	return table, nonnull
}

func fuzzSetEmpty(fs nx.FuzzSet) bool {
	for i := range fs {
		if !fs[i].IsEmpty() {
			return false
		}
	}
	return true
}

func (cc *ComboCache) findOrInternClass(key uint64, table []nx.FuzzSet, nonnull bitset.Set) int {
	for _, idx := range cc.byHash[key] {
		if tablesEqual(cc.classes[idx].transitions, table) {
			return idx
		}
	}
	idx := len(cc.classes)
	cc.classes = append(cc.classes, &class{transitions: table, nonnull: nonnull})
	cc.byHash[key] = append(cc.byHash[key], idx)
	atomic.AddUint64(&cc.stats.ClassesInterned, 1)
	return idx
}

func hashTable(table []nx.FuzzSet) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, fs := range table {
		for _, set := range fs {
			raw := set.Raw()
			for _, w := range raw {
				binary.LittleEndian.PutUint64(buf[:], w)
				h.Write(buf[:])
			}
		}
	}
	return h.Sum64()
}

func tablesEqual(a, b []nx.FuzzSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func (cc *ComboCache) materializeNonNull() {
	cc.nonnullWords = word.NewWordSet(cc.source.List())
	for i := 0; i < cc.source.Len(); i++ {
		if cc.wordClass[i] != 0 {
			cc.nonnullWords.Add(cc.source.At(i))
		}
	}
}

// NonNullWordSet returns the subsequence of the source WordSet that
// classified to a non-empty class.
func (cc *ComboCache) NonNullWordSet() *word.WordSet { return cc.nonnullWords }

// ClassOf returns the class index for the i-th word of the set this
// cache currently indexes (the original source, or whatever Compress
// last narrowed it to).
func (cc *ComboCache) ClassOf(i int) int { return cc.wordClass[i] }

// NumClasses returns the number of distinct interned classes
// (including the reserved all-empty class 0).
func (cc *ComboCache) NumClasses() int { return len(cc.classes) }

// NonNullStarts returns the set of NFA states from which classIdx has
// any non-empty transition at all.
func (cc *ComboCache) NonNullStarts(classIdx int) bitset.Set {
	return cc.classes[classIdx].nonnull
}

// Transition returns the state set reached consuming the word behind
// classIdx, starting at NFA state `start` with no edits spent, using
// exactly errBudget edits inside the word.
func (cc *ComboCache) Transition(classIdx, start, errBudget int) bitset.Set {
	t := cc.classes[classIdx].transitions
	if start < 0 || start >= len(t) {
		return bitset.Set{}
	}
	fs := t[start]
	if errBudget < 0 || errBudget >= len(fs) {
		return bitset.Set{}
	}
	return fs[errBudget]
}

// Compress reindexes the cache onto newWords, which must be a
// subsequence of the WordSet it currently indexes (its own source, or
// a prior Compress target). This is how ComboSearch makes every NFA's
// cache share one final, minimal non-null input after all caches have
// been built.
func (cc *ComboCache) Compress(newWords *word.WordSet) {
	newClass := make([]int, newWords.Len())
	si := 0
	for ni := 0; ni < newWords.Len(); ni++ {
		target := newWords.At(ni)
		for si < cc.source.Len() && cc.source.At(si) != target {
			si++
		}
		newClass[ni] = cc.wordClass[si]
		si++
	}
	cc.wordClass = newClass
	cc.source = newWords
	cc.materializeNonNull()
}

// Stats returns a snapshot of construction counters.
func (cc *ComboCache) Stats() Stats {
	return Stats{
		WordsClassified: atomic.LoadUint64(&cc.stats.WordsClassified),
		ClassesInterned: atomic.LoadUint64(&cc.stats.ClassesInterned),
		PrefilterSkips:  atomic.LoadUint64(&cc.stats.PrefilterSkips),
	}
}

func buildPrefilter(n *nx.Nfa) *ahocorasick.Automaton {
	runs := n.LiteralRuns()
	if len(runs) == 0 {
		return nil
	}
	// Soundness requires the whole word to be testable by substring
	// containment: with fuzz>0 a match may not contain any literal
	// verbatim (e.g. one substitution inside it), and with implicit
	// SPACE/PUNCT self-loops a match may have noise interspersed inside
	// what would otherwise be a contiguous literal run. Both cases
	// would turn this prefilter into a source of false negatives, so
	// it's restricted to the one shape where containment is sound:
	// plain literal alternation with flags forcing exact consumption.
	if n.Flags().Fuzz != 0 || !n.Flags().ExplicitSpace || !n.Flags().ExplicitPunct {
		return nil
	}
	builder := ahocorasick.NewBuilder()
	for _, r := range runs {
		builder.AddPattern([]byte(r))
	}
	auto, err := builder.Build()
	if err != nil {
		gologger.Debug().Msgf("combocache: literal prefilter build failed for %q: %v", n.Expr(), err)
		return nil
	}
	return auto
}
