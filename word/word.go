// Package word implements the dictionary arena: words are stored once
// in a chunked WordList and referenced everywhere else by a
// lightweight Ref, so a large dictionary and the many WordSets built
// over subsets of it don't repeatedly copy string data.
package word

import "strings"

const chunkSize = 256

// MaxTupleMembers bounds the number of words a single transient Tuple
// (see Tuple) may join, matching the WORD_TUPLE_N cap combosearch
// enforces on phrase length.
const MaxTupleMembers = 15

type entry struct {
	canonical string
	raw       string
}

type chunk struct {
	items [chunkSize]entry
	n     int
}

// WordList is the arena: every distinct word is Insert-ed once and
// referenced afterwards via the Ref it returns.
type WordList struct {
	chunks []*chunk
}

// NewWordList creates an empty arena.
func NewWordList() *WordList {
	return &WordList{}
}

// Insert stores raw (canonicalized on entry) and returns a handle to it.
func (l *WordList) Insert(raw string) Ref {
	c := l.currentChunk()
	idx := c.n
	c.items[idx] = entry{canonical: canonicalize(raw), raw: raw}
	c.n++
	global := (len(l.chunks)-1)*chunkSize + idx
	return Ref{list: l, idx: global}
}

func (l *WordList) currentChunk() *chunk {
	if len(l.chunks) == 0 || l.chunks[len(l.chunks)-1].n == chunkSize {
		l.chunks = append(l.chunks, &chunk{})
	}
	return l.chunks[len(l.chunks)-1]
}

func canonicalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Ref is a lightweight, comparable handle into a WordList. Two Refs
// compare equal with == iff they name the same arena slot.
type Ref struct {
	list *WordList
	idx  int
}

func (r Ref) entry() *entry {
	c := r.list.chunks[r.idx/chunkSize]
	return &c.items[r.idx%chunkSize]
}

// Canonical returns the lowercase form used for matching.
func (r Ref) Canonical() string { return r.entry().canonical }

// Raw returns the word exactly as inserted.
func (r Ref) Raw() string { return r.entry().raw }

// Len returns the length in bytes of the canonical form.
func (r Ref) Len() int { return len(r.entry().canonical) }

// WordSet is an insertion-ordered, duplicate-permitting sequence of
// Refs drawn from a single WordList.
type WordSet struct {
	list *WordList
	refs []Ref
}

// NewWordSet creates an empty set over list.
func NewWordSet(list *WordList) *WordSet {
	return &WordSet{list: list}
}

// Add appends r to the set.
func (ws *WordSet) Add(r Ref) { ws.refs = append(ws.refs, r) }

// Len returns the number of entries.
func (ws *WordSet) Len() int { return len(ws.refs) }

// At returns the i-th entry.
func (ws *WordSet) At(i int) Ref { return ws.refs[i] }

// List returns the WordList this set's Refs are drawn from.
func (ws *WordSet) List() *WordList { return ws.list }

// IsLoadableWord reports whether s is a legal dictionary entry: every
// multi-letter word is, but single-letter "words" are only legal for
// "a" and "i" (English's two standalone one-letter words). A loader
// and ComboCache's null-class pruning must agree on this rule.
func IsLoadableWord(s string) bool {
	if len(s) != 1 {
		return true
	}
	switch s[0] {
	case 'a', 'A', 'i', 'I':
		return true
	default:
		return false
	}
}

// Word is a transient, SPACE-joined view over a short run of Refs,
// built only to hand a phrase to a caller's callback; it is never
// itself stored in the arena unless CopyInto is called.
type Word struct {
	canonical string
	members   []Ref
}

// Tuple joins members' canonical forms with a single space, mirroring
// the original word_tuple_init concatenation.
func Tuple(members ...Ref) Word {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.Canonical()
	}
	return Word{
		canonical: strings.Join(parts, " "),
		members:   append([]Ref(nil), members...),
	}
}

// Canonical returns the joined form.
func (w Word) Canonical() string { return w.canonical }

// Members returns the Refs that make up w, in order.
func (w Word) Members() []Ref { return w.members }

// CopyInto persists w's joined text into list, returning a Ref to it.
func (w Word) CopyInto(list *WordList) Ref {
	return list.Insert(w.canonical)
}
