// Package nxsearch compiles NX puzzle expressions and searches word
// dictionaries for single words or multi-word phrases matching them,
// exactly or within a configurable edit-distance budget.
//
// A typical session compiles one Nfa per constraint, loads a
// dictionary into a WordList/WordSet, and either calls Match directly
// for single-word lookups or drives ComboMulti with a Cursor for
// multi-word phrase search.
package nxsearch

import (
	"time"

	"github.com/coregx/nxsearch/combosearch"
	"github.com/coregx/nxsearch/nx"
	"github.com/coregx/nxsearch/word"
)

// Flags configures how an expression is compiled; see nx.Flags.
type Flags = nx.Flags

// Nfa is a compiled NX expression.
type Nfa = nx.Nfa

// Cursor threads a resumable combo search across repeated ComboMulti
// calls; see combosearch.Cursor.
type Cursor = combosearch.Cursor

// Tuple is one phrase delivered by a Cursor's callback.
type Tuple = combosearch.Tuple

// Callback receives one Tuple per accepted phrase.
type Callback = combosearch.Callback

// WordList is the dictionary arena words are inserted into once and
// referenced from afterwards; see word.WordList.
type WordList = word.WordList

// WordSet is an ordered, duplicate-permitting view over a WordList.
type WordSet = word.WordSet

// MaxPhraseWords bounds how many words a single ComboMulti phrase may contain.
const MaxPhraseWords = combosearch.MaxPhraseWords

// CompileNX compiles an NX expression into an Nfa.
func CompileNX(expr string, flags Flags) (*Nfa, error) {
	return nx.Compile(expr, flags)
}

// MustCompileNX is like CompileNX but panics on error, for use with
// expressions known at compile time to be valid.
func MustCompileNX(expr string, flags Flags) *Nfa {
	return nx.MustCompile(expr, flags)
}

// DestroyNX releases n's cache binding. Safe to call on an Nfa that is
// about to go out of scope; Go's GC reclaims the rest.
func DestroyNX(n *Nfa) {
	n.Destroy()
}

// Match runs n against a single word or short phrase and returns the
// smallest edit distance at which it's accepted, or -1 if no match
// exists within n's fuzz budget.
func Match(n *Nfa, text string) int {
	return n.Match(text)
}

// NewWordList creates an empty dictionary arena.
func NewWordList() *WordList {
	return word.NewWordList()
}

// NewWordSet creates an empty ordered view over list.
func NewWordSet(list *WordList) *WordSet {
	return word.NewWordSet(list)
}

// NewCursor creates a Cursor that delivers accepted phrases to cb.
func NewCursor(cb Callback) *Cursor {
	return combosearch.NewCursor(cb)
}

// SetDeadline bounds a cursor's search by wall-clock deadline and/or
// output count (0 disables that bound).
func SetDeadline(c *Cursor, deadline time.Time, outputCap int) {
	c.SetDeadline(deadline, outputCap)
}

// CursorDebug returns a one-line progress summary for c.
func CursorDebug(c *Cursor) string {
	return c.Debug()
}

// ComboMulti searches dict for phrases of up to maxPhraseWords words
// whose full concatenation (words joined by a single space) is
// accepted by every one of nfas, delivering results through cursor's
// callback. See combosearch.ComboMulti for the full resumability
// contract.
func ComboMulti(nfas []*Nfa, dict *WordSet, maxPhraseWords int, cursor *Cursor) {
	combosearch.ComboMulti(nfas, dict, maxPhraseWords, cursor)
}
