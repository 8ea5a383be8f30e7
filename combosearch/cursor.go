// Package combosearch enumerates phrases (ordered tuples of
// dictionary words, of length up to MaxPhraseWords) whose whole
// space-joined text satisfies every one of a set of NX expressions, using
// combocache's per-word transition classes to avoid re-running the
// NFA simulation at every recursion step.
package combosearch

import (
	"fmt"
	"time"

	"github.com/coregx/nxsearch/word"
)

// MaxPhraseWords bounds how many dictionary words a single emitted
// phrase may contain, mirroring the original WORD_TUPLE_N /
// CURSOR_LIST_MAX cap.
const MaxPhraseWords = 15

// Tuple is one emitted phrase.
type Tuple struct {
	Words []word.Ref
	Text  string
}

// Callback receives one Tuple per accepted phrase.
type Callback func(Tuple)

// Cursor threads a resumable search across multiple ComboMulti calls:
// it records exactly where the recursive enumeration was when a
// deadline or output cap was hit, and on the next call with the same
// Cursor, search resumes from that point with the same delivery order
// it would have had uninterrupted.
type Cursor struct {
	index [MaxPhraseWords]int
	m     int

	inputIndex  int
	totalInput  int
	outputIndex int

	setupDone  bool
	hasPartial bool
	suspended  bool

	deadline time.Time
	cap      int

	createdAt time.Time
	callback  Callback
}

// NewCursor creates a Cursor that delivers accepted phrases to cb.
func NewCursor(cb Callback) *Cursor {
	return &Cursor{createdAt: time.Now(), callback: cb, m: 1}
}

// SetDeadline bounds the cursor by wall-clock deadline and/or output
// count (0 disables that bound).
func (c *Cursor) SetDeadline(deadline time.Time, outputCap int) {
	c.deadline = deadline
	c.cap = outputCap
}

// UpdateInput reports progress at input index i and returns false if
// the caller should stop (deadline passed, cap reached, or the
// top-level input has been exhausted).
func (c *Cursor) UpdateInput(i int) bool {
	c.inputIndex = i
	if c.totalInput > 0 && i >= c.totalInput {
		return false
	}
	if c.cap > 0 && c.outputIndex >= c.cap {
		return false
	}
	if !c.deadline.IsZero() && !time.Now().Before(c.deadline) {
		return false
	}
	return true
}

// UpdateOutput reports that n phrases have now been emitted and
// returns false if the output cap has been reached.
func (c *Cursor) UpdateOutput(n int) bool {
	c.outputIndex = n
	if c.cap > 0 && c.outputIndex >= c.cap {
		return false
	}
	return true
}

func (c *Cursor) emit(t Tuple) bool {
	if c.callback != nil {
		c.callback(t)
	}
	return c.UpdateOutput(c.outputIndex + 1)
}

// Debug returns a one-line progress summary, in cursor.c's
// cursor_debug format.
func (c *Cursor) Debug() string {
	percent := 100.0
	if c.totalInput > 0 {
		percent = 100.0 * float64(c.inputIndex) / float64(c.totalInput)
	}
	stage := "matching"
	if !c.setupDone {
		stage = "preprocessing for phrases"
	}
	return fmt.Sprintf("%d/%d (%.2f%%) %s, up to %d word(s); %d output; in %s",
		c.inputIndex, c.totalInput, percent, stage, c.m, c.outputIndex,
		time.Since(c.createdAt).Round(time.Millisecond))
}

// Done reports whether the cursor's last search call ran to
// completion rather than being suspended by a deadline or cap.
func (c *Cursor) Done() bool {
	return c.setupDone && !c.suspended
}
