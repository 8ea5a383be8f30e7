package combocache

import (
	"testing"

	"github.com/coregx/nxsearch/nx"
	"github.com/coregx/nxsearch/word"
)

func buildSet(l *word.WordList, words ...string) *word.WordSet {
	ws := word.NewWordSet(l)
	for _, w := range words {
		ws.Add(l.Insert(w))
	}
	return ws
}

func TestBuildClassifiesWords(t *testing.T) {
	n, err := nx.Compile("a.c", nx.Flags{})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	l := word.NewWordList()
	ws := buildSet(l, "abc", "axc", "xyz", "abcd")

	cc := Build(n, ws, nil)
	if !cc.Done() {
		t.Fatal("Build should complete synchronously with a nil Progress")
	}

	if cc.ClassOf(0) == 0 {
		t.Error("abc should classify to a non-empty class")
	}
	if cc.ClassOf(1) == 0 {
		t.Error("axc should classify to a non-empty class")
	}
	if cc.ClassOf(2) != 0 {
		t.Error("xyz should classify to the empty class")
	}
	if cc.ClassOf(3) != 0 {
		t.Error("abcd should classify to the empty class (too long)")
	}
	if cc.ClassOf(0) != cc.ClassOf(1) {
		t.Error("abc and axc both match via the same wildcard, should share a class")
	}

	nn := cc.NonNullWordSet()
	if nn.Len() != 2 {
		t.Fatalf("NonNullWordSet().Len() = %d, want 2", nn.Len())
	}
}

func TestCachedOnNfa(t *testing.T) {
	n, err := nx.Compile("ab", nx.Flags{})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	l := word.NewWordList()
	ws := buildSet(l, "ab")

	cc1 := Build(n, ws, nil)
	cc2 := Build(n, ws, nil)
	if cc1 != cc2 {
		t.Fatal("Build should return the same cache for the same (Nfa, WordSet)")
	}
}

func TestCompress(t *testing.T) {
	n, err := nx.Compile("ab", nx.Flags{})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	l := word.NewWordList()
	ws := buildSet(l, "ab", "zz", "ba")

	cc := Build(n, ws, nil)
	narrowed := word.NewWordSet(l)
	narrowed.Add(ws.At(0))
	narrowed.Add(ws.At(2))

	cc.Compress(narrowed)
	if cc.ClassOf(0) == 0 {
		t.Error("ab should still classify to a non-empty class after compress")
	}
	if cc.ClassOf(1) != 0 {
		t.Error("ba should classify to the empty class")
	}
}

func TestResumableBuild(t *testing.T) {
	n, err := nx.Compile("ab", nx.Flags{})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	l := word.NewWordList()
	ws := buildSet(l, "ab", "ba", "zz")

	calls := 0
	limited := progressFunc(func(i int) bool {
		calls++
		return i < 1
	})
	cc := Build(n, ws, limited)
	if cc.Done() {
		t.Fatal("Build should have been suspended by the limited Progress")
	}
	if cc.Resume(nil); !cc.Done() {
		t.Fatal("Resume(nil) should finish construction")
	}
}

type progressFunc func(int) bool

func (f progressFunc) UpdateInput(i int) bool { return f(i) }
