package combocache

import (
	"testing"

	"github.com/coregx/nxsearch/nx"
	"github.com/coregx/nxsearch/word"
)

func TestPrefilterSoundForLiteralAlternation(t *testing.T) {
	n, err := nx.Compile("cat|dog", nx.Flags{ExplicitSpace: true, ExplicitPunct: true})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	l := word.NewWordList()
	ws := buildSet(l, "cat", "dog", "catfish", "bird")

	cc := Build(n, ws, nil)
	if cc.ClassOf(0) == 0 {
		t.Error("cat should classify non-empty")
	}
	if cc.ClassOf(1) == 0 {
		t.Error("dog should classify non-empty")
	}
	if cc.ClassOf(2) != 0 {
		t.Error("catfish contains the literal but is longer, should classify empty")
	}
	if cc.ClassOf(3) != 0 {
		t.Error("bird should classify empty")
	}
	if cc.Stats().PrefilterSkips == 0 {
		t.Error("expected the prefilter to reject at least one word outright")
	}
}

func TestPrefilterDisabledUnderFuzz(t *testing.T) {
	n, err := nx.Compile("cat|dog", nx.Flags{Fuzz: 1, ExplicitSpace: true, ExplicitPunct: true})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	l := word.NewWordList()
	ws := buildSet(l, "cet") // one substitution away from "cat", contains no literal run

	cc := Build(n, ws, nil)
	if cc.ClassOf(0) == 0 {
		t.Error("cet should still classify non-empty under fuzz=1; prefilter must be disabled here")
	}
}
