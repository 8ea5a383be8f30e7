package nxsearch

import (
	"testing"
)

func TestMatchFacade(t *testing.T) {
	n, err := CompileNX("hel+o", Flags{})
	if err != nil {
		t.Fatalf("CompileNX: %v", err)
	}
	defer DestroyNX(n)

	if d := Match(n, "hello"); d != 0 {
		t.Errorf("Match(hello) = %d, want 0", d)
	}
	if d := Match(n, "world"); d != -1 {
		t.Errorf("Match(world) = %d, want -1", d)
	}
}

func TestMustCompileNXPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on invalid expression")
		}
	}()
	MustCompileNX("(unterminated", Flags{})
}

// TestComboMultiFacade checks that ComboMulti's conjunctive semantics
// (every NFA must accept the full concatenated phrase, not one NFA per
// word slot) hold through the package-level facade: neither "ca" nor
// "at" alone has two a's, but their concatenation does, and also
// contains a 'c'.
func TestComboMultiFacade(t *testing.T) {
	list := NewWordList()
	dict := NewWordSet(list)
	for _, w := range []string{"ca", "at", "tt"} {
		dict.Add(list.Insert(w))
	}

	twoAs := MustCompileNX("[cat]*a[cat]*a[cat]*", Flags{})
	hasC := MustCompileNX(".*c.*", Flags{})

	var got []string
	c := NewCursor(func(tup Tuple) { got = append(got, tup.Text) })
	ComboMulti([]*Nfa{twoAs, hasC}, dict, 2, c)

	if !c.Done() {
		t.Fatal("expected search to complete")
	}
	set := map[string]bool{}
	for _, g := range got {
		set[g] = true
	}
	if !set["ca at"] {
		t.Fatalf("got %v, want it to include \"ca at\"", got)
	}
	if set["tt tt"] {
		t.Fatalf("got %v, \"tt tt\" should be excluded (no a's)", got)
	}
	if CursorDebug(c) == "" {
		t.Error("CursorDebug returned empty string")
	}
}
