package charclass

import "testing"

func TestTranslateBasic(t *testing.T) {
	got := Translate("Ab_1")
	want := []Class{A, A + 1, Punct, Punct, End}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTranslateSpace(t *testing.T) {
	got := Translate("a b")
	want := []Class{A, Space, A + 1, End}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLetterMask(t *testing.T) {
	for c := A; c <= Z; c++ {
		if !LetterMask.Has(c) {
			t.Fatalf("LetterMask missing %v", c)
		}
	}
	if LetterMask.Has(Space) || LetterMask.Has(Punct) || LetterMask.Has(End) {
		t.Fatal("LetterMask should not include non-letter classes")
	}
}

func TestMaskOfDistinct(t *testing.T) {
	seen := map[Mask]bool{}
	for c := End; c <= Z; c++ {
		m := MaskOf(c)
		if seen[m] {
			t.Fatalf("duplicate mask for %v", c)
		}
		seen[m] = true
	}
}
