package word

import "testing"

func TestInsertAndLookup(t *testing.T) {
	l := NewWordList()
	r1 := l.Insert("Hello")
	r2 := l.Insert("world")
	if r1.Canonical() != "hello" {
		t.Fatalf("Canonical() = %q, want hello", r1.Canonical())
	}
	if r1.Raw() != "Hello" {
		t.Fatalf("Raw() = %q, want Hello", r1.Raw())
	}
	if r2.Canonical() != "world" {
		t.Fatalf("Canonical() = %q, want world", r2.Canonical())
	}
}

func TestChunkBoundary(t *testing.T) {
	l := NewWordList()
	refs := make([]Ref, chunkSize*2+5)
	for i := range refs {
		refs[i] = l.Insert("w")
	}
	for i, r := range refs {
		if r.Canonical() != "w" {
			t.Fatalf("entry %d lost across chunk boundary", i)
		}
	}
}

func TestRefEquality(t *testing.T) {
	l := NewWordList()
	r1 := l.Insert("a")
	r2 := l.Insert("b")
	if r1 == r2 {
		t.Fatal("distinct inserts must not compare equal")
	}
	ws := NewWordSet(l)
	ws.Add(r1)
	if ws.At(0) != r1 {
		t.Fatal("WordSet.At should return the same Ref value")
	}
}

func TestIsLoadableWord(t *testing.T) {
	cases := map[string]bool{
		"a": true, "A": true, "i": true, "I": true,
		"b": false, "x": false,
		"an": true, "": true,
	}
	for in, want := range cases {
		if got := IsLoadableWord(in); got != want {
			t.Errorf("IsLoadableWord(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTuple(t *testing.T) {
	l := NewWordList()
	r1 := l.Insert("hello")
	r2 := l.Insert("World")
	tup := Tuple(r1, r2)
	if tup.Canonical() != "hello world" {
		t.Fatalf("Canonical() = %q, want %q", tup.Canonical(), "hello world")
	}
	if len(tup.Members()) != 2 {
		t.Fatalf("Members() len = %d, want 2", len(tup.Members()))
	}
	ref := tup.CopyInto(l)
	if ref.Canonical() != "hello world" {
		t.Fatalf("CopyInto Canonical() = %q", ref.Canonical())
	}
}
