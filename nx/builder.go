package nx

import (
	"github.com/coregx/nxsearch/charclass"
	"github.com/coregx/nxsearch/internal/conv"
)

// patchSlot names one edge of one state, reserved before its target is
// known.
type patchSlot struct {
	state StateID
	slot  int
}

// fragment is a partially built sub-NFA: an entry state plus the list
// of dangling edges ("out") still waiting to be pointed at whatever
// comes next.
type fragment struct {
	start StateID
	out   []patchSlot
}

// builder assembles nfaState values via Thompson construction. States
// are only ever appended, never removed, so every StateID handed out
// remains valid for the builder's lifetime.
type builder struct {
	states []nfaState
}

func newBuilder() *builder { return &builder{} }

func (b *builder) reserveAtom() StateID {
	id := StateID(conv.IntToInt32(len(b.states)))
	b.states = append(b.states, nfaState{kind: kindAtom})
	return id
}

func (b *builder) reserveSplit() StateID {
	id := StateID(conv.IntToInt32(len(b.states)))
	b.states = append(b.states, nfaState{kind: kindSplit})
	return id
}

func (b *builder) setAtomMask(id StateID, mask charclass.Mask) {
	b.states[id].edges[0] = edge{mask: mask, next: FailState}
}

func (b *builder) patch(id StateID, slot int, target StateID) {
	b.states[id].edges[slot].next = target
}

func (b *builder) patchAll(list []patchSlot, target StateID) {
	for _, p := range list {
		b.patch(p.state, p.slot, target)
	}
}

// atom builds a single-symbol fragment matching mask.
func (b *builder) atom(mask charclass.Mask) fragment {
	id := b.reserveAtom()
	b.setAtomMask(id, mask)
	return fragment{start: id, out: []patchSlot{{id, 0}}}
}

// passThrough builds a fragment that matches the empty string: a split
// whose both edges are left dangling, so whatever patches them both
// ends up pointing at the same place.
func (b *builder) passThrough() fragment {
	id := b.reserveSplit()
	return fragment{start: id, out: []patchSlot{{id, 0}, {id, 1}}}
}

// concat chains fragments in sequence.
func (b *builder) concat(frags []fragment) fragment {
	if len(frags) == 0 {
		return b.passThrough()
	}
	result := frags[0]
	for i := 1; i < len(frags); i++ {
		b.patchAll(result.out, frags[i].start)
		result = fragment{start: result.start, out: frags[i].out}
	}
	return result
}

// alt builds a right-folded chain of two-way splits across frags.
func (b *builder) alt(frags []fragment) fragment {
	if len(frags) == 1 {
		return frags[0]
	}
	cur := frags[len(frags)-1]
	for i := len(frags) - 2; i >= 0; i-- {
		id := b.reserveSplit()
		b.patch(id, 0, frags[i].start)
		b.patch(id, 1, cur.start)
		out := append(append([]patchSlot{}, frags[i].out...), cur.out...)
		cur = fragment{start: id, out: out}
	}
	return cur
}

// quest builds a? : a, or skip.
func (b *builder) quest(a fragment) fragment {
	id := b.reserveSplit()
	b.patch(id, 0, a.start)
	out := append([]patchSlot{{id, 1}}, a.out...)
	return fragment{start: id, out: out}
}

// star builds a*: zero or more repetitions of a.
func (b *builder) star(a fragment) fragment {
	id := b.reserveSplit()
	b.patch(id, 0, a.start)
	b.patchAll(a.out, id)
	return fragment{start: id, out: []patchSlot{{id, 1}}}
}

// plus builds a+: one or more repetitions of a.
func (b *builder) plus(a fragment) fragment {
	id := b.reserveSplit()
	b.patchAll(a.out, id)
	b.patch(id, 0, a.start)
	return fragment{start: a.start, out: []patchSlot{{id, 1}}}
}

const unbounded = -1

// repeatRange builds {m,n}. first is the already-compiled first copy
// of the repeated atom; recompile produces additional independent
// copies on demand (needed because each repetition is a distinct run
// of states, not a shared loop back-edge like star/plus).
func (b *builder) repeatRange(recompile func() fragment, first fragment, m, n int) (fragment, error) {
	if m < 0 || m > 255 || (n != unbounded && (n < m || n > 255)) {
		return fragment{}, &CompileError{Msg: "invalid repetition count"}
	}
	if n == unbounded {
		if m == 0 {
			return b.star(first), nil
		}
		copies := make([]fragment, m)
		copies[0] = first
		for i := 1; i < m; i++ {
			copies[i] = recompile()
		}
		copies[m-1] = b.plus(copies[m-1])
		return b.concat(copies), nil
	}
	if n == 0 {
		return b.passThrough(), nil
	}
	total := n
	copies := make([]fragment, total)
	copies[0] = first
	for i := 1; i < total; i++ {
		copies[i] = recompile()
	}
	if m == total {
		return b.concat(copies), nil
	}
	tail := b.quest(copies[total-1])
	for i := total - 2; i >= m; i-- {
		merged := b.concat([]fragment{copies[i], tail})
		tail = b.quest(merged)
	}
	if m == 0 {
		return tail, nil
	}
	mandatory := append([]fragment(nil), copies[:m]...)
	return b.concat(append(mandatory, tail)), nil
}
