package nx

import (
	"fmt"
	"strings"

	"github.com/coregx/nxsearch/bitset"
	"github.com/coregx/nxsearch/charclass"
)

// Compile parses expr and builds its NFA. Whitespace inside expr is
// ignored (it is purely a formatting aid); '_' and '-' are the only
// way to require a literal space/punctuation character. Expressions
// are case-insensitive.
func Compile(expr string, flags Flags) (*Nfa, error) {
	if flags.Fuzz < 0 || flags.Fuzz > MaxFuzz {
		return nil, &CompileError{Expr: expr, Msg: "fuzz out of range", Err: ErrInvalidFuzz}
	}
	if int(FailState) >= bitset.Capacity || int(AcceptState) >= bitset.Capacity {
		return nil, &CompileError{Expr: expr, Msg: "sentinel state ids exceed bitset capacity", Err: ErrBitsetOverflow}
	}
	norm := strings.ToLower(stripSpaces(expr))

	b := newBuilder()
	p := &parser{src: []byte(norm), b: b}
	frag, err := p.parseAlt()
	if err != nil {
		if ce, ok := err.(*CompileError); ok {
			ce.Expr = expr
			ce.Pos = p.pos
		}
		return nil, err
	}
	if !p.eof() {
		return nil, &CompileError{Expr: expr, Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", p.peek())}
	}

	endID := b.reserveAtom()
	b.setAtomMask(endID, charclass.MaskOf(charclass.End))
	b.patch(endID, 0, AcceptState)
	b.patchAll(frag.out, endID)

	if len(b.states) >= int(AcceptState) {
		return nil, &CompileError{Expr: expr, Msg: "expression too large", Err: ErrStateOverflow}
	}

	explicitSpace := flags.ExplicitSpace || p.explicitSpace
	explicitPunct := flags.ExplicitPunct || p.explicitPunct
	applyImplicitLoops(b.states, explicitSpace, explicitPunct)
	computeClosures(b.states)

	return &Nfa{
		states: b.states,
		start:  frag.start,
		expr:   expr,
		flags: Flags{
			Fuzz:          flags.Fuzz,
			ExplicitSpace: explicitSpace,
			ExplicitPunct: explicitPunct,
		},
		literalRuns: extractLiteralRuns(norm),
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, flags Flags) *Nfa {
	n, err := Compile(expr, flags)
	if err != nil {
		panic(err)
	}
	return n
}

func stripSpaces(s string) string {
	if strings.IndexByte(s, ' ') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func applyImplicitLoops(states []nfaState, explicitSpace, explicitPunct bool) {
	var extra charclass.Mask
	if !explicitSpace {
		extra |= charclass.MaskOf(charclass.Space)
	}
	if !explicitPunct {
		extra |= charclass.MaskOf(charclass.Punct)
	}
	if extra == 0 {
		return
	}
	for i := range states {
		if states[i].kind != kindAtom {
			continue
		}
		states[i].edges[1] = edge{mask: extra, next: StateID(i)}
	}
}

// computeClosures fills in each state's epsilon-closure, then clears
// split states' edges: from this point on the closure field is the
// sole authority on which atoms/sentinels a given state reaches
// without consuming input.
func computeClosures(states []nfaState) {
	n := len(states)
	for i := 0; i < n; i++ {
		var visited bitset.Set
		visited.Add(i)
		stack := []StateID{StateID(i)}
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if int(s) >= n {
				continue
			}
			st := &states[s]
			if st.kind != kindSplit {
				continue
			}
			for _, e := range st.edges {
				if visited.Add(int(e.next)) {
					stack = append(stack, e.next)
				}
			}
		}
		states[i].closure = visited
	}
	for i := range states {
		if states[i].kind == kindSplit {
			states[i].edges = [2]edge{}
		}
	}
}

// parser implements the recursive-descent grammar:
//
//	expr  := alt
//	alt   := seq ('|' seq)*
//	seq   := quantified*
//	quantified := atom ('*' | '+' | '?' | '{' count '}')?
//	atom  := letter | '_' | '-' | '.' | '[' '^'? charset ']' | '(' expr ')'
type parser struct {
	src           []byte
	pos           int
	b             *builder
	explicitSpace bool
	explicitPunct bool
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() byte {
	c := p.peek()
	p.pos++
	return c
}

func (p *parser) parseAlt() (fragment, error) {
	first, err := p.parseSeq()
	if err != nil {
		return fragment{}, err
	}
	frags := []fragment{first}
	for !p.eof() && p.peek() == '|' {
		p.advance()
		next, err := p.parseSeq()
		if err != nil {
			return fragment{}, err
		}
		frags = append(frags, next)
	}
	return p.b.alt(frags), nil
}

func (p *parser) parseSeq() (fragment, error) {
	var frags []fragment
	for !p.eof() && p.peek() != '|' && p.peek() != ')' {
		f, err := p.parseQuantified()
		if err != nil {
			return fragment{}, err
		}
		frags = append(frags, f)
	}
	return p.b.concat(frags), nil
}

func (p *parser) parseQuantified() (fragment, error) {
	first, span, err := p.parseAtomNode()
	if err != nil {
		return fragment{}, err
	}
	if p.eof() {
		return first, nil
	}
	switch p.peek() {
	case '*':
		p.advance()
		return p.b.star(first), nil
	case '+':
		p.advance()
		return p.b.plus(first), nil
	case '?':
		p.advance()
		return p.b.quest(first), nil
	case '{':
		p.advance()
		m, n, err := p.parseCount()
		if err != nil {
			return fragment{}, err
		}
		return p.b.repeatRange(func() fragment { return p.recompile(span) }, first, m, n)
	}
	return first, nil
}

func (p *parser) recompile(span []byte) fragment {
	sub := &parser{src: span, b: p.b}
	f, _, err := sub.parseAtomNode()
	if err != nil {
		panic("nx: internal error re-parsing repeated atom: " + err.Error())
	}
	if sub.explicitSpace {
		p.explicitSpace = true
	}
	if sub.explicitPunct {
		p.explicitPunct = true
	}
	return f
}

func (p *parser) parseAtomNode() (fragment, []byte, error) {
	start := p.pos
	if p.eof() {
		return fragment{}, nil, &CompileError{Pos: p.pos, Msg: "expression ends with nothing to match"}
	}
	c := p.advance()
	switch {
	case c == '_':
		p.explicitSpace = true
		return p.b.atom(charclass.MaskOf(charclass.Space)), p.src[start:p.pos], nil
	case c == '-':
		p.explicitPunct = true
		return p.b.atom(charclass.MaskOf(charclass.Punct)), p.src[start:p.pos], nil
	case c == '.':
		return p.b.atom(charclass.LetterMask), p.src[start:p.pos], nil
	case c == '(':
		inner, err := p.parseAlt()
		if err != nil {
			return fragment{}, nil, err
		}
		if p.eof() || p.peek() != ')' {
			return fragment{}, nil, &CompileError{Pos: p.pos, Msg: "unterminated ("}
		}
		p.advance()
		return inner, p.src[start:p.pos], nil
	case c == '[':
		mask, err := p.parseCharClass()
		if err != nil {
			return fragment{}, nil, err
		}
		return p.b.atom(mask), p.src[start:p.pos], nil
	case c >= 'a' && c <= 'z':
		return p.b.atom(charclass.MaskOf(charclass.A + charclass.Class(c-'a'))), p.src[start:p.pos], nil
	default:
		return fragment{}, nil, &CompileError{Pos: p.pos - 1, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
}

func (p *parser) parseCharClass() (charclass.Mask, error) {
	neg := false
	if !p.eof() && p.peek() == '^' {
		neg = true
		p.advance()
	}
	var mask charclass.Mask
	any := false
	for {
		if p.eof() {
			return 0, &CompileError{Pos: p.pos, Msg: "unterminated ["}
		}
		c := p.advance()
		if c == ']' {
			break
		}
		if c < 'a' || c > 'z' {
			return 0, &CompileError{Pos: p.pos - 1, Msg: fmt.Sprintf("illegal character %q in class", c)}
		}
		mask |= charclass.MaskOf(charclass.A + charclass.Class(c-'a'))
		any = true
	}
	if !any {
		return 0, &CompileError{Pos: p.pos, Msg: "empty character class"}
	}
	if neg {
		mask = charclass.LetterMask &^ mask
	}
	return mask, nil
}

func (p *parser) parseCount() (m, n int, err error) {
	hasFirst, first := p.readNumber()
	if !p.eof() && p.peek() == ',' {
		p.advance()
		hasSecond, second := p.readNumber()
		if p.eof() || p.peek() != '}' {
			return 0, 0, &CompileError{Pos: p.pos, Msg: "unterminated {"}
		}
		p.advance()
		switch {
		case hasFirst && hasSecond:
			return first, second, nil
		case hasFirst && !hasSecond:
			return first, unbounded, nil
		case !hasFirst && hasSecond:
			return 0, second, nil
		default:
			return 0, 0, &CompileError{Pos: p.pos, Msg: "empty repetition count"}
		}
	}
	if hasFirst && !p.eof() && p.peek() == '}' {
		p.advance()
		return first, first, nil
	}
	return 0, 0, &CompileError{Pos: p.pos, Msg: "unterminated {"}
}

func (p *parser) readNumber() (bool, int) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.advance()
	}
	if p.pos == start {
		return false, 0
	}
	n := 0
	for _, c := range p.src[start:p.pos] {
		n = n*10 + int(c-'0')
	}
	if n > 255 {
		n = 255
	}
	return true, n
}
