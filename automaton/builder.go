package automaton

import (
	"fmt"

	"github.com/obinexus/monoglot-rift-sub000/ast"
)

// BuildOptions carries the pattern-level flags the builder needs in order
// to lower case-insensitivity, multiline anchors, and dot-all into
// transitions and predicates.
type BuildOptions struct {
	CaseInsensitive bool
	Multiline       bool
	DotAll          bool
	MaxStates       int // 0 means unlimited
}

// frag is a Thompson-construction fragment: an entry state and a list of
// "dangling" transition indices whose To field is InvalidState until the
// fragment is spliced into a larger one.
type frag struct {
	start  StateID
	outs   []int32 // transition indices awaiting a To
	accept StateID // not read by the builder; seal's assignment reaches only its local copy
}

type builder struct {
	a                          *Automaton
	opt                        BuildOptions
	hasBackref                 bool
	hasVariableWidthLookbehind bool
	lookarounds                []lookaroundInfo
	backrefs                   []backrefInfo
}

// BuildResult carries the automaton plus the two facts the determinizer
// needs to decide whether subset construction is even legal, per spec.md
// §4.3 ("Determinization is skipped if the input contains features
// incompatible with DFA execution").
type BuildResult struct {
	Automaton                  *Automaton
	HasBackreferences          bool
	HasVariableWidthLookbehind bool
	Lookarounds                []LookaroundInfo
	Backrefs                   []BackrefInfo
}

// LookaroundInfo exposes a look-around marker state's metadata to the
// bytecode compiler (exported mirror of the builder's internal type).
type LookaroundInfo struct {
	State    StateID
	Sub      *Automaton
	Negative bool
	Behind   bool
}

// BackrefInfo exposes a backreference marker state's metadata to the
// bytecode compiler.
type BackrefInfo struct {
	State StateID
	Group int
}

// Build lowers an AST into an NFA via Thompson's construction.
func Build(root *ast.Node, groupCount int, opt BuildOptions) (*BuildResult, error) {
	b := &builder{a: New(KindNFA), opt: opt}
	b.a.GroupCount = groupCount

	start := b.a.AddState()
	f, err := b.compile(root)
	if err != nil {
		return nil, err
	}
	// Link the start state to the pattern's entry. No save states are added
	// for group 0; the executors record its span themselves.
	b.a.AddTransition(Transition{From: start, To: f.start, Epsilon: true, Priority: 0})
	accept := b.a.AddState()
	b.a.States[accept].Accept = true
	b.seal(f, accept)

	b.a.Initial = start
	if b.opt.MaxStates > 0 && b.a.NumStates() > b.opt.MaxStates {
		return nil, fmt.Errorf("automaton: state count %d exceeds max_states %d", b.a.NumStates(), b.opt.MaxStates)
	}
	if err := b.a.Validate(); err != nil {
		return nil, err
	}
	result := &BuildResult{
		Automaton:                  b.a,
		HasBackreferences:          b.hasBackref,
		HasVariableWidthLookbehind: b.hasVariableWidthLookbehind,
	}
	for _, l := range b.lookarounds {
		result.Lookarounds = append(result.Lookarounds, LookaroundInfo{State: l.state, Sub: l.sub, Negative: l.negative, Behind: l.behind})
	}
	for _, r := range b.backrefs {
		result.Backrefs = append(result.Backrefs, BackrefInfo{State: r.state, Group: r.group})
	}
	return result, nil
}

// seal points every dangling transition in f at target. f is passed by
// value, so the accept assignment below changes only seal's own copy, not
// the caller's frag.
func (b *builder) seal(f frag, target StateID) {
	for _, ti := range f.outs {
		b.a.Transitions[ti].To = target
	}
	f.accept = target
}

func (b *builder) newEpsilon(from StateID) (StateID, int32) {
	// Epsilon transitions are added with a placeholder To of InvalidState
	// and fixed up by seal once the successor fragment is known.
	ti := int32(len(b.a.Transitions))
	b.a.Transitions = append(b.a.Transitions, Transition{From: from, To: InvalidState, Epsilon: true})
	b.a.States[from].Transitions = append(b.a.States[from].Transitions, ti)
	return InvalidState, ti
}

func (b *builder) compile(n *ast.Node) (frag, error) {
	switch n.Kind {
	case ast.KindLiteral:
		return b.compileLiteral(n)
	case ast.KindAnyChar:
		return b.compileAnyChar(n)
	case ast.KindClass:
		return b.compileClass(n)
	case ast.KindConcat:
		return b.compileConcat(n)
	case ast.KindAlternate:
		return b.compileAlternate(n)
	case ast.KindQuantifier:
		return b.compileQuantifier(n)
	case ast.KindGroup:
		return b.compileGroup(n)
	case ast.KindAnchor:
		return b.compileAnchor(n)
	case ast.KindBackref:
		return b.compileBackref(n)
	default:
		return frag{}, fmt.Errorf("automaton: unknown AST node kind %d", n.Kind)
	}
}

func (b *builder) compileByteRange(lo, hi byte) frag {
	from := b.a.AddState()
	ti := b.a.AddTransition(Transition{From: from, To: InvalidState, Lo: lo, Hi: hi})
	return frag{start: from, outs: []int32{ti}}
}

func (b *builder) compileLiteral(n *ast.Node) (frag, error) {
	if b.opt.CaseInsensitive {
		lo, hi := foldCase(n.Lit)
		return b.compileRuneRanges([]ast.ClassRange{{lo, lo}, {hi, hi}}, false)
	}
	return b.compileRuneRanges([]ast.ClassRange{{n.Lit, n.Lit}}, false)
}

func (b *builder) compileAnyChar(n *ast.Node) (frag, error) {
	if b.opt.DotAll {
		return b.compileByteRange(0x00, 0xFF), nil
	}
	// Exclude '\n' unless DotAll.
	from := b.a.AddState()
	t1 := b.a.AddTransition(Transition{From: from, To: InvalidState, Lo: 0x00, Hi: 0x09})
	t2 := b.a.AddTransition(Transition{From: from, To: InvalidState, Lo: 0x0B, Hi: 0xFF})
	return frag{start: from, outs: []int32{t1, t2}}, nil
}

func (b *builder) compileRuneRanges(ranges []ast.ClassRange, negated bool) (frag, error) {
	effective := ranges
	if negated {
		effective = invertForClass(ranges)
	}
	from := b.a.AddState()
	var outs []int32
	for _, r := range effective {
		for _, br := range runeRangeToByteRanges(r.Lo, r.Hi) {
			ti := b.a.AddTransition(Transition{From: from, To: InvalidState, Lo: br.lo, Hi: br.hi})
			outs = append(outs, ti)
		}
	}
	if len(outs) == 0 {
		// An empty class never matches: FAIL state with no transitions.
		fail := b.a.AddState()
		return frag{start: fail, outs: nil}, nil
	}
	return frag{start: from, outs: outs}, nil
}

func (b *builder) compileClass(n *ast.Node) (frag, error) {
	ranges := n.Ranges
	if b.opt.CaseInsensitive {
		ranges = expandCaseFold(ranges)
	}
	return b.compileRuneRanges(ranges, n.Negated)
}

func (b *builder) compileConcat(n *ast.Node) (frag, error) {
	if len(n.Children) == 0 {
		// Empty match: a state with a single epsilon out-edge.
		from := b.a.AddState()
		_, ti := b.newEpsilon(from)
		return frag{start: from, outs: []int32{ti}}, nil
	}
	first, err := b.compile(n.Children[0])
	if err != nil {
		return frag{}, err
	}
	cur := first
	for _, child := range n.Children[1:] {
		next, err := b.compile(child)
		if err != nil {
			return frag{}, err
		}
		b.seal(cur, next.start)
		cur = frag{start: cur.start, outs: next.outs}
	}
	return cur, nil
}

func (b *builder) compileAlternate(n *ast.Node) (frag, error) {
	entry := b.a.AddState()
	var outs []int32
	for i, alt := range n.Children {
		f, err := b.compile(alt)
		if err != nil {
			return frag{}, err
		}
		ti := int32(len(b.a.Transitions))
		b.a.Transitions = append(b.a.Transitions, Transition{From: entry, To: f.start, Epsilon: true, Priority: int32(len(n.Children) - i)})
		b.a.States[entry].Transitions = append(b.a.States[entry].Transitions, ti)
		outs = append(outs, f.outs...)
	}
	return frag{start: entry, outs: outs}, nil
}

// compileQuantifier unrolls min required copies, then max-min optional
// copies gated by SPLIT-equivalent epsilon fan-out whose transition
// priority encodes greediness: greedy prefers "try more" (the repeat
// body), reluctant prefers "try exit" (skip straight out).
func (b *builder) compileQuantifier(n *ast.Node) (frag, error) {
	if n.Min == 0 && n.Max == 0 {
		from := b.a.AddState()
		_, ti := b.newEpsilon(from)
		return frag{start: from, outs: []int32{ti}}, nil
	}

	var pieces []frag
	for i := 0; i < n.Min; i++ {
		f, err := b.compile(n.Child)
		if err != nil {
			return frag{}, err
		}
		pieces = append(pieces, f)
	}

	if n.Max == -1 {
		// min required copies followed by a Kleene star on one more copy
		// of the child (so (a+)+ style nesting still terminates cleanly).
		star, err := b.compileStar(n.Child, n.Greedy)
		if err != nil {
			return frag{}, err
		}
		pieces = append(pieces, star)
	} else {
		for i := n.Min; i < n.Max; i++ {
			opt, err := b.compileOptional(n.Child, n.Greedy)
			if err != nil {
				return frag{}, err
			}
			pieces = append(pieces, opt)
		}
	}

	if len(pieces) == 0 {
		from := b.a.AddState()
		_, ti := b.newEpsilon(from)
		return frag{start: from, outs: []int32{ti}}, nil
	}
	cur := pieces[0]
	for _, next := range pieces[1:] {
		b.seal(cur, next.start)
		cur = frag{start: cur.start, outs: next.outs}
	}
	return cur, nil
}

func (b *builder) compileStar(child *ast.Node, greedy bool) (frag, error) {
	entry := b.a.AddState()
	f, err := b.compile(child)
	if err != nil {
		return frag{}, err
	}
	bodyEnter := int32(len(b.a.Transitions))
	exitT := int32(len(b.a.Transitions)) + 1
	if greedy {
		b.a.Transitions = append(b.a.Transitions,
			Transition{From: entry, To: f.start, Epsilon: true, Priority: 1},
			Transition{From: entry, To: InvalidState, Epsilon: true, Priority: 0})
	} else {
		b.a.Transitions = append(b.a.Transitions,
			Transition{From: entry, To: InvalidState, Epsilon: true, Priority: 1},
			Transition{From: entry, To: f.start, Epsilon: true, Priority: 0})
		bodyEnter, exitT = exitT, bodyEnter
	}
	b.a.States[entry].Transitions = append(b.a.States[entry].Transitions, bodyEnter, exitT)
	b.seal(f, entry) // loop back
	return frag{start: entry, outs: []int32{exitT}}, nil
}

func (b *builder) compileOptional(child *ast.Node, greedy bool) (frag, error) {
	entry := b.a.AddState()
	f, err := b.compile(child)
	if err != nil {
		return frag{}, err
	}
	var tryMore, tryExit int32
	if greedy {
		tryMore = int32(len(b.a.Transitions))
		b.a.Transitions = append(b.a.Transitions, Transition{From: entry, To: f.start, Epsilon: true, Priority: 1})
		tryExit = int32(len(b.a.Transitions))
		b.a.Transitions = append(b.a.Transitions, Transition{From: entry, To: InvalidState, Epsilon: true, Priority: 0})
	} else {
		tryExit = int32(len(b.a.Transitions))
		b.a.Transitions = append(b.a.Transitions, Transition{From: entry, To: InvalidState, Epsilon: true, Priority: 1})
		tryMore = int32(len(b.a.Transitions))
		b.a.Transitions = append(b.a.Transitions, Transition{From: entry, To: f.start, Epsilon: true, Priority: 0})
	}
	b.a.States[entry].Transitions = append(b.a.States[entry].Transitions, tryMore, tryExit)
	outs := append([]int32{tryExit}, f.outs...)
	return frag{start: entry, outs: outs}, nil
}

func (b *builder) compileGroup(n *ast.Node) (frag, error) {
	switch n.GroupVariant {
	case ast.GroupCapturing:
		return b.compileCapturingGroup(n)
	case ast.GroupNonCapturing, ast.GroupAtomic:
		// Atomic groups compile exactly like non-capturing groups: no
		// marker or predicate is added for them, so the executors may
		// still backtrack into an atomic group.
		return b.compile(n.GroupChild)
	case ast.GroupLookaheadPos, ast.GroupLookaheadNeg:
		return b.compileLookaround(n, false)
	case ast.GroupLookbehindPos, ast.GroupLookbehindNeg:
		return b.compileLookaround(n, true)
	default:
		return frag{}, fmt.Errorf("automaton: unknown group variant %d", n.GroupVariant)
	}
}

func (b *builder) compileCapturingGroup(n *ast.Node) (frag, error) {
	openState := b.a.AddState()
	b.a.States[openState].Save = SaveMarker{IsSave: true, Slot: 2 * n.GroupIndex}
	_, openTi := b.newEpsilon(openState)

	inner, err := b.compile(n.GroupChild)
	if err != nil {
		return frag{}, err
	}
	b.a.Transitions[openTi].To = inner.start

	closeState := b.a.AddState()
	b.a.States[closeState].Save = SaveMarker{IsSave: true, Slot: 2*n.GroupIndex + 1}
	b.seal(inner, closeState)
	_, closeTi := b.newEpsilon(closeState)

	return frag{start: openState, outs: []int32{closeTi}}, nil
}

// compileLookaround compiles a look-around's body as a nested automaton
// referenced from a predicate-carrying marker state; the bytecode compiler
// lowers this marker into a LOOKAHEAD/NEG_LOOKAHEAD or LOOKBEHIND/
// NEG_LOOKBEHIND instruction; the backtracking executor checks a
// look-behind by trying every start offset back from the current position.
// Variable-width lookbehind is flagged via hasVariableWidthLookbehind, which
// keeps the pattern off the DFA path; it is not rejected.
func (b *builder) compileLookaround(n *ast.Node, behind bool) (frag, error) {
	if behind {
		width, fixed := fixedWidth(n.GroupChild)
		if !fixed {
			b.hasVariableWidthLookbehind = true
		}
		_ = width
	}
	inner, err := Build(n.GroupChild, b.a.GroupCount, b.opt)
	if err != nil {
		return frag{}, err
	}
	if inner.HasBackreferences {
		b.hasBackref = true
	}
	marker := b.a.AddState()
	negative := n.GroupVariant == ast.GroupLookaheadNeg || n.GroupVariant == ast.GroupLookbehindNeg
	b.lookarounds = append(b.lookarounds, lookaroundInfo{
		state:    marker,
		sub:      inner.Automaton,
		negative: negative,
		behind:   behind,
	})
	_, ti := b.newEpsilon(marker)
	return frag{start: marker, outs: []int32{ti}}, nil
}

// lookaroundInfo is recorded per marker state so the bytecode compiler can
// find the nested sub-automaton for a given marker without re-walking the
// AST.
type lookaroundInfo struct {
	state    StateID
	sub      *Automaton
	negative bool
	behind   bool
}

func (b *builder) compileAnchor(n *ast.Node) (frag, error) {
	from := b.a.AddState()
	switch n.Anchor {
	case ast.AnchorStartOfLine:
		b.a.States[from].Predicate = PredStartOfLine
	case ast.AnchorEndOfLine:
		b.a.States[from].Predicate = PredEndOfLine
	case ast.AnchorStartOfText:
		b.a.States[from].Predicate = PredStartOfText
	case ast.AnchorEndOfText:
		b.a.States[from].Predicate = PredEndOfText
	case ast.AnchorWordBoundary:
		b.a.States[from].Predicate = PredWordBoundary
	case ast.AnchorNotWordBoundary:
		b.a.States[from].Predicate = PredNotWordBoundary
	case ast.AnchorKeepOut:
		b.a.States[from].Predicate = PredKeepOut
	}
	_, ti := b.newEpsilon(from)
	return frag{start: from, outs: []int32{ti}}, nil
}

func (b *builder) compileBackref(n *ast.Node) (frag, error) {
	b.hasBackref = true
	from := b.a.AddState()
	b.backrefs = append(b.backrefs, backrefInfo{state: from, group: n.RefIndex})
	_, ti := b.newEpsilon(from)
	return frag{start: from, outs: []int32{ti}}, nil
}

type backrefInfo struct {
	state StateID
	group int
}

// fixedWidth reports the exact byte width of a subtree's matches if every
// path through it consumes the same number of bytes, which is what a
// lookbehind needs in order to be checkable by scanning backward a fixed
// distance.
func fixedWidth(n *ast.Node) (width int, fixed bool) {
	switch n.Kind {
	case ast.KindLiteral:
		return len(string(n.Lit)), true
	case ast.KindAnyChar, ast.KindClass:
		return 1, true
	case ast.KindAnchor:
		return 0, true
	case ast.KindConcat:
		total := 0
		for _, ch := range n.Children {
			w, ok := fixedWidth(ch)
			if !ok {
				return 0, false
			}
			total += w
		}
		return total, true
	case ast.KindAlternate:
		if len(n.Children) == 0 {
			return 0, true
		}
		first, ok := fixedWidth(n.Children[0])
		if !ok {
			return 0, false
		}
		for _, ch := range n.Children[1:] {
			w, ok := fixedWidth(ch)
			if !ok || w != first {
				return 0, false
			}
		}
		return first, true
	case ast.KindQuantifier:
		if n.Min != n.Max || n.Max == -1 {
			return 0, false
		}
		w, ok := fixedWidth(n.Child)
		if !ok {
			return 0, false
		}
		return w * n.Min, true
	case ast.KindGroup:
		return fixedWidth(n.GroupChild)
	default:
		return 0, false
	}
}
