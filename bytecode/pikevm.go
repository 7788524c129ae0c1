package bytecode

import (
	"github.com/obinexus/monoglot-rift-sub000/captures"
)

// ThreadResult is the outcome of a set-based run: the winning thread's
// capture table, or nil if no thread reached ACCEPT.
type ThreadResult struct {
	Start, End int
	Captures   *captures.Table
}

// thread is one member of the active set: an instruction pointer plus the
// capture table it has accumulated along its path.
type thread struct {
	pc   int32
	caps *captures.Table
}

// RunSet executes p against input starting at pos using the set-based
// (Pike-VM) model spec.md §4.4 describes: at each input position a set of
// active instruction pointers steps together, SPLIT forks the set,
// MATCH_CHAR/MATCH_CLASS/MATCH_ANY survive iff the current byte matches,
// ACCEPT records a match, FAIL drops the thread. Every thread starts at pos
// and the longest accepted match wins; SPLIT priority order plays no part
// in choosing among accepting threads. It must not be used when the program
// contains BACKREF or look-around instructions — CanRunSet reports this.
func RunSet(p *Program, input []byte, pos int) *ThreadResult {
	groupCount := p.GroupCount
	var best *ThreadResult

	cur := []thread{{pc: 0, caps: captures.New(groupCount, nil)}}
	cur[0].caps.Starts[0] = pos

	for {
		cur = closeEpsilons(p, input, cur, pos)

		var surviving []thread
		var nextByte byte
		hasByte := pos < len(input)
		if hasByte {
			nextByte = input[pos]
		}

		// A MATCH_* instruction is always immediately followed by the JUMP
		// compile.go emits for its fall-through target (see compile.go's
		// consuming-state case), so a surviving thread's next pc is that
		// JUMP's already-resolved Target.
		for _, th := range cur {
			ins := p.Instructions[th.pc]
			switch ins.Op {
			case OpAccept:
				c := th.caps.Clone()
				c.Ends[0] = pos
				if best == nil || c.Starts[0] < best.Start || (c.Starts[0] == best.Start && pos > best.End) {
					best = &ThreadResult{Start: c.Starts[0], End: pos, Captures: c}
				}
			case OpMatchChar:
				if hasByte && nextByte == ins.Char {
					surviving = append(surviving, thread{pc: p.Instructions[th.pc+1].Target, caps: th.caps})
				}
			case OpMatchClass:
				if hasByte && p.ClassTable[ins.ClassIndex].Matches(nextByte) {
					surviving = append(surviving, thread{pc: p.Instructions[th.pc+1].Target, caps: th.caps})
				}
			case OpMatchAny:
				if hasByte {
					surviving = append(surviving, thread{pc: p.Instructions[th.pc+1].Target, caps: th.caps})
				}
			}
		}
		if !hasByte || len(surviving) == 0 {
			break
		}
		cur = surviving
		pos++
	}
	return best
}

// closeEpsilons follows JUMP/SPLIT/SAVE_START/SAVE_END/BOUNDARY chains
// from every seed thread until each lands on a consuming instruction or
// ACCEPT, preserving SPLIT priority order (earlier-added threads are
// preferred) and de-duplicating by instruction pointer so the active set
// never grows unbounded on a single input position.
func closeEpsilons(p *Program, input []byte, seeds []thread, pos int) []thread {
	var out []thread
	visited := make(map[int32]bool)
	var walk func(th thread)
	walk = func(th thread) {
		if visited[th.pc] {
			return
		}
		visited[th.pc] = true
		ins := p.Instructions[th.pc]
		switch ins.Op {
		case OpJump:
			walk(thread{pc: ins.Target, caps: th.caps})
		case OpSplit:
			walk(thread{pc: th.pc + 1, caps: th.caps})
			walk(thread{pc: ins.Target, caps: th.caps.Clone()})
		case OpSaveStart:
			c := th.caps.Clone()
			c.Starts[ins.Group] = pos
			walk(thread{pc: th.pc + 1, caps: c})
		case OpSaveEnd:
			c := th.caps.Clone()
			c.Ends[ins.Group] = pos
			walk(thread{pc: th.pc + 1, caps: c})
		case OpBoundary:
			if ins.Boundary == BoundaryKeepOut {
				c := th.caps.Clone()
				c.Starts[0] = pos
				walk(thread{pc: th.pc + 1, caps: c})
				return
			}
			if checkBoundary(ins.Boundary, input, pos) {
				walk(thread{pc: th.pc + 1, caps: th.caps})
			}
		default:
			out = append(out, th)
		}
	}
	for _, s := range seeds {
		walk(s)
	}
	return out
}

func isWordByte(b byte, ok bool) bool {
	if !ok {
		return false
	}
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// checkBoundary evaluates a zero-width assertion against the input bytes
// surrounding pos. BoundaryKeepOut (\K) is handled separately by the
// caller, since it mutates the capture table rather than gating threads.
func checkBoundary(kind BoundaryKind, input []byte, pos int) bool {
	before, hasBefore := byte(0), pos > 0
	if hasBefore {
		before = input[pos-1]
	}
	after, hasAfter := byte(0), pos < len(input)
	if hasAfter {
		after = input[pos]
	}
	switch kind {
	case BoundaryStartOfText:
		return pos == 0
	case BoundaryEndOfText:
		return pos == len(input)
	case BoundaryStartOfLine:
		return pos == 0 || before == '\n'
	case BoundaryEndOfLine:
		return pos == len(input) || after == '\n'
	case BoundaryWordBoundary:
		return isWordByte(before, hasBefore) != isWordByte(after, hasAfter)
	case BoundaryNotWordBoundary:
		return isWordByte(before, hasBefore) == isWordByte(after, hasAfter)
	default:
		return true
	}
}

// CanRunSet reports whether a program is safe for the set-based executor:
// it must contain no BACKREF, LOOKAHEAD/NEG_LOOKAHEAD, or LOOKBEHIND/
// NEG_LOOKBEHIND instructions, since those need per-thread backtracking
// or nested-program evaluation the flat thread set cannot express.
func CanRunSet(p *Program) bool {
	for _, ins := range p.Instructions {
		switch ins.Op {
		case OpBackref, OpLookahead, OpNegLookahead, OpLookbehind, OpNegLookbehind:
			return false
		}
	}
	return true
}
