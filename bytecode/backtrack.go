package bytecode

import (
	"bytes"
	"time"

	"github.com/obinexus/monoglot-rift-sub000/captures"
	"github.com/obinexus/monoglot-rift-sub000/policy"
)

// Outcome is a backtracking match attempt's terminal state, mirroring the
// per-attempt state machine spec.md §4.5 describes (Accepted / Failed /
// Aborted; Ready/Bound/Running are the caller's scan-loop concern, not
// this executor's).
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeFailed
	OutcomeAborted
)

// RunBacktrack executes p against input starting at pos using the bounded
// backtracking stack model (spec.md §4.4's fallback path for patterns
// with backreferences or look-around). The recursive call stack plays the
// role of the explicit backtracking stack: each SPLIT pushes a choice
// point (the alternative branch, with a snapshot of the capture table to
// restore on undo) and returns upward on FAIL.
func RunBacktrack(p *Program, input []byte, pos int, limits policy.LimitConfig, manager *policy.Manager) (*ThreadResult, Outcome) {
	caps := captures.New(p.GroupCount, nil)
	caps.Starts[0] = pos
	state := &policy.BacktrackState{InputLen: len(input), CurrentPos: pos, StartedAt: time.Now()}

	ok, end, resultCaps, aborted := step(p, input, 0, pos, caps, state, limits, manager)
	switch {
	case aborted:
		return nil, OutcomeAborted
	case ok:
		resultCaps.Ends[0] = end
		return &ThreadResult{Start: resultCaps.Starts[0], End: end, Captures: resultCaps}, OutcomeAccepted
	default:
		return nil, OutcomeFailed
	}
}

// step advances one instruction, returning whether the path from here
// reaches ACCEPT, the position it accepted at, the winning capture table,
// and whether a policy bailout fired along the way.
func step(p *Program, input []byte, pc int32, pos int, caps *captures.Table, state *policy.BacktrackState, limits policy.LimitConfig, manager *policy.Manager) (matched bool, end int, result *captures.Table, aborted bool) {
	state.Transitions++
	state.CurrentPos = pos
	if state.Exceeds(limits) {
		return false, 0, nil, true
	}
	if manager != nil {
		if action, fired := manager.Evaluate(state); fired && action == policy.ActionAbort {
			return false, 0, nil, true
		}
	}

	ins := p.Instructions[pc]
	switch ins.Op {
	case OpAccept:
		return true, pos, caps, false

	case OpFail:
		return false, 0, nil, false

	case OpJump:
		return step(p, input, ins.Target, pos, caps, state, limits, manager)

	case OpSplit:
		state.Depth++
		defer func() { state.Depth-- }()
		snapshot := caps.Clone()
		if ok, end, c, ab := step(p, input, pc+1, pos, caps, state, limits, manager); ok || ab {
			return ok, end, c, ab
		}
		return step(p, input, ins.Target, pos, snapshot, state, limits, manager)

	case OpMatchChar:
		if pos < len(input) && input[pos] == ins.Char {
			return step(p, input, p.Instructions[pc+1].Target, pos+1, caps, state, limits, manager)
		}
		return false, 0, nil, false

	case OpMatchClass:
		if pos < len(input) && p.ClassTable[ins.ClassIndex].Matches(input[pos]) {
			return step(p, input, p.Instructions[pc+1].Target, pos+1, caps, state, limits, manager)
		}
		return false, 0, nil, false

	case OpMatchAny:
		if pos < len(input) {
			return step(p, input, p.Instructions[pc+1].Target, pos+1, caps, state, limits, manager)
		}
		return false, 0, nil, false

	case OpSaveStart:
		c := caps.Clone()
		c.Starts[ins.Group] = pos
		return step(p, input, pc+1, pos, c, state, limits, manager)

	case OpSaveEnd:
		c := caps.Clone()
		c.Ends[ins.Group] = pos
		return step(p, input, pc+1, pos, c, state, limits, manager)

	case OpBoundary:
		if ins.Boundary == BoundaryKeepOut {
			c := caps.Clone()
			c.Starts[0] = pos
			return step(p, input, pc+1, pos, c, state, limits, manager)
		}
		if checkBoundary(ins.Boundary, input, pos) {
			return step(p, input, pc+1, pos, caps, state, limits, manager)
		}
		return false, 0, nil, false

	case OpBackref:
		// A backreference to a group that never captured on the winning
		// path is treated as matching the empty string: spec.md's open
		// question leaves this choice to the implementation, requiring
		// only that it be deterministic.
		s, e, ok := caps.Group(int(ins.Group))
		if !ok {
			return step(p, input, p.Instructions[pc+1].Target, pos, caps, state, limits, manager)
		}
		want := input[s:e]
		if pos+len(want) <= len(input) && bytes.Equal(input[pos:pos+len(want)], want) {
			return step(p, input, p.Instructions[pc+1].Target, pos+len(want), caps, state, limits, manager)
		}
		return false, 0, nil, false

	case OpLookahead, OpNegLookahead:
		sub := p.SubPrograms[ins.SubProgram]
		matchedSub := runSub(sub, input, pos, limits, manager) != nil
		if matchedSub == (ins.Op == OpNegLookahead) {
			return false, 0, nil, false
		}
		return step(p, input, p.Instructions[pc+1].Target, pos, caps, state, limits, manager)

	case OpLookbehind, OpNegLookbehind:
		sub := p.SubPrograms[ins.SubProgram]
		matchedSub := matchesEndingAt(sub, input, pos, limits, manager)
		if matchedSub == (ins.Op == OpNegLookbehind) {
			return false, 0, nil, false
		}
		return step(p, input, p.Instructions[pc+1].Target, pos, caps, state, limits, manager)

	default:
		return false, 0, nil, false
	}
}

// runSub evaluates a look-ahead body's compiled sub-program starting
// exactly at pos, preferring the set-based executor when the body itself
// has no nested backreference/look-around.
func runSub(sub *Program, input []byte, pos int, limits policy.LimitConfig, manager *policy.Manager) *ThreadResult {
	if CanRunSet(sub) {
		return RunSet(sub, input, pos)
	}
	result, outcome := RunBacktrack(sub, input, pos, limits, manager)
	if outcome != OutcomeAccepted {
		return nil
	}
	return result
}

// matchesEndingAt reports whether sub matches some substring ending
// exactly at pos, scanning candidate start offsets backward from pos.
// This is the general (bounded-scan) implementation used when the
// look-behind body isn't provably fixed-width; callers that know the
// width may instead probe a single start offset directly.
func matchesEndingAt(sub *Program, input []byte, pos int, limits policy.LimitConfig, manager *policy.Manager) bool {
	for s := pos; s >= 0; s-- {
		r := runSub(sub, input[:pos], s, limits, manager)
		if r != nil && r.End == pos {
			return true
		}
	}
	return false
}
