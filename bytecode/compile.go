package bytecode

import (
	"sort"

	"github.com/obinexus/monoglot-rift-sub000/automaton"
)

// Compile lowers a built automaton into a flat Program, per spec.md §4.4:
// each reachable state becomes a labeled instruction block; accepting
// states emit ACCEPT; zero-transition states emit FAIL; epsilon branches
// collapse into SPLIT/JUMP; character-class transitions emit MATCH_CLASS
// (or MATCH_CHAR for a single exact byte); group markers emit
// SAVE_START/SAVE_END; the initial state's block becomes instruction 0.
func Compile(result *automaton.BuildResult, flags uint32, pattern string) (*Program, error) {
	prog := &Program{GroupCount: result.Automaton.GroupCount, CompileFlags: flags, Pattern: pattern}
	lookarounds := make(map[automaton.StateID]automaton.LookaroundInfo, len(result.Lookarounds))
	for _, l := range result.Lookarounds {
		lookarounds[l.State] = l
	}
	backrefs := make(map[automaton.StateID]automaton.BackrefInfo, len(result.Backrefs))
	for _, r := range result.Backrefs {
		backrefs[r.State] = r
	}

	c := &compiler{a: result.Automaton, prog: prog, addrOf: make(map[automaton.StateID]int32), lookarounds: lookarounds, backrefs: backrefs}
	c.compileState(result.Automaton.Initial)
	c.patch(prog.Instructions)

	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

type compiler struct {
	a           *automaton.Automaton
	prog        *Program
	addrOf      map[automaton.StateID]int32
	lookarounds map[automaton.StateID]automaton.LookaroundInfo
	backrefs    map[automaton.StateID]automaton.BackrefInfo
}

func placeholder(s automaton.StateID) int32 { return -(int32(s) + 1) }

func (c *compiler) emit(ins Instruction) int32 {
	idx := int32(len(c.prog.Instructions))
	c.prog.Instructions = append(c.prog.Instructions, ins)
	return idx
}

// patch resolves every placeholder Target/SubProgram-independent reference
// left by compileState into a real instruction address, now that every
// reachable state has an entry in addrOf.
func (c *compiler) patch(instrs []Instruction) {
	for i := range instrs {
		if instrs[i].Target < 0 {
			state := automaton.StateID(-instrs[i].Target - 1)
			instrs[i].Target = c.addrOf[state]
		}
	}
}

func boundaryKindOf(p automaton.PredicateKind) BoundaryKind {
	switch p {
	case automaton.PredStartOfLine:
		return BoundaryStartOfLine
	case automaton.PredEndOfLine:
		return BoundaryEndOfLine
	case automaton.PredStartOfText:
		return BoundaryStartOfText
	case automaton.PredEndOfText:
		return BoundaryEndOfText
	case automaton.PredWordBoundary:
		return BoundaryWordBoundary
	case automaton.PredNotWordBoundary:
		return BoundaryNotWordBoundary
	default:
		return BoundaryKeepOut
	}
}

func (c *compiler) compileState(s automaton.StateID) {
	if _, ok := c.addrOf[s]; ok {
		return
	}
	c.addrOf[s] = int32(len(c.prog.Instructions))
	st := c.a.States[s]

	switch {
	case st.Accept:
		c.emit(Instruction{Op: OpAccept})
		return

	case st.Save.IsSave:
		group := int32(st.Save.Slot / 2)
		op := OpSaveStart
		if st.Save.Slot%2 == 1 {
			op = OpSaveEnd
		}
		c.emit(Instruction{Op: op, Group: group})
		succ := c.singleSuccessor(s)
		c.emit(Instruction{Op: OpJump, Target: placeholder(succ)})
		c.compileState(succ)
		return

	case st.Predicate != automaton.PredNone:
		c.emit(Instruction{Op: OpBoundary, Boundary: boundaryKindOf(st.Predicate)})
		succ := c.singleSuccessor(s)
		c.emit(Instruction{Op: OpJump, Target: placeholder(succ)})
		c.compileState(succ)
		return
	}

	if info, ok := c.lookarounds[s]; ok {
		op := OpLookahead
		switch {
		case !info.Behind && info.Negative:
			op = OpNegLookahead
		case info.Behind && !info.Negative:
			op = OpLookbehind
		case info.Behind && info.Negative:
			op = OpNegLookbehind
		}
		sub, err := compileSub(info.Sub)
		subIdx := int32(len(c.prog.SubPrograms))
		if err == nil {
			c.prog.SubPrograms = append(c.prog.SubPrograms, sub)
		}
		c.emit(Instruction{Op: op, SubProgram: subIdx})
		succ := c.singleSuccessor(s)
		c.emit(Instruction{Op: OpJump, Target: placeholder(succ)})
		c.compileState(succ)
		return
	}

	if info, ok := c.backrefs[s]; ok {
		c.emit(Instruction{Op: OpBackref, Group: int32(info.Group)})
		succ := c.singleSuccessor(s)
		c.emit(Instruction{Op: OpJump, Target: placeholder(succ)})
		c.compileState(succ)
		return
	}

	if len(st.Transitions) == 0 {
		c.emit(Instruction{Op: OpFail})
		return
	}

	if c.allEpsilon(st) {
		targets := c.epsilonTargetsByPriority(st)
		if len(targets) == 1 {
			c.emit(Instruction{Op: OpJump, Target: placeholder(targets[0])})
			c.compileState(targets[0])
			return
		}
		c.emitSplitChain(targets)
		for _, t := range targets {
			c.compileState(t)
		}
		return
	}

	// Consuming state: every outgoing transition was sealed to the same
	// target by the Thompson construction, so we combine their byte
	// ranges into one class (or a bare MATCH_CHAR for a single exact
	// byte) and fall through (via JUMP) to that shared target.
	target := c.a.Transitions[st.Transitions[0]].To
	var ranges []ClassByteRange
	for _, ti := range st.Transitions {
		t := c.a.Transitions[ti]
		ranges = append(ranges, ClassByteRange{Lo: t.Lo, Hi: t.Hi})
	}
	if len(ranges) == 1 && ranges[0].Lo == ranges[0].Hi {
		c.emit(Instruction{Op: OpMatchChar, Char: ranges[0].Lo})
	} else {
		idx := int32(len(c.prog.ClassTable))
		c.prog.ClassTable = append(c.prog.ClassTable, ClassEntry{Ranges: mergeByteRanges(ranges)})
		c.emit(Instruction{Op: OpMatchClass, ClassIndex: idx})
	}
	c.emit(Instruction{Op: OpJump, Target: placeholder(target)})
	c.compileState(target)
}

func (c *compiler) singleSuccessor(s automaton.StateID) automaton.StateID {
	st := c.a.States[s]
	if len(st.Transitions) == 0 {
		return s
	}
	return c.a.Transitions[st.Transitions[0]].To
}

func (c *compiler) allEpsilon(st automaton.State) bool {
	for _, ti := range st.Transitions {
		if !c.a.Transitions[ti].Epsilon {
			return false
		}
	}
	return true
}

// epsilonTargetsByPriority returns st's epsilon successors ordered highest
// priority first, which is how greedy ("try more") vs. reluctant ("try
// exit") preference is made deterministic in the emitted SPLIT chain.
func (c *compiler) epsilonTargetsByPriority(st automaton.State) []automaton.StateID {
	type pt struct {
		to       automaton.StateID
		priority int32
		order    int
	}
	pts := make([]pt, len(st.Transitions))
	for i, ti := range st.Transitions {
		t := c.a.Transitions[ti]
		pts[i] = pt{to: t.To, priority: t.Priority, order: i}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].priority > pts[j].priority })
	out := make([]automaton.StateID, len(pts))
	for i, p := range pts {
		out[i] = p.to
	}
	return out
}

// emitSplitChain lowers an N-way epsilon fan-out into N-1 contiguous
// SPLIT/JUMP pairs: each SPLIT's fall-through (the JUMP right after it)
// targets the corresponding preferred branch, while its Target operand
// hands control to the rest of the chain.
func (c *compiler) emitSplitChain(targets []automaton.StateID) {
	for i := 0; i < len(targets)-1; i++ {
		splitIdx := int32(len(c.prog.Instructions))
		var chainTarget int32
		if i == len(targets)-2 {
			chainTarget = placeholder(targets[len(targets)-1])
		} else {
			chainTarget = splitIdx + 2
		}
		c.emit(Instruction{Op: OpSplit, Target: chainTarget})
		c.emit(Instruction{Op: OpJump, Target: placeholder(targets[i])})
	}
}

func mergeByteRanges(ranges []ClassByteRange) []ClassByteRange {
	if len(ranges) == 0 {
		return ranges
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
	out := []ClassByteRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if int(r.Lo) <= int(last.Hi)+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// compileSub compiles a look-around body's automaton into its own
// self-contained Program (no pattern string of its own — SubPrograms are
// addressed only by index, never serialized standalone).
func compileSub(a *automaton.Automaton) (*Program, error) {
	result := &automaton.BuildResult{Automaton: a}
	return Compile(result, 0, "")
}
