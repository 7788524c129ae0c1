package bytecode

// Optimize runs the post-lowering cleanup pass spec.md §4.4 calls for:
// remove NOP, fold consecutive JUMP chains, dedupe equivalent tails. It
// must not change observable match semantics or the relative order of
// SPLIT branches, so it never reorders instructions — only removes dead
// ones and retargets jumps that point at other jumps.
func Optimize(p *Program) {
	foldJumpChains(p)
	removeNOPs(p)
	dedupeTails(p)
}

// foldJumpChains retargets every Target operand that points at a JUMP
// instruction to that JUMP's own target, repeating until stable (bounded
// by instruction count so a cyclic JUMP chain — which a well-formed
// program never produces — can't spin forever).
func foldJumpChains(p *Program) {
	resolve := func(target int32) int32 {
		seen := make(map[int32]bool)
		for {
			if target < 0 || int(target) >= len(p.Instructions) {
				return target
			}
			if seen[target] {
				return target
			}
			seen[target] = true
			ins := p.Instructions[target]
			if ins.Op != OpJump {
				return target
			}
			target = ins.Target
		}
	}
	for i, ins := range p.Instructions {
		switch ins.Op {
		case OpJump, OpSplit:
			p.Instructions[i].Target = resolve(ins.Target)
		}
	}
	for i := range p.SubPrograms {
		Optimize(p.SubPrograms[i])
	}
}

// removeNOPs deletes every NOP instruction and every JUMP whose target is
// literally the next instruction (a no-op fall-through), except a JUMP that
// directly follows a MATCH_*, BACKREF or look-around instruction: the
// executors read that instruction's successor from the JUMP at pc+1, so it
// stays even when it only falls through. It renumbers every
// Target operand across the whole program (and nested SubPrograms are
// unaffected, since they're optimized independently and addressed only by
// SubProgram index, not by instruction offset).
func removeNOPs(p *Program) {
	n := len(p.Instructions)
	keep := make([]bool, n)
	for i, ins := range p.Instructions {
		switch {
		case ins.Op == OpNOP:
			keep[i] = false
		case ins.Op == OpJump && ins.Target == int32(i+1):
			keep[i] = false
			if i > 0 {
				switch p.Instructions[i-1].Op {
				case OpMatchChar, OpMatchClass, OpMatchAny, OpBackref,
					OpLookahead, OpNegLookahead, OpLookbehind, OpNegLookbehind:
					keep[i] = true
				}
			}
		default:
			keep[i] = true
		}
	}
	newIndex := make([]int32, n)
	next := int32(0)
	for i := 0; i < n; i++ {
		if keep[i] {
			newIndex[i] = next
			next++
		}
	}
	out := make([]Instruction, 0, next)
	for i, ins := range p.Instructions {
		if !keep[i] {
			continue
		}
		if ins.Op == OpJump || ins.Op == OpSplit {
			ins.Target = remapTarget(ins.Target, keep, newIndex, n)
		}
		out = append(out, ins)
	}
	p.Instructions = out
}

// remapTarget follows a dropped instruction's successor chain forward
// until it lands on a kept one, then returns that instruction's new index.
func remapTarget(target int32, keep []bool, newIndex []int32, n int) int32 {
	t := int(target)
	for t >= 0 && t < n && !keep[t] {
		t++
	}
	if t < 0 || t >= n {
		return target
	}
	return newIndex[t]
}

// dedupeTails merges instructions that are bit-for-bit identical AND
// share the same successor behavior, starting from the end of the
// program: a classic tail-merging pass for shared suffixes (e.g. several
// branches all ending in the same SAVE_END+ACCEPT sequence).
func dedupeTails(p *Program) {
	n := len(p.Instructions)
	canon := make([]int32, n)
	for i := range canon {
		canon[i] = int32(i)
	}
	for i := n - 1; i >= 0; i-- {
		for j := i + 1; j < n; j++ {
			if !sameShape(p.Instructions[i], p.Instructions[j], canon) {
				continue
			}
			canon[i] = canon[j]
			break
		}
	}
	for i := range p.Instructions {
		ins := &p.Instructions[i]
		if ins.Op == OpJump || ins.Op == OpSplit {
			ins.Target = canon[ins.Target]
		}
	}
}

func sameShape(a, b Instruction, canon []int32) bool {
	if a.Op != b.Op {
		return false
	}
	switch a.Op {
	case OpAccept, OpFail:
		return true
	case OpJump:
		return canon[a.Target] == canon[b.Target]
	default:
		return false
	}
}
