package bytecode

import "testing"

func TestRemoveNOPsShrinksProgram(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{
			{Op: OpNOP},
			{Op: OpMatchChar, Char: 'x'},
			{Op: OpJump, Target: 3},
			{Op: OpAccept},
		},
	}
	Optimize(p)
	for _, ins := range p.Instructions {
		if ins.Op == OpNOP {
			t.Fatal("NOP survived Optimize")
		}
	}
}

func TestFoldJumpChainsResolvesIndirection(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{
			{Op: OpJump, Target: 1},
			{Op: OpJump, Target: 2},
			{Op: OpAccept},
		},
	}
	Optimize(p)
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate after Optimize: %v", err)
	}
	if first := p.Instructions[0]; first.Op == OpJump && p.Instructions[first.Target].Op == OpJump {
		t.Fatal("jump chain was not folded")
	}
}

func TestOptimizePreservesAcceptingProgram(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{
			{Op: OpSaveStart, Group: 0},
			{Op: OpMatchChar, Char: 'z'},
			{Op: OpJump, Target: 3},
			{Op: OpSaveEnd, Group: 0},
			{Op: OpAccept},
		},
		Pattern: "z",
	}
	Optimize(p)
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate after Optimize: %v", err)
	}
}
