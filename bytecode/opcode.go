// Package bytecode lowers an automaton into a flat, endian-neutral
// instruction stream (spec.md §4.4), provides a post-lowering optimizer
// pass, a bit-exact binary serialization format (spec.md §6), and two
// interpreters: a set-based executor for patterns that don't need
// backreferences or look-around, and a bounded-backtracking stack executor
// for patterns that do.
package bytecode

import "fmt"

// Opcode is the closed instruction set spec.md §3 names.
type Opcode uint8

const (
	OpNOP Opcode = iota
	OpMatchChar
	OpMatchClass
	OpMatchAny
	OpJump
	OpSplit
	OpSaveStart
	OpSaveEnd
	OpRepeatStart
	OpRepeatEnd
	OpBoundary
	OpBackref
	OpLookahead
	OpNegLookahead
	OpLookbehind
	OpNegLookbehind
	OpAccept
	OpFail
)

// String renders the opcode's mnemonic.
func (o Opcode) String() string {
	names := [...]string{
		"NOP", "MATCH_CHAR", "MATCH_CLASS", "MATCH_ANY", "JUMP", "SPLIT",
		"SAVE_START", "SAVE_END", "REPEAT_START", "REPEAT_END", "BOUNDARY",
		"BACKREF", "LOOKAHEAD", "NEG_LOOKAHEAD", "LOOKBEHIND", "NEG_LOOKBEHIND",
		"ACCEPT", "FAIL",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("OP(%d)", o)
}

// BoundaryKind distinguishes the zero-width assertions BOUNDARY can check.
type BoundaryKind uint8

const (
	BoundaryStartOfLine BoundaryKind = iota
	BoundaryEndOfLine
	BoundaryStartOfText
	BoundaryEndOfText
	BoundaryWordBoundary
	BoundaryNotWordBoundary
	BoundaryKeepOut
)

// Instruction is one entry of the flat program array. Per spec.md §6 the
// on-disk form is 1 opcode byte + 3 padding bytes + a 4-byte operand union;
// in memory the union is unpacked into named fields for readability, with
// packInstruction/unpackInstruction (serialize.go) doing the round-trip for
// serialization.
type Instruction struct {
	Op Opcode

	// MATCH_CHAR: Char. MATCH_CLASS: ClassIndex. JUMP/SPLIT: Target (SPLIT's
	// fall-through is implicit: the next instruction in program order).
	// SAVE_START/SAVE_END: Group. BACKREF: Group. BOUNDARY: Boundary.
	// LOOKAHEAD/NEG_LOOKAHEAD/LOOKBEHIND/NEG_LOOKBEHIND: SubProgram index
	// into Program.SubPrograms.
	Char       byte
	ClassIndex int32
	Target     int32
	Group      int32
	Boundary   BoundaryKind
	SubProgram int32

	// REPEAT_START
	RepeatMin    int32
	RepeatMax    int32 // -1 means unbounded
	RepeatGreedy bool
}

// ClassEntry is one character-class table entry: a sorted, non-overlapping
// list of inclusive byte ranges.
type ClassEntry struct {
	Ranges []ClassByteRange
}

// ClassByteRange is an inclusive byte range within a ClassEntry.
type ClassByteRange struct {
	Lo, Hi byte
}

// Matches reports whether b falls in any of the entry's ranges.
func (c ClassEntry) Matches(b byte) bool {
	for _, r := range c.Ranges {
		if b >= r.Lo && b <= r.Hi {
			return true
		}
	}
	return false
}

// Program is the compiled bytecode artifact plus its metadata, matching
// spec.md §3's Bytecode program data model.
type Program struct {
	Instructions []Instruction
	GroupCount   int // capturing groups, not counting group 0
	CompileFlags uint32
	Pattern      string
	ClassTable   []ClassEntry
	// SubPrograms holds the compiled body of each look-around assertion,
	// referenced by Instruction.SubProgram.
	SubPrograms []*Program
}

// Validate checks the invariants spec.md §3 requires of a bytecode
// program: every jump target is a valid instruction index, every group
// index is below GroupCount+1 (group 0 is the whole match), every
// MATCH_CLASS instruction indexes a real ClassTable entry, and every
// look-around instruction indexes a real SubPrograms entry.
func (p *Program) Validate() error {
	return p.validate(true)
}

// validateAfterDeserialize checks every invariant Validate does except the
// ClassTable/SubPrograms bounds, which Deserialize cannot populate since
// neither is part of the wire format (see Serialize's doc comment). A
// program in this state is structurally sound but not yet executable via
// MATCH_CLASS or any look-around opcode until the caller recompiles the
// pattern to regenerate both tables.
func (p *Program) validateAfterDeserialize() error {
	return p.validate(false)
}

func (p *Program) validate(checkTables bool) error {
	n := int32(len(p.Instructions))
	for i, ins := range p.Instructions {
		switch ins.Op {
		case OpJump, OpSplit:
			if ins.Target < 0 || ins.Target >= n {
				return fmt.Errorf("bytecode: instruction %d: jump target %d out of range", i, ins.Target)
			}
		case OpSaveStart, OpSaveEnd:
			if ins.Group < 0 || int(ins.Group) > p.GroupCount {
				return fmt.Errorf("bytecode: instruction %d: group %d out of range", i, ins.Group)
			}
		case OpBackref:
			if ins.Group < 1 || int(ins.Group) > p.GroupCount {
				return fmt.Errorf("bytecode: instruction %d: backreference group %d out of range", i, ins.Group)
			}
		case OpMatchClass:
			if ins.ClassIndex < 0 {
				return fmt.Errorf("bytecode: instruction %d: class index %d out of range", i, ins.ClassIndex)
			}
			if checkTables && int(ins.ClassIndex) >= len(p.ClassTable) {
				return fmt.Errorf("bytecode: instruction %d: class index %d out of range", i, ins.ClassIndex)
			}
		case OpLookahead, OpNegLookahead, OpLookbehind, OpNegLookbehind:
			if ins.SubProgram < 0 {
				return fmt.Errorf("bytecode: instruction %d: sub-program %d out of range", i, ins.SubProgram)
			}
			if checkTables && int(ins.SubProgram) >= len(p.SubPrograms) {
				return fmt.Errorf("bytecode: instruction %d: sub-program %d out of range", i, ins.SubProgram)
			}
		}
	}
	return nil
}
