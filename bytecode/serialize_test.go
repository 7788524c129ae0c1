package bytecode

import (
	"reflect"
	"testing"
)

func literalProgram() *Program {
	return &Program{
		Instructions: []Instruction{
			{Op: OpSaveStart, Group: 0},
			{Op: OpMatchChar, Char: 'a'},
			{Op: OpJump, Target: 3},
			{Op: OpSaveEnd, Group: 0},
			{Op: OpAccept},
		},
		GroupCount:   0,
		CompileFlags: 0,
		Pattern:      "a",
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p := literalProgram()
	data, err := Serialize(p)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Pattern != p.Pattern {
		t.Fatalf("Pattern = %q, want %q", got.Pattern, p.Pattern)
	}
	if got.GroupCount != p.GroupCount {
		t.Fatalf("GroupCount = %d, want %d", got.GroupCount, p.GroupCount)
	}
	if got.CompileFlags != p.CompileFlags {
		t.Fatalf("CompileFlags = %d, want %d", got.CompileFlags, p.CompileFlags)
	}
	if !reflect.DeepEqual(got.Instructions, p.Instructions) {
		t.Fatalf("Instructions = %+v, want %+v", got.Instructions, p.Instructions)
	}
}

func TestDeserializeRejectsTruncated(t *testing.T) {
	p := literalProgram()
	data, err := Serialize(p)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if _, err := Deserialize(data[:len(data)-1]); err == nil {
		t.Fatal("Deserialize accepted truncated data")
	}
}

func classProgram() *Program {
	return &Program{
		Instructions: []Instruction{
			{Op: OpSaveStart, Group: 0},
			{Op: OpMatchClass, ClassIndex: 0},
			{Op: OpJump, Target: 3},
			{Op: OpSaveEnd, Group: 0},
			{Op: OpAccept},
		},
		GroupCount:   0,
		CompileFlags: 0,
		Pattern:      "[a-z]",
		ClassTable:   []ClassEntry{{Ranges: []ClassByteRange{{Lo: 'a', Hi: 'z'}}}},
	}
}

func TestSerializeDeserializeRoundTripWithClass(t *testing.T) {
	p := classProgram()
	data, err := Serialize(p)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(got.Instructions, p.Instructions) {
		t.Fatalf("Instructions = %+v, want %+v", got.Instructions, p.Instructions)
	}
	if len(got.ClassTable) != 0 {
		t.Fatalf("ClassTable = %+v, want empty (not part of the wire format)", got.ClassTable)
	}
	// The deserialized program is in a recompile-required state: its own
	// Validate (as opposed to the lenient check Deserialize itself ran)
	// must still reject the now-dangling MATCH_CLASS reference.
	if err := got.Validate(); err == nil {
		t.Fatal("Validate() on a deserialized class program should fail until recompiled")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	p := literalProgram()
	data, err := Serialize(p)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	corrupt := append([]byte(nil), data...)
	corrupt[0] ^= 0xFF
	if _, err := Deserialize(corrupt); err == nil {
		t.Fatal("Deserialize accepted corrupted magic")
	}
}
