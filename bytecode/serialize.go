package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Wire format constants, per spec.md §6.
const (
	magicValue    uint32 = 0x52494654
	markerValue   uint32 = 0x01020304
	formatVersion uint32 = 1
	headerFields         = 7
	headerBytes          = headerFields * 4
	instrRecordBytes     = 8 // 1 opcode + 3 padding + 4-byte operand union
)

// Serialize renders p as the bit-exact binary form spec.md §6 defines: a
// seven-word header, the packed instruction array, then the NUL-terminated
// pattern string. The writer's byte order is little-endian; a reader
// recovers this from the endianness marker regardless of its own order.
//
// The character-class table and any look-around SubPrograms are not part
// of the wire format — spec.md's header reserves no section for them, and
// the round-trip invariant (spec.md §8, property 4) covers only the
// instruction stream, group count, flags, and pattern source. A caller
// that deserializes a program must recompile the pattern (parser →
// automaton → Compile) to recover a usable ClassTable and SubPrograms
// before executing MATCH_CLASS or look-around instructions.
func Serialize(p *Program) ([]byte, error) {
	out := make([]byte, 0, headerBytes+len(p.Instructions)*instrRecordBytes+len(p.Pattern)+1)
	var hdr [headerBytes]byte
	binary.LittleEndian.PutUint32(hdr[0:4], magicValue)
	binary.LittleEndian.PutUint32(hdr[4:8], markerValue)
	binary.LittleEndian.PutUint32(hdr[8:12], formatVersion)
	binary.LittleEndian.PutUint32(hdr[12:16], p.CompileFlags)
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(p.Instructions)))
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(p.GroupCount))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(len(p.Pattern)))
	out = append(out, hdr[:]...)

	for i, ins := range p.Instructions {
		rec, err := packInstruction(ins)
		if err != nil {
			return nil, fmt.Errorf("bytecode: serialize instruction %d: %w", i, err)
		}
		out = append(out, rec[:]...)
	}
	out = append(out, p.Pattern...)
	out = append(out, 0)
	return out, nil
}

// Deserialize parses the wire form Serialize produces. It rejects an
// unrecognized magic or a format version newer than this package
// understands with a DeserializeError carrying kind "conversion-failed";
// a truncated buffer also reports "conversion-failed".
//
// The returned Program's ClassTable and SubPrograms are always empty,
// since neither is part of the wire format (see Serialize's doc comment).
// Deserialize validates everything else — instruction well-formedness,
// jump targets, group indices — but deliberately skips the ClassTable/
// SubPrograms bounds check a freshly-Compiled Program would get from
// Validate, since the deserialized tables are a legitimate empty state,
// not a corruption. A program with any MATCH_CLASS or look-around
// instruction is in a recompile-required state until the caller runs the
// pattern back through the normal parser → automaton → Compile pipeline to
// regenerate both tables; running it as-is will fail validation again the
// moment Program.Validate is called on it directly.
func Deserialize(data []byte) (*Program, error) {
	if len(data) < headerBytes {
		return nil, &DeserializeError{Msg: "buffer shorter than header"}
	}

	marker := binary.LittleEndian.Uint32(data[4:8])
	order := binary.ByteOrder(binary.LittleEndian)
	switch marker {
	case markerValue:
		order = binary.LittleEndian
	case swap32(markerValue):
		order = binary.BigEndian
	default:
		return nil, &DeserializeError{Msg: "unrecognized endianness marker"}
	}

	magic := order.Uint32(data[0:4])
	if magic != magicValue {
		return nil, &DeserializeError{Msg: "unrecognized magic"}
	}
	version := order.Uint32(data[8:12])
	if version != formatVersion {
		return nil, &DeserializeError{Msg: fmt.Sprintf("unsupported format version %d", version)}
	}

	flags := order.Uint32(data[12:16])
	instrCount := int(order.Uint32(data[16:20]))
	groupCount := int(order.Uint32(data[20:24]))
	patternLen := int(order.Uint32(data[24:28]))

	need := headerBytes + instrCount*instrRecordBytes + patternLen + 1
	if need < 0 || len(data) < need {
		return nil, &DeserializeError{Msg: "buffer shorter than declared content"}
	}

	prog := &Program{GroupCount: groupCount, CompileFlags: flags}
	off := headerBytes
	prog.Instructions = make([]Instruction, instrCount)
	for i := 0; i < instrCount; i++ {
		var rec [instrRecordBytes]byte
		copy(rec[:], data[off:off+instrRecordBytes])
		ins, err := unpackInstruction(rec, order)
		if err != nil {
			return nil, fmt.Errorf("bytecode: deserialize instruction %d: %w", i, err)
		}
		prog.Instructions[i] = ins
		off += instrRecordBytes
	}

	patternBytes := data[off : off+patternLen]
	if data[off+patternLen] != 0 {
		return nil, &DeserializeError{Msg: "pattern string not NUL-terminated"}
	}
	prog.Pattern = string(patternBytes)

	if err := prog.validateAfterDeserialize(); err != nil {
		return nil, &DeserializeError{Msg: err.Error()}
	}
	return prog, nil
}

func swap32(v uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return binary.BigEndian.Uint32(b[:])
}

func packInstruction(ins Instruction) ([instrRecordBytes]byte, error) {
	var rec [instrRecordBytes]byte
	rec[0] = byte(ins.Op)
	operand := rec[4:8]
	switch ins.Op {
	case OpNOP, OpMatchAny, OpRepeatEnd, OpAccept, OpFail:
		// zero operand
	case OpMatchChar:
		operand[0] = ins.Char
	case OpMatchClass:
		binary.LittleEndian.PutUint32(operand, uint32(ins.ClassIndex))
	case OpJump, OpSplit:
		binary.LittleEndian.PutUint32(operand, uint32(ins.Target))
	case OpSaveStart, OpSaveEnd:
		binary.LittleEndian.PutUint32(operand, uint32(ins.Group))
	case OpBackref:
		binary.LittleEndian.PutUint32(operand, uint32(ins.Group))
	case OpBoundary:
		operand[0] = byte(ins.Boundary)
	case OpLookahead, OpNegLookahead, OpLookbehind, OpNegLookbehind:
		binary.LittleEndian.PutUint32(operand, uint32(ins.SubProgram))
	case OpRepeatStart:
		packRepeatTriple(operand, ins.RepeatMin, ins.RepeatMax, ins.RepeatGreedy)
	default:
		return rec, fmt.Errorf("unknown opcode %d", ins.Op)
	}
	return rec, nil
}

func unpackInstruction(rec [instrRecordBytes]byte, order binary.ByteOrder) (Instruction, error) {
	op := Opcode(rec[0])
	operand := rec[4:8]
	ins := Instruction{Op: op}
	switch op {
	case OpNOP, OpMatchAny, OpRepeatEnd, OpAccept, OpFail:
	case OpMatchChar:
		ins.Char = operand[0]
	case OpMatchClass:
		ins.ClassIndex = int32(order.Uint32(operand))
	case OpJump, OpSplit:
		ins.Target = int32(order.Uint32(operand))
	case OpSaveStart, OpSaveEnd:
		ins.Group = int32(order.Uint32(operand))
	case OpBackref:
		ins.Group = int32(order.Uint32(operand))
	case OpBoundary:
		ins.Boundary = BoundaryKind(operand[0])
	case OpLookahead, OpNegLookahead, OpLookbehind, OpNegLookbehind:
		ins.SubProgram = int32(order.Uint32(operand))
	case OpRepeatStart:
		ins.RepeatMin, ins.RepeatMax, ins.RepeatGreedy = unpackRepeatTriple(operand)
	default:
		return ins, fmt.Errorf("unknown opcode %d", op)
	}
	return ins, nil
}

// packRepeatTriple packs {min, max, greedy} into 4 bytes: 15 bits min, 15
// bits max (0x7FFF sentinel for unbounded), 1 bit greedy, 1 reserved bit.
func packRepeatTriple(dst []byte, min, max int32, greedy bool) {
	if max < 0 {
		max = 0x7FFF
	}
	v := uint32(min&0x7FFF) | (uint32(max&0x7FFF) << 15)
	if greedy {
		v |= 1 << 30
	}
	binary.LittleEndian.PutUint32(dst, v)
}

func unpackRepeatTriple(src []byte) (min, max int32, greedy bool) {
	v := binary.LittleEndian.Uint32(src)
	min = int32(v & 0x7FFF)
	max = int32((v >> 15) & 0x7FFF)
	if max == 0x7FFF {
		max = -1
	}
	greedy = v&(1<<30) != 0
	return
}

// DeserializeError reports a wire-format mismatch, surfaced by the caller
// as the "conversion-failed" error kind.
type DeserializeError struct{ Msg string }

func (e *DeserializeError) Error() string { return "bytecode: " + e.Msg }
