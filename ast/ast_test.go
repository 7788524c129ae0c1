package ast

import "testing"

func TestMaxGroupNestingDepth(t *testing.T) {
	inner := NewGroup(NewLiteral('a', 0), 2, "", GroupCapturing, 0)
	outer := NewGroup(inner, 1, "", GroupCapturing, 0)
	if got := MaxGroupNestingDepth(outer); got != 2 {
		t.Fatalf("MaxGroupNestingDepth = %d, want 2", got)
	}
}

func TestCountAlternations(t *testing.T) {
	alt := NewAlternate([]*Node{NewLiteral('a', 0), NewLiteral('b', 0)}, 0)
	wrapped := NewConcat([]*Node{alt, NewLiteral('c', 0)}, 0)
	if got := CountAlternations(wrapped); got != 1 {
		t.Fatalf("CountAlternations = %d, want 1", got)
	}
}

func TestCountQuantifiersNested(t *testing.T) {
	inner := NewQuantifier(NewLiteral('a', 0), 1, -1, true, 0)
	outer := NewQuantifier(NewGroup(inner, 1, "", GroupCapturing, 0), 1, -1, true, 0)
	total, nested := CountQuantifiers(outer)
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if nested != 1 {
		t.Fatalf("nested = %d, want 1", nested)
	}
}

func TestMaxCaptureGroup(t *testing.T) {
	g1 := NewGroup(NewLiteral('a', 0), 1, "", GroupCapturing, 0)
	g2 := NewGroup(NewLiteral('b', 0), 2, "", GroupCapturing, 0)
	concat := NewConcat([]*Node{g1, g2}, 0)
	if got := MaxCaptureGroup(concat); got != 2 {
		t.Fatalf("MaxCaptureGroup = %d, want 2", got)
	}
}

func TestCollectLiteralAlternativesLiteralOnly(t *testing.T) {
	alt := NewAlternate([]*Node{
		NewConcat([]*Node{NewLiteral('f', 0), NewLiteral('o', 0), NewLiteral('o', 0)}, 0),
		NewConcat([]*Node{NewLiteral('b', 0), NewLiteral('a', 0), NewLiteral('r', 0)}, 0),
	}, 0)
	lits, ok := CollectLiteralAlternatives(alt)
	if !ok {
		t.Fatal("expected ok=true for a literal-only alternation")
	}
	want := []string{"foo", "bar"}
	if len(lits) != len(want) || lits[0] != want[0] || lits[1] != want[1] {
		t.Fatalf("lits = %v, want %v", lits, want)
	}
}

func TestCollectLiteralAlternativesRejectsNonLiteral(t *testing.T) {
	alt := NewAlternate([]*Node{
		NewLiteral('a', 0),
		NewQuantifier(NewLiteral('b', 0), 0, -1, true, 0),
	}, 0)
	if _, ok := CollectLiteralAlternatives(alt); ok {
		t.Fatal("expected ok=false when an alternative isn't a plain literal run")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewGroup(NewLiteral('a', 0), 1, "", GroupCapturing, 0)
	clone := orig.Clone()
	clone.GroupChild.Lit = 'z'
	if orig.GroupChild.Lit != 'a' {
		t.Fatal("Clone shared the GroupChild node with the original")
	}
}
