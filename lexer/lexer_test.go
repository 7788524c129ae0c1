package lexer

import "testing"

func allKinds(src string, extended, raw bool) []Kind {
	l := New([]byte(src), extended, raw)
	var kinds []Kind
	for {
		tok := l.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == KindEOF || tok.Kind == KindError {
			break
		}
	}
	return kinds
}

func TestLiteralAndMeta(t *testing.T) {
	kinds := allKinds("a.b", false, false)
	want := []Kind{KindLiteral, KindDot, KindLiteral, KindEOF}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestEscapeClassShorthand(t *testing.T) {
	l := New([]byte(`\w+`), false, false)
	tok := l.Next()
	if tok.Kind != KindEscapeClass {
		t.Fatalf("Kind = %v, want KindEscapeClass", tok.Kind)
	}
	tok = l.Next()
	if tok.Kind != KindPlus {
		t.Fatalf("Kind = %v, want KindPlus", tok.Kind)
	}
}

func TestNamedGroupOpen(t *testing.T) {
	l := New([]byte(`(?P<year>\d+)`), false, false)
	if tok := l.Next(); tok.Kind != KindGroupNamedOpen || tok.Value != "year" {
		t.Fatalf("got Kind=%v Value=%q, want KindGroupNamedOpen \"year\"", tok.Kind, tok.Value)
	}
}

func TestRawLiteralDisallowedByDefault(t *testing.T) {
	l := New([]byte(`r'a+'`), false, false)
	tok := l.Next()
	if tok.Kind != KindError {
		t.Fatalf("Kind = %v, want KindError when raw literals are disabled", tok.Kind)
	}
}

func TestExtendedModeSkipsWhitespaceAndComments(t *testing.T) {
	kinds := allKinds("a  # a comment\n b", true, false)
	want := []Kind{KindLiteral, KindLiteral, KindEOF}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
}
