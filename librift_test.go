package librift

import "testing"

func TestCompileSimpleLiteral(t *testing.T) {
	p, err := Compile("hello", DefaultFlags())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	matched, err := p.Matches([]byte("hello"))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !matched {
		t.Fatal("expected a full match on \"hello\"")
	}
	matched, err = p.Matches([]byte("hello world"))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if matched {
		t.Fatal("Matches should reject a partial match")
	}
}

func TestCompileInvalidPattern(t *testing.T) {
	if _, err := Compile("(unterminated", DefaultFlags()); err == nil {
		t.Fatal("expected a syntax error for an unbalanced group")
	}
}

func TestMustCompilePanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile should panic on an invalid pattern")
		}
	}()
	MustCompile("(", DefaultFlags())
}

func TestFindNextAndFindAll(t *testing.T) {
	p, err := Compile("ab+", DefaultFlags())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	m, err := p.FindNext([]byte("xx abb yy abbb"), 0)
	if err != nil {
		t.Fatalf("FindNext: %v", err)
	}
	if m == nil || string(m.Text([]byte("xx abb yy abbb"))) != "abb" {
		t.Fatalf("FindNext = %+v, want \"abb\"", m)
	}

	all, err := p.FindAll([]byte("xx abb yy abbb"), 0)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("FindAll returned %d matches, want 2", len(all))
	}
}

func TestCaptureGroups(t *testing.T) {
	p, err := Compile(`(\w+)@(\w+)`, DefaultFlags())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	input := []byte("user@example")
	m, err := p.FindNext(input, 0)
	if err != nil {
		t.Fatalf("FindNext: %v", err)
	}
	if m == nil || len(m.Groups) != 3 {
		t.Fatalf("expected 2 capture groups plus group 0, got %+v", m)
	}
	if !m.Groups[1].Set || string(input[m.Groups[1].Start:m.Groups[1].End]) != "user" {
		t.Fatalf("group 1 = %+v, want \"user\"", m.Groups[1])
	}
	if !m.Groups[2].Set || string(input[m.Groups[2].Start:m.Groups[2].End]) != "example" {
		t.Fatalf("group 2 = %+v, want \"example\"", m.Groups[2])
	}
}

func TestNamedGroups(t *testing.T) {
	p, err := Compile(`(?P<word>\w+)`, DefaultFlags())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	names := p.GroupNames()
	if idx, ok := names["word"]; !ok || idx != 1 {
		t.Fatalf("GroupNames()[\"word\"] = %d,%v want 1,true", idx, ok)
	}
}

func TestReplace(t *testing.T) {
	p, err := Compile(`\d+`, DefaultFlags())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, count, err := p.Replace([]byte("a1b22c333"), "#")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if string(out) != "a#b#c#" || count != 3 {
		t.Fatalf("Replace = %q,%d want \"a#b#c#\",3", out, count)
	}
}

func TestSplit(t *testing.T) {
	p, err := Compile(`,`, DefaultFlags())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	pieces, err := p.Split([]byte("a,b,c"), 0)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(pieces) != 3 || string(pieces[0]) != "a" || string(pieces[1]) != "b" || string(pieces[2]) != "c" {
		t.Fatalf("Split = %q, want [a b c]", pieces)
	}
}

func TestCompileWithConfigRejectsOversizedPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPatternLength = 3
	if _, err := CompileWithConfig("abcd", DefaultFlags(), cfg); err == nil {
		t.Fatal("expected a limit-exceeded error for an over-length pattern")
	}
}

func TestCompileWithConfigRejectsRawLiteralWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableRawLiteralSyntax = false
	if _, err := CompileWithConfig("abc", FlagRawLiteral, cfg); err == nil {
		t.Fatal("expected an unsupported-feature error when raw literals are disabled")
	}
}
