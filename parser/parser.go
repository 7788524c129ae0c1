// Package parser builds an AST from a pattern's token stream, assigning
// dense capture-group indices in left-to-right opening-paren order and
// validating structural well-formedness (balanced groups, sane quantifier
// bounds, backreferences to groups that exist).
package parser

import (
	"fmt"
	"strconv"

	"github.com/obinexus/monoglot-rift-sub000/ast"
	"github.com/obinexus/monoglot-rift-sub000/lexer"
)

// ErrorKind mirrors the subset of the root package's error taxonomy a
// parser can produce, kept local to avoid an import cycle (the root
// package imports parser, not the reverse).
type ErrorKind uint8

const (
	ErrSyntax ErrorKind = iota
	ErrInvalidParameter
	ErrUnsupportedFeature
	ErrLimitExceeded
)

// Error is returned by Parse on any failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parser: %s at byte %d", e.Msg, e.Pos)
}

// Options controls parse-time limits sourced from the embedder's Config.
type Options struct {
	Extended          bool
	RawLiteralEnabled bool
	MaxCaptureGroups  int // 0 means unlimited
}

// Parse tokenizes and parses src into an AST under the given options.
func Parse(src []byte, opt Options) (*ast.Node, int, error) {
	p := &parser{
		lex:     lexer.New(src, opt.Extended, opt.RawLiteralEnabled),
		opt:     opt,
		nextIdx: 1,
	}
	p.advance()
	// Skip a leading raw-literal envelope transparently: the caller-level
	// flag has already gated whether this was legal; here we just unwrap
	// it so the grammar below never has to know about it.
	if p.tok.Kind == lexer.KindRawLiteralStart {
		p.advance()
	}
	node, err := p.parseAlternation()
	if err != nil {
		return nil, 0, err
	}
	if p.tok.Kind == lexer.KindRawLiteralEnd {
		p.advance()
	}
	if p.tok.Kind != lexer.KindEOF {
		return nil, 0, &Error{Kind: ErrSyntax, Msg: "unexpected trailing input", Pos: p.tok.Start}
	}
	if err := p.resolveNamedBackrefs(node); err != nil {
		return nil, 0, err
	}
	return node, p.numCapturing, nil
}

// resolveNamedBackrefs fills in RefIndex for every \k<name> backreference
// using the group-name table collected while parsing, erroring if a name
// was never bound to a capturing group.
func (p *parser) resolveNamedBackrefs(n *ast.Node) error {
	var firstErr error
	ast.Walk(n, func(n *ast.Node) bool {
		if firstErr != nil {
			return false
		}
		if n.Kind == ast.KindBackref && n.RefName != "" && n.RefIndex == 0 {
			idx, ok := p.groupNames[n.RefName]
			if !ok {
				firstErr = &Error{Kind: ErrSyntax, Msg: "backreference to unknown group name " + n.RefName, Pos: n.Pos}
				return false
			}
			n.RefIndex = idx
		}
		return true
	})
	return firstErr
}

type parser struct {
	lex          *lexer.Lexer
	opt          Options
	tok          lexer.Token
	nextIdx      int // next capturing-group index to assign
	numCapturing int
	groupNames   map[string]int
}

func (p *parser) advance() {
	for {
		p.tok = p.lex.Next()
		if p.tok.Kind == lexer.KindError {
			// Errors surface to the parser as a sentinel token; the
			// parser converts them into a structured Error at the point
			// they're encountered, during parsePrimary, so we stop here
			// rather than silently skip.
			return
		}
		return
	}
}

// parseAlternation := concat ('|' concat)*
func (p *parser) parseAlternation() (*ast.Node, error) {
	start := p.tok.Start
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	alts := []*ast.Node{first}
	for p.tok.Kind == lexer.KindPipe {
		p.advance()
		next, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		alts = append(alts, next)
	}
	return ast.NewAlternate(alts, start), nil
}

// parseConcat := atomWithQuantifier*
func (p *parser) parseConcat() (*ast.Node, error) {
	start := p.tok.Start
	var children []*ast.Node
	for {
		switch p.tok.Kind {
		case lexer.KindEOF, lexer.KindPipe, lexer.KindRParen, lexer.KindRawLiteralEnd:
			if len(children) == 0 {
				return ast.NewEmpty(start), nil
			}
			return ast.NewConcat(children, start), nil
		}
		node, err := p.parseQuantified()
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}
}

// parseQuantified := primary quantifierSuffix?
func (p *parser) parseQuantified() (*ast.Node, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseQuantifierSuffix(prim)
}

func (p *parser) parseQuantifierSuffix(child *ast.Node) (*ast.Node, error) {
	pos := p.tok.Start
	var min, max int
	var has bool
	switch p.tok.Kind {
	case lexer.KindStar:
		min, max, has = 0, -1, true
		p.advance()
	case lexer.KindPlus:
		min, max, has = 1, -1, true
		p.advance()
	case lexer.KindQuestion:
		min, max, has = 0, 1, true
		p.advance()
	case lexer.KindRepeatOpen:
		var err error
		min, max, err = p.parseBraceQuantifier()
		if err != nil {
			return nil, err
		}
		has = true
	}
	if !has {
		return child, nil
	}
	greedy := true
	if p.tok.Kind == lexer.KindQuestion {
		greedy = false
		p.advance()
	} else if p.tok.Kind == lexer.KindPlus {
		// possessive quantifier suffix: the '+' is consumed and the
		// quantifier stays greedy; no atomic (no-backtrack) behaviour is
		// added for it.
		p.advance()
	}
	return ast.NewQuantifier(child, min, max, greedy, pos), nil
}

// parseBraceQuantifier consumes `{m}`, `{m,}`, or `{m,n}` having already
// seen the opening brace.
func (p *parser) parseBraceQuantifier() (min, max int, err error) {
	pos := p.tok.Start
	p.advance() // consume '{'
	min, err = p.parseOptionalInt(0)
	if err != nil {
		return 0, 0, err
	}
	max = min
	if p.tok.Kind == lexer.KindComma {
		p.advance()
		if p.tok.Kind == lexer.KindRepeatClose {
			max = -1
		} else {
			max, err = p.parseOptionalInt(-1)
			if err != nil {
				return 0, 0, err
			}
		}
	}
	if p.tok.Kind != lexer.KindRepeatClose {
		return 0, 0, &Error{Kind: ErrSyntax, Msg: "expected '}' to close quantifier", Pos: p.tok.Start}
	}
	p.advance()
	if max != -1 && min > max {
		return 0, 0, &Error{Kind: ErrSyntax, Msg: "quantifier min exceeds max", Pos: pos}
	}
	return min, max, nil
}

func (p *parser) parseOptionalInt(dflt int) (int, error) {
	if p.tok.Kind != lexer.KindLiteral {
		return dflt, nil
	}
	// Digits arrive as individual KindLiteral tokens from the lexer; the
	// parser accumulates a run of ASCII digit literals into one integer.
	digits := ""
	for p.tok.Kind == lexer.KindLiteral && len(p.tok.Value) == 1 && p.tok.Value[0] >= '0' && p.tok.Value[0] <= '9' {
		digits += p.tok.Value
		p.advance()
	}
	if digits == "" {
		return dflt, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &Error{Kind: ErrSyntax, Msg: "malformed quantifier bound", Pos: p.tok.Start}
	}
	return n, nil
}

// parsePrimary handles literal, dot, anchor, escape class, grouped
// sub-pattern, and backreference primaries.
func (p *parser) parsePrimary() (*ast.Node, error) {
	tok := p.tok
	switch tok.Kind {
	case lexer.KindError:
		return nil, &Error{Kind: kindFromLexer(tok.Err), Msg: tok.Err, Pos: tok.Start}
	case lexer.KindLiteral:
		p.advance()
		r := []rune(tok.Value)[0]
		return ast.NewLiteral(r, tok.Start), nil
	case lexer.KindDot:
		p.advance()
		return ast.NewAnyChar(tok.Start), nil
	case lexer.KindCaret:
		p.advance()
		return ast.NewAnchor(ast.AnchorStartOfLine, tok.Start), nil
	case lexer.KindDollar:
		p.advance()
		return ast.NewAnchor(ast.AnchorEndOfLine, tok.Start), nil
	case lexer.KindAnchorWordBoundary:
		p.advance()
		return ast.NewAnchor(ast.AnchorWordBoundary, tok.Start), nil
	case lexer.KindAnchorNotWordBoundary:
		p.advance()
		return ast.NewAnchor(ast.AnchorNotWordBoundary, tok.Start), nil
	case lexer.KindAnchorStartOfText:
		p.advance()
		return ast.NewAnchor(ast.AnchorStartOfText, tok.Start), nil
	case lexer.KindAnchorEndOfText:
		p.advance()
		return ast.NewAnchor(ast.AnchorEndOfText, tok.Start), nil
	case lexer.KindAnchorKeepOut:
		p.advance()
		return ast.NewAnchor(ast.AnchorKeepOut, tok.Start), nil
	case lexer.KindEscapeClass:
		p.advance()
		return escapeClassNode(tok.Value[0], tok.Start), nil
	case lexer.KindClassPayload:
		p.advance()
		return parseClassPayload(tok.Value, tok.Start)
	case lexer.KindBackrefNumeric:
		p.advance()
		n, _ := strconv.Atoi(tok.Value)
		if n <= 0 || n >= p.nextIdx {
			return nil, &Error{Kind: ErrSyntax, Msg: "backreference to non-existent group", Pos: tok.Start}
		}
		return ast.NewBackrefIndex(n, tok.Start), nil
	case lexer.KindBackrefNamed:
		p.advance()
		return ast.NewBackrefName(tok.Value, tok.Start), nil
	case lexer.KindLParen:
		return p.parseCapturingGroup(tok.Start)
	case lexer.KindGroupNonCapturingOpen:
		p.advance()
		return p.parseGroupBody(tok.Start, 0, "", ast.GroupNonCapturing)
	case lexer.KindGroupAtomicOpen:
		p.advance()
		return p.parseGroupBody(tok.Start, 0, "", ast.GroupAtomic)
	case lexer.KindLookaheadPosOpen:
		p.advance()
		return p.parseGroupBody(tok.Start, 0, "", ast.GroupLookaheadPos)
	case lexer.KindLookaheadNegOpen:
		p.advance()
		return p.parseGroupBody(tok.Start, 0, "", ast.GroupLookaheadNeg)
	case lexer.KindLookbehindPosOpen:
		p.advance()
		return p.parseGroupBody(tok.Start, 0, "", ast.GroupLookbehindPos)
	case lexer.KindLookbehindNegOpen:
		p.advance()
		return p.parseGroupBody(tok.Start, 0, "", ast.GroupLookbehindNeg)
	case lexer.KindGroupNamedOpen:
		name := tok.Value
		p.advance()
		idx := p.allocGroupIndex()
		if p.opt.MaxCaptureGroups > 0 && p.numCapturing > p.opt.MaxCaptureGroups {
			return nil, &Error{Kind: ErrLimitExceeded, Msg: "too many capture groups", Pos: tok.Start}
		}
		if p.groupNames == nil {
			p.groupNames = make(map[string]int)
		}
		p.groupNames[name] = idx
		return p.parseGroupBody(tok.Start, idx, name, ast.GroupCapturing)
	default:
		return nil, &Error{Kind: ErrSyntax, Msg: "expected an atom, found unexpected token", Pos: tok.Start}
	}
}

func kindFromLexer(msg string) ErrorKind {
	if len(msg) >= 21 && msg[:21] == "unsupported feature: " {
		return ErrUnsupportedFeature
	}
	return ErrSyntax
}

func (p *parser) allocGroupIndex() int {
	idx := p.nextIdx
	p.nextIdx++
	p.numCapturing++
	return idx
}

func (p *parser) parseCapturingGroup(pos int) (*ast.Node, error) {
	p.advance() // consume '('
	idx := p.allocGroupIndex()
	if p.opt.MaxCaptureGroups > 0 && p.numCapturing > p.opt.MaxCaptureGroups {
		return nil, &Error{Kind: ErrLimitExceeded, Msg: "too many capture groups", Pos: pos}
	}
	return p.parseGroupBody(pos, idx, "", ast.GroupCapturing)
}

func (p *parser) parseGroupBody(pos, idx int, name string, variant ast.GroupVariant) (*ast.Node, error) {
	inner, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != lexer.KindRParen {
		return nil, &Error{Kind: ErrSyntax, Msg: "unmatched '(' ", Pos: pos}
	}
	p.advance()
	return ast.NewGroup(inner, idx, name, variant, pos), nil
}

func escapeClassNode(c byte, pos int) *ast.Node {
	switch c {
	case 'd':
		return ast.NewClass([]ast.ClassRange{{'0', '9'}}, false, pos)
	case 'D':
		return ast.NewClass([]ast.ClassRange{{'0', '9'}}, true, pos)
	case 'w':
		return ast.NewClass(wordRanges(), false, pos)
	case 'W':
		return ast.NewClass(wordRanges(), true, pos)
	case 's':
		return ast.NewClass(spaceRanges(), false, pos)
	case 'S':
		return ast.NewClass(spaceRanges(), true, pos)
	default:
		return ast.NewLiteral(rune(c), pos)
	}
}

func wordRanges() []ast.ClassRange {
	return []ast.ClassRange{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
}

func spaceRanges() []ast.ClassRange {
	return []ast.ClassRange{{'\t', '\n'}, {'\f', '\r'}, {' ', ' '}}
}

// parseClassPayload interprets the raw body the lexer captured between
// `[`/`[^` and the closing `]`, expanding escapes and `a-z`-style ranges.
func parseClassPayload(body string, pos int) (*ast.Node, error) {
	negated := false
	if len(body) > 0 && body[0] == '^' {
		negated = true
		body = body[1:]
	}
	runes := []rune(body)
	var ranges []ast.ClassRange
	i := 0
	readAtom := func() (rune, bool, error) {
		if i >= len(runes) {
			return 0, false, nil
		}
		c := runes[i]
		if c == '\\' && i+1 < len(runes) {
			esc := runes[i+1]
			i += 2
			switch esc {
			case 'd', 'D', 'w', 'W', 's', 'S':
				return 0, true, classEscapeMarker(esc)
			case 'n':
				return '\n', false, nil
			case 't':
				return '\t', false, nil
			case 'r':
				return '\r', false, nil
			default:
				return esc, false, nil
			}
		}
		i++
		return c, false, nil
	}
	for i < len(runes) {
		startI := i
		lo, isClass, err := readAtom()
		if err != nil {
			// isClass sentinel: expand the nested escape class directly.
			sub := escapeClassNode(byte(runes[startI+1]), pos)
			if sub.Negated {
				ranges = append(ranges, invertRanges(sub.Ranges)...)
			} else {
				ranges = append(ranges, sub.Ranges...)
			}
			continue
		}
		_ = isClass
		if i+1 < len(runes) && runes[i] == '-' {
			i++
			hi, _, err := readAtom()
			if err != nil {
				return nil, &Error{Kind: ErrSyntax, Msg: "malformed class range", Pos: pos}
			}
			ranges = append(ranges, ast.ClassRange{Lo: lo, Hi: hi})
			continue
		}
		ranges = append(ranges, ast.ClassRange{Lo: lo, Hi: lo})
	}
	return ast.NewClass(ranges, negated, pos), nil
}

func classEscapeMarker(c rune) error { return &classEscapeErr{c} }

type classEscapeErr struct{ c rune }

func (e *classEscapeErr) Error() string { return "nested class escape" }

func invertRanges(ranges []ast.ClassRange) []ast.ClassRange {
	// Returns the complement of ranges within [0, utf8.MaxRune], used only
	// for the rare \D/\W/\S-inside-a-class case.
	const maxRune = 0x10FFFF
	if len(ranges) == 0 {
		return []ast.ClassRange{{0, maxRune}}
	}
	var out []ast.ClassRange
	prev := rune(0)
	for _, r := range ranges {
		if r.Lo > prev {
			out = append(out, ast.ClassRange{Lo: prev, Hi: r.Lo - 1})
		}
		prev = r.Hi + 1
	}
	if prev <= maxRune {
		out = append(out, ast.ClassRange{Lo: prev, Hi: maxRune})
	}
	return out
}
