// Package lexer turns a pattern byte string into a stream of regex tokens,
// recognizing the raw-literal r'…'/r"…" envelope and, under the extended
// flag, skipping unescaped whitespace and #-to-end-of-line comments.
package lexer

// Kind discriminates the token variants spec.md §3 lists.
type Kind uint8

const (
	KindEOF Kind = iota
	KindError
	KindLiteral
	KindDot
	KindCaret
	KindDollar
	KindStar
	KindPlus
	KindQuestion
	KindRepeatOpen  // {
	KindRepeatClose // }
	KindComma
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindPipe
	KindClassPayload
	KindGroupNonCapturingOpen   // (?:
	KindGroupNamedOpen          // (?P<name> or (?<name>
	KindGroupAtomicOpen         // (?>
	KindLookaheadPosOpen        // (?=
	KindLookaheadNegOpen        // (?!
	KindLookbehindPosOpen       // (?<=
	KindLookbehindNegOpen       // (?<!
	KindBackrefNumeric          // \1 .. \9, or a longer digit run such as \12
	KindBackrefNamed            // \k<name>
	KindAnchorWordBoundary      // \b
	KindAnchorNotWordBoundary   // \B
	KindAnchorStartOfText       // \A
	KindAnchorEndOfText         // \z
	KindAnchorKeepOut           // \K
	KindEscapeClass             // \d \D \w \W \s \S
	KindRawLiteralStart         // r' or r"
	KindRawLiteralEnd           // the matching closing quote
)

// Token is an ephemeral, immediately-consumed record produced on demand by
// Lexer.Next. Value holds any associated payload bytes (e.g. a group name,
// a backreference digit string, a class body); Start/End are byte offsets
// into the pattern source.
type Token struct {
	Kind       Kind
	Value      string
	Start, End int
	// Err is set when Kind == KindError, describing why lexing failed at
	// this position. The lexer never aborts on an error token; it is up
	// to the parser to decide whether to stop.
	Err string
}
