package librift

// Flags is a 32-bit bitset of compile-time pattern flags. Each flag
// occupies a distinct bit; unused bits must stay zero. Two flag families
// are mutually exclusive by construction (newline mode, optimization
// objective) and are reconciled by a documented priority order rather than
// by rejecting multi-bit combinations — see ResolveNewlineMode and
// ResolveOptimizationObjective.
type Flags uint32

const (
	// FlagCaseInsensitive makes literal and class matching case-insensitive.
	FlagCaseInsensitive Flags = 1 << iota
	// FlagMultiline makes ^ and $ match at line boundaries, not just at the
	// start/end of the whole input.
	FlagMultiline
	// FlagDotAll makes `.` match line-terminator bytes too.
	FlagDotAll
	// FlagExtended enables whitespace/comment skipping in the pattern
	// source (C2 "Extended flag").
	FlagExtended
	// FlagUngreedy inverts the default greediness of quantifiers: bare
	// quantifiers become reluctant and `?`-suffixed ones become greedy.
	FlagUngreedy
	// FlagRawLiteral gates the r'…'/r"…" raw-literal envelope in the
	// lexer. Disabled by default; must be explicitly requested.
	FlagRawLiteral
	// FlagUTF8 makes find_next advance by whole code points on a failed
	// attempt instead of by one byte.
	FlagUTF8

	// Newline-mode family. At most one should be set by a careful caller;
	// if more than one is set, ResolveNewlineMode applies the documented
	// priority order CRLF > ANYCRLF > ANY > LF > CR.
	FlagNewlineCRLF
	FlagNewlineAnyCRLF
	FlagNewlineAny
	FlagNewlineLF
	FlagNewlineCR

	// Optimization-objective family. Priority order: speed > size.
	FlagOptimizeSpeed
	FlagOptimizeSize
)

// NewlineMode is the resolved (single-valued) newline-handling mode after
// applying the priority order to a Flags value.
type NewlineMode uint8

const (
	NewlineLF NewlineMode = iota
	NewlineCR
	NewlineAny
	NewlineAnyCRLF
	NewlineCRLF
)

// ResolveNewlineMode picks the single newline mode a Flags value encodes,
// applying the priority order CRLF > ANYCRLF > ANY > LF > CR. If no
// newline-mode bit is set, NewlineLF is the default.
func ResolveNewlineMode(f Flags) NewlineMode {
	switch {
	case f&FlagNewlineCRLF != 0:
		return NewlineCRLF
	case f&FlagNewlineAnyCRLF != 0:
		return NewlineAnyCRLF
	case f&FlagNewlineAny != 0:
		return NewlineAny
	case f&FlagNewlineLF != 0:
		return NewlineLF
	case f&FlagNewlineCR != 0:
		return NewlineCR
	default:
		return NewlineLF
	}
}

// OptimizationObjective is the resolved single-valued compile objective.
type OptimizationObjective uint8

const (
	OptimizeSpeed OptimizationObjective = iota
	OptimizeSize
)

// ResolveOptimizationObjective picks the single optimization objective a
// Flags value encodes, applying the priority order speed > size. Speed is
// the default when neither bit is set.
func ResolveOptimizationObjective(f Flags) OptimizationObjective {
	if f&FlagOptimizeSpeed != 0 {
		return OptimizeSpeed
	}
	if f&FlagOptimizeSize != 0 {
		return OptimizeSize
	}
	return OptimizeSpeed
}

// DefaultFlags returns the zero-value flag set: case-sensitive, single-line
// anchors, raw literals disabled, byte-wise scan advance, LF newline mode,
// speed-optimized.
func DefaultFlags() Flags {
	return 0
}

// Has reports whether every bit set in want is also set in f.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}
