// Package dsl is the thin façade a `.rift` pattern-bundle file's loader
// drives: it accepts named patterns with their flag lists and per-pattern
// test cases, compiles each pattern through the core, runs every case, and
// reports the actual outcome. Parsing the bundle file's own text format is
// out of scope here — spec.md's C11 names only the compile-time contract
// between a loader and the core, not the file grammar itself.
package dsl

import (
	"fmt"

	librift "github.com/obinexus/monoglot-rift-sub000"
)

// PatternSpec names one pattern in a bundle: its source text and the flag
// names that apply to it.
type PatternSpec struct {
	Name   string
	Source string
	Flags  []string
}

// TestCase is one input a bundle associates with a named pattern, along
// with the expectation a bundle author recorded for it. ExpectedGroups is
// optional: a nil slice means "don't check group contents", only the
// match/no-match outcome.
type TestCase struct {
	Input          []byte
	ExpectMatch    bool
	ExpectedGroups []string
}

// Bundle is the decoded form of a `.rift` file: every named pattern plus
// the test cases keyed by the pattern name they exercise.
type Bundle struct {
	Patterns []PatternSpec
	Tests    map[string][]TestCase
}

// CaseResult is what the core reports back for one test case: the actual
// match outcome and, if matched, the actual capture-group text.
type CaseResult struct {
	Matched bool
	Groups  []string
	Err     error
}

// PatternResult collects every test case's outcome for one pattern, plus
// the pattern's own compile error if it failed to compile at all.
type PatternResult struct {
	Name        string
	CompileErr  error
	CaseResults []CaseResult
}

// flagNames maps a bundle's string flag names to the core's Flags bits.
// Names mirror the identifiers flags.go exports, lowercased with
// underscores in place of camel case, since a bundle file is plain text.
var flagNames = map[string]librift.Flags{
	"case_insensitive": librift.FlagCaseInsensitive,
	"multiline":        librift.FlagMultiline,
	"dot_all":          librift.FlagDotAll,
	"extended":         librift.FlagExtended,
	"ungreedy":         librift.FlagUngreedy,
	"raw_literal":      librift.FlagRawLiteral,
	"utf8":             librift.FlagUTF8,
	"newline_crlf":     librift.FlagNewlineCRLF,
	"newline_anycrlf":  librift.FlagNewlineAnyCRLF,
	"newline_any":      librift.FlagNewlineAny,
	"newline_lf":       librift.FlagNewlineLF,
	"newline_cr":       librift.FlagNewlineCR,
	"optimize_speed":   librift.FlagOptimizeSpeed,
	"optimize_size":    librift.FlagOptimizeSize,
}

// resolveFlags ORs together the Flags bits a bundle's flag-name list names,
// erroring on any name this build doesn't recognize.
func resolveFlags(names []string) (librift.Flags, error) {
	var f librift.Flags
	for _, name := range names {
		bit, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("dsl: unknown flag name %q", name)
		}
		f |= bit
	}
	return f, nil
}

// Run compiles every pattern in bundle and drives its associated test
// cases through the core, returning one PatternResult per pattern in
// bundle.Patterns order. A pattern that fails to compile still gets a
// PatternResult (with CompileErr set and no case results); Run itself only
// errors on a malformed bundle (an unknown flag name).
func Run(bundle Bundle) ([]PatternResult, error) {
	out := make([]PatternResult, 0, len(bundle.Patterns))
	for _, spec := range bundle.Patterns {
		flags, err := resolveFlags(spec.Flags)
		if err != nil {
			return nil, err
		}
		pr := PatternResult{Name: spec.Name}
		pat, err := librift.Compile(spec.Source, flags)
		if err != nil {
			pr.CompileErr = err
			out = append(out, pr)
			continue
		}
		for _, tc := range bundle.Tests[spec.Name] {
			pr.CaseResults = append(pr.CaseResults, runCase(pat, tc))
		}
		out = append(out, pr)
	}
	return out, nil
}

func runCase(pat *librift.Pattern, tc TestCase) CaseResult {
	m, err := pat.FindNext(tc.Input, 0)
	if err != nil {
		return CaseResult{Err: err}
	}
	if m == nil {
		return CaseResult{Matched: false}
	}
	groups := make([]string, len(m.Groups))
	for i, g := range m.Groups {
		if g.Set {
			groups[i] = string(tc.Input[g.Start:g.End])
		}
	}
	return CaseResult{Matched: true, Groups: groups}
}
