// Package prefilter accelerates the matcher's scan loop for patterns
// whose top level is nothing but a literal alternation (e.g. `foo|bar|
// baz`): rather than re-running the full bytecode program at every
// candidate offset, an Aho-Corasick automaton over the literal set finds
// the next possible start position directly.
package prefilter

import "github.com/coregx/ahocorasick"

// Index wraps a built Aho-Corasick automaton over a pattern's literal
// alternatives.
type Index struct {
	automaton *ahocorasick.Automaton
}

// Build constructs an Index from a set of literal alternatives, as
// produced by ast.CollectLiteralAlternatives. Returns ok=false (with a
// nil Index) if the literal set is empty or the automaton fails to build,
// in which case the caller should skip the prefilter entirely.
func Build(literals []string) (idx *Index, ok bool) {
	if len(literals) == 0 {
		return nil, false
	}
	builder := ahocorasick.NewBuilder()
	for _, lit := range literals {
		if lit == "" {
			return nil, false
		}
		builder.AddPattern([]byte(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, false
	}
	return &Index{automaton: auto}, true
}

// NextCandidate returns the start offset of the next literal occurrence
// at or after pos, or ok=false if none remains in input.
func (idx *Index) NextCandidate(input []byte, pos int) (offset int, ok bool) {
	if idx == nil || pos >= len(input) {
		return 0, false
	}
	m := idx.automaton.Find(input, pos)
	if m == nil {
		return 0, false
	}
	return m.Start, true
}
