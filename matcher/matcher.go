// Package matcher implements the matcher runtime (spec.md §4.5): it holds
// the input bytes, current position, and capture-group table; drives
// either the set-based or bounded-backtracking bytecode executor; and
// produces MatchResult values for the five public operations.
package matcher

import (
	"bytes"

	"github.com/obinexus/monoglot-rift-sub000/bytecode"
	"github.com/obinexus/monoglot-rift-sub000/captures"
	"github.com/obinexus/monoglot-rift-sub000/internal/cpudetect"
	"github.com/obinexus/monoglot-rift-sub000/policy"
	"github.com/obinexus/monoglot-rift-sub000/prefilter"
)

// Compiled is the immutable artifact a Context matches against: the
// bytecode program plus the metadata needed to size capture tables and
// look up effective backtrack limits. Safe for concurrent reads by many
// Contexts (see the threadsafe package).
type Compiled struct {
	ID         int
	Source     string
	Flags      uint32
	Program    *bytecode.Program
	GroupNames map[string]int
	UTF8       bool
	// ASCIIOptimization mirrors Config.EnableASCIIOptimization: when true
	// and the running architecture offers cpudetect.FastPathAvailable,
	// FindNext probes each input once with cpudetect.IsASCII and, on an
	// all-ASCII haystack, advances the scan loop one byte at a time even
	// under UTF8 mode — identical to full code-point decoding for ASCII
	// text, but without paying the per-byte decode branch.
	ASCIIOptimization bool
	// SetBased is true when Program was lowered from a DFA and contains no
	// BACKREF/LOOKAHEAD/LOOKBEHIND instructions, letting FindNext use the
	// set-based executor instead of the bounded-backtracking one. NFA-lowered
	// programs always run on the backtracking executor.
	SetBased bool
	// Prefilter accelerates find_next's scan loop when the pattern's top
	// level is a literal alternation (e.g. `foo|bar|baz`); nil if the
	// pattern doesn't reduce to one.
	Prefilter *prefilter.Index
}

// Context is the mutable, single-threaded matcher context spec.md §3
// names: input bytes, current position, capture-group table, and the
// compiled pattern it was bound to. A Context is reused across match
// attempts via Reset; it is not safe for concurrent use — see the
// threadsafe package for a pooled wrapper.
type Context struct {
	pattern   *Compiled
	input     []byte
	pos       int
	caps      *captures.Table
	last      *StateError
	manager   *policy.Manager
	limits    policy.LimitConfig
	asciiFast bool
}

// StateError reports a match-attempt failure distinguishable from plain
// "no match": limit-exceeded or aborted.
type StateError struct {
	LimitExceeded bool
	Aborted       bool
}

func (e *StateError) Error() string {
	switch {
	case e == nil:
		return "matcher: <nil>"
	case e.Aborted:
		return "matcher: aborted"
	case e.LimitExceeded:
		return "matcher: limit exceeded"
	default:
		return "matcher: failed"
	}
}

// NewContext binds a fresh Context to a compiled pattern, ready for
// set_input. limits is the effective backtrack-limit config computed by
// the caller from the policy registry (global ∘ pattern ∘ match scopes).
func NewContext(p *Compiled, limits policy.LimitConfig, manager *policy.Manager) *Context {
	return &Context{
		pattern: p,
		caps:    captures.New(groupCount(p), p.GroupNames),
		manager: manager,
		limits:  limits,
	}
}

func groupCount(p *Compiled) int { return p.Program.GroupCount }

// SetInput binds new input bytes and resets position to 0. Per spec.md
// §4.6, this is not safe to call concurrently with Execute on a shared
// wrapper; callers either set input inside the callback or serialize it.
func (c *Context) SetInput(input []byte) {
	c.input = input
	c.pos = 0
	c.last = nil
	c.caps.Reset()
	c.asciiFast = c.computeASCIIFast(input)
}

// computeASCIIFast reports whether the UTF-8-aware scan-loop advance can be
// skipped in favor of a plain one-byte stride for this input: the pattern's
// ASCII optimization is enabled, the architecture has a fast path for the
// probe, and the input actually is all-ASCII (every code point is exactly
// one byte, so the two advance rules agree).
func (c *Context) computeASCIIFast(input []byte) bool {
	return c.pattern.UTF8 && c.pattern.ASCIIOptimization &&
		cpudetect.FastPathAvailable() && cpudetect.IsASCII(input)
}

// sameBacking reports whether a and b are the same slice (identical
// length and, when non-empty, identical backing array + offset), so
// repeated FindNext calls over one caller-held buffer (FindAll, Replace,
// Split) don't re-run the ASCII probe on every advance.
func sameBacking(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

// Reset returns the context to the Bound state (spec.md §4.5's state
// machine) at the given offset, without discarding the bound input.
func (c *Context) Reset(pos int) {
	c.pos = pos
	c.last = nil
	c.caps.Reset()
}

// LastError reports the most recent match attempt's failure detail, or
// nil if the last attempt completed normally (matched or plain no-match).
func (c *Context) LastError() *StateError { return c.last }

// MatchResult is the lifecycle-managed result spec.md §3 names: owned by
// the caller, released through Release.
type MatchResult struct {
	Start, End int
	Groups     []GroupSlice
	released   bool
}

// GroupSlice is one capture group's recorded span, or an unset slice if
// the group never matched on the winning path.
type GroupSlice struct {
	Name       string
	Start, End int
	Set        bool
}

// Text returns the whole match's substring of input.
func (m *MatchResult) Text(input []byte) []byte {
	if m == nil {
		return nil
	}
	return input[m.Start:m.End]
}

// Release marks m as freed. Using m after Release is a caller bug, not a
// checked condition (matching spec.md's "owned by the caller, freed
// through the result's dedicated release operation").
func (m *MatchResult) Release() {
	if m == nil {
		return
	}
	m.released = true
	m.Groups = nil
}

func runAt(p *Compiled, input []byte, pos int, limits policy.LimitConfig, manager *policy.Manager) (*bytecode.ThreadResult, bool, bool) {
	if p.SetBased {
		r := bytecode.RunSet(p.Program, input, pos)
		return r, r == nil, false
	}
	r, outcome := bytecode.RunBacktrack(p.Program, input, pos, limits, manager)
	switch outcome {
	case bytecode.OutcomeAccepted:
		return r, false, false
	case bytecode.OutcomeAborted:
		return nil, true, true
	default:
		return nil, true, false
	}
}

func toResult(p *Compiled, r *bytecode.ThreadResult) *MatchResult {
	groups := make([]GroupSlice, r.Captures.Len())
	names := make([]string, len(groups))
	for name, idx := range p.GroupNames {
		if idx >= 0 && idx < len(names) {
			names[idx] = name
		}
	}
	for i := range groups {
		s, e, ok := r.Captures.Group(i)
		groups[i] = GroupSlice{Name: names[i], Start: s, End: e, Set: ok}
	}
	return &MatchResult{Start: r.Start, End: r.End, Groups: groups}
}

// nextOffset advances pos by one byte, or by one full UTF-8 code point
// when the pattern's UTF8 flag is set (spec.md §4.5's scan-loop rule).
func nextOffset(input []byte, pos int, utf8Mode bool) int {
	if !utf8Mode || pos >= len(input) {
		return pos + 1
	}
	b := input[pos]
	switch {
	case b < 0x80:
		return pos + 1
	case b&0xE0 == 0xC0:
		return pos + 2
	case b&0xF0 == 0xE0:
		return pos + 3
	case b&0xF8 == 0xF0:
		return pos + 4
	default:
		return pos + 1
	}
}

// Matches reports a full match of input: it runs FindNext from offset 0 and
// returns that match only if it starts at 0 and ends at len(input), nil
// otherwise. Only the executor's preferred match at the first matching
// offset is checked; other paths are not tried, so a pattern whose
// preferred match there is shorter than the input (for example `a|ab`
// against "ab" on the backtracking executor) reports no match.
func (c *Context) Matches(input []byte) *MatchResult {
	c.SetInput(input)
	r := c.FindNext(input, 0)
	if r == nil || r.Start != 0 || r.End != len(input) {
		return nil
	}
	return r
}

// FindNext implements the scan loop spec.md §4.5 specifies: try at from,
// and on failure advance by one byte (or one code point under the UTF8
// flag) and retry, until the offset passes the input length.
func (c *Context) FindNext(input []byte, from int) *MatchResult {
	if !sameBacking(c.input, input) {
		c.asciiFast = c.computeASCIIFast(input)
	}
	c.input = input
	utf8Mode := c.pattern.UTF8 && !c.asciiFast
	for pos := from; pos <= len(input); {
		if c.pattern.Prefilter != nil {
			next, ok := c.pattern.Prefilter.NextCandidate(input, pos)
			if !ok {
				return nil
			}
			pos = next
		}
		r, failed, aborted := runAt(c.pattern, input, pos, c.limits, c.manager)
		if aborted {
			c.last = &StateError{Aborted: true}
			return nil
		}
		if !failed {
			c.last = nil
			return toResult(c.pattern, r)
		}
		pos = nextOffset(input, pos, utf8Mode)
	}
	return nil
}

// FindAll returns up to max non-overlapping, left-to-right matches.
func (c *Context) FindAll(input []byte, max int) []*MatchResult {
	var out []*MatchResult
	pos := 0
	for (max <= 0 || len(out) < max) && pos <= len(input) {
		m := c.FindNext(input, pos)
		if m == nil {
			break
		}
		out = append(out, m)
		if m.End > m.Start {
			pos = m.End
		} else {
			pos = nextOffset(input, m.End, c.pattern.UTF8)
		}
	}
	return out
}

// Replace substitutes every non-overlapping match with repl, honoring
// `$1`/`${name}` backreferences into the match's own capture groups, and
// returns the result plus the substitution count.
func (c *Context) Replace(input []byte, repl string) ([]byte, int) {
	var out bytes.Buffer
	pos, count := 0, 0
	for pos <= len(input) {
		m := c.FindNext(input, pos)
		if m == nil {
			out.Write(input[pos:])
			break
		}
		out.Write(input[pos:m.Start])
		out.Write(expandTemplate(repl, input, m))
		count++
		if m.End > m.Start {
			pos = m.End
		} else {
			if m.End < len(input) {
				out.WriteByte(input[m.End])
			}
			pos = nextOffset(input, m.End, c.pattern.UTF8)
		}
	}
	return out.Bytes(), count
}

// Split divides input around matches of the pattern, returning at most max
// pieces (max<=0 means unlimited); the last piece holds the rest of input.
func (c *Context) Split(input []byte, max int) [][]byte {
	var out [][]byte
	pos, pieces := 0, 0
	for {
		if max > 0 && pieces >= max-1 {
			break
		}
		m := c.FindNext(input, pos)
		if m == nil {
			break
		}
		out = append(out, input[pos:m.Start])
		pieces++
		if m.End > m.Start {
			pos = m.End
		} else {
			pos = nextOffset(input, m.End, c.pattern.UTF8)
		}
	}
	out = append(out, input[pos:])
	return out
}

// expandTemplate resolves `$1`..`$9` and `${name}` references in repl
// against m's capture groups on input.
func expandTemplate(repl string, input []byte, m *MatchResult) []byte {
	var out bytes.Buffer
	for i := 0; i < len(repl); i++ {
		if repl[i] != '$' || i+1 >= len(repl) {
			out.WriteByte(repl[i])
			continue
		}
		if repl[i+1] == '{' {
			end := i + 2
			for end < len(repl) && repl[end] != '}' {
				end++
			}
			if end < len(repl) {
				name := repl[i+2 : end]
				writeGroupByName(&out, m, input, name)
				i = end
				continue
			}
		}
		if repl[i+1] >= '0' && repl[i+1] <= '9' {
			n := int(repl[i+1] - '0')
			writeGroupByIndex(&out, m, input, n)
			i++
			continue
		}
		out.WriteByte(repl[i])
	}
	return out.Bytes()
}

func writeGroupByIndex(out *bytes.Buffer, m *MatchResult, input []byte, n int) {
	if n < 0 || n >= len(m.Groups) {
		return
	}
	g := m.Groups[n]
	if g.Set {
		out.Write(input[g.Start:g.End])
	}
}

func writeGroupByName(out *bytes.Buffer, m *MatchResult, input []byte, name string) {
	for _, g := range m.Groups {
		if g.Name == name && g.Set {
			out.Write(input[g.Start:g.End])
			return
		}
	}
}
