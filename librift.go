package librift

import (
	"strings"
	"sync"

	"github.com/obinexus/monoglot-rift-sub000/ast"
	"github.com/obinexus/monoglot-rift-sub000/automaton"
	"github.com/obinexus/monoglot-rift-sub000/bytecode"
	"github.com/obinexus/monoglot-rift-sub000/matcher"
	"github.com/obinexus/monoglot-rift-sub000/parser"
	"github.com/obinexus/monoglot-rift-sub000/policy"
	"github.com/obinexus/monoglot-rift-sub000/prefilter"
	"github.com/obinexus/monoglot-rift-sub000/threadsafe"
)

// Pattern is a compiled, immutable regular expression, ready for matching
// from any number of goroutines via its threadsafe.Context.
type Pattern struct {
	compiled *matcher.Compiled
	ctx      *threadsafe.Context
}

var (
	patternIDMu   sync.Mutex
	nextPatternID int

	registryOnce sync.Once
	registry     *policy.Registry
)

func allocPatternID() int {
	patternIDMu.Lock()
	defer patternIDMu.Unlock()
	nextPatternID++
	return nextPatternID
}

func globalRegistry() *policy.Registry {
	registryOnce.Do(func() {
		cfg := GlobalConfig()
		registry = policy.NewRegistry(policy.LimitConfig{
			Scope:          policy.ScopeGlobal,
			MaxDepth:       cfg.MaxBacktrackDepth,
			MaxDurationMS:  cfg.DefaultTimeoutMS,
			MaxTransitions: defaultMaxTransitions,
		})
	})
	return registry
}

// defaultMaxTransitions bounds a non-raw-literal pattern's per-match
// transition count when Config carries no explicit override; chosen well
// above ScaledRawLiteralLimits' own floor so ordinary patterns are never
// the ones that hit it.
const defaultMaxTransitions = 1_000_000

// Compile parses pattern under flags and the process-wide GlobalConfig,
// returning a ready-to-match Pattern.
func Compile(pattern string, flags Flags) (*Pattern, error) {
	return CompileWithConfig(pattern, flags, GlobalConfig())
}

// MustCompile is like Compile but panics on error, for use with constant
// patterns known at init time.
func MustCompile(pattern string, flags Flags) *Pattern {
	p, err := Compile(pattern, flags)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileWithConfig parses pattern under flags and an explicit cfg,
// bypassing the process-wide global configuration.
func CompileWithConfig(pattern string, flags Flags, cfg Config) (*Pattern, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(pattern) > cfg.MaxPatternLength {
		return nil, NewError(KindLimitExceeded, "pattern exceeds MaxPatternLength")
	}
	if flags.Has(FlagRawLiteral) && !cfg.EnableRawLiteralSyntax {
		return nil, NewError(KindUnsupportedFeature, "raw literal syntax disabled by config")
	}

	root, groupCount, err := parser.Parse([]byte(pattern), parser.Options{
		Extended:          flags.Has(FlagExtended),
		RawLiteralEnabled: flags.Has(FlagRawLiteral) && cfg.EnableRawLiteralSyntax,
		MaxCaptureGroups:  cfg.MaxCaptureGroups,
	})
	if err != nil {
		return nil, wrapParserError(err)
	}

	buildResult, err := automaton.Build(root, groupCount, automaton.BuildOptions{
		CaseInsensitive: flags.Has(FlagCaseInsensitive),
		Multiline:       flags.Has(FlagMultiline),
		DotAll:          flags.Has(FlagDotAll),
		MaxStates:       cfg.MaxStates,
	})
	if err != nil {
		return nil, wrapBuildError(err)
	}

	nfa := buildResult.Automaton
	canUseDFA := cfg.UseDFAWhenPossible && automaton.CanDeterminize(buildResult)
	setBasedHint := canUseDFA
	if canUseDFA {
		dfa, derr := automaton.Determinize(nfa, cfg.MaxStates)
		if derr == nil {
			min, merr := automaton.Minimize(dfa)
			if merr == nil {
				dfa = min
			}
			buildResult = &automaton.BuildResult{
				Automaton:                  dfa,
				HasBackreferences:          false,
				HasVariableWidthLookbehind: false,
				Lookarounds:                nil,
				Backrefs:                   nil,
			}
		}
		// A determinize/minimize failure (e.g. a state-count overrun) falls
		// back silently to running the original NFA through the backtracking
		// executor; the pattern is still matchable, just not DFA-accelerated.
	}

	prog, err := bytecode.Compile(buildResult, uint32(flags), pattern)
	if err != nil {
		return nil, wrapBytecodeError(err)
	}
	if cfg.OptimizeAutomaton {
		bytecode.Optimize(prog)
	}

	id := allocPatternID()

	complexity := policy.EstimateComplexity(complexityInputFor(root, nfa))
	limits := defaultLimitsFor(cfg, complexity, flags.Has(FlagRawLiteral))
	globalRegistry().SetPattern(id, limits)
	effective := globalRegistry().Effective(id, 0)

	var pf *prefilter.Index
	if cfg.EnableAhoCorasickPrefilter {
		if lits, ok := ast.CollectLiteralAlternatives(root); ok {
			pf, _ = prefilter.Build(lits)
		}
	}

	compiled := &matcher.Compiled{
		ID:                id,
		Source:            pattern,
		Flags:             uint32(flags),
		Program:           prog,
		GroupNames:        collectGroupNames(root),
		UTF8:              flags.Has(FlagUTF8),
		ASCIIOptimization: cfg.EnableASCIIOptimization,
		SetBased:          setBasedHint && bytecode.CanRunSet(prog),
		Prefilter:         pf,
	}

	manager := policy.NewManager()
	ctx := threadsafe.New(compiled, effective, manager)

	return &Pattern{compiled: compiled, ctx: ctx}, nil
}

// complexityInputFor assembles the estimator's structural measurements from
// the parsed AST and the built (pre-bytecode) automaton.
func complexityInputFor(root *ast.Node, a *automaton.Automaton) policy.ComplexityInput {
	total, nested := ast.CountQuantifiers(root)
	return policy.ComplexityInput{
		States:                a.NumStates(),
		Transitions:           a.NumTransitions(),
		MaxGroupNestingDepth:  ast.MaxGroupNestingDepth(root),
		AlternationCount:      ast.CountAlternations(root),
		QuantifierCount:       total,
		NestedQuantifierCount: nested,
	}
}

// defaultLimitsFor picks the pattern's initial pattern-scoped LimitConfig:
// the continuous raw-literal scaling formula for raw-literal patterns, a
// cfg-derived fixed config otherwise.
func defaultLimitsFor(cfg Config, complexity float64, rawLiteral bool) policy.LimitConfig {
	if rawLiteral {
		return policy.ScaledRawLiteralLimits(complexity)
	}
	return policy.LimitConfig{
		Scope:          policy.ScopePattern,
		OverrideParent: true,
		MaxDepth:       cfg.MaxBacktrackDepth,
		MaxDurationMS:  cfg.DefaultTimeoutMS,
		MaxTransitions: defaultMaxTransitions,
	}
}

// collectGroupNames walks root for every named capturing group, building
// the name-to-index table the matcher and bytecode layers both need.
func collectGroupNames(root *ast.Node) map[string]int {
	names := make(map[string]int)
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind == ast.KindGroup && n.GroupVariant == ast.GroupCapturing && n.GroupName != "" {
			names[n.GroupName] = n.GroupIndex
		}
		return true
	})
	return names
}

func wrapParserError(err error) error {
	if pe, ok := err.(*parser.Error); ok {
		return NewErrorAt(parserKindToLibrift(pe.Kind), pe.Msg, pe.Pos)
	}
	return NewError(KindSyntax, err.Error())
}

func parserKindToLibrift(k parser.ErrorKind) ErrorKind {
	switch k {
	case parser.ErrInvalidParameter:
		return KindInvalidParameter
	case parser.ErrUnsupportedFeature:
		return KindUnsupportedFeature
	case parser.ErrLimitExceeded:
		return KindLimitExceeded
	default:
		return KindSyntax
	}
}

func wrapBuildError(err error) error {
	if _, ok := err.(*automaton.LimitError); ok {
		return NewError(KindLimitExceeded, err.Error())
	}
	if strings.Contains(err.Error(), "exceeds max_states") {
		return NewError(KindLimitExceeded, err.Error())
	}
	return NewError(KindInternal, err.Error())
}

func wrapBytecodeError(err error) error {
	return NewError(KindInternal, err.Error())
}

// Matches reports whether p's match found from offset 0 starts at 0 and
// spans all of input; see matcher.Context.Matches for which match is
// checked.
func (p *Pattern) Matches(input []byte) (bool, error) {
	var matched bool
	err := p.ctx.Execute(func(mc *matcher.Context, _ any) error {
		matched = mc.Matches(input) != nil
		return nil
	}, nil)
	return matched, err
}

// FindNext returns the first match at or after from, or nil if none exists.
func (p *Pattern) FindNext(input []byte, from int) (*matcher.MatchResult, error) {
	var result *matcher.MatchResult
	err := p.ctx.Execute(func(mc *matcher.Context, _ any) error {
		result = mc.FindNext(input, from)
		return nil
	}, nil)
	return result, err
}

// FindAll returns up to max non-overlapping matches (max<=0 means
// unlimited).
func (p *Pattern) FindAll(input []byte, max int) ([]*matcher.MatchResult, error) {
	var results []*matcher.MatchResult
	err := p.ctx.Execute(func(mc *matcher.Context, _ any) error {
		results = mc.FindAll(input, max)
		return nil
	}, nil)
	return results, err
}

// Replace substitutes every non-overlapping match of p in input with repl,
// honoring `$1`/`${name}` backreferences, returning the result and the
// substitution count.
func (p *Pattern) Replace(input []byte, repl string) ([]byte, int, error) {
	var out []byte
	var count int
	err := p.ctx.Execute(func(mc *matcher.Context, _ any) error {
		out, count = mc.Replace(input, repl)
		return nil
	}, nil)
	return out, count, err
}

// Split divides input around matches of p, returning at most max pieces
// (max<=0 means unlimited).
func (p *Pattern) Split(input []byte, max int) ([][]byte, error) {
	var pieces [][]byte
	err := p.ctx.Execute(func(mc *matcher.Context, _ any) error {
		pieces = mc.Split(input, max)
		return nil
	}, nil)
	return pieces, err
}

// Source returns the pattern's original source text.
func (p *Pattern) Source() string { return p.compiled.Source }

// GroupNames returns the name-to-index table of the pattern's named
// capturing groups.
func (p *Pattern) GroupNames() map[string]int {
	out := make(map[string]int, len(p.compiled.GroupNames))
	for k, v := range p.compiled.GroupNames {
		out[k] = v
	}
	return out
}
