package librift

import "sync"

// Config holds process-wide defaults for compilation and matching. It is
// initialized lazily on first use via GlobalConfig and can be reset to
// defaults with ResetGlobalConfig. Embedders that want explicit control
// construct their own Config with DefaultConfig and pass it into
// CompileWithConfig rather than touching the process-wide singleton.
type Config struct {
	// MaxPatternLength rejects any pattern source longer than this many
	// bytes at compile time.
	MaxPatternLength int

	// MaxStates aborts automaton construction if it would exceed this
	// many states.
	MaxStates int

	// MaxBacktrackDepth is the default for the global backtrack-limit
	// config (policy.ScopeGlobal).
	MaxBacktrackDepth int

	// DefaultTimeoutMS is the default wall-clock limit, in milliseconds,
	// for the global backtrack-limit config.
	DefaultTimeoutMS int

	// OptimizeAutomaton toggles the bytecode optimizer pass (NOP removal,
	// jump folding, tail deduping).
	OptimizeAutomaton bool

	// UseDFAWhenPossible toggles whether the automaton builder performs
	// subset construction/minimization when the pattern supports it. If
	// false, matching always uses the NFA/backtracking path.
	UseDFAWhenPossible bool

	// EnableRawLiteralSyntax gates the r'…'/r"…" envelope independent of
	// any FlagRawLiteral passed per-pattern; both must allow it.
	EnableRawLiteralSyntax bool

	// MaxCaptureGroups rejects patterns with more capturing groups than
	// this at parse time.
	MaxCaptureGroups int

	// EnableASCIIOptimization lets the matcher runtime skip per-rune
	// UTF-8 decoding when internal/cpudetect reports an all-ASCII
	// haystack. Mirrors the teacher's meta.Config.EnableASCIIOptimization.
	EnableASCIIOptimization bool

	// EnableAhoCorasickPrefilter lets the matcher runtime build an
	// Aho-Corasick automaton over a literal alternation's branches and
	// consult it before running the bytecode VM or automaton.
	EnableAhoCorasickPrefilter bool
}

// DefaultConfig returns a Config populated with conservative, broadly-safe
// defaults.
func DefaultConfig() Config {
	return Config{
		MaxPatternLength:           64 * 1024,
		MaxStates:                  200_000,
		MaxBacktrackDepth:          4_000,
		DefaultTimeoutMS:           2_000,
		OptimizeAutomaton:          true,
		UseDFAWhenPossible:         true,
		EnableRawLiteralSyntax:     false,
		MaxCaptureGroups:           1_000,
		EnableASCIIOptimization:    true,
		EnableAhoCorasickPrefilter: true,
	}
}

// Validate checks a Config for internally-consistent, in-range values.
func (c Config) Validate() error {
	if c.MaxPatternLength <= 0 {
		return &ConfigError{Field: "MaxPatternLength", Message: "must be positive"}
	}
	if c.MaxStates <= 0 {
		return &ConfigError{Field: "MaxStates", Message: "must be positive"}
	}
	if c.MaxBacktrackDepth <= 0 {
		return &ConfigError{Field: "MaxBacktrackDepth", Message: "must be positive"}
	}
	if c.DefaultTimeoutMS <= 0 {
		return &ConfigError{Field: "DefaultTimeoutMS", Message: "must be positive"}
	}
	if c.MaxCaptureGroups <= 0 {
		return &ConfigError{Field: "MaxCaptureGroups", Message: "must be positive"}
	}
	return nil
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "librift: invalid config: " + e.Field + ": " + e.Message
}

var (
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
	globalConfig     Config
)

func initGlobalConfig() {
	globalConfig = DefaultConfig()
}

// GlobalConfig returns the process-wide configuration, initializing it to
// defaults on first use.
func GlobalConfig() Config {
	globalConfigOnce.Do(initGlobalConfig)
	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobalConfig replaces the process-wide configuration.
func SetGlobalConfig(c Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = c
}

// ResetGlobalConfig restores the process-wide configuration to
// DefaultConfig().
func ResetGlobalConfig() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = DefaultConfig()
}
