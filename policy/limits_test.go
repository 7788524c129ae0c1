package policy

import "testing"

func TestRegistryEffectiveFallsThrough(t *testing.T) {
	r := NewRegistry(LimitConfig{MaxDepth: 100})
	eff := r.Effective(1, 1)
	if eff.MaxDepth != 100 {
		t.Fatalf("Effective MaxDepth = %d, want 100 (global fallthrough)", eff.MaxDepth)
	}
}

func TestRegistryPatternOverride(t *testing.T) {
	r := NewRegistry(LimitConfig{MaxDepth: 100})
	r.SetPattern(1, LimitConfig{OverrideParent: true, MaxDepth: 5})
	eff := r.Effective(1, 0)
	if eff.MaxDepth != 5 {
		t.Fatalf("Effective MaxDepth = %d, want 5 (pattern override)", eff.MaxDepth)
	}
	// A non-overriding pattern config must not mask the global default.
	r.SetPattern(2, LimitConfig{OverrideParent: false, MaxDepth: 9})
	eff2 := r.Effective(2, 0)
	if eff2.MaxDepth != 100 {
		t.Fatalf("Effective MaxDepth = %d, want 100 (no override)", eff2.MaxDepth)
	}
}

func TestRegistryMatchOverridesPattern(t *testing.T) {
	r := NewRegistry(LimitConfig{MaxDepth: 100})
	r.SetPattern(1, LimitConfig{OverrideParent: true, MaxDepth: 5})
	r.SetMatch(9, LimitConfig{OverrideParent: true, MaxDepth: 1})
	eff := r.Effective(1, 9)
	if eff.MaxDepth != 1 {
		t.Fatalf("Effective MaxDepth = %d, want 1 (match override)", eff.MaxDepth)
	}
	r.ClearMatch(9)
	eff = r.Effective(1, 9)
	if eff.MaxDepth != 5 {
		t.Fatalf("Effective MaxDepth after ClearMatch = %d, want 5", eff.MaxDepth)
	}
}

func TestEstimateComplexityZeroStates(t *testing.T) {
	if got := EstimateComplexity(ComplexityInput{}); got != 0 {
		t.Fatalf("EstimateComplexity(zero states) = %v, want 0", got)
	}
}

func TestEstimateComplexityMonotonicInNesting(t *testing.T) {
	base := ComplexityInput{States: 10, Transitions: 20}
	nested := base
	nested.MaxGroupNestingDepth = 3
	if EstimateComplexity(nested) <= EstimateComplexity(base) {
		t.Fatal("deeper group nesting should raise complexity")
	}
}

func TestScaledRawLiteralLimitsFloors(t *testing.T) {
	cfg := ScaledRawLiteralLimits(1000) // absurdly high complexity
	if cfg.MaxDepth != 400 {
		t.Fatalf("MaxDepth = %d, want floor 400", cfg.MaxDepth)
	}
	if cfg.MaxDurationMS != 1500 {
		t.Fatalf("MaxDurationMS = %d, want floor 1500", cfg.MaxDurationMS)
	}
	if cfg.MaxTransitions != 30000 {
		t.Fatalf("MaxTransitions = %d, want floor 30000", cfg.MaxTransitions)
	}
	if !cfg.OverrideParent {
		t.Fatal("high-complexity raw-literal limits should override parent")
	}
}

func TestScaledRawLiteralLimitsLowComplexity(t *testing.T) {
	cfg := ScaledRawLiteralLimits(0)
	if cfg.OverrideParent {
		t.Fatal("zero-complexity raw-literal limits should not override parent")
	}
	if cfg.MaxDepth != 2000 {
		t.Fatalf("MaxDepth = %d, want 2000 at zero complexity", cfg.MaxDepth)
	}
}

func TestBacktrackStateExceeds(t *testing.T) {
	s := &BacktrackState{Depth: 10}
	if !s.Exceeds(LimitConfig{MaxDepth: 5}) {
		t.Fatal("Exceeds should be true when Depth > MaxDepth")
	}
	if s.Exceeds(LimitConfig{MaxDepth: 20}) {
		t.Fatal("Exceeds should be false when Depth <= MaxDepth")
	}
}

func TestProgressTrackingStrategyActivatesOnStagnation(t *testing.T) {
	p := NewProgressTrackingStrategy(0, 3)
	s := &BacktrackState{InputLen: 100}
	var activated bool
	for i := 0; i < 5; i++ {
		activated = p.ShouldActivate(s)
		if activated {
			break
		}
	}
	if !activated {
		t.Fatal("ProgressTrackingStrategy never activated despite no progress")
	}
}

func TestProgressTrackingStrategyResetsOnProgress(t *testing.T) {
	p := NewProgressTrackingStrategy(0, 2)
	s := &BacktrackState{InputLen: 100}
	p.ShouldActivate(s)
	s.CurrentPos = 1 // forward movement resets stagnation
	if p.ShouldActivate(s) {
		t.Fatal("progress should have reset the stagnation counter")
	}
}

func TestManagerEvaluatePicksHighestPriority(t *testing.T) {
	m := NewManager() // comes with ProgressTrackingStrategy at priority 100
	m.Add(&fakeStrategy{active: true, priority: 200, action: ActionSwitchToDFA})
	action, ok := m.Evaluate(&BacktrackState{InputLen: 10})
	if !ok || action != ActionSwitchToDFA {
		t.Fatalf("Evaluate() = %v,%v want ActionSwitchToDFA,true", action, ok)
	}
}

type fakeStrategy struct {
	active   bool
	priority int
	action   BailoutAction
}

func (f *fakeStrategy) ShouldActivate(*BacktrackState) bool { return f.active }
func (f *fakeStrategy) Priority() int                       { return f.priority }
func (f *fakeStrategy) Execute(*BacktrackState) BailoutAction { return f.action }
