package oracle

import (
	"context"
	"errors"
	"testing"
)

// fakeValidator returns a canned validation (or error) and counts calls.
type fakeValidator struct {
	validation Validation
	err        error
	calls      int
}

func (f *fakeValidator) ValidateMatch(_ context.Context, _ []string, _ string, _ float64) (Validation, error) {
	f.calls++
	if f.err != nil {
		return Validation{}, f.err
	}
	return f.validation, nil
}

func (f *fakeValidator) ValidateEquivalence(_ context.Context, _, _ string) (bool, error) {
	return false, f.err
}

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		sim  float64
		want Tier
	}{
		{0.98, TierHigh},
		{0.97, TierHigh}, // confident boundary is inclusive
		{0.96, TierMedium},
		{0.85, TierMedium}, // floor boundary is inclusive
		{0.849, TierLow},
		{0.10, TierLow},
	}
	for _, c := range cases {
		if got := Classify(c.sim, 0.97, 0.85); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.sim, got, c.want)
		}
	}
}

// High tier confirms without spending an oracle call.
func TestJudge_HighTierSkipsOracle(t *testing.T) {
	fake := &fakeValidator{}
	e := NewEngine(fake, 0.97, 0.85)

	action, v, tier := e.Judge(context.Background(), []string{"h"}, "h2", 0.98)
	if action != ActionConfirm || tier != TierHigh || v.Decision != DecisionAccept {
		t.Errorf("expected auto-confirm, got action=%v tier=%v v=%+v", action, tier, v)
	}
	if fake.calls != 0 || e.Calls() != 0 {
		t.Errorf("high tier must not call the oracle (calls=%d)", fake.calls)
	}
}

func TestJudge_LowTierRejectsWithoutCall(t *testing.T) {
	fake := &fakeValidator{}
	e := NewEngine(fake, 0.97, 0.85)

	action, _, tier := e.Judge(context.Background(), []string{"h"}, "h2", 0.50)
	if action != ActionReject || tier != TierLow {
		t.Errorf("expected reject without call, got action=%v tier=%v", action, tier)
	}
	if fake.calls != 0 {
		t.Errorf("low tier must not call the oracle (calls=%d)", fake.calls)
	}
}

func TestJudge_MediumTierUsesOracle(t *testing.T) {
	fake := &fakeValidator{validation: Validation{Decision: DecisionAccept, Confidence: 0.9}}
	e := NewEngine(fake, 0.97, 0.85)

	action, _, tier := e.Judge(context.Background(), []string{"h"}, "h2", 0.90)
	if action != ActionConfirm || tier != TierMedium {
		t.Errorf("expected oracle confirm, got action=%v tier=%v", action, tier)
	}
	if fake.calls != 1 || e.Calls() != 1 {
		t.Errorf("expected exactly one oracle call, got %d", fake.calls)
	}
}

// Confident rejections reject; anything below the confidence bar goes to
// manual review, whichever way the verdict leans.
func TestJudge_ConfidenceBar(t *testing.T) {
	cases := []struct {
		v    Validation
		want Action
	}{
		{Validation{Decision: DecisionAccept, Confidence: 0.9}, ActionConfirm},
		{Validation{Decision: DecisionReject, Confidence: 0.9}, ActionReject},
		{Validation{Decision: DecisionAccept, Confidence: 0.65}, ActionManual},
		{Validation{Decision: DecisionReject, Confidence: 0.65}, ActionManual},
		{Validation{Decision: DecisionUncertain, Confidence: 0.95}, ActionManual},
	}
	for _, c := range cases {
		e := NewEngine(&fakeValidator{validation: c.v}, 0.97, 0.85)
		action, _, _ := e.Judge(context.Background(), nil, "h", 0.90)
		if action != c.want {
			t.Errorf("Judge with %+v = %v, want %v", c.v, action, c.want)
		}
	}
}

// An oracle failure must not admit the match.
func TestJudge_FailClosed(t *testing.T) {
	fake := &fakeValidator{err: errors.New("service unavailable")}
	e := NewEngine(fake, 0.97, 0.85)

	action, v, _ := e.Judge(context.Background(), nil, "h", 0.90)
	if action != ActionReject || v.Decision != DecisionError {
		t.Errorf("expected fail-closed reject, got action=%v v=%+v", action, v)
	}
}

func TestMock_Rule(t *testing.T) {
	cases := []struct {
		sim        float64
		decision   Decision
		confidence float64
	}{
		{0.95, DecisionAccept, 0.9},
		{0.92, DecisionAccept, 0.9},
		{0.90, DecisionUncertain, 0.6},
		{0.88, DecisionUncertain, 0.6},
		{0.86, DecisionReject, 0.8},
	}
	for _, c := range cases {
		v, err := Mock{}.ValidateMatch(context.Background(), nil, "h", c.sim)
		if err != nil {
			t.Fatalf("mock errored: %v", err)
		}
		if v.Decision != c.decision || v.Confidence != c.confidence {
			t.Errorf("Mock(%v) = %+v, want %v/%v", c.sim, v, c.decision, c.confidence)
		}
	}
}

func TestMock_EquivalenceAlwaysNegative(t *testing.T) {
	eq, err := Mock{}.ValidateEquivalence(context.Background(), "a", "b")
	if err != nil || eq {
		t.Errorf("expected negative verdict, got %v %v", eq, err)
	}
}

// A nil validator falls back to the mock rule.
func TestNewEngine_NilValidator(t *testing.T) {
	e := NewEngine(nil, 0.97, 0.85)
	action, _, _ := e.Judge(context.Background(), nil, "h", 0.93)
	if action != ActionConfirm {
		t.Errorf("expected mock accept at 0.93, got %v", action)
	}
}
