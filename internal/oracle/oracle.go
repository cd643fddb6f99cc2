// Package oracle implements the validation tiering contract: high-confidence
// matches auto-accept, borderline matches go to an external semantic judge,
// low-similarity matches are rejected without spending a call.
package oracle

import (
	"context"
	"log"
)

// #region types

// Decision is the oracle's verdict on a candidate match.
type Decision string

const (
	DecisionAccept    Decision = "accept"
	DecisionReject    Decision = "reject"
	DecisionUncertain Decision = "uncertain"
	// DecisionError marks an oracle failure after retries. Treated as
	// reject everywhere a match outcome is needed (fail-closed).
	DecisionError Decision = "error"
)

// Validation is one oracle response for a borderline candidate.
type Validation struct {
	Decision   Decision
	Confidence float64
	Rationale  string
}

// Action is what the tiering engine tells the driver to do with a match.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
	// ActionManual routes the candidate to the manual-review queue. The
	// chain is not mutated.
	ActionManual Action = "manual"
)

// Tier classifies a candidate's similarity against the two thresholds.
type Tier string

const (
	TierHigh   Tier = "high"   // sim >= confident: auto-accept
	TierMedium Tier = "medium" // floor <= sim < confident: ask the oracle
	TierLow    Tier = "low"    // sim < floor: reject, no call
)

// Validator is the external semantic judge. Implementations may be backed
// by a model service or by the deterministic mock fallback.
type Validator interface {
	ValidateMatch(ctx context.Context, history []string, candidate string, similarity float64) (Validation, error)
	ValidateEquivalence(ctx context.Context, headerA, headerB string) (bool, error)
}

// #endregion types

// #region tiering

// Classify places a similarity into its validation tier. The confident
// boundary is inclusive: sim == confident is high tier.
func Classify(sim, confident, floor float64) Tier {
	switch {
	case sim >= confident:
		return TierHigh
	case sim >= floor:
		return TierMedium
	default:
		return TierLow
	}
}

// Engine applies tier policy to candidate matches.
type Engine struct {
	validator Validator
	confident float64
	floor     float64
	calls     int
}

// NewEngine creates a tiering engine. A nil validator falls back to the
// deterministic mock rule.
func NewEngine(validator Validator, confident, floor float64) *Engine {
	if validator == nil {
		validator = Mock{}
	}
	return &Engine{validator: validator, confident: confident, floor: floor}
}

// Calls returns how many oracle validations the engine has issued.
func (e *Engine) Calls() int {
	return e.calls
}

// Judge decides the fate of one candidate match. Only medium-tier
// candidates cost an oracle call; an oracle failure degrades to reject.
func (e *Engine) Judge(ctx context.Context, history []string, candidate string, sim float64) (Action, Validation, Tier) {
	tier := Classify(sim, e.confident, e.floor)
	switch tier {
	case TierHigh:
		return ActionConfirm, Validation{Decision: DecisionAccept, Confidence: 1.0, Rationale: "above confident threshold"}, tier
	case TierLow:
		return ActionReject, Validation{Decision: DecisionReject, Confidence: 1.0, Rationale: "below oracle floor"}, tier
	}

	e.calls++
	v, err := e.validator.ValidateMatch(ctx, history, candidate, sim)
	if err != nil {
		log.Printf("[ORACLE] validate failed, rejecting (sim=%.3f): %v", sim, err)
		return ActionReject, Validation{Decision: DecisionError, Rationale: err.Error()}, tier
	}
	return actionFor(v), v, tier
}

// actionFor maps a decision and its confidence to an action. Low-confidence
// verdicts of either polarity go to manual review.
func actionFor(v Validation) Action {
	switch {
	case v.Decision == DecisionAccept && v.Confidence >= 0.7:
		return ActionConfirm
	case v.Decision == DecisionReject && v.Confidence >= 0.7:
		return ActionReject
	default:
		return ActionManual
	}
}

// #endregion tiering

// #region mock

// Mock is the similarity-only fallback used when no oracle is configured.
type Mock struct{}

// ValidateMatch applies the documented mock rule: >=0.92 accept,
// >=0.88 uncertain, else reject.
func (Mock) ValidateMatch(_ context.Context, _ []string, _ string, similarity float64) (Validation, error) {
	switch {
	case similarity >= 0.92:
		return Validation{Decision: DecisionAccept, Confidence: 0.9, Rationale: "high similarity"}, nil
	case similarity >= 0.88:
		return Validation{Decision: DecisionUncertain, Confidence: 0.6, Rationale: "moderate similarity"}, nil
	default:
		return Validation{Decision: DecisionReject, Confidence: 0.8, Rationale: "low similarity"}, nil
	}
}

// ValidateEquivalence without an oracle is always negative: consolidation
// merges need positive semantic confirmation.
func (Mock) ValidateEquivalence(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

// #endregion mock
