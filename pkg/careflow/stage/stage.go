// Package stage holds the steps of the care-triage pathway. Each stage
// reads a snapshot of the case and returns a partial update; it never
// writes to storage itself.
package stage

import (
	"context"

	"care-triage-be/internal/entity"

	"github.com/google/uuid"
)

const (
	NameExtractSymptoms   = "extract_symptoms"
	NameClassifySeverity  = "classify_severity"
	NamePlanAction        = "plan_action"
	NameGenerateSummaries = "generate_summaries"
)

// State is what a stage sees. Record is the working copy as merged so far
// and must be treated as read-only.
type State struct {
	CaseId    uuid.UUID
	Utterance string
	// ContextSnippets are contributed by inserted stages, such as a
	// retrieval step placed before severity classification.
	ContextSnippets []string
	Record          *entity.CaseRecord
}

// Update carries the fields a stage produced. Nil fields leave the
// record untouched; non-nil fields replace it wholesale.
type Update struct {
	Symptoms        *entity.SymptomFrame
	Triage          *entity.TriageVerdict
	Action          *entity.ActionPlan
	Summary         *entity.SummaryPair
	ContextSnippets []string
}

type Stage interface {
	Name() string
	// Execute returns an error only for faults the stage cannot absorb.
	// Reasoning failures are folded into fallback values instead.
	Execute(ctx context.Context, state *State) (*Update, error)
}

// Func adapts a plain function into a Stage.
type Func struct {
	StageName string
	Fn        func(ctx context.Context, state *State) (*Update, error)
}

func (f Func) Name() string { return f.StageName }

func (f Func) Execute(ctx context.Context, state *State) (*Update, error) {
	return f.Fn(ctx, state)
}
