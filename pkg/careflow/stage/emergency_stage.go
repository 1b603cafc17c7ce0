package stage

import (
	"context"
	"time"

	"care-triage-be/internal/entity"
)

const NameEmergencyExit = "emergency_exit"

// EmergencyExitStage is the alternate terminal for an emergency fast path:
// immediate handover with no follow-up and no paraphrase call. The default
// graph registers it without any route leading to it.
type EmergencyExitStage struct {
	now func() time.Time
}

func NewEmergencyExitStage(clock func() time.Time) *EmergencyExitStage {
	if clock == nil {
		clock = time.Now
	}
	return &EmergencyExitStage{now: clock}
}

func (s *EmergencyExitStage) Name() string { return NameEmergencyExit }

func (s *EmergencyExitStage) Execute(ctx context.Context, state *State) (*Update, error) {
	record := state.Record.Clone()
	if record == nil {
		record = &entity.CaseRecord{}
	}

	verdict := record.Triage.Clone()
	if verdict == nil {
		verdict = &entity.TriageVerdict{SeverityLevel: entity.SeverityUnknown}
	}
	verdict.RecommendedAction = entity.ActionEmergency

	record.Action = PlanAction(verdict, s.now())
	return &Update{Action: record.Action, Summary: BuildSummaryPair(record)}, nil
}
