package stage

import (
	"context"
	"strings"
	"time"

	"care-triage-be/internal/constant"
	"care-triage-be/internal/entity"
)

// Follow-up delay per recommended action. Emergency has no follow-up
// (immediate handover); any other action uses DefaultFollowUp.
var FollowUpAfter = map[string]time.Duration{
	entity.ActionSelfCare: 24 * time.Hour,
	entity.ActionReferral: 36 * time.Hour,
}

const DefaultFollowUp = 12 * time.Hour

// ActionPlanningStage makes no external calls.
type ActionPlanningStage struct {
	now func() time.Time
}

// NewActionPlanningStage uses time.Now when clock is nil.
func NewActionPlanningStage(clock func() time.Time) *ActionPlanningStage {
	if clock == nil {
		clock = time.Now
	}
	return &ActionPlanningStage{now: clock}
}

func (s *ActionPlanningStage) Name() string { return NamePlanAction }

// Execute recomputes follow_up_due from the current clock on every run,
// including resumed cases; a previously stored due date is not reused.
func (s *ActionPlanningStage) Execute(ctx context.Context, state *State) (*Update, error) {
	var verdict *entity.TriageVerdict
	if state.Record != nil {
		verdict = state.Record.Triage
	}
	return &Update{Action: PlanAction(verdict, s.now())}, nil
}

// PlanAction maps a verdict into a plan. The verdict is not modified and
// the disclaimer appears in the task list exactly once.
func PlanAction(verdict *entity.TriageVerdict, now time.Time) *entity.ActionPlan {
	action := entity.ActionManualReview
	var instructions []string
	if verdict != nil {
		action = verdict.RecommendedAction
		instructions = verdict.CareInstructions
	}

	tasks := make([]string, 0, len(instructions)+1)
	tasks = append(tasks, instructions...)
	if len(tasks) == 0 {
		tasks = append(tasks, constant.FallbackInstructionRest, constant.FallbackInstructionWorsening)
	}
	if !strings.Contains(strings.Join(tasks, " "), constant.MedicalAdviceDisclaimerMarker) {
		tasks = append(tasks, constant.MedicalAdviceDisclaimer)
	}

	return &entity.ActionPlan{
		ActionType:  action,
		Tasks:       tasks,
		FollowUpDue: followUpDue(action, now),
	}
}

func followUpDue(action string, now time.Time) *time.Time {
	if action == entity.ActionEmergency {
		return nil
	}
	delay, ok := FollowUpAfter[action]
	if !ok {
		delay = DefaultFollowUp
	}
	due := now.UTC().Add(delay)
	return &due
}
