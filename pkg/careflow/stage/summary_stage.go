package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"care-triage-be/internal/constant"
	"care-triage-be/internal/entity"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/reasoning"
)

type SummaryGenerationStage struct {
	client  reasoning.IReasoningClient
	enhance bool
	logger  logger.ILogger
}

// NewSummaryGenerationStage skips the paraphrase call when enhance is
// false or client is nil.
func NewSummaryGenerationStage(client reasoning.IReasoningClient, enhance bool, log logger.ILogger) *SummaryGenerationStage {
	return &SummaryGenerationStage{client: client, enhance: enhance && client != nil, logger: log}
}

func (s *SummaryGenerationStage) Name() string { return NameGenerateSummaries }

func (s *SummaryGenerationStage) Execute(ctx context.Context, state *State) (*Update, error) {
	pair := BuildSummaryPair(state.Record)
	if s.enhance {
		pair.User.LLMSummary = s.paraphrase(ctx, state)
	}
	return &Update{Summary: pair}, nil
}

// paraphrase returns "" on any failure; the user view then simply has no
// llm_summary.
func (s *SummaryGenerationStage) paraphrase(ctx context.Context, state *State) string {
	var triage, action []byte
	if state.Record != nil {
		triage, _ = json.Marshal(state.Record.Triage)
		action, _ = json.Marshal(state.Record.Action)
	}

	out, err := s.client.Generate(ctx, constant.SummaryEnhancementSystemPrompt,
		fmt.Sprintf(constant.SummaryEnhancementUserPrompt, triage, action))
	if err != nil {
		s.logger.Warn("Stage.Summary", "Summary enhancement skipped", map[string]interface{}{
			"case_id": state.CaseId.String(),
			"error":   err.Error(),
		})
		return ""
	}
	out = strings.TrimSpace(out)
	if out == "" {
		s.logger.Warn("Stage.Summary", "Summary enhancement returned empty text", map[string]interface{}{
			"case_id": state.CaseId.String(),
		})
	}
	return out
}

func BuildSummaryPair(record *entity.CaseRecord) *entity.SummaryPair {
	return &entity.SummaryPair{
		User:      BuildUserSummary(record),
		Clinician: BuildClinicianSummary(record),
	}
}

// BuildUserSummary echoes the case back to the patient. It depends only
// on the record snapshot.
func BuildUserSummary(record *entity.CaseRecord) entity.UserSummary {
	summary := entity.UserSummary{
		WhatYouReported: record.LastUtterance(),
		NextSteps:       []string{},
		Note:            constant.TriageSupportNote,
	}
	if record == nil {
		return summary
	}
	if t := record.Triage; t != nil {
		summary.TriageLevel = t.SeverityLevel
		summary.Reasoning = t.Rationale
		summary.WhatToDoNow = t.RecommendedAction
	}
	if a := record.Action.Clone(); a != nil {
		summary.NextSteps = a.Tasks
		summary.FollowUpDue = a.FollowUpDue
	}
	return summary
}

// BuildClinicianSummary is the structured hand-off view.
func BuildClinicianSummary(record *entity.CaseRecord) entity.ClinicianSummary {
	summary := entity.ClinicianSummary{
		AssociatedSymptoms: []string{},
		RedFlags:           []string{},
		Tasks:              []string{},
	}
	if record == nil {
		return summary
	}
	if s := record.LastSymptoms.Clone(); s != nil {
		summary.ChiefComplaint = s.ChiefComplaint
		summary.DurationDays = s.DurationDays
		summary.SeveritySelf = s.SeveritySelf
		if s.AssociatedSymptoms != nil {
			summary.AssociatedSymptoms = s.AssociatedSymptoms
		}
	}
	if t := record.Triage.Clone(); t != nil {
		summary.TriageLevel = t.SeverityLevel
		summary.Rationale = t.Rationale
		summary.RecommendedAction = t.RecommendedAction
		if t.RedFlagsTriggered != nil {
			summary.RedFlags = t.RedFlagsTriggered
		}
	}
	if a := record.Action.Clone(); a != nil {
		if a.Tasks != nil {
			summary.Tasks = a.Tasks
		}
		summary.FollowUpDue = a.FollowUpDue
	}
	return summary
}
