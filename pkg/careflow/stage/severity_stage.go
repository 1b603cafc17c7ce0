package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"care-triage-be/internal/constant"
	"care-triage-be/internal/entity"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/extract"
	"care-triage-be/pkg/reasoning"
)

// The fallback verdict is the system's safe-failure state: it always
// escalates to manual review, never to self-care.
var verdictFields = []extract.Field{
	{Key: "severity_level", Default: string(entity.SeverityUnknown)},
	{Key: "rationale", Default: constant.TriageParseFailureRationale},
	{Key: "recommended_action", Default: entity.ActionManualReview},
	{Key: "red_flags_triggered", Default: []string{}},
	{Key: "care_instructions", Default: []string{}, FromRaw: true},
}

var actionAliases = map[string]string{
	entity.ActionSelfCare:     entity.ActionSelfCare,
	"self care":               entity.ActionSelfCare,
	"self_care":               entity.ActionSelfCare,
	entity.ActionReferral:     entity.ActionReferral,
	entity.ActionEmergency:    entity.ActionEmergency,
	entity.ActionManualReview: entity.ActionManualReview,
	"manual-review":           entity.ActionManualReview,
}

type SeverityClassificationStage struct {
	client reasoning.IReasoningClient
	logger logger.ILogger
}

func NewSeverityClassificationStage(client reasoning.IReasoningClient, log logger.ILogger) *SeverityClassificationStage {
	return &SeverityClassificationStage{client: client, logger: log}
}

func (s *SeverityClassificationStage) Name() string { return NameClassifySeverity }

func (s *SeverityClassificationStage) Execute(ctx context.Context, state *State) (*Update, error) {
	raw, err := s.client.Generate(ctx, constant.SeverityClassificationSystemPrompt, s.userContext(state))
	if err != nil {
		s.logger.Warn("Stage.Severity", "Reasoning unavailable, escalating to manual review", map[string]interface{}{
			"case_id": state.CaseId.String(),
			"error":   err.Error(),
		})
		return &Update{Triage: verdictFrom(extract.Extract("", verdictFields))}, nil
	}

	res := extract.Extract(raw, verdictFields)
	if !res.Parsed {
		s.logger.Warn("Stage.Severity", "Malformed classification output, using fallback verdict", map[string]interface{}{
			"case_id": state.CaseId.String(),
			"chars":   len(raw),
		})
	}

	verdict := verdictFrom(res)
	s.logger.Info("Stage.Severity", "Case classified", map[string]interface{}{
		"case_id":            state.CaseId.String(),
		"severity_level":     string(verdict.SeverityLevel),
		"recommended_action": verdict.RecommendedAction,
		"parsed":             res.Parsed,
	})
	return &Update{Triage: verdict}, nil
}

func (s *SeverityClassificationStage) userContext(state *State) string {
	patientText := state.Utterance
	if len(state.ContextSnippets) > 0 {
		patientText += constant.RelevantContextHeader + strings.Join(state.ContextSnippets, "\n")
	}

	symptoms := "{}"
	if state.Record != nil && state.Record.LastSymptoms != nil {
		if b, err := json.Marshal(state.Record.LastSymptoms); err == nil {
			symptoms = string(b)
		}
	}
	return fmt.Sprintf(constant.SeverityClassificationUserPrompt, patientText, symptoms)
}

// verdictFrom coerces type drift in the model's answer: unknown levels
// become UNKNOWN and unknown actions become manual review.
func verdictFrom(res extract.Result) *entity.TriageVerdict {
	verdict := &entity.TriageVerdict{
		SeverityLevel:     normalizeLevel(res),
		RecommendedAction: normalizeAction(res),
		RedFlagsTriggered: stringList(res, "red_flags_triggered"),
		CareInstructions:  []string{},
	}

	if rationale, ok := res.String("rationale"); ok {
		verdict.Rationale = rationale
	} else {
		verdict.Rationale = constant.TriageParseFailureRationale
	}

	// A non-list answer is not a usable instruction sequence; the action
	// planner substitutes its own safety fallback.
	if instructions, ok := res.StringSlice("care_instructions"); ok {
		verdict.CareInstructions = instructions
	}
	return verdict
}

func normalizeLevel(res extract.Result) entity.SeverityLevel {
	raw, _ := res.String("severity_level")
	switch level := entity.SeverityLevel(strings.ToUpper(strings.TrimSpace(raw))); level {
	case entity.SeverityGreen, entity.SeverityAmber, entity.SeverityRed:
		return level
	default:
		return entity.SeverityUnknown
	}
}

func normalizeAction(res extract.Result) string {
	raw, _ := res.String("recommended_action")
	if action, ok := actionAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return action
	}
	return entity.ActionManualReview
}
