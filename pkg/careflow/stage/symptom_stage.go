package stage

import (
	"context"
	"strings"

	"care-triage-be/internal/constant"
	"care-triage-be/internal/entity"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/pkg/extract"
	"care-triage-be/pkg/reasoning"
)

var symptomFields = []extract.Field{
	{Key: "chief_complaint", Default: ""},
	{Key: "duration_days", Default: nil},
	{Key: "severity_self", Default: nil},
	{Key: "associated_symptoms", Default: []string{}},
	{Key: "risk_factors", Default: []string{}},
	{Key: "age_band", Default: nil},
	{Key: "medications", Default: []string{}},
	{Key: "allergies", Default: []string{}},
}

type SymptomExtractionStage struct {
	client reasoning.IReasoningClient
	logger logger.ILogger
}

func NewSymptomExtractionStage(client reasoning.IReasoningClient, log logger.ILogger) *SymptomExtractionStage {
	return &SymptomExtractionStage{client: client, logger: log}
}

func (s *SymptomExtractionStage) Name() string { return NameExtractSymptoms }

func (s *SymptomExtractionStage) Execute(ctx context.Context, state *State) (*Update, error) {
	raw, err := s.client.Generate(ctx, constant.SymptomExtractionSystemPrompt, state.Utterance)
	if err != nil {
		s.logger.Warn("Stage.Symptoms", "Reasoning unavailable, using utterance as chief complaint", map[string]interface{}{
			"case_id": state.CaseId.String(),
			"error":   err.Error(),
		})
		return &Update{Symptoms: &entity.SymptomFrame{ChiefComplaint: state.Utterance}}, nil
	}

	res := extract.Extract(raw, symptomFields)
	if !res.Parsed {
		s.logger.Warn("Stage.Symptoms", "Malformed extraction output, keeping raw text", map[string]interface{}{
			"case_id": state.CaseId.String(),
			"chars":   len(raw),
		})
		return &Update{Symptoms: &entity.SymptomFrame{
			ChiefComplaint: state.Utterance,
			RawOutput:      strings.TrimSpace(raw),
		}}, nil
	}

	return &Update{Symptoms: symptomFrameFrom(res)}, nil
}

func symptomFrameFrom(res extract.Result) *entity.SymptomFrame {
	frame := &entity.SymptomFrame{
		AssociatedSymptoms: stringList(res, "associated_symptoms"),
		RiskFactors:        stringList(res, "risk_factors"),
		Medications:        stringList(res, "medications"),
		Allergies:          stringList(res, "allergies"),
		SeveritySelf:       optionalString(res, "severity_self"),
		AgeBand:            optionalString(res, "age_band"),
	}
	frame.ChiefComplaint, _ = res.String("chief_complaint")
	if d, ok := res.Float("duration_days"); ok {
		frame.DurationDays = &d
	}
	return frame
}

// stringList tolerates a model that answers a list key with a bare string.
func stringList(res extract.Result, key string) []string {
	if list, ok := res.StringSlice(key); ok {
		return list
	}
	if s, ok := res.String(key); ok && strings.TrimSpace(s) != "" {
		return []string{s}
	}
	return []string{}
}

func optionalString(res extract.Result, key string) *string {
	s, ok := res.String(key)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
