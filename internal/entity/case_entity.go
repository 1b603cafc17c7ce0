package entity

import (
	"time"

	"github.com/google/uuid"
)

type CaseStatus string

const (
	CaseStatusActive CaseStatus = "active"
	CaseStatusClosed CaseStatus = "closed"
)

// CaseRecord is the persisted unit of triage state. Stage outputs replace
// their field wholesale; Conversation is append-only.
type CaseRecord struct {
	CaseId       uuid.UUID      `json:"case_id"`
	CreatedAt    time.Time      `json:"created_at"`
	Status       CaseStatus     `json:"status"`
	Conversation []string       `json:"conversation"`
	LastSymptoms *SymptomFrame  `json:"last_symptoms,omitempty"`
	Triage       *TriageVerdict `json:"triage,omitempty"`
	Action       *ActionPlan    `json:"action,omitempty"`
	Summary      *SummaryPair   `json:"summary,omitempty"`
}

// LastUtterance returns the most recent entry of the conversation.
func (c *CaseRecord) LastUtterance() string {
	if c == nil || len(c.Conversation) == 0 {
		return ""
	}
	return c.Conversation[len(c.Conversation)-1]
}

// Clone returns a copy that shares no mutable state with c.
func (c *CaseRecord) Clone() *CaseRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.Conversation = cloneStrings(c.Conversation)
	out.LastSymptoms = c.LastSymptoms.Clone()
	out.Triage = c.Triage.Clone()
	out.Action = c.Action.Clone()
	out.Summary = c.Summary.Clone()
	return &out
}

type SymptomFrame struct {
	ChiefComplaint     string   `json:"chief_complaint"`
	DurationDays       *float64 `json:"duration_days"`
	SeveritySelf       *string  `json:"severity_self"`
	AssociatedSymptoms []string `json:"associated_symptoms"`
	RiskFactors        []string `json:"risk_factors"`
	AgeBand            *string  `json:"age_band"`
	Medications        []string `json:"medications"`
	Allergies          []string `json:"allergies"`

	// RawOutput keeps the unparsable model text when extraction degraded.
	RawOutput string `json:"raw_output,omitempty"`
}

func (s *SymptomFrame) Clone() *SymptomFrame {
	if s == nil {
		return nil
	}
	out := *s
	out.DurationDays = cloneFloat(s.DurationDays)
	out.SeveritySelf = cloneString(s.SeveritySelf)
	out.AgeBand = cloneString(s.AgeBand)
	out.AssociatedSymptoms = cloneStrings(s.AssociatedSymptoms)
	out.RiskFactors = cloneStrings(s.RiskFactors)
	out.Medications = cloneStrings(s.Medications)
	out.Allergies = cloneStrings(s.Allergies)
	return &out
}

type SeverityLevel string

const (
	SeverityGreen   SeverityLevel = "GREEN"
	SeverityAmber   SeverityLevel = "AMBER"
	SeverityRed     SeverityLevel = "RED"
	SeverityUnknown SeverityLevel = "UNKNOWN"
)

// Recommended actions. ActionManualReview is the safe-failure action.
const (
	ActionSelfCare     = "self-care"
	ActionReferral     = "referral"
	ActionEmergency    = "emergency"
	ActionManualReview = "manual review"
)

type TriageVerdict struct {
	SeverityLevel     SeverityLevel `json:"severity_level"`
	Rationale         string        `json:"rationale"`
	RecommendedAction string        `json:"recommended_action"`
	RedFlagsTriggered []string      `json:"red_flags_triggered"`
	CareInstructions  []string      `json:"care_instructions"`
}

func (t *TriageVerdict) Clone() *TriageVerdict {
	if t == nil {
		return nil
	}
	out := *t
	out.RedFlagsTriggered = cloneStrings(t.RedFlagsTriggered)
	out.CareInstructions = cloneStrings(t.CareInstructions)
	return &out
}

type ActionPlan struct {
	ActionType  string     `json:"action_type"`
	Tasks       []string   `json:"tasks"`
	FollowUpDue *time.Time `json:"follow_up_due"`
}

func (a *ActionPlan) Clone() *ActionPlan {
	if a == nil {
		return nil
	}
	out := *a
	out.Tasks = cloneStrings(a.Tasks)
	if a.FollowUpDue != nil {
		t := *a.FollowUpDue
		out.FollowUpDue = &t
	}
	return &out
}

type SummaryPair struct {
	User      UserSummary      `json:"user"`
	Clinician ClinicianSummary `json:"clinician"`
}

type UserSummary struct {
	WhatYouReported string        `json:"what_you_reported"`
	TriageLevel     SeverityLevel `json:"triage_level"`
	Reasoning       string        `json:"reasoning"`
	WhatToDoNow     string        `json:"what_to_do_now"`
	NextSteps       []string      `json:"next_steps"`
	FollowUpDue     *time.Time    `json:"follow_up_due"`
	Note            string        `json:"note"`
	LLMSummary      string        `json:"llm_summary,omitempty"`
}

type ClinicianSummary struct {
	ChiefComplaint     string        `json:"chief_complaint"`
	DurationDays       *float64      `json:"duration_days"`
	AssociatedSymptoms []string      `json:"associated_symptoms"`
	SeveritySelf       *string       `json:"severity_self"`
	TriageLevel        SeverityLevel `json:"triage_level"`
	Rationale          string        `json:"rationale"`
	RedFlags           []string      `json:"red_flags"`
	RecommendedAction  string        `json:"recommended_action"`
	Tasks              []string      `json:"tasks"`
	FollowUpDue        *time.Time    `json:"follow_up_due"`
}

func (s *SummaryPair) Clone() *SummaryPair {
	if s == nil {
		return nil
	}
	out := *s
	out.User.NextSteps = cloneStrings(s.User.NextSteps)
	out.User.FollowUpDue = cloneTime(s.User.FollowUpDue)
	out.Clinician.DurationDays = cloneFloat(s.Clinician.DurationDays)
	out.Clinician.SeveritySelf = cloneString(s.Clinician.SeveritySelf)
	out.Clinician.AssociatedSymptoms = cloneStrings(s.Clinician.AssociatedSymptoms)
	out.Clinician.RedFlags = cloneStrings(s.Clinician.RedFlags)
	out.Clinician.Tasks = cloneStrings(s.Clinician.Tasks)
	out.Clinician.FollowUpDue = cloneTime(s.Clinician.FollowUpDue)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneString(in *string) *string {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneTime(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
