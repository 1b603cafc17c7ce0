package dto

import "care-triage-be/internal/entity"

type RunTriageRequest struct {
	CaseId  string `json:"case_id" validate:"omitempty,uuid4"`
	Message string `json:"message" validate:"required,max=4000"`
}

type RunTriageResponse struct {
	Case            *entity.CaseRecord `json:"case"`
	KeywordRedFlags []string           `json:"keyword_red_flags"`
}
