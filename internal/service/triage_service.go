package service

import (
	"context"
	"fmt"

	"care-triage-be/internal/dto"
	"care-triage-be/internal/entity"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/internal/repository/contract"
	"care-triage-be/pkg/safety"

	"github.com/google/uuid"
)

// WorkflowRunner is satisfied by *workflow.Engine.
type WorkflowRunner interface {
	Run(ctx context.Context, caseId uuid.UUID, utterance string) (*entity.CaseRecord, error)
}

type ITriageService interface {
	Run(ctx context.Context, req *dto.RunTriageRequest) (*dto.RunTriageResponse, error)
	GetCase(ctx context.Context, caseId uuid.UUID) (*entity.CaseRecord, error)
}

type triageService struct {
	runner WorkflowRunner
	store  contract.CaseRepository
	logger logger.ILogger
}

func NewTriageService(runner WorkflowRunner, store contract.CaseRepository, log logger.ILogger) ITriageService {
	return &triageService{
		runner: runner,
		store:  store,
		logger: log,
	}
}

func (s *triageService) Run(ctx context.Context, req *dto.RunTriageRequest) (*dto.RunTriageResponse, error) {
	caseId := uuid.Nil
	if req.CaseId != "" {
		parsed, err := uuid.Parse(req.CaseId)
		if err != nil {
			return nil, fmt.Errorf("invalid case id %q: %w", req.CaseId, err)
		}
		caseId = parsed
	}

	// Keyword screening is advisory. It never short-circuits the graph.
	redFlags := safety.CheckRedFlags(req.Message)
	if len(redFlags) > 0 {
		s.logger.Warn("TriageService", "Keyword red flags in message", map[string]interface{}{
			"case_id":   req.CaseId,
			"red_flags": redFlags,
		})
	}

	record, err := s.runner.Run(ctx, caseId, req.Message)
	if err != nil {
		return nil, err
	}

	return &dto.RunTriageResponse{
		Case:            record,
		KeywordRedFlags: redFlags,
	}, nil
}

func (s *triageService) GetCase(ctx context.Context, caseId uuid.UUID) (*entity.CaseRecord, error) {
	return s.store.Load(ctx, caseId)
}
