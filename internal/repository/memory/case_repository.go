package memory

import (
	"context"
	"encoding/json"
	"time"

	"care-triage-be/internal/entity"
	"care-triage-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CaseRepository keeps case documents in process memory. Records are
// stored serialized so callers never share state with the cache.
type CaseRepository struct {
	cache *cache.Cache
	now   func() time.Time
}

var _ contract.CaseRepository = &CaseRepository{}

func NewCaseRepository() *CaseRepository {
	// Cases never expire; there is nothing to purge.
	c := cache.New(cache.NoExpiration, 0)
	return &CaseRepository{
		cache: c,
		now:   time.Now,
	}
}

func (r *CaseRepository) Create(ctx context.Context, initialUtterance string) (uuid.UUID, error) {
	caseId := uuid.New()
	record := contract.NewCaseRecord(caseId, initialUtterance, r.now())
	if err := r.put("create", caseId, record); err != nil {
		return uuid.Nil, err
	}
	return caseId, nil
}

func (r *CaseRepository) Load(ctx context.Context, caseId uuid.UUID) (*entity.CaseRecord, error) {
	x, found := r.cache.Get(caseId.String())
	if !found {
		return nil, contract.ErrCaseNotFound
	}
	var record entity.CaseRecord
	if err := json.Unmarshal(x.([]byte), &record); err != nil {
		return nil, &contract.StorageError{Op: "load", CaseId: caseId, Err: err}
	}
	return &record, nil
}

func (r *CaseRepository) Save(ctx context.Context, caseId uuid.UUID, record *entity.CaseRecord) error {
	toSave, err := contract.PrepareSave(caseId, record)
	if err != nil {
		return err
	}
	return r.put("save", caseId, toSave)
}

func (r *CaseRepository) put(op string, caseId uuid.UUID, record *entity.CaseRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return &contract.StorageError{Op: op, CaseId: caseId, Err: err}
	}
	r.cache.Set(caseId.String(), data, cache.NoExpiration)
	return nil
}
