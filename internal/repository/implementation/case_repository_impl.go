package implementation

import (
	"context"
	"errors"
	"time"

	"care-triage-be/internal/entity"
	"care-triage-be/internal/mapper"
	"care-triage-be/internal/model"
	"care-triage-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CaseRepositoryImpl stores case documents in postgres. Save is a single
// upsert statement, so a failed write leaves the previous row intact.
type CaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
	now    func() time.Time
}

func NewCaseRepository(db *gorm.DB) contract.CaseRepository {
	return &CaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
		now:    time.Now,
	}
}

func (r *CaseRepositoryImpl) Create(ctx context.Context, initialUtterance string) (uuid.UUID, error) {
	caseId := uuid.New()
	m, err := r.mapper.ToModel(contract.NewCaseRecord(caseId, initialUtterance, r.now()))
	if err != nil {
		return uuid.Nil, &contract.StorageError{Op: "create", CaseId: caseId, Err: err}
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return uuid.Nil, &contract.StorageError{Op: "create", CaseId: caseId, Err: err}
	}
	return caseId, nil
}

func (r *CaseRepositoryImpl) Load(ctx context.Context, caseId uuid.UUID) (*entity.CaseRecord, error) {
	var m model.Case
	err := r.db.WithContext(ctx).Where("id = ?", caseId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contract.ErrCaseNotFound
		}
		return nil, &contract.StorageError{Op: "load", CaseId: caseId, Err: err}
	}
	record, err := r.mapper.ToEntity(&m)
	if err != nil {
		return nil, &contract.StorageError{Op: "load", CaseId: caseId, Err: err}
	}
	return record, nil
}

func (r *CaseRepositoryImpl) Save(ctx context.Context, caseId uuid.UUID, record *entity.CaseRecord) error {
	toSave, err := contract.PrepareSave(caseId, record)
	if err != nil {
		return err
	}
	m, err := r.mapper.ToModel(toSave)
	if err != nil {
		return &contract.StorageError{Op: "save", CaseId: caseId, Err: err}
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "document", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return &contract.StorageError{Op: "save", CaseId: caseId, Err: err}
	}
	return nil
}
