package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"care-triage-be/internal/entity"
	"care-triage-be/internal/repository/contract"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// CaseFileRepository keeps one indented JSON document per case under dir.
// Writes go through renameio (temp file in dir, fsync, rename over the
// target), so a reader sees either the old or the new record, never a mix.
type CaseFileRepository struct {
	dir string
	now func() time.Time
}

func NewCaseFileRepository(dir string) (*CaseFileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create case data dir %s: %w", dir, err)
	}
	return &CaseFileRepository{dir: dir, now: time.Now}, nil
}

var _ contract.CaseRepository = &CaseFileRepository{}

func (r *CaseFileRepository) path(caseId uuid.UUID) string {
	return filepath.Join(r.dir, caseId.String()+".json")
}

func (r *CaseFileRepository) Create(ctx context.Context, initialUtterance string) (uuid.UUID, error) {
	caseId := uuid.New()
	if err := r.write("create", caseId, contract.NewCaseRecord(caseId, initialUtterance, r.now())); err != nil {
		return uuid.Nil, err
	}
	return caseId, nil
}

func (r *CaseFileRepository) Load(ctx context.Context, caseId uuid.UUID) (*entity.CaseRecord, error) {
	data, err := os.ReadFile(r.path(caseId))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, contract.ErrCaseNotFound
		}
		return nil, &contract.StorageError{Op: "load", CaseId: caseId, Err: err}
	}
	var record entity.CaseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &contract.StorageError{Op: "load", CaseId: caseId, Err: err}
	}
	return &record, nil
}

func (r *CaseFileRepository) Save(ctx context.Context, caseId uuid.UUID, record *entity.CaseRecord) error {
	toSave, err := contract.PrepareSave(caseId, record)
	if err != nil {
		return err
	}
	return r.write("save", caseId, toSave)
}

func (r *CaseFileRepository) write(op string, caseId uuid.UUID, record *entity.CaseRecord) error {
	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return &contract.StorageError{Op: op, CaseId: caseId, Err: err}
	}

	if err := renameio.WriteFile(r.path(caseId), data, 0o644, renameio.WithTempDir(r.dir)); err != nil {
		return &contract.StorageError{Op: op, CaseId: caseId, Err: err}
	}
	return nil
}
