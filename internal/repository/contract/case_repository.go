package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"care-triage-be/internal/entity"

	"github.com/google/uuid"
)

var (
	// ErrCaseNotFound is returned by Load for an unknown case id.
	ErrCaseNotFound = errors.New("case not found")

	// ErrStorage matches every StorageError via errors.Is.
	ErrStorage = errors.New("case storage failure")
)

// StorageError reports an I/O failure of a CaseRepository. A failed write
// never replaces the previously durable record.
type StorageError struct {
	Op     string
	CaseId uuid.UUID
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("case storage: %s %s: %v", e.Op, e.CaseId, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// CaseRepository is durable per-case record storage. Save is a whole-record
// replacement; there are no partial-field patches.
type CaseRepository interface {
	Create(ctx context.Context, initialUtterance string) (uuid.UUID, error)
	Load(ctx context.Context, caseId uuid.UUID) (*entity.CaseRecord, error)
	Save(ctx context.Context, caseId uuid.UUID, record *entity.CaseRecord) error
}

// ErrNilRecord is wrapped in the StorageError every store returns for Save(id, nil).
var ErrNilRecord = errors.New("nil case record")

// PrepareSave validates a record handed to Save and returns the copy to
// persist. caseId is authoritative over record.CaseId.
func PrepareSave(caseId uuid.UUID, record *entity.CaseRecord) (*entity.CaseRecord, error) {
	if record == nil {
		return nil, &StorageError{Op: "save", CaseId: caseId, Err: ErrNilRecord}
	}
	out := record.Clone()
	out.CaseId = caseId
	return out, nil
}

// NewCaseRecord builds the initial record for a freshly created case.
func NewCaseRecord(caseId uuid.UUID, initialUtterance string, createdAt time.Time) *entity.CaseRecord {
	return &entity.CaseRecord{
		CaseId:       caseId,
		CreatedAt:    createdAt.UTC(),
		Status:       entity.CaseStatusActive,
		Conversation: []string{initialUtterance},
	}
}
