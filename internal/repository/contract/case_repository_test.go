package contract

import (
	"testing"
	"time"

	"care-triage-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareSave(t *testing.T) {
	id := uuid.New()

	_, err := PrepareSave(id, nil)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrNilRecord)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "save", storageErr.Op)
	assert.Equal(t, id, storageErr.CaseId)

	record := NewCaseRecord(uuid.New(), "fever", time.Now())
	out, err := PrepareSave(id, record)
	require.NoError(t, err)
	assert.Equal(t, id, out.CaseId)
	assert.NotEqual(t, id, record.CaseId, "caller's record is left untouched")

	out.Conversation[0] = "changed"
	assert.Equal(t, []string{"fever"}, record.Conversation)
	assert.Equal(t, entity.CaseStatusActive, out.Status)
}
