package memory

import (
	"context"
	"testing"
	"time"

	"care-triage-be/internal/entity"
	"care-triage-be/internal/repository/contract"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseRepository_CreateLoadSave(t *testing.T) {
	repo := NewCaseRepository()
	ctx := context.Background()

	id, err := repo.Create(ctx, "headache since morning")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	record, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, record.CaseId)
	assert.Equal(t, entity.CaseStatusActive, record.Status)
	assert.Equal(t, []string{"headache since morning"}, record.Conversation)

	due := time.Now().UTC().Add(12 * time.Hour).Truncate(time.Second)
	record.Conversation = append(record.Conversation, "now also dizzy")
	record.Action = &entity.ActionPlan{ActionType: entity.ActionManualReview, Tasks: []string{"a"}, FollowUpDue: &due}
	require.NoError(t, repo.Save(ctx, id, record))

	loaded, err := repo.Load(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(record, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	// loaded copies are independent
	loaded.Conversation[0] = "changed"
	again, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "headache since morning", again.Conversation[0])
}

func TestCaseRepository_LoadUnknown(t *testing.T) {
	_, err := NewCaseRepository().Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, contract.ErrCaseNotFound)
}

func TestCaseRepository_SaveValidatesRecord(t *testing.T) {
	repo := NewCaseRepository()
	ctx := context.Background()

	id, err := repo.Create(ctx, "cough")
	require.NoError(t, err)

	err = repo.Save(ctx, id, nil)
	assert.ErrorIs(t, err, contract.ErrStorage)
	assert.ErrorIs(t, err, contract.ErrNilRecord)

	loaded, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"cough"}, loaded.Conversation)

	// the id argument wins over the record's own
	stray := loaded.Clone()
	stray.CaseId = uuid.New()
	require.NoError(t, repo.Save(ctx, id, stray))
	loaded, err = repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.CaseId)
}
