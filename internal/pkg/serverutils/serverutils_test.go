package serverutils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"care-triage-be/internal/repository/contract"
	"care-triage-be/pkg/careflow/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	CaseId  string `json:"case_id" validate:"omitempty,uuid4"`
	Message string `json:"message" validate:"required,max=10"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Message: "hi"}))

	err := ValidateRequest(sampleRequest{CaseId: "nope", Message: "this is far too long"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be a UUID v4", ve.Fields["CaseId"])
	assert.Equal(t, "must be at most 10 characters", ve.Fields["Message"])

	err = ValidateRequest(sampleRequest{})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Fields["Message"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{contract.ErrCaseNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", contract.ErrCaseNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: x", workflow.ErrCaseBusy), http.StatusConflict},
		{&ValidationError{Fields: map[string]string{"Message": "is required"}}, http.StatusBadRequest},
		{fiber.NewError(fiber.StatusUnprocessableEntity, "bad body"), http.StatusUnprocessableEntity},
		{&contract.StorageError{Op: "save", CaseId: uuid.New(), Err: errors.New("disk full")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestSuccessResponse(t *testing.T) {
	res := SuccessResponse("ok", 42)
	assert.True(t, res.Success)
	assert.Equal(t, 42, res.Data)

	errRes := ErrorResponse(404, "case not found")
	assert.False(t, errRes.Success)
	assert.Nil(t, errRes.Data)
}
