package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scriptorium/internal/platform/apperr"
	"github.com/taibuivan/scriptorium/internal/platform/respond"
)

/*
TestError_Envelope verifies the status, code and message rendered for each
kind of error a handler can return.
*/
func TestError_Envelope(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not_found", apperr.NotFound("Author"), http.StatusNotFound, "NOT_FOUND", "Author not found"},
		{"backend_message_verbatim", apperr.Backend("connection refused", errors.New("dial tcp")), http.StatusBadGateway, "BACKEND_ERROR", "connection refused"},
		{"wrapped_app_error", errors.Join(errors.New("context"), apperr.Conflict("Slug already exists")), http.StatusConflict, "CONFLICT", "Slug already exists"},
		{"plain_error_hidden", errors.New("pq: secret detail"), http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respond.Error(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil), tt.err)

			var body respond.ErrorEnvelope
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestError_ValidationDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	err := apperr.ValidationError("Invalid input", apperr.FieldError{Field: "title", Message: "title is required"})

	respond.Error(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/admin/books", nil), err)

	var body respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "title", body.Details[0].Field)
}

func TestQuery_Status(t *testing.T) {
	recorder := httptest.NewRecorder()
	respond.Query(recorder, "idle", []string{})

	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":[],"status":"idle"}`, recorder.Body.String())
}
