package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wavelength-backend/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondAppError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"incomplete identity", apperror.IncompleteIdentity("email"), http.StatusBadRequest, "email"},
		{"validation", apperror.ValidationFailed("handle", "too short"), http.StatusBadRequest, "handle"},
		{"handle taken", apperror.HandleTaken("alice"), http.StatusConflict, "handle"},
		{"not found", apperror.NotFound("user", "u1"), http.StatusNotFound, ""},
		{"backend unavailable", apperror.BackendUnavailable(errors.New("down")), http.StatusServiceUnavailable, ""},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondAppError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tc.field, resp.Field)
		})
	}
}
