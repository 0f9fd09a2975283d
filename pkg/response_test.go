package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: user x", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: not a participant", ErrForbidden), http.StatusForbidden},
		{&DuplicateError{Field: "email"}, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", ErrAlreadyFriends), http.StatusConflict},
		{ErrDuplicateRequest, http.StatusConflict},
		{ErrSelfRequest, http.StatusBadRequest},
		{ErrSelfConversation, http.StatusBadRequest},
		{ErrEmptyContent, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, mapErrorToStatus(tc.err), tc.err.Error())
	}
}

func TestDuplicateErrorNamesField(t *testing.T) {
	err := fmt.Errorf("create user: %w", &DuplicateError{Field: "username"})

	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "username", dup.Field)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("sqlite: disk I/O error"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, ErrInternal.Error(), resp.Error)
}
