package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrDuplicateUsername, http.StatusBadRequest},
		{ErrDuplicateEmail, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{ErrTokenMalformed, http.StatusUnauthorized},
		{ErrTokenSignature, http.StatusUnauthorized},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrNotFound, http.StatusNotFound},
		{ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCode_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("store: %w", ErrDuplicateEmail)
	if got := Code(wrapped); got != "DUPLICATE_EMAIL" {
		t.Errorf("Code(wrapped) = %q, want DUPLICATE_EMAIL", got)
	}
	if got := HTTPStatus(wrapped); got != http.StatusBadRequest {
		t.Errorf("HTTPStatus(wrapped) = %d, want 400", got)
	}
}
