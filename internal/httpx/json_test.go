package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"email":"ada@example.com","password":"correct horse"}`},
		{name: "malformed", body: `{"email":`, wantErr: "invalid request body"},
		{name: "missing", body: `{}`, wantErr: "Email is required; Password is required"},
		{name: "short password", body: `{"email":"ada@example.com","password":"abc"}`, wantErr: "Password must be at least 8 characters"},
		{name: "bad email", body: `{"email":"ada","password":"correct horse"}`, wantErr: "Email must be a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst signup
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "document not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"document not found"}`, rec.Body.String())
}
