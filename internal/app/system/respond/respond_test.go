package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/shopkeep/internal/app/system/inputval"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) Problem {
	t.Helper()
	var p Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestError_MapsKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"validation", rbac.Validation("Name is required."), http.StatusBadRequest, "Name is required."},
		{"not found", rbac.NotFound("Role not found"), http.StatusNotFound, "Role not found"},
		{"duplicate", rbac.Duplicate("exists"), http.StatusConflict, "exists"},
		{"wrapped", errors.Join(errors.New("ctx"), rbac.NotFound("User not found")), http.StatusNotFound, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest("GET", "/", nil), zap.NewNop(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.detail, decodeProblem(t, rec).Detail)
		})
	}
}

func TestError_UnknownIsOpaque500(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest("GET", "/", nil), zap.NewNop(), errors.New("mongo: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	p := decodeProblem(t, rec)
	assert.NotEmpty(t, p.ErrorID)
	assert.Empty(t, p.Detail)
}

func TestInvalid_ListsFields(t *testing.T) {
	type in struct {
		Name string `json:"name" validate:"required"`
	}
	res := inputval.Validate(in{})
	require.True(t, res.HasErrors())

	rec := httptest.NewRecorder()
	Invalid(rec, res)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	p := decodeProblem(t, rec)
	require.Len(t, p.Fields, 1)
	assert.Equal(t, "name", p.Fields[0].Field)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"ok", `{"name":"Editor"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"wrong type", `{"name":5}`, true},
		{"unknown field", `{"name":"x","extra":1}`, true},
		{"two values", `{"name":"a"}{"name":"b"}`, true},
		{"too large", `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.payload))
			var dst body
			err := DecodeJSON(httptest.NewRecorder(), r, &dst)
			if tt.wantErr {
				assert.ErrorIs(t, err, rbac.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Editor", dst.Name)
		})
	}
}

func TestIDParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "64b7f0c2a1b2c3d4e5f60718")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	id, err := IDParam(r, "id")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())

	_, err = IDParam(r, "missing")
	assert.ErrorIs(t, err, rbac.ErrValidation)
}

func TestIDs(t *testing.T) {
	ids, err := IDs([]string{"64b7f0c2a1b2c3d4e5f60718", " 64b7f0c2a1b2c3d4e5f60719 "})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = IDs([]string{"nope"})
	assert.ErrorIs(t, err, rbac.ErrValidation)
}
