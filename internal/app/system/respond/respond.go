// Package respond writes JSON responses and RFC 7807 problem documents.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/shopkeep/internal/app/system/inputval"
	"github.com/dalemusser/shopkeep/internal/app/system/limits"
	"github.com/dalemusser/shopkeep/internal/app/system/rbac"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxBodyBytes caps decoded request bodies.
const MaxBodyBytes = limits.MaxJSONBody

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type    string                `json:"type,omitempty"`
	Title   string                `json:"title"`
	Status  int                   `json:"status"`
	Detail  string                `json:"detail,omitempty"`
	ErrorID string                `json:"error_id,omitempty"`
	Fields  []inputval.FieldError `json:"fields,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem writes a problem document.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Invalid writes a 400 listing every failed field.
func Invalid(w http.ResponseWriter, res *inputval.Result) {
	WriteProblem(w, Problem{
		Title:  "Validation Failed",
		Status: http.StatusBadRequest,
		Detail: res.First(),
		Fields: res.Errors,
	})
}

// Error maps err to a status. Unknown errors become a 500 carrying an
// error_id that is also logged; their text is never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var re *rbac.Error
	msg := ""
	if errors.As(err, &re) {
		msg = re.Message()
	}

	switch {
	case errors.Is(err, rbac.ErrValidation):
		WriteProblem(w, Problem{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: msg})
	case errors.Is(err, rbac.ErrNotFound):
		WriteProblem(w, Problem{Title: "Not Found", Status: http.StatusNotFound, Detail: msg})
	case errors.Is(err, rbac.ErrDuplicate):
		WriteProblem(w, Problem{Title: "Duplicate", Status: http.StatusConflict, Detail: msg})
	default:
		ServerError(w, r, log, err)
	}
}

// ServerError logs err with a fresh error_id and writes a 500.
func ServerError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	id := uuid.NewString()
	if log != nil {
		log.Error("request failed",
			zap.String("error_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	WriteProblem(w, Problem{
		Title:   "Internal Error",
		Status:  http.StatusInternalServerError,
		ErrorID: id,
	})
}

// DecodeJSON strictly decodes the body into dst: at most MaxBodyBytes,
// unknown fields rejected, exactly one JSON value. Failures are
// rbac.ErrValidation errors with a client-safe message.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return rbac.Validation("request body must not be empty")
		case errors.As(err, &syntaxErr):
			return rbac.Validation("malformed JSON at position %d", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return rbac.Validation("malformed JSON")
		case errors.As(err, &typeErr):
			return rbac.Validation("field %q has the wrong type", typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return rbac.Validation("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxErr):
			return rbac.Validation("request body must not exceed %d bytes", maxErr.Limit)
		default:
			return rbac.Validation("invalid request body: %v", err)
		}
	}
	if dec.More() {
		return rbac.Validation("request body must contain a single JSON object")
	}
	return nil
}

// Errorf is a convenience for handlers returning a plain 4xx problem.
func Errorf(w http.ResponseWriter, status int, format string, args ...any) {
	WriteProblem(w, Problem{Title: http.StatusText(status), Status: status, Detail: fmt.Sprintf(format, args...)})
}

// IDParam reads a chi URL parameter as an ObjectID.
func IDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, rbac.Validation("%s must be a valid ID.", name)
	}
	return id, nil
}

// IDs parses hex ObjectIDs. Callers validate the format first; a bad
// entry is still reported as a validation error.
func IDs(hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(h))
		if err != nil {
			return nil, rbac.Validation("%q is not a valid ID.", h)
		}
		out = append(out, id)
	}
	return out, nil
}
