package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
)

// MaxBodyBytes caps request bodies on every route.
const MaxBodyBytes = 10 << 10

var statusByKind = map[common.Kind]int{
	common.KindUnauthenticated:   http.StatusUnauthorized,
	common.KindForbidden:         http.StatusForbidden,
	common.KindNotFound:          http.StatusNotFound,
	common.KindInvalidQuery:      http.StatusBadRequest,
	common.KindResetTokenInvalid: http.StatusBadRequest,
	common.KindValidationFailed:  http.StatusBadRequest,
	common.KindRateLimited:       http.StatusTooManyRequests,
}

// StatusFor maps an error to its HTTP status. Untagged errors are 500.
func StatusFor(err error) int {
	if code, ok := statusByKind[common.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type successBody struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err for the client. Operational errors keep their
// message; everything else is logged in full and hidden.
func writeError(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	code := StatusFor(err)
	if !common.IsOperational(err) {
		log.Error(ctx, "request failed", "error", err, "request_id", RequestIDFrom(ctx))
	}

	status := "error"
	if code < http.StatusInternalServerError {
		status = "fail"
	}
	writeJSON(w, code, errorBody{Status: status, Message: common.PublicMessage(err)})
}

// writeDoc renders {"status":"success","data":{"data":doc}}.
func writeDoc(w http.ResponseWriter, status int, doc any) {
	writeJSON(w, status, successBody{Status: "success", Data: map[string]any{"data": doc}})
}

func writeList(w http.ResponseWriter, docs any, n int) {
	writeJSON(w, http.StatusOK, successBody{Status: "success", Results: &n, Data: map[string]any{"data": docs}})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst as is.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return common.ValidationFailed("Request body is too large", nil)
	default:
		return common.ValidationFailed("Invalid JSON body", err)
	}
}

// project renders items as maps trimmed to the projection in d.
func project[T any](schema *query.Schema, d query.Descriptor, items []*T) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		m := map[string]any{}
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		schema.Apply(d, m)
		out = append(out, m)
	}
	return out, nil
}
