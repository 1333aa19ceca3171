package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BrandonDHaskell/vitals/server/internal/vitals"
	"github.com/BrandonDHaskell/vitals/server/internal/vitals/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeResponse picks protobuf or JSON from the Accept header.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsProtobuf(r) {
		writeProto(w, status, v)
		return
	}
	writeJSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeResponse(w, r, status, types.ErrorResponse{Error: code, Message: msg})
}

// statusFor maps the error taxonomy to an HTTP status and error code.
func statusFor(err error) (int, string) {
	var ae *vitals.AuthError
	switch {
	case errors.Is(err, vitals.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &ae) && ae.Forbidden:
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, vitals.ErrAuth):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, vitals.ErrStorage):
		return http.StatusInternalServerError, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
