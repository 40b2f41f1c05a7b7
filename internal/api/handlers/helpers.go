package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"truckmates-route-service/internal/api/dto"
	"truckmates-route-service/internal/platform/obs"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	writeEnvelope(w, r, status, dto.Envelope{Data: v})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeEnvelope(w, r, status, dto.Envelope{Error: &msg})
}

// WriteError lets middleware outside this package answer with the same envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeError(w, r, status, msg)
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env dto.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		zap.L().Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

// decodeJSON reads exactly one JSON object into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) (msg string, ok bool) {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return "invalid json body", false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return "body must contain only one JSON object", false
	}
	return "", true
}

func allowOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	zap.L().Error(msg,
		zap.String("req_id", obs.RequestID(r.Context())),
		zap.Error(err),
	)
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}
