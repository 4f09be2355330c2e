package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"jamjob-backend/internal/apperr"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Message string `json:"message"`
	Status  bool   `json:"status"`
}

// writeError maps err to its HTTP status. Server-side failures are logged
// with the wrapped cause; clients only see the safe message.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Message: apperr.Message(err)})
}

// decodeJSON reads a single JSON value from a size-limited body.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.E(apperr.CodeBadRequest, op, "request body too large", err)
		}
		return apperr.E(apperr.CodeBadRequest, op, "invalid request body", err)
	}
	return nil
}
