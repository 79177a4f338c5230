// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/todo-api/internal/domain"
)

type ErrorBody struct {
	Kind   domain.Kind `json:"kind"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR [respond.JSON] failed to encode response: %v", err)
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		// Email conflicts are reported as 400.
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a structured body. Errors that are not *domain.Error are
// treated as internal and their text is never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Internal(err)
	}

	status := StatusFor(de.Kind)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR [%s %s] %v", r.Method, r.URL.Path, err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	JSON(w, status, ErrorBody{
		Kind:   de.Kind,
		Code:   de.Code,
		Detail: de.Message,
	})
}
