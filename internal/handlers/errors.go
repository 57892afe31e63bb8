package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"churchadmin/internal/service"
	"churchadmin/internal/validation"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// respondJSON writes v as the JSON response body
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondWithError logs err when given and writes {"detail": userMsg}
func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, map[string]string{"detail": userMsg})
}

// respondServiceError maps an error returned by a service to a status code.
// Validation failures become a field map; anything unrecognised is a logged 500.
func respondServiceError(w http.ResponseWriter, err error, logMsg string) {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		respondJSON(w, http.StatusBadRequest, fe)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, sentence(err), "", nil)
	case errors.Is(err, service.ErrDuplicateAssignment),
		errors.Is(err, service.ErrDuplicateCode),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrCannotDeleteSelf):
		respondWithError(w, http.StatusBadRequest, sentence(err), "", nil)
	case errors.Is(err, service.ErrAlreadyConverted),
		errors.Is(err, service.ErrLessonNotCurrent),
		errors.Is(err, service.ErrDatabaseNotEmpty):
		respondWithError(w, http.StatusConflict, sentence(err), "", nil)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		respondWithError(w, http.StatusUnauthorized, sentence(err), "", nil)
	case errors.Is(err, service.ErrNotStaff):
		respondWithError(w, http.StatusForbidden, sentence(err), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// sentence capitalizes an error message for display
func sentence(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// decodeJSON reads a bounded JSON body into v, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}

// pathID parses a numeric path value, writing a 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name, "", nil)
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query parameter
func queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, validation.Single(name, "Enter a numeric ID."))
		return nil, false
	}
	return &id, true
}

// requireConfirm guards destructive endpoints behind confirm=true
func requireConfirm(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirm") != "true" {
		respondWithError(w, http.StatusConflict, ErrConfirmRequired, "", nil)
		return false
	}
	return true
}
