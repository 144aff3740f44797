package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"EstoqueSync/api/constants"
	"EstoqueSync/api/estoque/engine"
)

// Error response helper
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Println("[ERROR]", errMsg)
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// RespondWithResult sends a consistent JSON response for success or error
func RespondWithResult(w http.ResponseWriter, success bool, errMsg string) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	if success {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	} else {
		log.Println("[ERROR] RespondWithResult", errMsg)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": errMsg})
	}
}

// RespondWithJSON sends a success payload as-is under the given status.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondWithTypedError maps the reconciliation error taxonomy onto HTTP
// statuses. Every branch keeps enough structure (system, step, field) for
// the frontend to render an actionable message.
func RespondWithTypedError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	var nferr *engine.NotFoundError
	var serr *engine.SourceUnavailableError
	var perr *engine.PartialWriteError

	switch {
	case errors.As(err, &verr):
		log.Println("[ERROR] validation:", verr.Error())
		RespondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"error":   verr.Message,
			"field":   verr.Field,
		})
	case errors.As(err, &nferr):
		log.Println("[ERROR] not found:", nferr.Error())
		RespondWithJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   nferr.Error(),
			"entity":  nferr.Entity,
			"codigo":  nferr.Code,
		})
	case errors.As(err, &serr):
		log.Println("[ERROR] source unavailable:", serr.Error())
		RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"error":   serr.Error(),
			"sistema": serr.System,
		})
	case errors.As(err, &perr):
		log.Println("[ERROR] partial write:", perr.Error())
		failures := map[string]string{}
		for step, cause := range perr.Causes {
			if cause != nil {
				failures[step] = cause.Error()
			}
		}
		RespondWithJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"success":         false,
			"error":           perr.Error(),
			"committed_steps": perr.Committed,
			"failed_steps":    perr.Failed,
			"failures":        failures,
		})
	default:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// LogInfo logs an informational message (wrapper for consistent logging)
func LogInfo(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+msg, args...)
	} else {
		log.Println("[INFO]", msg)
	}
}

// LogError logs an error message (wrapper for consistent logging)
func LogError(msg string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+msg, args...)
	} else {
		log.Println("[ERROR]", msg)
	}
}
