// Package handlers provides the REST API handlers for the SupplierDesk
// backend.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nfalk/supplierdesk/backend/internal/errors"
	"github.com/nfalk/supplierdesk/backend/internal/logging"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps application error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case errors.ErrSupplierNotFound, errors.ErrOrderNotFound,
		errors.ErrConnectionNotFound, errors.ErrNotFound,
		errors.ErrSyncNotConfigured:
		status = http.StatusNotFound
	case errors.ErrInvalid, errors.ErrValidation, errors.ErrSupplierInvalid,
		errors.ErrOrderInvalid, errors.ErrConnectionInvalid,
		errors.ErrMappingInvalid, errors.ErrMappingIncomplete:
		status = http.StatusBadRequest
	case errors.ErrSupplierCodeDup, errors.ErrDuplicate,
		errors.ErrOrderTransition, errors.ErrSyncRunning,
		errors.ErrNothingToUndo, errors.ErrNothingToRedo:
		status = http.StatusConflict
	case errors.ErrConnectionProbe, errors.ErrSyncFailed:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logging.ErrorWithCode("Request failed", string(code), err)
	}

	var body errorResponse
	body.Error.Code = string(code)
	body.Error.Message = err.Error()
	writeJSON(w, status, body)
}

// logError records a failure that can no longer reach the client.
func logError(err error) {
	logging.ErrorWithCode("Response write failed", string(errors.CodeOf(err)), err)
}

// decodeBody parses a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.Wrap(errors.ErrInvalid, "invalid request body", err))
		return false
	}
	return true
}
