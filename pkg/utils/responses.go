package utils

import (
	"encoding/json"
	"net/http"

	"user-backend/pkg/apperror"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// ResponseJSON writes JSON response with custom status code
func ResponseJSON(w http.ResponseWriter, code int, success bool, message string, data, errors any) {
	writeResponse(w, code, Response{
		Success: success,
		Message: message,
		Data:    data,
		Errors:  errors,
	})
}

func writeResponse(w http.ResponseWriter, code int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}

// ------------- Success responses -------------

// returns 200 OK
func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, true, message, data, nil)
}

// returns 201 Created
func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusCreated, true, message, data, nil)
}

// ------------- Error responses -------------

// returns 400 Bad Request
func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	ResponseJSON(w, http.StatusBadRequest, false, message, nil, errors)
}

// returns 401 Unauthorized
func ResponseUnauthorized(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusUnauthorized, false, message, nil, nil)
}

// returns 403 Forbidden
func ResponseForbidden(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusForbidden, false, message, nil, nil)
}

// returns 404 Not Found
func ResponseNotFound(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusNotFound, false, message, nil, nil)
}

// returns 500 Internal Server Error
func ResponseInternalError(w http.ResponseWriter, message string) {
	ResponseJSON(w, http.StatusInternalServerError, false, message, nil, nil)
}

// ResponseInternalErrorDetailed is the non-production 500 shape carrying the cause and stack.
func ResponseInternalErrorDetailed(w http.ResponseWriter, message, stack string) {
	writeResponse(w, http.StatusInternalServerError, Response{
		Success: false,
		Message: message,
		Stack:   stack,
	})
}

// ResponseAppError writes the status and body for a known failure.
func ResponseAppError(w http.ResponseWriter, err *apperror.Error) {
	var errors any
	if len(err.Fields) > 0 {
		errors = err.Fields
	}
	ResponseJSON(w, apperror.HTTPStatus(err.Code), false, err.Message, nil, errors)
}
