package httpapi

import (
	"encoding/json"
	"net/http"
)

// Envelope codes. 1xxx are caller errors, 2xxx are server side.
const (
	CodeSuccess            = 0
	CodeInvalidParams      = 1000
	CodeMissingParams      = 1001
	CodeProfileNotFound    = 1002
	CodeServerError        = 2000
	CodeDatabaseError      = 2001
	CodeCurationRejected   = 2004
	CodeThirdPartyAPIError = 2005
)

var codeMessages = map[int]string{
	CodeSuccess:            "success",
	CodeInvalidParams:      "invalid parameters",
	CodeMissingParams:      "missing required parameters",
	CodeProfileNotFound:    "profile not found",
	CodeServerError:        "internal server error",
	CodeDatabaseError:      "database error",
	CodeCurationRejected:   "trending extraction rejected",
	CodeThirdPartyAPIError: "upstream API error",
}

// APIResponse is the envelope of every endpoint.
type APIResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Code: CodeSuccess, Message: codeMessages[CodeSuccess], Data: data})
}

func writeError(w http.ResponseWriter, status, code int, data any) {
	message, ok := codeMessages[code]
	if !ok {
		message = "unknown error"
	}
	writeCustomError(w, status, code, message, data)
}

func writeCustomError(w http.ResponseWriter, status, code int, message string, data any) {
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, status, APIResponse{Code: code, Message: message, Data: data})
}
