package errors

import (
	"encoding/json"
	"net/http"
)

func New(httpStatus int, code, errType, message string) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Type: errType, Message: message}
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *APIError) WithDetails(details map[string]interface{}) *APIError {
	e.Details = details
	return e
}

// Envelope converts the error to its JSON response shape.
func (e *APIError) Envelope() ErrorEnvelope {
	var env ErrorEnvelope
	env.Error.Message = e.Message
	env.Error.Type = e.Type
	env.Error.Code = e.Code
	if e.Details != nil {
		env.Error.Details = e.Details
	}
	return env
}

func (e *APIError) ToJSON() ([]byte, error) {
	return json.Marshal(e.Envelope())
}

// IsCritical reports failures that will not go away by rephrasing the
// instruction (bad key, revoked permission).
func (e *APIError) IsCritical() bool {
	switch e.HTTPStatus {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	switch e.Code {
	case "invalid_api_key", "permission_denied":
		return true
	}
	return false
}
