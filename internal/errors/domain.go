package errors

import (
	stderrors "errors"
	"net/http"
)

// MalformedImageError is returned when an input cannot be decoded as an image.
type MalformedImageError struct {
	Reason string
}

func (e *MalformedImageError) Error() string {
	if e.Reason == "" {
		return "malformed image"
	}
	return "malformed image: " + e.Reason
}

// EditNoImageReturnedError means the API answered but produced no usable image.
// Message is user facing and already localized.
type EditNoImageReturnedError struct {
	Message      string
	FinishReason string
}

func (e *EditNoImageReturnedError) Error() string { return e.Message }

// EditServiceError covers transport, authentication and quota failures of the
// generation API. Message is either the underlying message or a localized
// fallback when the underlying error had none.
type EditServiceError struct {
	Message string
	Cause   error
}

func (e *EditServiceError) Error() string { return e.Message }

func (e *EditServiceError) Unwrap() error { return e.Cause }

// ConfigError is a fatal startup configuration problem.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return "invalid configuration: " + e.Field + ": " + e.Message
}

// FromError converts any error into the APIError rendered to browsers.
// Unknown errors become a 500 with the generic message.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	var malformed *MalformedImageError
	var noImage *EditNoImageReturnedError
	var svcErr *EditServiceError
	switch {
	case stderrors.As(err, &malformed):
		return New(http.StatusBadRequest, "malformed_image", "invalid_request_error", malformed.Error())
	case stderrors.As(err, &noImage):
		return New(http.StatusUnprocessableEntity, "no_image_returned", "edit_error", noImage.Message)
	case stderrors.As(err, &svcErr):
		status := http.StatusBadGateway
		if stderrors.As(svcErr.Cause, &apiErr) && apiErr.HTTPStatus >= 400 {
			status = apiErr.HTTPStatus
		}
		return New(status, "edit_service_error", "upstream_error", svcErr.Message)
	case stderrors.As(err, &apiErr):
		return apiErr
	default:
		return New(http.StatusInternalServerError, "internal_error", "internal_error", err.Error())
	}
}
