package server

import (
	"errors"
	"net/http"

	apperrors "photo-architect/internal/errors"
	"photo-architect/internal/history"
	"photo-architect/internal/i18n"
	mw "photo-architect/internal/middleware"
	"photo-architect/internal/session"

	"github.com/gin-gonic/gin"
)

// writeError renders controller errors in the session locale.
func writeError(c *gin.Context, err error) {
	loc := mw.RequestLocale(c)
	var malformed *apperrors.MalformedImageError
	var apiErr *apperrors.APIError
	switch {
	case errors.Is(err, session.ErrEditInProgress):
		apiErr = apperrors.New(http.StatusConflict, "edit_in_progress", "invalid_request_error", i18n.T(loc, i18n.MsgBusy))
	case errors.Is(err, session.ErrNoImage):
		apiErr = apperrors.New(http.StatusBadRequest, "no_image", "invalid_request_error", i18n.T(loc, i18n.MsgNoImage))
	case errors.Is(err, session.ErrEmptyPrompt):
		apiErr = apperrors.New(http.StatusBadRequest, "empty_prompt", "invalid_request_error", i18n.T(loc, i18n.MsgEmptyPrompt))
	case errors.Is(err, session.ErrPromptTooLong):
		apiErr = apperrors.New(http.StatusBadRequest, "prompt_too_long", "invalid_request_error", err.Error())
	case errors.Is(err, history.ErrNotFound):
		apiErr = apperrors.New(http.StatusNotFound, "history_not_found", "invalid_request_error", err.Error())
	case errors.As(err, &malformed):
		apiErr = apperrors.New(http.StatusBadRequest, "malformed_image", "invalid_request_error", i18n.T(loc, i18n.MsgMalformedImage)).
			WithDetails(map[string]interface{}{"reason": malformed.Reason})
	default:
		apperrors.WriteJSON(c, err)
		return
	}
	apperrors.WriteJSON(c, apiErr)
}

func badRequest(c *gin.Context, code, msg string) {
	apperrors.WriteJSON(c, apperrors.New(http.StatusBadRequest, code, "invalid_request_error", msg))
}
