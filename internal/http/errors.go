package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/kec/eventhub/internal/errors"
)

// StatusForError maps an error's code to an HTTP status.
func StatusForError(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case apperrors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case apperrors.ErrCodeCanceled:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err as a JSON error using its code and user-facing message.
// Internal errors never leak their cause.
func WriteAppError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	msg := apperrors.Message(err)
	if code == apperrors.ErrCodeInternal {
		msg = "something went wrong, please try again"
	}
	WriteError(w, ErrorParams{
		Code:    StatusForError(err),
		ErrCode: string(code),
		Err:     errors.New(msg),
		Field:   apperrors.GetField(err),
	})
}
