package common

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeJSON decodes the request body into dst and runs struct validation.
// Unknown fields are tolerated so older clients keep working.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewAppError("BAD_JSON", "invalid request body", http.StatusBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				details[fe.Field()] = fe.Tag()
			}
			return &AppError{
				Code:       "VALIDATION",
				Message:    "request validation failed",
				HTTPStatus: http.StatusUnprocessableEntity,
				Err:        err,
				Details:    details,
			}
		}
		return NewAppError("VALIDATION", "request validation failed", http.StatusUnprocessableEntity, err)
	}
	return nil
}

// WriteError renders err using the canonical error shape. AppError values
// carry their own status and code; anything else becomes a 500.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		JSONError(w, status, code, message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
