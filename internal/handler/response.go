package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careflow/hospital-api/internal/model"
	apperrors "github.com/careflow/hospital-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes err as a JSON envelope with the HTTP status implied by its
// error code. Conflict-class codes map to 409 so clients know to re-read
// the entry and retry rather than repair their request.
func Error(c *gin.Context, err error) {
	var fieldErrs model.FieldErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusUnprocessableEntity, &Response{
			Status:  "error",
			Message: "vital signs validation failed",
			Data:    gin.H{"fields": fieldErrs},
		})
		return
	}

	c.JSON(statusFor(apperrors.Code(err)), NewErrorResponse(err.Error()))
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest, apperrors.ErrNoEligibleClinician, apperrors.ErrIneligibleClinicianForPayer:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden, apperrors.ErrNotAssignedClinician:
		return http.StatusForbidden
	case apperrors.ErrInvalidTransition, apperrors.ErrDuplicateActiveEntry, apperrors.ErrStaleState:
		return http.StatusConflict
	case apperrors.ErrValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
