package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	billingdomain "github.com/montessori/ecole/internal/billing/domain"
	bookingdomain "github.com/montessori/ecole/internal/booking/domain"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	invoicedomain "github.com/montessori/ecole/internal/invoice/domain"
	justificatifdomain "github.com/montessori/ecole/internal/justificatif/domain"
	preinscriptiondomain "github.com/montessori/ecole/internal/preinscription/domain"
	reinscriptiondomain "github.com/montessori/ecole/internal/reinscription/domain"
	tariffdomain "github.com/montessori/ecole/internal/tariff/domain"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/montessori/ecole/pkg/schoolyear"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

var notFoundErrors = []error{
	ErrNotFound,
	tariffdomain.ErrNotFound,
	familydomain.ErrParentNotFound,
	familydomain.ErrChildNotFound,
	familydomain.ErrEnrollmentNotFound,
	familydomain.ErrSignatureNotFound,
	bookingdomain.ErrNotFound,
	bookingdomain.ErrChildNotFound,
	invoicedomain.ErrNotFound,
	invoicedomain.ErrLineNotFound,
	invoicedomain.ErrPaymentNotFound,
	reinscriptiondomain.ErrNotFound,
	preinscriptiondomain.ErrNotFound,
	justificatifdomain.ErrNotFound,
	justificatifdomain.ErrTypeNotFound,
	gorm.ErrRecordNotFound,
}

var conflictErrors = []error{
	ErrConflict,
	tariffdomain.ErrDuplicate,
	familydomain.ErrAlreadyEnrolled,
	familydomain.ErrParentHasChildren,
	familydomain.ErrChildHasInvoices,
	billingdomain.ErrTariffMissing,
	billingdomain.ErrNotEnrolled,
	invoicedomain.ErrAlreadyExists,
	invoicedomain.ErrCancelled,
	invoicedomain.ErrNothingToBill,
	reinscriptiondomain.ErrAlreadyReenrolled,
	reinscriptiondomain.ErrNotPending,
	preinscriptiondomain.ErrNotPending,
	justificatifdomain.ErrTypeExists,
	justificatifdomain.ErrTypeInUse,
	justificatifdomain.ErrTypeInactive,
	justificatifdomain.ErrNotPending,
	justificatifdomain.ErrAlreadyApproved,
	gorm.ErrDuplicatedKey,
}

var forbiddenErrors = []error{
	ErrForbidden,
	reinscriptiondomain.ErrForbidden,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if sentinel, ok := matchValidationError(err); ok {
		code := sentinel.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	if sentinel, ok := match(err, notFoundErrors); ok {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: messageFor(sentinel, "not found"),
		}
	}
	if sentinel, ok := match(err, forbiddenErrors); ok {
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: messageFor(sentinel, "forbidden"),
		}
	}
	if sentinel, ok := match(err, conflictErrors); ok {
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: messageFor(sentinel, "conflict"),
		}
	}

	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the error type and code the request logger records.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal_error"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Message
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return translateFieldErrors(fieldErrs)
	}
	return nil
}

func matchValidationError(err error) (error, bool) {
	if errors.Is(err, ErrInvalidRequest) {
		return ErrInvalidRequest, true
	}
	if errors.Is(err, schoolyear.ErrInvalidSchoolYear) {
		return schoolyear.ErrInvalidSchoolYear, true
	}
	if errors.Is(err, pagination.ErrInvalidPageToken) {
		return pagination.ErrInvalidPageToken, true
	}
	for _, classify := range []func(error) (error, bool){
		tariffValidationError,
		familyValidationError,
		bookingValidationError,
		invoiceValidationError,
		reinscriptionValidationError,
		preinscriptionValidationError,
		justificatifValidationError,
	} {
		if sentinel, ok := classify(err); ok {
			return sentinel, true
		}
	}
	return nil, false
}

func match(err error, candidates []error) (error, bool) {
	for _, candidate := range candidates {
		if errors.Is(err, candidate) {
			return candidate, true
		}
	}
	return nil, false
}

func messageFor(sentinel error, fallback string) string {
	if sentinel == nil {
		return fallback
	}
	switch sentinel {
	case ErrNotFound, ErrConflict, ErrForbidden, gorm.ErrRecordNotFound, gorm.ErrDuplicatedKey:
		return fallback
	}
	return sentinel.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
