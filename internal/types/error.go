package types

import (
	"fmt"
	"net/http"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	NotFound             ErrorCode = "NOT_FOUND"
	AdmissionRejected    ErrorCode = "ADMISSION_REJECTED"
	InvalidReferrer      ErrorCode = "INVALID_REFERRER"
	AlreadyBound         ErrorCode = "ALREADY_BOUND"
	NotMatured           ErrorCode = "NOT_MATURED"
	StakeMatured         ErrorCode = "STAKE_MATURED"
	DustTooSmall         ErrorCode = "DUST_TOO_SMALL"
	PeriodInvalid        ErrorCode = "PERIOD_INVALID"
	Unauthorized         ErrorCode = "UNAUTHORIZED"
	SettlementInFlight   ErrorCode = "SETTLEMENT_IN_FLIGHT"
	ExchangeUnavailable  ErrorCode = "EXCHANGE_UNAVAILABLE"
)

// Error wraps an underlying error with the HTTP status and stable error code
// returned to API clients.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.ErrorCode.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        err,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, fmt.Errorf("%s", msg))
}

func NewInternalServiceError(err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  InternalServiceError,
		Err:        err,
	}
}

func NewValidationFailedError(err error) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  ValidationError,
		Err:        err,
	}
}
