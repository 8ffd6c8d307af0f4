package service

type ErrorCode string

const (
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	ErrorCodePartialFailure     ErrorCode = "PARTIAL_FAILURE"
	ErrorCodeGatewayUnavailable ErrorCode = "GATEWAY_UNAVAILABLE"
	ErrorCodeInvalidBody        ErrorCode = "INVALID_BODY"
	ErrorCodeUnspecified        ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
