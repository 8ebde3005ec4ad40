package errs

import "net/http"

// 错误码与 HTTP 状态码保持一致，便于接口层直接映射
const (
	BadRequestError       = http.StatusBadRequest
	InvalidCredentialCode = http.StatusUnauthorized
	ForbiddenError        = http.StatusForbidden
	ServerInternalError   = http.StatusInternalServerError
	StoreUnavailableCode  = http.StatusServiceUnavailable
)

var (
	ErrBadRequest        = NewCodeError(BadRequestError, "BadRequest")
	ErrInvalidCredential = NewCodeError(InvalidCredentialCode, "InvalidCredential")
	ErrForbidden         = NewCodeError(ForbiddenError, "Forbidden")
	ErrStoreUnavailable  = NewCodeError(StoreUnavailableCode, "StoreUnavailable")
	ErrInternal          = NewCodeError(ServerInternalError, "InternalError")
)

// Terminal reports whether err ends a connection attempt without retry.
func Terminal(err error) bool {
	ce := CodeOf(err)
	if ce == nil {
		return false
	}
	switch ce.Code {
	case BadRequestError, InvalidCredentialCode, ForbiddenError:
		return true
	}
	return false
}

// HTTPStatus maps err to a response status; unknown errors are 500.
func HTTPStatus(err error) int {
	ce := CodeOf(err)
	if ce == nil {
		return http.StatusInternalServerError
	}
	if ce.Code == StoreUnavailableCode {
		return http.StatusInternalServerError
	}
	if ce.Code >= 400 && ce.Code < 600 {
		return ce.Code
	}
	return http.StatusInternalServerError
}
