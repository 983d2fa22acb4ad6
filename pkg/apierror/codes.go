package apierror

import "net/http"

// 控制台错误代码
var (
	// ErrOperationInProgress 同一资源已有本地发起的操作尚未完成，请求未发送到后端
	ErrOperationInProgress = &Error{
		Code:       "OperationInProgress",
		Message:    "Another operation is already in progress for this resource.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrResourceBusy 后端报告资源正忙（HTTP 409），属于预期内的竞争
	ErrResourceBusy = &Error{
		Code:       "ResourceBusy",
		Message:    "The resource is busy with another operation.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrValidationFailed 本地校验失败，不会到达后端
	ErrValidationFailed = &Error{
		Code:       "ValidationFailed",
		Message:    "The request failed validation.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrInvalidParameter 请求参数不合法
	ErrInvalidParameter = &Error{
		Code:       "InvalidParameter",
		Message:    "A parameter specified in the request is not valid.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrNotFound 资源不存在
	ErrNotFound = &Error{
		Code:       "NotFound",
		Message:    "The requested resource does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrBackendFailure 后端拒绝了命令或返回了非预期错误
	ErrBackendFailure = &Error{
		Code:       "BackendFailure",
		Message:    "The compute backend rejected the request.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrServiceUnavailable 依赖暂时不可用
	ErrServiceUnavailable = &Error{
		Code:       "ServiceUnavailable",
		Message:    "The request has failed due to a temporary failure of the server.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	// ErrInternalError 内部错误
	ErrInternalError = &Error{
		Code:       "InternalError",
		Message:    "An internal error has occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
