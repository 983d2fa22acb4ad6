package ginx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/cloudconsole/pkg/apierror"
)

// renderResponse 渲染 JSON 响应，nil 返回 204
func renderResponse(ctx *gin.Context, response any) {
	if response == nil {
		ctx.Status(http.StatusNoContent)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// renderError 渲染错误响应
// *apierror.Error 使用自身的 HTTP 状态码，其他错误包装为 InternalError
func renderError(ctx *gin.Context, statusCode int, err error) {
	requestID := GetRequestID(ctx)

	if errorResp, ok := err.(*apierror.ErrorResponse); ok {
		if len(errorResp.Errors) > 0 && errorResp.Errors[0].HTTPStatus > 0 {
			statusCode = errorResp.Errors[0].HTTPStatus
		}
		if errorResp.RequestID == "" {
			errorResp.RequestID = requestID
		}
		ctx.JSON(statusCode, errorResp)
		return
	}

	apiErr := apierror.As(err)
	if apiErr == nil {
		code := apierror.ErrInternalError
		if statusCode == http.StatusBadRequest {
			code = apierror.ErrInvalidParameter
		}
		apiErr = apierror.WrapError(code, err.Error(), err)
	}
	if apiErr.HTTPStatus > 0 {
		statusCode = apiErr.HTTPStatus
	}
	ctx.JSON(statusCode, apierror.NewErrorResponse(requestID, apiErr))
}
