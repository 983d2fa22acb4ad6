package ginx

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "ginx.request_id"

// RequestID 为每个请求分配 ID，并把携带该 ID 的 zerolog logger 放入请求上下文
// 调用方通过 zerolog.Ctx(ctx) 取用
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Header(HeaderRequestID, id)

		logger := zerolog.Ctx(ctx.Request.Context()).With().Str("request_id", id).Logger()
		ctx.Request = ctx.Request.WithContext(logger.WithContext(ctx.Request.Context()))
		ctx.Next()
	}
}

// GetRequestID 返回当前请求 ID，未经过 RequestID 中间件时返回空字符串
func GetRequestID(ctx *gin.Context) string {
	return ctx.GetString(requestIDKey)
}
