package ginx

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindArgs 绑定请求参数到 args 结构体
// 顺序：URI 参数 > Query 参数 > JSON Body，后绑定的来源覆盖同名字段
// 参数校验统一交给 IsValid，这里不使用 binding:"required"
func bindArgs(ctx *gin.Context, args any) error {
	if len(ctx.Params) > 0 {
		m := make(map[string][]string, len(ctx.Params))
		for _, p := range ctx.Params {
			m[p.Key] = []string{p.Value}
		}
		if err := binding.Uri.BindUri(m, args); err != nil {
			return err
		}
	}

	if len(ctx.Request.URL.RawQuery) > 0 {
		if err := binding.Query.Bind(ctx.Request, args); err != nil {
			return err
		}
	}

	// 空 Body 是合法的，例如 POST /vms/:id/start
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return nil
	}
	if err := binding.JSON.Bind(ctx.Request, args); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
