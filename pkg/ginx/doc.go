// Package ginx 提供 gin 的 handler 适配器，统一参数绑定、参数校验和 JSON 响应
//
// 支持的 handler 签名：
//
//	// 有参数，有返回值，有 error
//	func(c *gin.Context, args *Args) (resp, error)
//
//	// 无参数，有返回值，有 error
//	func(c *gin.Context) (resp, error)
//
// 参数结构体实现 IsValid() error 时会在调用 handler 前执行校验。
// 错误为 *apierror.Error 时使用其 HTTPStatus，并在响应中带上请求 ID。
//
// 使用示例：
//
//	router := gin.New()
//	router.Use(ginx.RequestID())
//	router.POST("/vms/:id/start", ginx.Adapt5(func(c *gin.Context, args *VMArgs) (*Result, error) {
//	    return &Result{}, nil
//	}))
package ginx
