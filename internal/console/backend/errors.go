package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError 后端返回的非 2xx 响应
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
	// Detail 从响应体中提取的可读错误信息
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d: %s %s - %s", e.StatusCode, e.Method, e.URL, e.Detail)
	}
	return fmt.Sprintf("HTTP %d: %s %s - %s", e.StatusCode, e.Method, e.URL, e.Body)
}

// IsConflict 后端明确表示资源正忙于另一个操作
func (e *HTTPError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// AsHTTPError 从错误链中取出 *HTTPError
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsConflict 判断 err 是否是后端的 409
func IsConflict(err error) bool {
	httpErr, ok := AsHTTPError(err)
	return ok && httpErr.IsConflict()
}

// extractDetail 按 detail > message > error 的顺序从 JSON 响应体中提取错误信息
// 非 JSON 响应体直接使用去掉首尾空白的原文
func extractDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
