package dispatcher

import (
	"github.com/jimyag/cloudconsole/pkg/apierror"
)

// Outcome 命令的结果类型
type Outcome string

const (
	// OutcomeOK 后端接受了命令
	OutcomeOK Outcome = "ok"
	// OutcomeBusy 本地锁拒绝，没有发送任何请求
	OutcomeBusy Outcome = "busy"
	// OutcomeConflict 后端返回 409，资源正忙于另一个操作
	OutcomeConflict Outcome = "conflict"
	// OutcomeFailed 其他失败
	OutcomeFailed Outcome = "failed"
)

// Result 一次命令的结果
type Result struct {
	Outcome Outcome `json:"outcome"`
	// Operation 命令类型
	Operation Operation `json:"operation"`
	// ResourceID 目标虚拟机，创建成功时为新虚拟机的 ID
	ResourceID string `json:"resource_id,omitempty"`
	// Message 展示给操作员的信息
	Message string `json:"message"`
	// Err 失败时的原始错误
	Err error `json:"-"`
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// APIError 把非成功的结果转换为 API 错误，成功时返回 nil
func (r Result) APIError() *apierror.Error {
	switch r.Outcome {
	case OutcomeOK:
		return nil
	case OutcomeBusy:
		return apierror.WrapError(apierror.ErrOperationInProgress, r.Message, nil)
	case OutcomeConflict:
		return apierror.WrapError(apierror.ErrResourceBusy, r.Message, r.Err)
	default:
		return apierror.WrapError(apierror.ErrBackendFailure, r.Message, r.Err)
	}
}
