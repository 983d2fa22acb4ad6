package synchronizer

import "time"

// Backoff 第 attempt 次重连前的等待时间：base·2^(attempt-1)，不超过 maxDelay
// maxDelay 小于 base 时按 base 计
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		return 0
	}
	if maxDelay < base {
		maxDelay = base
	}
	shift := uint(attempt - 1)
	if shift >= 62 || base > maxDelay>>shift {
		return maxDelay
	}
	return base << shift
}
