package fetch

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Unlimited 表示不限制尝试次数
const Unlimited = 0

// RetryPolicy 描述重试策略：最多尝试 MaxAttempts 次（Unlimited 表示不限），每次失败后固定等待 Delay
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// PolicyFromRetries 由 max_retries 语义构造策略
// maxRetries 为首轮之后允许的重试次数，-1 表示无限重试
func PolicyFromRetries(maxRetries int, delay time.Duration) RetryPolicy {
	switch {
	case maxRetries == -1:
		return RetryPolicy{MaxAttempts: Unlimited, Delay: delay}
	case maxRetries < 0:
		return RetryPolicy{MaxAttempts: 1, Delay: delay}
	default:
		return RetryPolicy{MaxAttempts: maxRetries + 1, Delay: delay}
	}
}

// IsUnlimited 是否无限重试
func (p RetryPolicy) IsUnlimited() bool {
	return p.MaxAttempts == Unlimited
}

// SleepFunc 等待指定时长，ctx 取消时提前返回错误
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryHook 每次失败且即将重试前调用
type RetryHook func(attempt int, err error, delay time.Duration)

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retryer 按 RetryPolicy 执行函数
type Retryer struct {
	policy  RetryPolicy
	sleep   SleepFunc
	onRetry RetryHook
}

// NewRetryer 创建 Retryer，sleep 为 nil 时使用真实等待
func NewRetryer(policy RetryPolicy, sleep SleepFunc, onRetry RetryHook) *Retryer {
	if sleep == nil {
		sleep = contextSleep
	}
	return &Retryer{policy: policy, sleep: sleep, onRetry: onRetry}
}

// Do 执行 fn 直到成功或尝试次数耗尽，返回实际尝试次数和最后一次错误
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	var lastErr error
	attempt := 0
	for {
		attempt++
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}

		if !r.policy.IsUnlimited() && attempt >= r.policy.MaxAttempts {
			return attempt, lastErr
		}

		if r.onRetry != nil {
			r.onRetry(attempt, lastErr, r.policy.Delay)
		}
		if err := r.sleep(ctx, r.policy.Delay); err != nil {
			return attempt, errors.Wrapf(lastErr, "retry aborted after %d attempt(s): %v", attempt, err)
		}
	}
}
