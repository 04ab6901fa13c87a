package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType int

const (
	// ErrFetch 配置片段获取失败（重试耗尽或文件缺失）
	ErrFetch ErrorType = iota
	// ErrConfiguration 配置语义校验失败
	ErrConfiguration
	// ErrParse 解析错误（YAML 片段、env 文件等）
	ErrParse
	// ErrInvalidArgs 参数错误
	ErrInvalidArgs
)

// String 返回错误类型名
func (t ErrorType) String() string {
	switch t {
	case ErrFetch:
		return "FetchError"
	case ErrConfiguration:
		return "ConfigurationError"
	case ErrParse:
		return "ParseError"
	case ErrInvalidArgs:
		return "InvalidArgsError"
	default:
		return "UnknownError"
	}
}

// InventoryError 统一的 inventory 解析错误类型
type InventoryError struct {
	Type    ErrorType              // 错误类型
	Source  string                 // 出错的配置来源（URL、文件路径）
	Key     string                 // 相关的配置键或环境变量（如果适用）
	Message string                 // 错误消息
	Cause   error                  // 原始错误
	Details map[string]interface{} // 额外的错误详情
}

func (e *InventoryError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("[%s] %s", e.Source, e.Message)
	}
	return e.Message
}

func (e *InventoryError) Unwrap() error {
	return e.Cause
}

// NewFetchError 创建获取失败错误
func NewFetchError(location string, attempts int, cause error) *InventoryError {
	return &InventoryError{
		Type:    ErrFetch,
		Source:  location,
		Message: fmt.Sprintf("failed to fetch after %d attempt(s): %v", attempts, cause),
		Cause:   cause,
		Details: map[string]interface{}{
			"attempts": attempts,
		},
	}
}

// NewConfigurationError 创建配置校验错误
func NewConfigurationError(msg string) *InventoryError {
	return &InventoryError{
		Type:    ErrConfiguration,
		Message: msg,
	}
}

// NewConfigurationErrorf 创建带格式化消息的配置校验错误
func NewConfigurationErrorf(key, format string, args ...interface{}) *InventoryError {
	return &InventoryError{
		Type:    ErrConfiguration,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewParseError 创建解析错误
func NewParseError(source string, cause error) *InventoryError {
	return &InventoryError{
		Type:    ErrParse,
		Source:  source,
		Message: fmt.Sprintf("failed to parse: %v", cause),
		Cause:   cause,
	}
}

// NewInvalidArgsError 创建命令行参数错误
func NewInvalidArgsError(key, format string, args ...interface{}) *InventoryError {
	return &InventoryError{
		Type:    ErrInvalidArgs,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsFetchError 判断错误链中是否有获取失败错误
func IsFetchError(err error) bool {
	return hasType(err, ErrFetch)
}

// IsConfigurationError 判断错误链中是否有配置校验错误
func IsConfigurationError(err error) bool {
	return hasType(err, ErrConfiguration)
}

// IsParseError 判断错误链中是否有解析错误
func IsParseError(err error) bool {
	return hasType(err, ErrParse)
}

// IsInvalidArgsError 判断错误链中是否有命令行参数错误
func IsInvalidArgsError(err error) bool {
	return hasType(err, ErrInvalidArgs)
}

func hasType(err error, t ErrorType) bool {
	var invErr *InventoryError
	if stderrors.As(err, &invErr) {
		return invErr.Type == t
	}
	return false
}
