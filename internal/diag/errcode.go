package diag

import (
	"context"
	"errors"
	"os"
	"time"

	"keypest/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeSyntax    Code = "syntax"
	CodeStructure Code = "structure"
	CodeContent   Code = "content"
	CodeWrite     Code = "write"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	switch {
	case errors.Is(err, contract.ErrSyntax):
		return CodeSyntax
	case errors.Is(err, contract.ErrStructure):
		return CodeStructure
	case errors.Is(err, contract.ErrContent):
		return CodeContent
	case errors.Is(err, contract.ErrWrite):
		return CodeWrite
	case errors.Is(err, contract.ErrInvariantViolation),
		errors.Is(err, contract.ErrPathInvalid),
		errors.Is(err, contract.ErrInvalidUTF8):
		return CodeInvariant
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
