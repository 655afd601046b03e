package contract

import (
	"context"
	"io"
)

// Reader: 输入源抽象（单文件/目录/STDIN）。
// 约束：
// 1) 按文档维度回调，每份文档整体交给调用方读取；
// 2) FileID 稳定且去平台差异化；
// 3) 不做解析，仅提供字节流；
// 4) 不在内部起并发，按稳定顺序回调。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, r io.ReadCloser) error) error
}
