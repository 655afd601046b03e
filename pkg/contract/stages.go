package contract

import (
	"context"
	"io"
)

// Scanner: 逐行扫描文档，收集 begin/end 事件。
// 约束：
// 1) 仅识别，不配对；
// 2) 形态非法的 begin/end 行立即返回 *SyntaxError；
// 3) 无内部并发、幂等。
type Scanner interface {
	Scan(ctx context.Context, doc Document) (ScanResult, error)
}

// Validator: 对扫描结果做完整性校验并配对为 BlockSpan。
// 校验顺序固定：重复 → 名称解析/配对 → 先后顺序 → 不嵌套；任一违例立即返回。
// 返回的区间按 Start 升序。
type Validator interface {
	Validate(ctx context.Context, scan ScanResult) ([]BlockSpan, error)
}

// Parser: 按已校验区间解析块内容为 Keyword/TableBlock。
// 约束：
// 1) 只读取 (Start, End) 开区间内的行；
// 2) 每个块只写入一次；
// 3) 同一输出节的多个来源记入 Blocks.Conflicts，不在此阶段报错。
type Parser interface {
	Parse(ctx context.Context, doc Document, spans []BlockSpan) (*Blocks, error)
}

// Emitter: 按固定节顺序把 Blocks 写为目标格式。
// 约束：
// 1) 单次完整写出，不回读输入；
// 2) 出错时 w 中可能已有部分内容，调用方应先写入缓冲区，成功后再交给 Writer。
type Emitter interface {
	Emit(ctx context.Context, blocks *Blocks, w io.Writer) error
}
