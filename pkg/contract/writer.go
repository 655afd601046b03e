package contract

import (
	"context"
	"io"
)

// ArtifactID: 与 FileID 等价的输出工件标识（语义别名）。
// Writer 实现负责把输入 FileID 映射为目标路径（如替换扩展名为 .pst）。
type ArtifactID = FileID

// Writer: 将整份输出文档持久化到目标介质。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 按字节透传，不读取/修改内容；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛（不做重试/回退），失败时不得留下半截输出。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
