package contract

import (
	"path"
	"strings"
)

// NormalizeFileID 规范化路径，统一为跨平台稳定的 FileID。
// 规则：
// - 使用正斜杠分隔符
// - 清理多余分隔符与路径片段（.、..）
// - 保留相对/绝对语义，不做隐式绝对化
func NormalizeFileID(p string) FileID {
	return FileID(path.Clean(strings.ReplaceAll(p, "\\", "/")))
}

// WithExt 将 id 的扩展名替换为 ext（ext 含点，如 ".pst"）；无扩展名时直接追加。
func WithExt(id FileID, ext string) ArtifactID {
	s := string(id)
	base := path.Base(s)
	if e := path.Ext(base); e != "" && e != base {
		s = strings.TrimSuffix(s, e)
	}
	return ArtifactID(s + ext)
}
