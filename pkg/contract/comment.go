package contract

import (
	"strings"
	"unicode"
)

// DefaultCommentPrefix: 默认注释起始符。
const DefaultCommentPrefix = "#"

// StripComment 去除注释：prefix 位于行首或紧跟空白时，其后至行尾忽略。
// 出现在 token 内部的 prefix（如 model#1.tpl）保持原样。prefix 为空时原样返回。
func StripComment(line, prefix string) string {
	if prefix == "" {
		return line
	}
	from := 0
	for {
		i := strings.Index(line[from:], prefix)
		if i < 0 {
			return line
		}
		i += from
		if i == 0 || unicode.IsSpace(rune(line[i-1])) {
			return line[:i]
		}
		from = i + len(prefix)
	}
}

// CommentPrefix 返回生效的注释符：空白折叠后为空时取默认值。
func CommentPrefix(p string) string {
	if p = strings.TrimSpace(p); p == "" {
		return DefaultCommentPrefix
	}
	return p
}
