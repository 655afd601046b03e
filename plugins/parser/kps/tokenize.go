package kps

import (
	"strings"
	"unicode"

	"keypest/pkg/contract"
)

// Tokenize 切分关键字行：
// 1) 去除注释（注释符须位于 token 起始处）；
// 2) 以 '=' 与空白为分隔符切分，连续分隔符视为一个；
// 3) 不改变 token 大小写。
// "a = 1 b=2  c 3" → [a 1 b 2 c 3]
func Tokenize(line, comment string) []string {
	return strings.FieldsFunc(contract.StripComment(line, comment), func(r rune) bool {
		return r == '=' || unicode.IsSpace(r)
	})
}

// Fields 仅按空白切分（表的列标签与数据行使用），同样先去除注释。
func Fields(line, comment string) []string {
	return strings.Fields(contract.StripComment(line, comment))
}

// headerFields 切分表头：每个 '=' 单独成 token，"nrow=2" 与 "nrow = 2" 等价，
// 缺少或重复的 '=' 保留在 token 序列中由调用方拒绝。
func headerFields(line, comment string) []string {
	return strings.Fields(strings.ReplaceAll(contract.StripComment(line, comment), "=", " = "))
}
