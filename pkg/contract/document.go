package contract

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8: 输入文档包含非法 UTF-8 字节。
var ErrInvalidUTF8 = errors.New("decode error: invalid UTF-8 in document")

// ReadDocument 将 r 全量读入为 Document（一次性，非流式）。
// 规则：
// - CRLF→LF，去除行尾换行；
// - 末尾无换行的最后一行同样保留；
// - 不做其它清洗（大小写、空白均保持原样）。
func ReadDocument(id FileID, r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		s, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Document{}, err
		}
		if s != "" || err == nil {
			s = strings.TrimSuffix(s, "\n")
			s = strings.TrimSuffix(s, "\r")
			if !utf8.ValidString(s) {
				return Document{}, ErrInvalidUTF8
			}
			lines = append(lines, s)
		}
		if err != nil {
			break
		}
	}
	return Document{ID: id, Lines: lines}, nil
}

// Slice 返回 (from, to) 开区间内的行，越界自动收敛。
func (d Document) Slice(from, to int) []string {
	lo := from + 1
	if lo < 0 {
		lo = 0
	}
	hi := to
	if hi > len(d.Lines) {
		hi = len(d.Lines)
	}
	if lo >= hi {
		return nil
	}
	return d.Lines[lo:hi]
}
