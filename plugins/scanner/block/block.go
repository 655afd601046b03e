package block

import (
	"context"
	"strings"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

// Scanner 识别 begin/end 行。
type Scanner struct {
	comment string
}

// New 创建块扫描器；comment 为空时使用默认注释符。
// 与内容解析器共用同一注释符。
func New(comment string) *Scanner {
	return &Scanner{comment: contract.CommentPrefix(comment)}
}

var _ contract.Scanner = (*Scanner)(nil)

const (
	tokBegin    = "begin"
	tokEnd      = "end"
	tokKeywords = "keywords"
	tokTable    = "table"
)

// Scan 逐行折叠大小写并按空白切分：
// - 含 begin 的行必须恰为 "begin <keywords|table> <name>"；
// - 含 end 的行必须恰为 "end <name>"；
// - 其它形态返回 *contract.SyntaxError。
func (s *Scanner) Scan(ctx context.Context, doc contract.Document) (contract.ScanResult, error) {
	var res contract.ScanResult
	for i, raw := range doc.Lines {
		if err := ctxErr(ctx); err != nil {
			return contract.ScanResult{}, err
		}
		toks := strings.Fields(schema.Fold(contract.StripComment(raw, s.comment)))
		if len(toks) == 0 {
			continue
		}
		switch {
		case contains(toks, tokBegin):
			if len(toks) != 3 || toks[0] != tokBegin {
				return contract.ScanResult{}, &contract.SyntaxError{Line: i, Text: raw}
			}
			var kind contract.Kind
			switch toks[1] {
			case tokKeywords:
				kind = contract.KeywordBlockKind
			case tokTable:
				kind = contract.TableBlockKind
			default:
				return contract.ScanResult{}, &contract.SyntaxError{Line: i, Text: raw}
			}
			res.Opens = append(res.Opens, contract.OpenEvent{Line: i, Name: toks[2], Kind: kind})
		case contains(toks, tokEnd):
			if len(toks) != 2 || toks[0] != tokEnd {
				return contract.ScanResult{}, &contract.SyntaxError{Line: i, Text: raw}
			}
			res.Closes = append(res.Closes, contract.CloseEvent{Line: i, Name: toks[1]})
		}
	}
	return res, nil
}

func contains(toks []string, w string) bool {
	for _, t := range toks {
		if t == w {
			return true
		}
	}
	return false
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
