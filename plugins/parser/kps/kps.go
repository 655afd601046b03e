package kps

import (
	"context"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

// Parser 解析关键字块与表块的内容。
type Parser struct {
	reg     *schema.Registry
	comment string
}

// New 创建内容解析器；reg 不可为 nil，comment 为空时使用默认注释符。
func New(reg *schema.Registry, comment string) *Parser {
	return &Parser{reg: reg, comment: contract.CommentPrefix(comment)}
}

var _ contract.Parser = (*Parser)(nil)

// Parse 逐块解析 (Start, End) 开区间内的行。
// 同一规范名（别名或跨类型）出现多次时仅保留首个，全部来源名记入 Conflicts。
func (p *Parser) Parse(ctx context.Context, doc contract.Document, spans []contract.BlockSpan) (*contract.Blocks, error) {
	out := contract.NewBlocks()
	sources := map[string][]string{}
	for _, sp := range spans {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		sch, err := p.reg.Lookup(sp.Kind, sp.Name)
		if err != nil {
			return nil, err
		}
		body := numbered(doc, sp)
		switch sp.Kind {
		case contract.KeywordBlockKind:
			kb, err := p.parseKeywords(sp, sch, body)
			if err != nil {
				return nil, err
			}
			if _, exists := out.Keywords[sch.Name]; !exists {
				out.Keywords[sch.Name] = kb
			}
		case contract.TableBlockKind:
			tb, err := p.parseTable(sp, sch, body)
			if err != nil {
				return nil, err
			}
			if _, exists := out.Tables[sch.Name]; !exists {
				out.Tables[sch.Name] = tb
			}
		}
		sources[sch.Name] = append(sources[sch.Name], sp.Name)
	}
	for canon, names := range sources {
		if len(names) > 1 {
			out.Conflicts[canon] = names
		}
	}
	return out, nil
}

// line: 带 0 基文档行号的块体行。
type line struct {
	no   int
	text string
}

func numbered(doc contract.Document, sp contract.BlockSpan) []line {
	body := doc.Slice(sp.Start, sp.End)
	out := make([]line, len(body))
	for i, s := range body {
		out[i] = line{no: sp.Start + 1 + i, text: s}
	}
	return out
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
