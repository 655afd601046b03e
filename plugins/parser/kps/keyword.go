package kps

import (
	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

type token struct {
	line int
	text string
}

// parseKeywords: 块体拼成扁平 token 流，偶数位为键、奇数位为值。
// 未登记的键忽略（记入 Ignored）；重复键后者覆盖前者。
func (p *Parser) parseKeywords(sp contract.BlockSpan, sch *schema.Block, body []line) (*contract.KeywordBlock, error) {
	var toks []token
	for _, l := range body {
		for _, t := range Tokenize(l.text, p.comment) {
			toks = append(toks, token{line: l.no, text: t})
		}
	}
	if len(toks) == 0 {
		return nil, &contract.EmptyBlockError{Block: sp.Name}
	}
	if len(toks)%2 != 0 {
		return nil, &contract.KeywordPairingError{Block: sp.Name, Line: toks[len(toks)-1].line}
	}
	kb := &contract.KeywordBlock{Name: sp.Name, Canonical: sch.Name, Fields: sch.Defaults()}
	for i := 0; i < len(toks); i += 2 {
		k, v := toks[i].text, toks[i+1].text
		f, ok := sch.Field(k)
		if !ok {
			kb.Ignored = append(kb.Ignored, k)
			continue
		}
		kb.Fields[f.Name] = contract.Some(v)
	}
	return kb, nil
}
