package kps

import (
	"strconv"
	"strings"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

// parseTable: 表头 → 列标签 → 数据行。空行与纯注释行跳过。
func (p *Parser) parseTable(sp contract.BlockSpan, sch *schema.Block, body []line) (*contract.TableBlock, error) {
	content := body[:0:0]
	for _, l := range body {
		if strings.TrimSpace(contract.StripComment(l.text, p.comment)) != "" {
			content = append(content, l)
		}
	}
	if len(content) == 0 {
		return nil, &contract.EmptyBlockError{Block: sp.Name}
	}

	rows, cols, ok := parseHeader(headerFields(content[0].text, p.comment))
	if !ok {
		return nil, &contract.TableHeaderError{Block: sp.Name, Line: content[0].no, Text: content[0].text}
	}

	if len(content) < 2 {
		return nil, &contract.TableColumnCountError{Block: sp.Name, Line: sp.End, Expected: cols, Found: 0}
	}
	lab := content[1]
	raw := Fields(lab.text, p.comment)
	if len(raw) != cols {
		return nil, &contract.TableColumnCountError{Block: sp.Name, Line: lab.no, Expected: cols, Found: len(raw)}
	}
	tb := &contract.TableBlock{
		Name:      sp.Name,
		Canonical: sch.Name,
		Rows:      rows,
		Cols:      cols,
		Labels:    make([]string, 0, cols),
		Columns:   make(map[string][]string, cols),
	}
	for _, r := range raw {
		f, ok := sch.Field(r)
		if !ok || tb.Has(f.Name) {
			return nil, &contract.IllegalColumnError{Block: sp.Name, Line: lab.no, Column: r}
		}
		tb.Labels = append(tb.Labels, f.Name)
		tb.Columns[f.Name] = make([]string, 0, rows)
	}

	data := content[2:]
	for _, l := range data {
		if sch.FreeForm {
			// 不透明行：整行（去注释、去首尾空白）归入首列。
			first := tb.Labels[0]
			tb.Columns[first] = append(tb.Columns[first], strings.TrimSpace(contract.StripComment(l.text, p.comment)))
			continue
		}
		vals := Fields(l.text, p.comment)
		if len(vals) != cols {
			return nil, &contract.TableColumnCountError{Block: sp.Name, Line: l.no, Expected: cols, Found: len(vals)}
		}
		for i, v := range vals {
			c := tb.Labels[i]
			tb.Columns[c] = append(tb.Columns[c], v)
		}
	}
	if len(data) != rows {
		return nil, &contract.TableRowCountError{Block: sp.Name, Expected: rows, Found: len(data)}
	}
	return tb, nil
}

// parseHeader: 严格匹配 "nrow = N ncol = M columnlabels"（字面量大小写不敏感）。
func parseHeader(toks []string) (rows, cols int, ok bool) {
	if len(toks) != 7 {
		return 0, 0, false
	}
	if schema.Fold(toks[0]) != "nrow" || toks[1] != "=" ||
		schema.Fold(toks[3]) != "ncol" || toks[4] != "=" ||
		schema.Fold(toks[6]) != "columnlabels" {
		return 0, 0, false
	}
	rows, err := strconv.Atoi(toks[2])
	if err != nil || rows < 0 {
		return 0, 0, false
	}
	cols, err = strconv.Atoi(toks[5])
	if err != nil || cols < 1 {
		return 0, 0, false
	}
	return rows, cols, true
}
