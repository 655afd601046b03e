package pst

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

// Options 为写出器的可选配置（最小必要）。
type Options struct {
	// Newline: 行尾风格 "lf"（默认）或 "crlf"。
	Newline string `json:"newline"`
}

// Emitter 按固定节顺序写出 PEST 控制文件。
type Emitter struct {
	reg *schema.Registry
	nl  string
}

// New 创建写出器；reg 不可为 nil。
func New(reg *schema.Registry, opts *Options) (*Emitter, error) {
	nl := "\n"
	if opts != nil {
		switch strings.ToLower(strings.TrimSpace(opts.Newline)) {
		case "", "lf":
		case "crlf":
			nl = "\r\n"
		default:
			return nil, fmt.Errorf("emitter: invalid newline %q", opts.Newline)
		}
	}
	return &Emitter{reg: reg, nl: nl}, nil
}

var _ contract.Emitter = (*Emitter)(nil)

// Emit 单趟写出全部节到内存缓冲，全部成功后才一次性写入 w。
// 任一节失败时 w 不会收到任何字节。
func (e *Emitter) Emit(ctx context.Context, blocks *contract.Blocks, w io.Writer) error {
	if blocks == nil {
		return fmt.Errorf("%w: nil blocks", contract.ErrInvariantViolation)
	}
	o := &out{b: blocks, reg: e.reg, nl: e.nl}
	o.writeln("pcf")
	for _, s := range sections {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if err := s.emit(o); err != nil {
			return fmt.Errorf("%s: %w", s.title, err)
		}
	}
	_, err := w.Write(o.buf.Bytes())
	return err
}

// out: 单次写出的状态。
type out struct {
	b   *contract.Blocks
	reg *schema.Registry
	nl  string
	buf bytes.Buffer
}

func (o *out) writeln(parts ...string) {
	o.buf.WriteString(strings.Join(parts, " "))
	o.buf.WriteString(o.nl)
}

func (o *out) header(title string) { o.writeln("* " + title) }

// conflict: 同一规范块名由多个输入块提供。
func (o *out) conflict(block string) error {
	if names, ok := o.b.Conflicts[block]; ok && len(names) > 1 {
		return &contract.ConflictingSynonymBlocksError{Section: block, Names: names}
	}
	return nil
}

// keywords 取关键字块；缺失且必需时报错，缺失且可选时返回 nil。
func (o *out) keywords(block string, required bool) (*contract.KeywordBlock, *schema.Block, error) {
	if err := o.conflict(block); err != nil {
		return nil, nil, err
	}
	kb := o.b.Keywords[block]
	if kb == nil {
		if required {
			return nil, nil, &contract.MissingRequiredBlockError{Section: block}
		}
		return nil, nil, nil
	}
	sch, err := o.reg.Lookup(contract.KeywordBlockKind, block)
	if err != nil {
		return nil, nil, err
	}
	return kb, sch, nil
}

// table 同 keywords，针对表块。
func (o *out) table(block string, required bool) (*contract.TableBlock, *schema.Block, error) {
	if err := o.conflict(block); err != nil {
		return nil, nil, err
	}
	tb := o.b.Tables[block]
	if tb == nil {
		if required {
			return nil, nil, &contract.MissingRequiredBlockError{Section: block}
		}
		return nil, nil, nil
	}
	sch, err := o.reg.Lookup(contract.TableBlockKind, block)
	if err != nil {
		return nil, nil, err
	}
	return tb, sch, nil
}

// keywordLine 写出一行关键字字段。
// 缺值：必需字段（或 strict）报 MissingValueError；可选字段省略。
func (o *out) keywordLine(block string, sch *schema.Block, vals map[string]contract.Value, names []string, strict bool) error {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		f, ok := sch.Field(n)
		if !ok {
			return fmt.Errorf("%w: field %s not declared for %s", contract.ErrInvariantViolation, n, sch.Name)
		}
		v := vals[f.Name]
		if !v.Present {
			if f.Required || strict {
				return &contract.MissingValueError{Field: f.Name, Block: block, Row: -1}
			}
			continue
		}
		s, err := formatField(f, block, v.Text)
		if err != nil {
			return err
		}
		parts = append(parts, s)
	}
	o.writeln(parts...)
	return nil
}

// tableRows 按行写出：必需列，随后是已提供的可选列，均按 Schema 顺序。
// 自由格式表逐行原样写出。
func (o *out) tableRows(tb *contract.TableBlock, sch *schema.Block) error {
	if sch.FreeForm {
		for _, row := range tb.Columns[tb.Labels[0]] {
			o.writeln(row)
		}
		return nil
	}
	cols := make([]schema.Field, 0, len(sch.Fields))
	for _, f := range sch.Fields {
		if f.Required || tb.Has(f.Name) {
			cols = append(cols, f)
		}
	}
	parts := make([]string, len(cols))
	for r := 0; r < tb.Rows; r++ {
		for i, f := range cols {
			vals := tb.Columns[f.Name]
			if r >= len(vals) {
				return &contract.MissingValueError{Field: f.Name, Block: tb.Name, Row: r}
			}
			s, err := formatField(f, tb.Name, vals[r])
			if err != nil {
				return err
			}
			parts[i] = s
		}
		o.writeln(parts...)
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
