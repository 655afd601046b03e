package interval

import (
	"context"
	"sort"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

// Validator 校验块完整性并配对 begin/end。
type Validator struct {
	reg *schema.Registry
}

// New 创建校验器；reg 不可为 nil。
func New(reg *schema.Registry) *Validator {
	return &Validator{reg: reg}
}

var _ contract.Validator = (*Validator)(nil)

// Validate 依次执行：重复名 → 名称解析与配对 → 先后顺序 → 不嵌套。
func (v *Validator) Validate(ctx context.Context, scan contract.ScanResult) ([]contract.BlockSpan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if err := checkDuplicates(scan); err != nil {
		return nil, err
	}
	spans, err := v.pair(scan)
	if err != nil {
		return nil, err
	}
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if err := contract.CheckOrdered(spans); err != nil {
		return nil, err
	}
	if err := contract.CheckDisjoint(spans); err != nil {
		return nil, err
	}
	return spans, nil
}

// checkDuplicates: 同类型 begin 名内、全部 end 名内分别查重，汇总全部重复名。
func checkDuplicates(scan contract.ScanResult) error {
	dup := map[string]struct{}{}
	seen := map[contract.Kind]map[string]int{}
	for _, o := range scan.Opens {
		if seen[o.Kind] == nil {
			seen[o.Kind] = map[string]int{}
		}
		seen[o.Kind][o.Name]++
		if seen[o.Kind][o.Name] > 1 {
			dup[o.Name] = struct{}{}
		}
	}
	ends := map[string]int{}
	for _, c := range scan.Closes {
		ends[c.Name]++
		if ends[c.Name] > 1 {
			dup[c.Name] = struct{}{}
		}
	}
	if len(dup) == 0 {
		return nil
	}
	names := make([]string, 0, len(dup))
	for n := range dup {
		names = append(names, n)
	}
	sort.Strings(names)
	return &contract.DuplicateBlockError{Names: names}
}

// pair: 解析 begin 名并按名称匹配 end。
// 一个 end 必须恰好匹配一个 begin；同名 keywords/table 共用一个 end 时，
// 必有一个 begin 无对应 end，按 DanglingBegin 报告。
func (v *Validator) pair(scan contract.ScanResult) ([]contract.BlockSpan, error) {
	spans := make([]contract.BlockSpan, 0, len(scan.Opens))
	for _, o := range scan.Opens {
		b, err := v.reg.Lookup(o.Kind, o.Name)
		if err != nil {
			return nil, &contract.UnknownBlockNameError{Line: o.Line, Name: o.Name, Kind: o.Kind, Known: v.reg.Names(o.Kind)}
		}
		spans = append(spans, contract.BlockSpan{
			Name:      o.Name,
			Canonical: b.Name,
			Kind:      o.Kind,
			Start:     o.Line,
			End:       contract.Unset,
		})
	}
	for _, c := range scan.Closes {
		match := -1
		n := 0
		for i := range spans {
			if spans[i].Name == c.Name {
				match = i
				n++
			}
		}
		switch {
		case n == 0:
			return nil, &contract.DanglingEndError{Name: c.Name}
		case n > 1:
			return nil, &contract.DanglingBeginError{Name: c.Name}
		}
		spans[match].End = c.Line
	}
	for _, s := range spans {
		if s.End == contract.Unset {
			return nil, &contract.DanglingBeginError{Name: s.Name}
		}
	}
	return spans, nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
