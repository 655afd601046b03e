package contract

import (
	"errors"
	"fmt"
	"strings"
)

// 错误分类哨兵：所有具体错误类型经 Unwrap 归入其一，调用方使用 errors.Is 判定类别。
var (
	// ErrSyntax: BEGIN/END 行形态非法（按行定位）。
	ErrSyntax = errors.New("syntax error")
	// ErrStructure: 块结构违例（重复、悬空、反序、嵌套）。
	ErrStructure = errors.New("block structure error")
	// ErrContent: 块内容违例（键值配对、表头、行列数、非法列、空块）。
	ErrContent = errors.New("block content error")
	// ErrWrite: 输出阶段违例（缺值、类型不符、缺必需块、同义块冲突）。
	ErrWrite = errors.New("write error")
	// ErrUnknownBlock: Schema 中不存在该块名。
	ErrUnknownBlock = errors.New("unknown block name")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)

// SyntaxError: 非法的 begin/end 行。Line 为 0 基行号，消息中输出 1 基。
type SyntaxError struct {
	Line int
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("block input syntax error: illegal begin/end line %d: %q", e.Line+1, e.Text)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// DuplicateBlockError: 一次性报告所有重复块名（已排序）。
type DuplicateBlockError struct {
	Names []string
}

func (e *DuplicateBlockError) Error() string {
	return "duplicate block names: " + strings.Join(e.Names, ", ")
}

func (e *DuplicateBlockError) Unwrap() error { return ErrStructure }

// UnknownBlockNameError: begin 行上的块名未在 Schema 中登记。
// Known 为同类型下的合法块名（可为空）。
type UnknownBlockNameError struct {
	Line  int
	Name  string
	Kind  Kind
	Known []string
}

func (e *UnknownBlockNameError) Error() string {
	msg := fmt.Sprintf("line %d: unknown %s block name %q", e.Line+1, e.Kind, e.Name)
	if len(e.Known) > 0 {
		msg += " (known: " + strings.Join(e.Known, ", ") + ")"
	}
	return msg
}

func (e *UnknownBlockNameError) Unwrap() []error { return []error{ErrStructure, ErrUnknownBlock} }

// DanglingEndError: end 行找不到对应的 begin。
type DanglingEndError struct {
	Name string
}

func (e *DanglingEndError) Error() string {
	return fmt.Sprintf("end %q has no matching begin", e.Name)
}

func (e *DanglingEndError) Unwrap() error { return ErrStructure }

// DanglingBeginError: begin 行缺少对应的 end。
type DanglingBeginError struct {
	Name string
}

func (e *DanglingBeginError) Error() string {
	return fmt.Sprintf("begin %q has no matching end", e.Name)
}

func (e *DanglingBeginError) Unwrap() error { return ErrStructure }

// ReversedBlockError: end 行不在 begin 行之后。
type ReversedBlockError struct {
	Name string
}

func (e *ReversedBlockError) Error() string {
	return fmt.Sprintf("block %q ends before it begins", e.Name)
}

func (e *ReversedBlockError) Unwrap() error { return ErrStructure }

// IllegalNestingError: 两个块区间相交或包含。Outer 为起始较早者。
type IllegalNestingError struct {
	Inner string
	Outer string
}

func (e *IllegalNestingError) Error() string {
	return fmt.Sprintf("block %q is nested in or overlaps block %q", e.Inner, e.Outer)
}

func (e *IllegalNestingError) Unwrap() error { return ErrStructure }

// KeywordPairingError: 关键字块内 token 总数为奇数；Line 为最后一个 token 所在行。
type KeywordPairingError struct {
	Block string
	Line  int
}

func (e *KeywordPairingError) Error() string {
	return fmt.Sprintf("block %q line %d: keywords and values are not paired", e.Block, e.Line+1)
}

func (e *KeywordPairingError) Unwrap() error { return ErrContent }

// EmptyBlockError: 块体内没有任何内容。
type EmptyBlockError struct {
	Block string
}

func (e *EmptyBlockError) Error() string {
	return fmt.Sprintf("block %q is empty", e.Block)
}

func (e *EmptyBlockError) Unwrap() error { return ErrContent }

// TableHeaderError: 表头不是 "nrow = N ncol = M columnlabels"。
type TableHeaderError struct {
	Block string
	Line  int
	Text  string
}

func (e *TableHeaderError) Error() string {
	return fmt.Sprintf("table %q line %d: expected \"nrow = N ncol = M columnlabels\", got %q", e.Block, e.Line+1, e.Text)
}

func (e *TableHeaderError) Unwrap() error { return ErrContent }

// TableColumnCountError: 列标签行或数据行的列数与声明不符。
type TableColumnCountError struct {
	Block    string
	Line     int
	Expected int
	Found    int
}

func (e *TableColumnCountError) Error() string {
	return fmt.Sprintf("table %q line %d: expected %d columns, found %d", e.Block, e.Line+1, e.Expected, e.Found)
}

func (e *TableColumnCountError) Unwrap() error { return ErrContent }

// TableRowCountError: 数据行数与 nrow 不符。
type TableRowCountError struct {
	Block    string
	Expected int
	Found    int
}

func (e *TableRowCountError) Error() string {
	return fmt.Sprintf("table %q: expected %d rows, found %d", e.Block, e.Expected, e.Found)
}

func (e *TableRowCountError) Unwrap() error { return ErrContent }

// IllegalColumnError: 列标签不在该表的 Schema 中。
type IllegalColumnError struct {
	Block  string
	Line   int
	Column string
}

func (e *IllegalColumnError) Error() string {
	return fmt.Sprintf("table %q line %d: illegal column %q", e.Block, e.Line+1, e.Column)
}

func (e *IllegalColumnError) Unwrap() error { return ErrContent }

// MissingRequiredBlockError: 必需的输出节在输入中不存在。
type MissingRequiredBlockError struct {
	Section string
}

func (e *MissingRequiredBlockError) Error() string {
	return fmt.Sprintf("required block %q is missing", e.Section)
}

func (e *MissingRequiredBlockError) Unwrap() error { return ErrWrite }

// MissingValueError: 必填字段既无输入值也无默认值。
type MissingValueError struct {
	Field string
	Block string
	// Row 仅对表块有效（0 基）；关键字块为 -1。
	Row int
}

func (e *MissingValueError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("no value for %s in block %q (row %d)", e.Field, e.Block, e.Row+1)
	}
	return fmt.Sprintf("no value for %s in block %q", e.Field, e.Block)
}

func (e *MissingValueError) Unwrap() error { return ErrWrite }

// TypeMismatchError: 值无法按字段声明类型解析。
type TypeMismatchError struct {
	Field string
	Block string
	Want  string
	Value string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("block %q: %s must be %s, got %q", e.Block, e.Field, e.Want, e.Value)
}

func (e *TypeMismatchError) Unwrap() error { return ErrWrite }

// ConflictingSynonymBlocksError: 同一输出节由多个输入块提供。
type ConflictingSynonymBlocksError struct {
	Section string
	Names   []string
}

func (e *ConflictingSynonymBlocksError) Error() string {
	return fmt.Sprintf("section %q supplied by conflicting blocks: %s", e.Section, strings.Join(e.Names, ", "))
}

func (e *ConflictingSynonymBlocksError) Unwrap() error { return ErrWrite }
