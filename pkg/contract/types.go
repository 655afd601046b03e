package contract

// FileID: 逻辑文档ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// Kind: 块类型。
type Kind int

const (
	KeywordBlockKind Kind = iota
	TableBlockKind
)

func (k Kind) String() string {
	switch k {
	case KeywordBlockKind:
		return "keywords"
	case TableBlockKind:
		return "table"
	default:
		return "unknown"
	}
}

// Unset: BlockSpan.End 的未配对哨兵。
const Unset = -1

// Document: 整份输入文本，按行切分（CRLF→LF），加载后只读。
// 行号 0 基；错误消息输出 1 基。
type Document struct {
	ID    FileID
	Lines []string
}

// OpenEvent: 扫描得到的 begin 行。Name 已做大小写折叠。
type OpenEvent struct {
	Line int
	Name string
	Kind Kind
}

// CloseEvent: 扫描得到的 end 行。
type CloseEvent struct {
	Line int
	Name string
}

// ScanResult: Scanner 的输出，按文档顺序的扁平列表，尚未配对。
type ScanResult struct {
	Opens  []OpenEvent
	Closes []CloseEvent
}

// BlockSpan: 已配对的块区间。
// 约束（经 Validator 之后）：
// 1) Start < End；
// 2) 同类型内 Name 唯一；
// 3) 任意两块区间完全不相交。
type BlockSpan struct {
	Name string
	// Canonical: Schema 解析别名后的规范块名（如 regularization → regularisation）。
	Canonical string
	Kind      Kind
	Start     int
	End       int
}

// Value: 字段值的显式可选表示，替代 "未初始化" 哨兵。
// Present=false 表示既无输入也无默认值。
type Value struct {
	Text    string
	Present bool
}

// Some 构造存在的值。
func Some(s string) Value { return Value{Text: s, Present: true} }

// KeywordBlock: 关键字块。Fields 以 Schema 字段名（大写）为键，预先填入默认值。
type KeywordBlock struct {
	Name      string
	Canonical string
	Fields    map[string]Value
	// Ignored: 块内出现但 Schema 未登记的键（按出现顺序），不视为错误。
	Ignored []string
}

// TableBlock: 表块，列主序存储：每列一条与行号对齐的原始字符串序列。
type TableBlock struct {
	Name      string
	Canonical string
	Rows      int
	Cols      int
	// Labels: 列标签（Schema 字段名大写形式），顺序同输入。
	Labels  []string
	Columns map[string][]string
}

// Has 报告表是否提供了某列。
func (t *TableBlock) Has(col string) bool {
	if t == nil {
		return false
	}
	_, ok := t.Columns[col]
	return ok
}

// Blocks: Parser 的输出，按规范块名索引（别名已解析）。
// 同一规范块名由多个输入块提供时（别名或同名跨类型），全部输入块名按出现顺序
// 记入 Conflicts[规范块名]，由 Emitter 在写出对应节时报错。
type Blocks struct {
	Keywords  map[string]*KeywordBlock
	Tables    map[string]*TableBlock
	Conflicts map[string][]string
}

// NewBlocks 返回空集合。
func NewBlocks() *Blocks {
	return &Blocks{
		Keywords:  map[string]*KeywordBlock{},
		Tables:    map[string]*TableBlock{},
		Conflicts: map[string][]string{},
	}
}
