// Package schema 定义输入块的静态 Schema：块类型、合法字段/列、字段类型标签与默认值。
//
// Registry 构造后只读，可被多个阶段共享；测试可通过 New 提供替代 Schema。
package schema

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"

	"keypest/pkg/contract"
)

// Type: 字段类型标签，于 Schema 定义期声明，写出期据此选择格式化方式。
type Type int

const (
	String Type = iota
	Int
	Real
)

func (t Type) String() string {
	switch t {
	case Int:
		return "integer"
	case Real:
		return "real"
	default:
		return "string"
	}
}

// Field: 关键字字段或表列。
type Field struct {
	Name     string
	Type     Type
	Required bool
	// Default 为空指针表示无默认值。
	Default *string
}

// Block: 单个块名的 Schema。Fields 顺序即写出顺序。
type Block struct {
	Name   string
	Kind   contract.Kind
	Fields []Field
	// FreeForm: 仅表块有效；数据行不按列切分，整行作为单个不透明字符串保存。
	FreeForm bool

	index map[string]int
}

// Field 按名称（大小写不敏感）查找字段。
func (b *Block) Field(name string) (Field, bool) {
	if b == nil {
		return Field{}, false
	}
	i, ok := b.index[Fold(name)]
	if !ok {
		return Field{}, false
	}
	return b.Fields[i], true
}

// Defaults 返回按字段名索引的初始值表：有默认值者 Present，其余为缺省。
func (b *Block) Defaults() map[string]contract.Value {
	out := make(map[string]contract.Value, len(b.Fields))
	for _, f := range b.Fields {
		if f.Default != nil {
			out[f.Name] = contract.Some(*f.Default)
		} else {
			out[f.Name] = contract.Value{}
		}
	}
	return out
}

type key struct {
	kind contract.Kind
	name string
}

// Registry: 只读 Schema 表。
type Registry struct {
	blocks  map[key]*Block
	aliases map[string]string
}

// New 构造 Registry。aliases 为 别名→规范名；别名目标必须已登记。
func New(blocks []Block, aliases map[string]string) (*Registry, error) {
	r := &Registry{blocks: make(map[key]*Block, len(blocks)), aliases: make(map[string]string, len(aliases))}
	for i := range blocks {
		b := blocks[i]
		b.Name = Fold(b.Name)
		if b.Name == "" {
			return nil, fmt.Errorf("schema: block %d has empty name", i)
		}
		k := key{kind: b.Kind, name: b.Name}
		if _, dup := r.blocks[k]; dup {
			return nil, fmt.Errorf("schema: %s block %q defined twice", b.Kind, b.Name)
		}
		if b.FreeForm && b.Kind != contract.TableBlockKind {
			return nil, fmt.Errorf("schema: free-form block %q must be a table", b.Name)
		}
		b.Fields = append([]Field(nil), b.Fields...)
		b.index = make(map[string]int, len(b.Fields))
		for j, f := range b.Fields {
			fk := Fold(f.Name)
			if _, dup := b.index[fk]; dup {
				return nil, fmt.Errorf("schema: block %q field %q defined twice", b.Name, f.Name)
			}
			b.index[fk] = j
		}
		r.blocks[k] = &b
	}
	for alias, target := range aliases {
		a, t := Fold(alias), Fold(target)
		if !r.known(t) {
			return nil, fmt.Errorf("schema: alias %q targets unknown block %q", alias, target)
		}
		if r.known(a) {
			return nil, fmt.Errorf("schema: alias %q shadows a block", alias)
		}
		r.aliases[a] = t
	}
	return r, nil
}

func (r *Registry) known(name string) bool {
	_, kw := r.blocks[key{contract.KeywordBlockKind, name}]
	_, tb := r.blocks[key{contract.TableBlockKind, name}]
	return kw || tb
}

// Canonical 返回块名的规范形式（折叠大小写并解析别名）。
func (r *Registry) Canonical(name string) string {
	n := Fold(name)
	if t, ok := r.aliases[n]; ok {
		return t
	}
	return n
}

// Lookup 按类型与块名查找 Schema；未知返回 ErrUnknownBlock。
func (r *Registry) Lookup(kind contract.Kind, name string) (*Block, error) {
	b, ok := r.blocks[key{kind: kind, name: r.Canonical(name)}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", contract.ErrUnknownBlock, kind, name)
	}
	return b, nil
}

// Names 返回某类型下全部规范块名（已排序）。
func (r *Registry) Names(kind contract.Kind) []string {
	var out []string
	for k := range r.blocks {
		if k.kind == kind {
			out = append(out, k.name)
		}
	}
	sort.Strings(out)
	return out
}

// Fold 对名称做 Unicode 大小写折叠，用于所有大小写不敏感比较。
// cases.Caser 有内部状态，不可跨 goroutine 复用，故每次新建。
func Fold(s string) string {
	return cases.Fold().String(s)
}
