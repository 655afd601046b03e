package schema

import (
	"errors"
	"testing"

	"keypest/pkg/contract"
)

// TestLookupCaseInsensitive 块名大小写不敏感
func TestLookupCaseInsensitive(t *testing.T) {
	r := PEST()
	b, err := r.Lookup(contract.KeywordBlockKind, "Control_DATA")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if b.Name != "control_data" {
		t.Fatalf("unexpected name %q", b.Name)
	}
	f, ok := b.Field("npar")
	if !ok || f.Name != "NPAR" || f.Type != Int || !f.Required || f.Default != nil {
		t.Fatalf("unexpected field %+v", f)
	}
}

// TestLookupUnknown 未知块名
func TestLookupUnknown(t *testing.T) {
	r := PEST()
	_, err := r.Lookup(contract.KeywordBlockKind, "nope")
	if !errors.Is(err, contract.ErrUnknownBlock) {
		t.Fatalf("expect unknown block, got %v", err)
	}
	// 类型不符同样未知
	if _, err := r.Lookup(contract.TableBlockKind, "control_data"); !errors.Is(err, contract.ErrUnknownBlock) {
		t.Fatalf("table control_data should be unknown, got %v", err)
	}
}

// TestAliasSameSchema 两种拼写解析到同一 Schema
func TestAliasSameSchema(t *testing.T) {
	r := PEST()
	a, err := r.Lookup(contract.KeywordBlockKind, "regularisation")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	b, err := r.Lookup(contract.KeywordBlockKind, "REGULARIZATION")
	if err != nil {
		t.Fatalf("lookup alias: %v", err)
	}
	if a != b {
		t.Fatalf("alias should resolve to the same schema")
	}
	if r.Canonical("Regularization") != "regularisation" {
		t.Fatalf("canonical: %q", r.Canonical("Regularization"))
	}
}

// TestDefaults 默认值与缺省值
func TestDefaults(t *testing.T) {
	b, _ := PEST().Lookup(contract.KeywordBlockKind, "control_data")
	d := b.Defaults()
	if v := d["NOPTMAX"]; !v.Present || v.Text != "25" {
		t.Fatalf("NOPTMAX default: %+v", v)
	}
	if v := d["NPAR"]; v.Present {
		t.Fatalf("NPAR should be absent: %+v", v)
	}
	if len(d) != len(b.Fields) {
		t.Fatalf("defaults size %d != fields %d", len(d), len(b.Fields))
	}
}

// TestNewErrors 自定义 Schema 的构造校验
func TestNewErrors(t *testing.T) {
	if _, err := New([]Block{keywords("a"), keywords("A")}, nil); err == nil {
		t.Fatalf("duplicate block should fail")
	}
	if _, err := New([]Block{keywords("a", req("X", Int), req("x", Int))}, nil); err == nil {
		t.Fatalf("duplicate field should fail")
	}
	if _, err := New([]Block{keywords("a")}, map[string]string{"b": "missing"}); err == nil {
		t.Fatalf("dangling alias should fail")
	}
	if _, err := New([]Block{{Name: "a", Kind: contract.KeywordBlockKind, FreeForm: true}}, nil); err == nil {
		t.Fatalf("free-form keyword block should fail")
	}
	// 同名不同类型合法
	r, err := New([]Block{keywords("m", req("C", String)), table("m", req("C", String))}, nil)
	if err != nil {
		t.Fatalf("same name different kind: %v", err)
	}
	if len(r.Names(contract.KeywordBlockKind)) != 1 || len(r.Names(contract.TableBlockKind)) != 1 {
		t.Fatalf("names: %v %v", r.Names(contract.KeywordBlockKind), r.Names(contract.TableBlockKind))
	}
}

// TestFold 大小写折叠
func TestFold(t *testing.T) {
	if Fold("BEGIN") != "begin" || Fold("Keywords") != "keywords" {
		t.Fatalf("fold mismatch")
	}
}
