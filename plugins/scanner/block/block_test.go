package block

import (
	"context"
	"errors"
	"strings"
	"testing"

	"keypest/pkg/contract"
)

func doc(s string) contract.Document {
	return contract.Document{ID: "t.kps", Lines: strings.Split(s, "\n")}
}

// TestScanEvents 正常收集 begin/end 事件
func TestScanEvents(t *testing.T) {
	d := doc("# header\nBEGIN Keywords Control_Data\nnpar 3\nEND control_data\n\nbegin table parameter_data # tail\nend parameter_data")
	res, err := New("").Scan(context.Background(), d)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.Opens) != 2 || len(res.Closes) != 2 {
		t.Fatalf("unexpected events %+v", res)
	}
	if o := res.Opens[0]; o.Line != 1 || o.Name != "control_data" || o.Kind != contract.KeywordBlockKind {
		t.Fatalf("open[0] %+v", o)
	}
	if o := res.Opens[1]; o.Line != 5 || o.Name != "parameter_data" || o.Kind != contract.TableBlockKind {
		t.Fatalf("open[1] %+v", o)
	}
	if c := res.Closes[1]; c.Line != 6 || c.Name != "parameter_data" {
		t.Fatalf("close[1] %+v", c)
	}
}

// TestScanSyntaxErrors 形态非法的行
func TestScanSyntaxErrors(t *testing.T) {
	cases := map[string]int{
		"begin keywords":              0,
		"begin list foo":              0,
		"x\nbegin keywords a b":       1,
		"keywords begin a":            0,
		"end":                         0,
		"end a b":                     0,
		"x\ny\nfoo end":               2,
		"begin keywords a\nnpar = end": 1,
	}
	for in, line := range cases {
		_, err := New("").Scan(context.Background(), doc(in))
		var se *contract.SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("%q: expect syntax error, got %v", in, err)
		}
		if se.Line != line {
			t.Fatalf("%q: expect line %d, got %d", in, line, se.Line)
		}
		if !errors.Is(err, contract.ErrSyntax) {
			t.Fatalf("%q: should unwrap to ErrSyntax", in)
		}
	}
}

// TestScanCommentPrefix 自定义注释符
func TestScanCommentPrefix(t *testing.T) {
	d := doc("! begin nonsense here\nbegin keywords a\nend a")
	res, err := New("!").Scan(context.Background(), d)
	if err != nil || len(res.Opens) != 1 {
		t.Fatalf("custom comment prefix failed: %v %+v", err, res)
	}
}

// TestScanCommentMidToken token 内部的注释符不截断
func TestScanCommentMidToken(t *testing.T) {
	res, err := New("").Scan(context.Background(), doc("begin keywords a#b #tail\nend a#b"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Opens[0].Name != "a#b" || res.Closes[0].Name != "a#b" {
		t.Fatalf("names %+v", res)
	}
}

// TestScanCtxCancel 上下文取消
func TestScanCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("").Scan(ctx, doc("begin keywords a\nend a"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expect ctx cancel, got %v", err)
	}
}
