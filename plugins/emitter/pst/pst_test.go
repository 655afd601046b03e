package pst

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
	"keypest/plugins/parser/kps"
	"keypest/plugins/scanner/block"
	"keypest/plugins/validator/interval"
)

const minimal = `begin keywords control_data
RSTFLE restart PESTMODE estimation
NPAR 2 NOBS 3 NPARGP 1 NPRIOR 0 NOBSGP 1
NTPLFLE 1 NINSFLE 1
RLAMBDA1 10.0 PHIRATSUF 0.3 PHIREDLAM 0.01
RELPARMAX 10 FACPARMAX 10 FACORIG 0.001
PHIREDSWH 0.1
PHIREDSTP 0.01 NPHISTP 3 NPHINORED 3 RELPARSTP 0.01 NRELPAR 3
end control_data
begin table parameter_groups
nrow=1 ncol=7 columnlabels
PARGPNME INCTYP DERINC DERINCLB FORCEN DERINCMUL DERMTHD
g relative 0.01 0.0 switch 2.0 parabolic
end parameter_groups
begin table parameter_data
nrow=2 ncol=10 columnlabels
PARNME PARTRANS PARCHGLIM PARVAL1 PARLBND PARUBND PARGP SCALE OFFSET DERCOM
p1 log factor 1.0 0.1 10.0 g 1.0 0.0 1
p2 tied factor 2.0 0.1 10.0 g 1.0 0.0 1
end parameter_data
begin table parameter_tied_data
nrow=1 ncol=2 columnlabels
parnme partied
p2 p1
end parameter_tied_data
begin table observation_groups
nrow=1 ncol=1 columnlabels
obgnme
heads
end observation_groups
begin table observation_data
nrow=3 ncol=4 columnlabels
obsnme obsval weight obgnme
o1 1.0 1.0 heads
o2 2.0 1.0 heads
o3 3.0 1.0 heads
end observation_data
begin keywords model_command_line
comline model.bat
end model_command_line
begin table model_input
nrow=1 ncol=2 columnlabels
tempfle infle
model.tpl model.in
end model_input
begin table model_output
nrow=1 ncol=2 columnlabels
insfle outfle
model.ins model.out
end model_output
`

const regul = `begin keywords %s
WFINIT 1.0 WFMIN 1e-10 WFMAX 1e10
WFFAC 1.3 WFTOL 0.01 IREGADJ 1
end %s
`

func blocksOf(t testing.TB, src string) *contract.Blocks {
	t.Helper()
	reg := schema.PEST()
	d := contract.Document{ID: "case.kps", Lines: strings.Split(src, "\n")}
	ctx := context.Background()
	scan, err := block.New("").Scan(ctx, d)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	spans, err := interval.New(reg).Validate(ctx, scan)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	b, err := kps.New(reg, "").Parse(ctx, d, spans)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return b
}

func emit(t *testing.T, src string) (string, error) {
	t.Helper()
	e, err := New(schema.PEST(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var buf bytes.Buffer
	err = e.Emit(context.Background(), blocksOf(t, src), &buf)
	if err != nil && buf.Len() != 0 {
		t.Fatalf("partial output on error: %q", buf.String())
	}
	return buf.String(), err
}

func headers(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.HasPrefix(l, "* ") {
			out = append(out, strings.TrimPrefix(l, "* "))
		}
	}
	return out
}

// sectionLines 返回某节标题之后、下一节之前的行。
func sectionLines(s, title string) []string {
	var out []string
	in := false
	for _, l := range strings.Split(strings.TrimSuffix(s, "\n"), "\n") {
		if strings.HasPrefix(l, "* ") {
			in = l == "* "+title
			continue
		}
		if in {
			out = append(out, l)
		}
	}
	return out
}

func e16(x float64) string { return fmt.Sprintf("%16.8e", x) }

func d8(n int) string { return fmt.Sprintf("%8d", n) }

// TestEmitMinimal 必需节按固定顺序写出
func TestEmitMinimal(t *testing.T) {
	got, err := emit(t, minimal)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.HasPrefix(got, "pcf\n") {
		t.Fatalf("missing header: %q", got)
	}
	want := []string{
		"control data", "parameter groups", "parameter data", "observation groups",
		"observation data", "model command line", "model input/output",
	}
	if h := headers(got); !reflect.DeepEqual(h, want) {
		t.Fatalf("sections %v", h)
	}
	cd := sectionLines(got, "control data")
	if len(cd) != 8 {
		t.Fatalf("control data lines %d: %q", len(cd), cd)
	}
	if cd[0] != "restart estimation" {
		t.Fatalf("line1 %q", cd[0])
	}
	if cd[1] != strings.Join([]string{d8(2), d8(3), d8(1), d8(0), d8(1)}, " ") {
		t.Fatalf("line2 %q", cd[1])
	}
	if cd[2] != d8(1)+" "+d8(1)+" single point" {
		t.Fatalf("line3 %q", cd[2])
	}
	want4 := strings.Join([]string{e16(10), e16(-3), e16(0.3), e16(0.01), d8(10), d8(999), "lamforgive"}, " ")
	if cd[3] != want4 {
		t.Fatalf("line4 %q want %q", cd[3], want4)
	}
	pd := sectionLines(got, "parameter data")
	if len(pd) != 3 || pd[2] != "p2 p1" {
		t.Fatalf("parameter data %q", pd)
	}
	if !strings.HasPrefix(pd[0], "p1 log factor "+e16(1)) || !strings.HasSuffix(pd[0], " "+d8(1)) {
		t.Fatalf("row0 %q", pd[0])
	}
	if io := sectionLines(got, "model input/output"); !reflect.DeepEqual(io, []string{"model.tpl model.in", "model.ins model.out"}) {
		t.Fatalf("model io %q", io)
	}
	if mc := sectionLines(got, "model command line"); !reflect.DeepEqual(mc, []string{"model.bat"}) {
		t.Fatalf("comline %q", mc)
	}
}

// TestEmitDeterministic 同一输入两次写出字节一致
func TestEmitDeterministic(t *testing.T) {
	a, err := emit(t, minimal+fmt.Sprintf(regul, "regularisation", "regularisation"))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	b, _ := emit(t, minimal+fmt.Sprintf(regul, "regularisation", "regularisation"))
	if a != b {
		t.Fatalf("non-deterministic output")
	}
}

// TestEmitMissingNPAR 缺少无默认值的必需字段
func TestEmitMissingNPAR(t *testing.T) {
	src := strings.Replace(minimal, "NPAR 2 ", "", 1)
	_, err := emit(t, src)
	var me *contract.MissingValueError
	if !errors.As(err, &me) || me.Field != "NPAR" || me.Block != "control_data" {
		t.Fatalf("expect missing NPAR, got %v", err)
	}
	if !errors.Is(err, contract.ErrWrite) {
		t.Fatalf("should unwrap to ErrWrite")
	}
}

// TestEmitTypeMismatch 值无法按声明类型解析
func TestEmitTypeMismatch(t *testing.T) {
	_, err := emit(t, strings.Replace(minimal, "NPAR 2", "NPAR two", 1))
	var te *contract.TypeMismatchError
	if !errors.As(err, &te) || te.Field != "NPAR" || te.Want != "integer" {
		t.Fatalf("expect mismatch, got %v", err)
	}
	_, err = emit(t, strings.Replace(minimal, "o2 2.0 1.0", "o2 2.x 1.0", 1))
	if !errors.As(err, &te) || te.Field != "OBSVAL" || te.Block != "observation_data" {
		t.Fatalf("expect table mismatch, got %v", err)
	}
}

// TestEmitMissingRequiredBlock 缺少必需节
func TestEmitMissingRequiredBlock(t *testing.T) {
	i := strings.Index(minimal, "begin table observation_data")
	j := strings.Index(minimal, "end observation_data\n") + len("end observation_data\n")
	_, err := emit(t, minimal[:i]+minimal[j:])
	var mr *contract.MissingRequiredBlockError
	if !errors.As(err, &mr) || mr.Section != "observation_data" {
		t.Fatalf("expect missing observation_data, got %v", err)
	}
}

// TestEmitRegularisation 两种拼写互斥；均缺省时省略该节；PHIMLIM/PHIMACCEPT 跨块默认
func TestEmitRegularisation(t *testing.T) {
	got, err := emit(t, minimal)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if strings.Contains(got, "* regularisation") {
		t.Fatalf("regularisation should be omitted")
	}

	src := minimal + fmt.Sprintf(regul, "regularisation", "regularisation") + fmt.Sprintf(regul, "regularization", "regularization")
	_, err = emit(t, src)
	var ce *contract.ConflictingSynonymBlocksError
	if !errors.As(err, &ce) || ce.Section != "regularisation" || len(ce.Names) != 2 {
		t.Fatalf("expect conflict, got %v", err)
	}

	got, err = emit(t, minimal+fmt.Sprintf(regul, "regularization", "regularization"))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	rl := sectionLines(got, "regularisation")
	if len(rl) != 3 {
		t.Fatalf("regularisation lines %q", rl)
	}
	want := strings.Join([]string{e16(3), e16(1.05 * 3), "nomemsave"}, " ")
	if rl[0] != want {
		t.Fatalf("phim line %q want %q", rl[0], want)
	}
}

// TestEmitPhimExplicit 显式 PHIMLIM 时 PHIMACCEPT 由其派生
func TestEmitPhimExplicit(t *testing.T) {
	src := minimal + "begin keywords regularisation\nPHIMLIM 20 WFINIT 1 WFMIN 1 WFMAX 1 WFFAC 1 WFTOL 1 IREGADJ 0\nend regularisation\n"
	got, err := emit(t, src)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	rl := sectionLines(got, "regularisation")
	if want := strings.Join([]string{e16(20), e16(21), "nomemsave"}, " "); rl[0] != want {
		t.Fatalf("phim line %q want %q", rl[0], want)
	}
}

// TestEmitPareto ALT_TERM 非零才写出替代终止行
func TestEmitPareto(t *testing.T) {
	base := "begin keywords pareto\npareto_obsgroup heads\npareto_wtfac_start 1 pareto_wtfac_fin 10 num_wtfac_inc 5\nnum_iter_start 1 num_iter_gen 1 num_iter_fin 1\nalt_term %s\nnobs_report 0\n%s\nend pareto\n"

	got, err := emit(t, minimal+fmt.Sprintf(base, "0", ""))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if pl := sectionLines(got, "pareto"); len(pl) != 5 {
		t.Fatalf("pareto lines %q", pl)
	}

	_, err = emit(t, minimal+fmt.Sprintf(base, "1", ""))
	var me *contract.MissingValueError
	if !errors.As(err, &me) || me.Field != "OBS_TERM" {
		t.Fatalf("expect missing OBS_TERM, got %v", err)
	}

	got, err = emit(t, minimal+fmt.Sprintf(base, "1", "obs_term o1 above_or_below above obs_thresh 2.5 num_iter_thresh 4"))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	pl := sectionLines(got, "pareto")
	if len(pl) != 6 || pl[4] != "o1 above "+e16(2.5)+" "+d8(4) {
		t.Fatalf("pareto lines %q", pl)
	}
}

// TestEmitModelCommandLineConflict 关键字块与表块同时提供
// （经完整流水线时校验器先以重复 end 拒绝，此处直接构造 Blocks）
func TestEmitModelCommandLineConflict(t *testing.T) {
	b := blocksOf(t, minimal)
	b.Tables["model_command_line"] = &contract.TableBlock{
		Name: "model_command_line", Canonical: "model_command_line", Rows: 1, Cols: 1,
		Labels: []string{"COMLINE"}, Columns: map[string][]string{"COMLINE": {"run.sh"}},
	}
	b.Conflicts["model_command_line"] = []string{"model_command_line", "model_command_line"}
	e, _ := New(schema.PEST(), nil)
	var buf bytes.Buffer
	err := e.Emit(context.Background(), b, &buf)
	if buf.Len() != 0 {
		t.Fatalf("partial output")
	}
	var ce *contract.ConflictingSynonymBlocksError
	if !errors.As(err, &ce) || ce.Section != "model_command_line" {
		t.Fatalf("expect conflict, got %v", err)
	}
}

// TestEmitPriorInformation 自由格式行原样写出
func TestEmitPriorInformation(t *testing.T) {
	src := minimal + "begin table prior_information\nnrow=1 ncol=1 columnlabels\npilines\npi1 1.0 * p1 = 1.0 1.0 regul\nend prior_information\n"
	got, err := emit(t, src)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if pi := sectionLines(got, "prior information"); !reflect.DeepEqual(pi, []string{"pi1 1.0 * p1 = 1.0 1.0 regul"}) {
		t.Fatalf("prior %q", pi)
	}
}

// TestEmitCRLF 行尾选项
func TestEmitCRLF(t *testing.T) {
	e, err := New(schema.PEST(), &Options{Newline: "crlf"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var buf bytes.Buffer
	if err := e.Emit(context.Background(), blocksOf(t, minimal), &buf); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "pcf\r\n* control data\r\n") {
		t.Fatalf("crlf not applied: %q", buf.String()[:20])
	}
	if _, err := New(schema.PEST(), &Options{Newline: "cr"}); err == nil {
		t.Fatalf("invalid newline should fail")
	}
}

// TestFormatField 三种类型格式化
func TestFormatField(t *testing.T) {
	cases := []struct {
		typ  schema.Type
		in   string
		want string
		bad  bool
	}{
		{schema.Int, "7", "       7", false},
		{schema.Int, "-12", "     -12", false},
		{schema.Int, "1.0", "", true},
		{schema.Real, "1.5d2", e16(150), false},
		{schema.Real, "0.5e-7", e16(0.5e-7), false},
		{schema.Real, "abc", "", true},
		{schema.Real, "inf", "", true},
		{schema.String, "Keep Case", "Keep Case", false},
	}
	for _, c := range cases {
		got, err := formatField(schema.Field{Name: "F", Type: c.typ}, "b", c.in)
		if c.bad {
			var te *contract.TypeMismatchError
			if !errors.As(err, &te) {
				t.Fatalf("%q: expect mismatch, got %v", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("%q: got %q err %v, want %q", c.in, got, err, c.want)
		}
	}
}

func BenchmarkEmit(b *testing.B) {
	blocks := blocksOf(b, minimal)
	e, _ := New(schema.PEST(), nil)
	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := e.Emit(context.Background(), blocks, &buf); err != nil {
			b.Fatal(err)
		}
	}
}
