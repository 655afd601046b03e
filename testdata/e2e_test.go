package testdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "keypest/internal/config"
	"keypest/internal/pipeline"
	"keypest/pkg/contract"
)

func e16(x float64) string { return fmt.Sprintf("%16.8e", x) }
func d8(n int) string      { return fmt.Sprintf("%8d", n) }

// convert 通过配置装配并运行完整流水线，返回输出目录。
func convert(t *testing.T, inputs ...string) (string, error) {
	t.Helper()
	out := t.TempDir()
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = inputs
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q}`, out))
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return out, pipeline.Run(context.Background(), comp, set, nil)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

// section 返回 "* title" 之后、下一个节头之前的行。
func section(lines []string, title string) []string {
	for i, l := range lines {
		if l != "* "+title {
			continue
		}
		j := i + 1
		for j < len(lines) && !strings.HasPrefix(lines[j], "* ") {
			j++
		}
		return lines[i+1 : j]
	}
	return nil
}

// 端到端：目录输入 → .pst，节顺序固定、数值按列宽格式化
func TestConvertModel(t *testing.T) {
	out, err := convert(t, "files")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := readLines(t, filepath.Join(out, "model.pst"))
	if lines[0] != "pcf" {
		t.Fatalf("first line: %q", lines[0])
	}
	var heads []string
	for _, l := range lines {
		if strings.HasPrefix(l, "* ") {
			heads = append(heads, strings.TrimPrefix(l, "* "))
		}
	}
	want := []string{
		"control data", "singular value decomposition", "parameter groups", "parameter data",
		"observation groups", "observation data", "model command line", "model input/output",
		"prior information", "regularisation",
	}
	if strings.Join(heads, "|") != strings.Join(want, "|") {
		t.Fatalf("section order:\n got %v\nwant %v", heads, want)
	}

	cd := section(lines, "control data")
	if cd[0] != "restart regularisation" {
		t.Fatalf("control data line 1: %q", cd[0])
	}
	if cd[1] != strings.Join([]string{d8(3), d8(4), d8(2), d8(2), d8(3)}, " ") {
		t.Fatalf("control data line 2: %q", cd[1])
	}
	// 默认值：PRECIS/DPOINT
	if cd[2] != strings.Join([]string{d8(1), d8(1), "single", "point"}, " ") {
		t.Fatalf("control data line 3: %q", cd[2])
	}

	svd := section(lines, "singular value decomposition")
	if len(svd) != 3 || svd[1] != d8(3)+" "+e16(5e-7) || svd[2] != d8(0) {
		t.Fatalf("svd: %q", svd)
	}

	pd := section(lines, "parameter data")
	if len(pd) != 4 || pd[3] != "hk2 hk1" {
		t.Fatalf("parameter data (tied rows appended): %q", pd)
	}

	od := section(lines, "observation data")
	if od[3] != strings.Join([]string{"f1", e16(-350), e16(0.01), "flows"}, " ") {
		t.Fatalf("fortran exponent row: %q", od[3])
	}

	if mc := section(lines, "model command line"); len(mc) != 1 || mc[0] != "run_model.bat" {
		t.Fatalf("model command line: %q", mc)
	}
	if io := section(lines, "model input/output"); len(io) != 2 || io[0] != "model.tpl model.in" || io[1] != "model.ins model.out" {
		t.Fatalf("model io: %q", io)
	}

	pi := section(lines, "prior information")
	if len(pi) != 2 || pi[0] != "pi1  1.0 * log(hk1) = 0.69897 1.0 regul_hk" {
		t.Fatalf("prior information: %q", pi)
	}

	// PHIMLIM 缺省取 NOBS，PHIMACCEPT 为其 1.05 倍
	reg := section(lines, "regularisation")
	if reg[0] != strings.Join([]string{e16(4), e16(4.2), "nomemsave"}, " ") {
		t.Fatalf("regularisation line 1: %q", reg[0])
	}
	if reg[1] != strings.Join([]string{e16(1), e16(1e-10), e16(1e10), "nocontinue"}, " ") {
		t.Fatalf("regularisation line 2: %q", reg[1])
	}
}

// 同一输入两次转换字节一致
func TestConvertDeterministic(t *testing.T) {
	a, err := convert(t, filepath.Join("files", "model.kps"))
	if err != nil {
		t.Fatalf("run a: %v", err)
	}
	b, err := convert(t, filepath.Join("files", "model.kps"))
	if err != nil {
		t.Fatalf("run b: %v", err)
	}
	x, _ := os.ReadFile(filepath.Join(a, "model.pst"))
	y, _ := os.ReadFile(filepath.Join(b, "model.pst"))
	if len(x) == 0 || !bytes.Equal(x, y) {
		t.Fatalf("outputs differ or empty")
	}
}

func TestConvertCRLF(t *testing.T) {
	out, err := convert(t, filepath.Join("files", "model.kps"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lf, _ := os.ReadFile(filepath.Join(out, "model.pst"))

	cfg := cfgpkg.DefaultTemplateConfig()
	crDir := t.TempDir()
	cfg.Inputs = []string{filepath.Join("files", "model.kps")}
	cfg.Options.Emitter = json.RawMessage(`{"newline":"crlf"}`)
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q}`, crDir))
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if err := pipeline.Run(context.Background(), comp, set, nil); err != nil {
		t.Fatalf("run crlf: %v", err)
	}
	crlf, _ := os.ReadFile(filepath.Join(crDir, "model.pst"))
	if !bytes.Equal(bytes.ReplaceAll(crlf, []byte("\r\n"), []byte("\n")), lf) {
		t.Fatalf("crlf output should differ only in line endings")
	}
}

// 非法输入：按类别失败，且不产生任何输出文件
func TestConvertInvalid(t *testing.T) {
	cases := map[string]error{
		"dangling_begin.kps": contract.ErrStructure,
		"nested.kps":         contract.ErrStructure,
		"pairing.kps":        contract.ErrContent,
		"syntax.kps":         contract.ErrSyntax,
		"missing_block.kps":  contract.ErrWrite,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := convert(t, filepath.Join("invalid", name))
			if !errors.Is(err, want) {
				t.Fatalf("want %v, got %v", want, err)
			}
			ents, _ := os.ReadDir(out)
			if len(ents) != 0 {
				t.Fatalf("no output expected, found %d entries", len(ents))
			}
		})
	}
}

// KeepGoing：目录中失败的文档不影响其它文档的输出
func TestConvertKeepGoing(t *testing.T) {
	out := t.TempDir()
	cfg := cfgpkg.DefaultTemplateConfig()
	yes := true
	cfg.KeepGoing = &yes
	cfg.Inputs = []string{"invalid", filepath.Join("files", "model.kps")}
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q}`, out))
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	err = pipeline.Run(context.Background(), comp, set, nil)
	if !errors.Is(err, contract.ErrStructure) || !errors.Is(err, contract.ErrWrite) {
		t.Fatalf("joined errors expected, got %v", err)
	}
	ents, _ := os.ReadDir(out)
	if len(ents) != 1 || ents[0].Name() != "model.pst" {
		t.Fatalf("only model.pst expected, got %v", ents)
	}
}
