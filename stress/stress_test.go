package stress

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	cfgpkg "keypest/internal/config"
	"keypest/internal/pipeline"
)

// baseConfig 构造可运行的最小配置：目录输入，非原子写。
func baseConfig(input, outDir string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = []string{input}
	cfg.Logging.Level = "error"
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"atomic":false,"flat":true,"perm_file":0,"perm_dir":0,"buf_size":65536}`, outDir))
	return cfg
}

// runPipeline 执行完整流水线。
func runPipeline(cfg cfgpkg.Config) error {
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return err
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

// withObservations 把样例中的 observation_data 表替换为 n 行。
func withObservations(src string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "begin table observation_data\nnrow=%d ncol=4 columnlabels\nobsnme obsval weight obgnme\n", n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "o%d %d.25 1.0 heads\n", i, i)
	}
	b.WriteString("end observation_data\n")
	i := strings.Index(src, "BEGIN TABLE observation_data")
	j := strings.Index(src, "END observation_data")
	out := src[:i] + b.String() + src[j+len("END observation_data"):]
	return strings.Replace(out, "nobs = 4", fmt.Sprintf("nobs = %d", n), 1)
}

// TestStress 在不同文档数与表规模下运行流水线并记录延迟统计。
func TestStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress")
	}
	raw, err := os.ReadFile(filepath.Join("..", "testdata", "files", "model.kps"))
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	levels := []struct{ docs, rows int }{{1, 10}, {16, 100}, {64, 1000}, {8, 20000}}
	for _, lv := range levels {
		t.Run(fmt.Sprintf("docs_%d_rows_%d", lv.docs, lv.rows), func(t *testing.T) {
			doc := []byte(withObservations(string(raw), lv.rows))
			const runs = 5
			successes := 0
			latencies := make([]time.Duration, 0, runs)
			for i := 0; i < runs; i++ {
				dataDir := t.TempDir()
				for d := 0; d < lv.docs; d++ {
					if err := os.WriteFile(filepath.Join(dataDir, fmt.Sprintf("m%03d.kps", d)), doc, 0o644); err != nil {
						t.Fatalf("write input: %v", err)
					}
				}
				outDir := t.TempDir()
				start := time.Now()
				err := runPipeline(baseConfig(dataDir, outDir))
				dur := time.Since(start)
				if err != nil {
					t.Errorf("run %d: %v", i, err)
					continue
				}
				ents, _ := os.ReadDir(outDir)
				if len(ents) != lv.docs {
					t.Errorf("run %d: %d outputs, want %d", i, len(ents), lv.docs)
					continue
				}
				successes++
				latencies = append(latencies, dur)
			}
			if successes == 0 {
				t.Fatalf("全部运行失败")
			}
			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			var total time.Duration
			for _, d := range latencies {
				total += d
			}
			avg := total / time.Duration(len(latencies))
			idx := int(math.Ceil(float64(len(latencies))*0.95)) - 1
			if idx < 0 {
				idx = 0
			}
			t.Logf("文档%d 行%d 成功率%.2f 平均%v 95%%延迟%v", lv.docs, lv.rows, float64(successes)/float64(runs), avg, latencies[idx])
		})
	}
}
