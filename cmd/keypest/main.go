package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	cfgpkg "keypest/internal/config"
	"keypest/internal/diag"
	"keypest/internal/pipeline"
)

var pipelineRun = pipeline.Run

// 简化的 CLI：默认子命令 run。
// 位置参数为 roots（.kps 文件/目录 或 "-" 表示 STDIN，不能与其他根混用）。
// 退出码：0 成功；1 转换失败；3 配置/装配失败。
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := genCorrID()
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := loadDotEnv(".env"); err != nil {
		fprintf(os.Stderr, "提示：.env 读取失败（已跳过）：%v\n", err)
	}
	logLevel := "info"
	// 先占位默认，合并配置后按最终 level 重建
	logger := diag.NewLogger(corrID, logLevel)
	var (
		flagConfig    string
		flagOutputDir string
		flagInitDir   string
		flagLogLevel  string
		flagStatus    bool
		flagKeepGoing bool
	)
	flag.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；缺省读取 ./config.json（若存在）")
	flag.StringVar(&flagOutputDir, "output-dir", "", "输出目录（覆盖 writer 选项 output_dir）")
	flag.StringVar(&flagInitDir, "init-config", "", "在指定目录生成默认配置 config.json 和 .env 模板（若已存在则跳过，不覆盖）；不带值时默认当前目录")
	flag.StringVar(&flagLogLevel, "log-level", "", "日志等级 debug|info|warn|error（覆盖配置）")
	flag.BoolVar(&flagStatus, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	flag.BoolVar(&flagKeepGoing, "keep-going", false, "某文档失败后继续转换其余文档")
	normalizeInitArg()
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return 3
	}
	roots := flag.Args()

	// --init-config: 生成模板并退出
	if initDir := strings.TrimSpace(flagInitDir); initDir != "" {
		if err := os.MkdirAll(initDir, 0o755); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.Error("cli", string(diag.Classify(err)), "init config", &start)
			return 3
		}
		if err := writeConfig(filepath.Join(initDir, "config.json"), cfgpkg.DefaultTemplateConfig()); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.Error("cli", string(diag.Classify(err)), "init config", &start)
			return 3
		}
		if err := writeDotEnv(filepath.Join(initDir, ".env")); err != nil {
			fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
		}
		return 0
	}

	// JSON 配置（文件或 ENV: KEYPEST_CONFIG_JSON）
	var cfgJSON []byte
	if s := os.Getenv("KEYPEST_CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}
	if flagConfig == "" {
		flagConfig = os.Getenv("KEYPEST_CONFIG_FILE")
	}
	if flagConfig == "" {
		if _, err := os.Stat("config.json"); err == nil {
			flagConfig = "config.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if flagConfig != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(flagConfig, cfgJSON)
		if err != nil {
			fprintf(os.Stderr, "配置解析失败: %v\n", err)
			logger.Error("cli", string(diag.Classify(err)), "load config", &start)
			return 3
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		fprintf(os.Stderr, "环境变量解析失败: %v\n", err)
		logger.Error("cli", string(diag.Classify(err)), "env overlay", &start)
		return 3
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖
	var overCLI cfgpkg.Config
	if len(roots) > 0 {
		overCLI.Inputs = roots
	}
	overCLI.Logging.Level = flagLogLevel
	if flagKeepGoing {
		overCLI.KeepGoing = &flagKeepGoing
	}
	if strings.TrimSpace(flagOutputDir) != "" {
		raw, err := withOutputDir(cfg.Options.Writer, strings.TrimSpace(flagOutputDir))
		if err != nil {
			fprintf(os.Stderr, "writer 选项解析失败: %v\n", err)
			logger.Error("cli", string(diag.Classify(err)), "output dir", &start)
			return 3
		}
		overCLI.Options.Writer = raw
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		_ = dumpConfig(cfg)
		logger.Error("cli", string(diag.Classify(err)), "validate config", &start)
		return 3
	}

	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" {
		logLevel = lv
	}
	logger = diag.NewLogger(corrID, logLevel)

	if err := preflightCheckOutputDir(cfg); err != nil {
		fprintf(os.Stderr, "输出目录不可写或无法创建: %v\n", err)
		logger.Error("cli", string(diag.Classify(err)), "preflight", &start)
		return 3
	}

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		logger.Error("cli", string(diag.Classify(err)), "assemble", &start)
		return 3
	}

	term := diag.NewTerminal(os.Stderr, flagStatus)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	term.RunStart(len(cfg.Inputs), cfgpkg.EmitterName(cfg))

	logger.Debug("config", "effective", "", "", map[string]string{
		"inputs_count": strconv.Itoa(len(cfg.Inputs)),
		"keep_going":   strconv.FormatBool(set.KeepGoing),
		"reader":       cfg.Components.Reader,
		"scanner":      cfg.Components.Scanner,
		"validator":    cfg.Components.Validator,
		"parser":       cfg.Components.Parser,
		"emitter":      cfg.Components.Emitter,
		"writer":       cfg.Components.Writer,
	})

	// Ctrl-C 取消运行；未完成的文档不会留下输出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	if err := pipelineRun(ctx, comp, set, logger); err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error", &start)
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(os.Stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, time.Since(start))
		return 1
	}
	t.Finish("run", 0)
	diag.IncOp("pipeline", "finish", "success")
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())
	term.RunFinish(true, time.Since(start))
	return 0
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}

func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	// 不覆盖已存在文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}

// withOutputDir 在 writer 原样选项上设置 output_dir，其余键保持不变。
func withOutputDir(raw json.RawMessage, dir string) (json.RawMessage, error) {
	m := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
	}
	m["output_dir"] = dir
	return json.Marshal(m)
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}

// loadDotEnv 读取 .env 并注入进程环境；文件不存在时忽略。
// 已存在的环境变量不被覆盖（系统/调用者优先）。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// normalizeInitArg: 允许 --init-config 在未提供路径值时采用当前目录 "."。
//
//	--init-config                => 等价于 --init-config .
//	--init-config=out
//	--init-config out
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}

// dotEnvKeys: .env 模板中列出的覆盖项（值留空）。
var dotEnvKeys = []string{
	"KEYPEST_CONFIG_FILE",
	"KEYPEST_CONFIG_JSON",
	"KEYPEST_INPUTS",
	"KEYPEST_KEEP_GOING",
	"KEYPEST_LOG_LEVEL",
	"KEYPEST_COMMENT_PREFIX",
	"KEYPEST_COMPONENTS_READER",
	"KEYPEST_COMPONENTS_SCANNER",
	"KEYPEST_COMPONENTS_VALIDATOR",
	"KEYPEST_COMPONENTS_PARSER",
	"KEYPEST_COMPONENTS_EMITTER",
	"KEYPEST_COMPONENTS_WRITER",
	"KEYPEST_OPTIONS_READER_JSON",
	"KEYPEST_OPTIONS_SCANNER_JSON",
	"KEYPEST_OPTIONS_PARSER_JSON",
	"KEYPEST_OPTIONS_EMITTER_JSON",
	"KEYPEST_OPTIONS_WRITER_JSON",
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		return nil
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}
	var b strings.Builder
	b.WriteString("# keypest .env 模板（由 --init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > JSON\n")
	b.WriteString("# 空值表示未设置。\n\n")
	for _, k := range dotEnvKeys {
		b.WriteString(k)
		b.WriteString("=\n")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}

// preflightCheckOutputDir: 当 Writer 使用文件系统实现(fs)时，启动前检查输出目录可写性。
// - 目录已存在：尝试创建并删除临时文件；
// - 目录不存在：检查父目录可写（创建并删除临时目录）。
func preflightCheckOutputDir(cfg cfgpkg.Config) error {
	writerName := strings.TrimSpace(cfg.Components.Writer)
	if writerName == "" {
		writerName = cfgpkg.Defaults().Components.Writer
	}
	if writerName != "fs" {
		return nil
	}
	var wopts struct {
		OutputDir string `json:"output_dir"`
	}
	if len(cfg.Options.Writer) > 0 {
		_ = json.Unmarshal(cfg.Options.Writer, &wopts)
	}
	dir := strings.TrimSpace(wopts.OutputDir)
	if dir == "" {
		// 交由装配阶段报错
		return nil
	}
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil
	} else if err == nil {
		return fmt.Errorf("路径存在但不是目录: %s", dir)
	} else if !os.IsNotExist(err) {
		return err
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return fmt.Errorf("无法确定父目录: %s", dir)
	}
	pst, err := os.Stat(parent)
	if err != nil {
		return err
	}
	if !pst.IsDir() {
		return fmt.Errorf("父路径不是目录: %s", parent)
	}
	tmpd, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	_ = os.RemoveAll(tmpd)
	return nil
}
