package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"keypest/internal/diag"
	"keypest/pkg/contract"
)

// - 严格顺序：Reader → ReadDocument → Scanner → Validator → Parser → Emitter → Writer；
//   每一阶段消费上一阶段的完整结果，核心组件不起 goroutine。
// - 整体写出：Emitter 写入内存缓冲，成功后才交给 Writer；失败的文档不产生任何输出。
// - 首错返回：默认任一文档失败即停止；KeepGoing 时继续后续文档并汇总全部错误。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader    contract.Reader
	Scanner   contract.Scanner
	Validator contract.Validator
	Parser    contract.Parser
	Emitter   contract.Emitter
	Writer    contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// 输入根（文件/目录/"-"）；输出位置由 Writer 的 options 决定。
	Inputs []string
	// KeepGoing: 某文档失败后继续处理其余文档，最终返回 errors.Join 汇总。
	KeepGoing bool
}

// targeter 由可报告目标路径的 Writer 实现（仅用于终端提示）。
type targeter interface {
	Target(id contract.ArtifactID) (string, error)
}

// Run 逐文档执行完整转换。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) error {
	if err := sanity(comp, set); err != nil {
		return fmt.Errorf("sanity: %w", err)
	}
	var rtimer *diag.Timer
	if logger != nil {
		rtimer = logger.Start("reader", "iterate")
	}
	var failed []error
	files := 0
	err := comp.Reader.Iterate(ctx, set.Inputs, func(fid contract.FileID, rc io.ReadCloser) error {
		files++
		ferr := convert(ctx, comp, logger, fid, rc)
		if ferr == nil {
			return nil
		}
		ferr = fmt.Errorf("%s: %w", fid, ferr)
		// 取消不因 KeepGoing 继续
		if !set.KeepGoing || ctx.Err() != nil {
			return ferr
		}
		failed = append(failed, ferr)
		if logger != nil {
			logger.Warn("pipeline", "continue after failure", string(fid), map[string]string{"err": ferr.Error()})
		}
		return nil
	})
	if err != nil {
		if logger != nil {
			code := diag.Classify(err)
			logger.Error("reader", string(code), "iterate failed", nil)
			diag.IncOp("reader", "error", "error")
			if code != diag.CodeUnknown {
				diag.IncError("reader", string(code))
			}
		}
		return fmt.Errorf("reader iterate: %w", errors.Join(append(failed, err)...))
	}
	if rtimer != nil {
		rtimer.Finish("iterate", int64(files))
		diag.IncOp("reader", "finish", "success")
	}
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	return nil
}

// convert 处理单个文档；rc 总会被关闭。
func convert(ctx context.Context, comp Components, logger *diag.Logger, fid contract.FileID, rc io.ReadCloser) (err error) {
	id := string(fid)
	term := diag.GetTerminal()
	if term != nil {
		term.FileStart(id)
	}
	fileStart := time.Now()
	target := ""
	defer func() {
		if term != nil {
			term.FileFinish(err == nil, time.Since(fileStart), target)
		}
	}()

	stage := func(name string, blocks int) {
		if term != nil {
			term.FileStage(name, blocks)
		}
	}
	fail := func(comp, op string, err error) error {
		if logger != nil {
			code := diag.Classify(err)
			logger.ErrorWithKV(comp, string(code), op+" failed", nil, id, blockOf(err), map[string]string{"err": err.Error()})
			diag.IncOp(comp, "error", "error")
			if code != diag.CodeUnknown {
				diag.IncError(comp, string(code))
			}
		}
		return fmt.Errorf("%s %s: %w", comp, op, err)
	}
	start := func(comp, op string) *diag.Timer {
		if logger == nil {
			return nil
		}
		return logger.StartWith(comp, op, id)
	}
	finish := func(t *diag.Timer, comp, op string, count int) {
		if t != nil {
			t.Finish(op, int64(count))
			diag.IncOp(comp, "finish", "success")
		}
	}

	// 读入
	stage("read", 0)
	t := start("reader", "read")
	doc, rerr := contract.ReadDocument(fid, rc)
	_ = rc.Close()
	if rerr != nil {
		return fail("reader", "read", rerr)
	}
	finish(t, "reader", "read", len(doc.Lines))

	// 扫描
	if err := ctx.Err(); err != nil {
		return err
	}
	stage("scan", 0)
	t = start("scanner", "scan")
	scan, serr := comp.Scanner.Scan(ctx, doc)
	if serr != nil {
		return fail("scanner", "scan", serr)
	}
	finish(t, "scanner", "scan", len(scan.Opens))

	// 校验
	if err := ctx.Err(); err != nil {
		return err
	}
	stage("validate", len(scan.Opens))
	t = start("validator", "validate")
	spans, verr := comp.Validator.Validate(ctx, scan)
	if verr != nil {
		return fail("validator", "validate", verr)
	}
	finish(t, "validator", "validate", len(spans))

	// 解析
	if err := ctx.Err(); err != nil {
		return err
	}
	stage("parse", len(spans))
	t = start("parser", "parse")
	blocks, perr := comp.Parser.Parse(ctx, doc, spans)
	if perr != nil {
		return fail("parser", "parse", perr)
	}
	finish(t, "parser", "parse", len(blocks.Keywords)+len(blocks.Tables))
	if logger != nil {
		for name, kb := range blocks.Keywords {
			if len(kb.Ignored) > 0 {
				logger.Debug("parser", "unknown keywords ignored", id, name, map[string]string{"keys": strings.Join(kb.Ignored, ",")})
			}
		}
	}

	// 写出到缓冲
	if err := ctx.Err(); err != nil {
		return err
	}
	stage("emit", 0)
	t = start("emitter", "emit")
	var buf bytes.Buffer
	if eerr := comp.Emitter.Emit(ctx, blocks, &buf); eerr != nil {
		return fail("emitter", "emit", eerr)
	}
	finish(t, "emitter", "emit", buf.Len())

	// 持久化
	if err := ctx.Err(); err != nil {
		return err
	}
	stage("write", 0)
	if tg, ok := comp.Writer.(targeter); ok {
		target, _ = tg.Target(contract.ArtifactID(fid))
	}
	t = start("writer", "write")
	if werr := comp.Writer.Write(ctx, contract.ArtifactID(fid), &buf); werr != nil {
		return fail("writer", "write", werr)
	}
	finish(t, "writer", "write", 1)
	if target == "" {
		target = id
	}
	return nil
}

// blockOf 提取错误关联的块名（用于日志 block 字段）；无则为空。
func blockOf(err error) string {
	var (
		kp *contract.KeywordPairingError
		eb *contract.EmptyBlockError
		th *contract.TableHeaderError
		tc *contract.TableColumnCountError
		tr *contract.TableRowCountError
		ic *contract.IllegalColumnError
		mr *contract.MissingRequiredBlockError
		mv *contract.MissingValueError
		tm *contract.TypeMismatchError
		cs *contract.ConflictingSynonymBlocksError
	)
	switch {
	case errors.As(err, &kp):
		return kp.Block
	case errors.As(err, &eb):
		return eb.Block
	case errors.As(err, &th):
		return th.Block
	case errors.As(err, &tc):
		return tc.Block
	case errors.As(err, &tr):
		return tr.Block
	case errors.As(err, &ic):
		return ic.Block
	case errors.As(err, &mr):
		return mr.Section
	case errors.As(err, &mv):
		return mv.Block
	case errors.As(err, &tm):
		return tm.Block
	case errors.As(err, &cs):
		return cs.Section
	}
	return ""
}

func sanity(c Components, s Settings) error {
	if c.Reader == nil || c.Scanner == nil || c.Validator == nil || c.Parser == nil || c.Emitter == nil || c.Writer == nil {
		return errors.New("pipeline: missing components")
	}
	if len(s.Inputs) == 0 {
		return errors.New("pipeline: empty inputs")
	}
	return nil
}
