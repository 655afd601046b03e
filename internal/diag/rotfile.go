package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	currentName   = "keypest-current.txt"
	rotatedPrefix = "keypest-"
	rotatedSuffix = ".txt"
	// defaultKeep: 保留的历史日志个数。
	defaultKeep = 5
)

// RotatingFile 按大小轮转的日志文件。
// 当前文件固定为 keypest-current.txt；写入将超过 maxBytes 时改名为
// keypest-<UTC 时间戳>.txt 并新建 current，仅保留最新的 keep 个历史文件。
type RotatingFile struct {
	dir      string
	maxBytes int64
	keep     int

	mu      sync.Mutex
	f       *os.File
	curSize int64
}

func NewRotatingFile(dir string, maxBytes int64) *RotatingFile {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &RotatingFile{dir: dir, maxBytes: maxBytes, keep: defaultKeep}
}

// WriteLine 追加一行（自动补换行）。
func (w *RotatingFile) WriteLine(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureOpen(); err != nil {
		return err
	}
	need := int64(len(b) + 1)
	if w.curSize > 0 && w.curSize+need > w.maxBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	n, err := w.f.Write(append(b, '\n'))
	w.curSize += int64(n)
	return err
}

func (w *RotatingFile) ensureOpen() error {
	if w.f != nil {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(w.dir, currentName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.curSize = 0
	if st, err := f.Stat(); err == nil {
		w.curSize = st.Size()
	}
	return nil
}

func (w *RotatingFile) rotate() error {
	if w.f == nil {
		return w.ensureOpen()
	}
	cur := w.f.Name()
	_ = w.f.Close()
	w.f = nil
	// 纳秒精度，同秒内多次轮转不互相覆盖
	ts := time.Now().UTC().Format("20060102-150405.000000000")
	if err := os.Rename(cur, filepath.Join(w.dir, rotatedPrefix+ts+rotatedSuffix)); err != nil {
		return fmt.Errorf("rename rotated file: %w", err)
	}
	w.prune()
	return w.ensureOpen()
}

// prune 删除超出 keep 的最旧历史文件；失败忽略。
func (w *RotatingFile) prune() {
	if w.keep <= 0 {
		return
	}
	ents, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	var old []string
	for _, e := range ents {
		n := e.Name()
		if n != currentName && strings.HasPrefix(n, rotatedPrefix) && strings.HasSuffix(n, rotatedSuffix) {
			old = append(old, n)
		}
	}
	if len(old) <= w.keep {
		return
	}
	// 时间戳定长，字典序即时间序
	sort.Strings(old)
	for _, n := range old[:len(old)-w.keep] {
		_ = os.Remove(filepath.Join(w.dir, n))
	}
}

// Close 关闭当前文件句柄；可重复调用。
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
