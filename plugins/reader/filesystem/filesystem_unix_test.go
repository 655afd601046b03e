//go:build !windows

package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"keypest/pkg/contract"
)

// collectBases 遍历 roots，返回各文档的文件名。
func collectBases(t *testing.T, roots ...string) ([]string, error) {
	t.Helper()
	var got []string
	err := New(nil).Iterate(context.Background(), roots, func(id contract.FileID, rc io.ReadCloser) error {
		got = append(got, filepath.Base(string(id)))
		return rc.Close()
	})
	return got, err
}

// 目录中的 FIFO 等非常规文件跳过
func TestWalkDirNonRegular(t *testing.T) {
	root := t.TempDir()
	if err := syscall.Mkfifo(filepath.Join(root, "pipe.kps"), 0o644); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}
	got, err := collectBases(t, root)
	if err != nil || len(got) != 0 {
		t.Fatalf("fifo should be skipped: %v %v", got, err)
	}
}

// 符号链接：显式文件根跟随，目录根与目录内的目录链接跳过，失效链接报错
func TestIterateSymlinks(t *testing.T) {
	root := t.TempDir()
	models := filepath.Join(root, "models")
	if err := os.Mkdir(models, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(models, "case.kps"), []byte("begin keywords control_data\nend control_data\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mustLink := func(target, link string) string {
		if err := os.Symlink(target, link); err != nil {
			t.Fatalf("symlink: %v", err)
		}
		return link
	}
	fileLink := mustLink(filepath.Join(models, "case.kps"), filepath.Join(root, "alias.kps"))
	dirLink := mustLink(models, filepath.Join(root, "models_link"))
	dangling := mustLink(filepath.Join(root, "missing.kps"), filepath.Join(root, "dangling.kps"))

	if got, err := collectBases(t, fileLink); err != nil || len(got) != 1 || got[0] != "alias.kps" {
		t.Fatalf("file symlink: %v %v", got, err)
	}
	if got, err := collectBases(t, dirLink); err != nil || len(got) != 0 {
		t.Fatalf("dir symlink root should be skipped: %v %v", got, err)
	}
	// 目录根正常遍历
	if got, _ := collectBases(t, models); len(got) != 1 || got[0] != "case.kps" {
		t.Fatalf("walk: %v", got)
	}
	if _, err := collectBases(t, dangling); err == nil {
		t.Fatalf("dangling symlink should fail")
	}
}
