//go:build !windows

package filesystem

import "os"

// osReplace: POSIX rename 在同一文件系统内原子替换目标。
func osReplace(tmpPath, dest string) error {
	return os.Rename(tmpPath, dest)
}

// syncDir: fsync 父目录，使 rename 的目录项落盘。
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
