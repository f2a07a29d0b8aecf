package fsx

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

// WriteFileAtomic 把 data 原子写入 path（同目录临时文件 + rename），目标已存在则覆盖。
//
// fs 为 nil 时使用真实文件系统；测试传入 afero.NewMemMapFs()。
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	path = filepath.Clean(strings.TrimSpace(path))
	dir, name := filepath.Split(path)
	if name == "" || name == "." {
		return fmt.Errorf("文件名不能为空：%q", path)
	}
	if dir == "" {
		dir = "."
	}

	if fi, err := fs.Stat(path); err == nil && fi.IsDir() {
		return &PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// 临时文件必须与目标同目录，rename 才是原子的。
	tmp, err := afero.TempFile(fs, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		_ = tmp.Close()
		if !renamed {
			_ = fs.Remove(tmpName)
		}
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return err
	}
	renamed = true
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
