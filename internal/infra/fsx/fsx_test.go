package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// renameFailFs 让 Rename 固定失败。
type renameFailFs struct {
	afero.Fs
}

func (renameFailFs) Rename(oldname, newname string) error { return os.ErrPermission }

func TestWriteFileAtomic_SuccessAndNoTempLeft(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("/out", "snap", "catalog.json")

	if err := WriteFileAtomic(fs, path, []byte("hello")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("内容不一致：%q", string(b))
	}
	assertNoTemp(t, fs, filepath.Dir(path))
}

func TestWriteFileAtomic_Overwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/out/catalog.json"

	if err := WriteFileAtomic(fs, path, []byte("old")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFileAtomic(fs, path, []byte("new")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, _ := afero.ReadFile(fs, path)
	if string(b) != "new" {
		t.Fatalf("期望覆盖为 new，实际 %q", string(b))
	}
}

func TestWriteFileAtomic_RenameFail_CleanupTemp(t *testing.T) {
	fs := renameFailFs{Fs: afero.NewMemMapFs()}

	err := WriteFileAtomic(fs, "/out/a.json", []byte("hello"))
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("期望 ErrPermission，实际 %v", err)
	}
	assertNoTemp(t, fs, "/out")
	if ok, _ := afero.Exists(fs, "/out/a.json"); ok {
		t.Fatalf("rename 失败时不应出现目标文件")
	}
}

func TestWriteFileAtomic_TargetIsDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/out/catalog.json", 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := WriteFileAtomic(fs, "/out/catalog.json", []byte("x"))
	var pe *PathTypeConflictError
	if !errors.As(err, &pe) {
		t.Fatalf("期望 PathTypeConflictError，实际 %v", err)
	}
}

func TestWriteFileAtomic_OsFs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")

	if err := WriteFileAtomic(nil, path, []byte("{}")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "{}" {
		t.Fatalf("读取失败或内容不一致：%q %v", string(b), err)
	}
}

func assertNoTemp(t *testing.T, fs afero.Fs, dir string) {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}
