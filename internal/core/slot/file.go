package slot

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type FileSlot struct {
	fs   afero.Fs
	path string
}

func NewFileSlot(fs afero.Fs, path string) *FileSlot {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileSlot{fs: fs, path: path}
}

func (s *FileSlot) Load(_ context.Context) ([]byte, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("read "+s.path, err)
	}
	return b, nil
}

// Save 先写临时文件再 rename，保证整体替换
func (s *FileSlot) Save(_ context.Context, b []byte) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return persistErr("mkdir "+dir, err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o644); err != nil {
		return persistErr("write "+tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return persistErr("rename "+tmp, err)
	}
	return nil
}
