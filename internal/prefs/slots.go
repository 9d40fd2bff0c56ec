// Package prefs stores small per-user blobs as files under the config dir.
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDir = "foodswipe"

// DefaultDir returns the per-user foodswipe config directory.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir), nil
}

// FileSlot keeps one JSON file per slot key. It satisfies liked.Slot.
type FileSlot struct {
	Dir string
}

func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{Dir: dir}
}

func (f *FileSlot) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(f.Dir, key+".json"), nil
}

func (f *FileSlot) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (f *FileSlot) Store(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.path(key)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
