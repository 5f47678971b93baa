package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/nbdocs/internal/logfields"
)

// ErrSourceMissing is returned when a copy source does not exist.
var ErrSourceMissing = errors.New("copy source does not exist")

// Manager handles the output directory lifecycle.
type Manager struct {
	root string
}

// NewManager creates a manager for the given output directory.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// GetPath returns the output directory path.
func (m *Manager) GetPath() string {
	return m.root
}

// Reset removes the output directory if it exists and creates it empty.
func (m *Manager) Reset() error {
	if _, err := os.Stat(m.root); err == nil {
		if err := os.RemoveAll(m.root); err != nil {
			return fmt.Errorf("failed to remove output directory: %w", err)
		}
		slog.Debug("Removed previous output directory", logfields.Path(m.root))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat output directory: %w", err)
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	slog.Info("Prepared output directory", logfields.Path(m.root))
	return nil
}

// CreateSubdir creates a subdirectory within the output directory.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("subdirectory %q escapes output directory", name)
	}
	subdir := filepath.Join(m.root, name)
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return subdir, nil
}

// CopyTree copies the directory src into <root>/<target>.
func (m *Manager) CopyTree(src, target string) (string, error) {
	if !filepath.IsLocal(target) {
		return "", fmt.Errorf("copy target %q escapes output directory", target)
	}
	dst := filepath.Join(m.root, target)
	if err := CopyDir(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// CopyFileInto copies src into the output root keeping its base name.
func (m *Manager) CopyFileInto(src string) (string, error) {
	dst := filepath.Join(m.root, filepath.Base(src))
	if err := CopyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// CopyDir recursively copies a directory tree, preserving file modes.
// Symlinks are followed.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("copy source %s is not a directory", src)
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			// Links are copied as their targets.
			info, err := os.Stat(srcPath)
			if err != nil {
				return fmt.Errorf("resolve symlink %s: %w", srcPath, err)
			}
			isDir = info.IsDir()
		}
		if isDir {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := CopyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

// CopyFile copies a single file from src to dst, preserving its permissions.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}
