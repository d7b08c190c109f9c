package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalProvider implements Provider for a local folder
type LocalProvider struct {
	basePath string
}

// NewLocalProvider creates the folder if needed and returns a provider rooted at it.
func NewLocalProvider(basePath string) (*LocalProvider, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return &LocalProvider{
		basePath: absPath,
	}, nil
}

// Path returns the full path for name.
func (p *LocalProvider) Path(name string) string {
	return filepath.Join(p.basePath, name)
}

// Exists reports whether name is present. Symlinks are followed.
func (p *LocalProvider) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(p.Path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Write creates name exclusively and writes data to it.
func (p *LocalProvider) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := p.Path(name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", target, ErrExist)
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(target)
		return err
	}
	return f.Close()
}

// List returns the direct entries of the folder.
func (p *LocalProvider) List(ctx context.Context) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		files = append(files, FileInfo{
			ID:      p.Path(e.Name()),
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   e.IsDir(),
		})
	}
	return files, nil
}

// Location returns the absolute folder path
func (p *LocalProvider) Location() string {
	return p.basePath
}

// Name returns the provider name
func (p *LocalProvider) Name() string {
	return string(ProviderLocal)
}

// Close cleans up provider resources (no-op for local)
func (p *LocalProvider) Close() error {
	return nil
}

// Ensure LocalProvider implements Provider interface
var _ Provider = (*LocalProvider)(nil)
