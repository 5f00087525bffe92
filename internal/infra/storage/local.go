package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"getpay-backend/internal/pkg/logger"
)

var ErrNotExist = errors.New("artifact does not exist")

// Store keeps generated artifacts (receipt PDFs) by name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, name string) (*os.File, error)
	Exists(ctx context.Context, name string) bool
}

// LocalStorage writes artifacts under a single directory.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("failed to create storage directory")
		return nil, fmt.Errorf("create storage directory %s: %w", basePath, err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Put writes data atomically (temp file + rename) and returns the stored path.
func (ls *LocalStorage) Put(_ context.Context, name string, data []byte) (string, error) {
	dst, err := ls.path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(ls.basePath, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	logger.Debug().Str("path", dst).Int("bytes", len(data)).Msg("artifact stored")
	return dst, nil
}

func (ls *LocalStorage) Open(_ context.Context, name string) (*os.File, error) {
	p, err := ls.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return f, err
}

func (ls *LocalStorage) Exists(_ context.Context, name string) bool {
	p, err := ls.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// path rejects names that would escape the base directory.
func (ls *LocalStorage) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(ls.basePath, name), nil
}
