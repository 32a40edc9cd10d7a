package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ReceiptStore holds uploaded proof-of-payment files
type ReceiptStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Exists(ctx context.Context, path string) bool
	Read(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, path string) error
}

// LocalReceiptStore keeps receipts on the local filesystem under a single directory
type LocalReceiptStore struct {
	dir string
}

func NewLocalReceiptStore(dir string) (*LocalReceiptStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipt dir: %w", err)
	}
	return &LocalReceiptStore{dir: dir}, nil
}

func (s *LocalReceiptStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid receipt name %q", name)
	}

	path := filepath.Join(s.dir, base)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}
	return path, nil
}

func (s *LocalReceiptStore) Exists(_ context.Context, path string) bool {
	if !s.owns(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *LocalReceiptStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.owns(path) {
		return nil, ErrReceiptNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}
	return data, nil
}

func (s *LocalReceiptStore) Remove(_ context.Context, path string) error {
	if !s.owns(path) {
		return ErrReceiptNotFound
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// owns rejects paths outside the store directory
func (s *LocalReceiptStore) owns(path string) bool {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && len(rel) > 0 && rel[0] != '.'
}
