package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestLocalReceiptStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalReceiptStore(filepath.Join(dir, "receipts"))
	if err != nil {
		t.Fatalf("NewLocalReceiptStore failed: %v", err)
	}
	ctx := context.Background()

	path, err := store.Save(ctx, "../../etc/VB1_1.png", []byte("data"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Dir(path) != store.dir {
		t.Errorf("expected file inside store dir, got %s", path)
	}
	if !store.Exists(ctx, path) {
		t.Errorf("expected saved file to exist")
	}

	data, err := store.Read(ctx, path)
	if err != nil || string(data) != "data" {
		t.Errorf("Read returned %q, %v", data, err)
	}

	outside := filepath.Join(dir, "secret.txt")
	if store.Exists(ctx, outside) {
		t.Errorf("paths outside the store must not be visible")
	}
	if _, err := store.Read(ctx, outside); !errors.Is(err, ErrReceiptNotFound) {
		t.Errorf("expected ErrReceiptNotFound outside store, got %v", err)
	}

	if err := store.Remove(ctx, path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Exists(ctx, path) {
		t.Errorf("expected file to be removed")
	}
	if err := store.Remove(ctx, path); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}
	if _, err := store.Read(ctx, path); !errors.Is(err, ErrReceiptNotFound) {
		t.Errorf("expected ErrReceiptNotFound after removal, got %v", err)
	}
}
