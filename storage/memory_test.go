package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "a/1", []byte("one")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "a/1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "one" {
		t.Errorf("Get returned %q, want %q", got, "one")
	}

	if err := store.Delete(ctx, "a/1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "a/1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete returned %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get returned %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDeleteMissing(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete returned %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ok, err := store.Exists(ctx, "key")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Exists reported true for a missing key")
	}

	if err := store.Put(ctx, "key", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ok, err = store.Exists(ctx, "key")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Exists reported false for a stored key")
	}
}

func TestMemoryStoreListKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, key := range []string{"guess/2024-01-01/u1", "guess/2024-01-01/u2", "guess/2024-01-02/u1", "dailysong/2024-01-01"} {
		if err := store.Put(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("Put %s failed: %v", key, err)
		}
	}

	keys, err := store.ListKeys(ctx, "guess/2024-01-01/")
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	want := []string{"guess/2024-01-01/u1", "guess/2024-01-01/u2"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("ListKeys returned %v, want %v", keys, want)
	}
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// The blob-store contract the game relies on: a second Put silently
	// replaces the first, no create-once enforcement at this layer.
	if err := store.Put(ctx, "dailysong/2024-01-01", []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "dailysong/2024-01-01", []byte("second")); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := store.Get(ctx, "dailysong/2024-01-01")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Get returned %q, want the later write", got)
	}
}
