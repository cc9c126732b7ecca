package audio

import (
	"context"
	"errors"
	"testing"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()
	key := "announcements/abc123.mp3"

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("object should not exist yet")
	}

	if err := store.Put(ctx, key, []byte("mp3-bytes"), "audio/mpeg"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("Get returned %q", data)
	}

	exists, err = store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("object should exist after Put")
	}

	url, err := store.URL(ctx, key)
	if err != nil {
		t.Fatalf("URL failed: %v", err)
	}
	if url != "/audio/announcements/abc123.mp3" {
		t.Errorf("URL = %q", url)
	}
}

func TestLocalStorePutReplaces(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()
	key := "a.mp3"

	if err := store.Put(ctx, key, []byte("first"), "audio/mpeg"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, key, []byte("second"), "audio/mpeg"); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	data, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Get returned %q; want second", data)
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	store := newLocalStore(t)
	if _, err := store.Get(context.Background(), "missing.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreDeleteMissingIsNoop(t *testing.T) {
	store := newLocalStore(t)
	if err := store.Delete(context.Background(), "missing.mp3"); err != nil {
		t.Errorf("Delete of missing key failed: %v", err)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	for _, key := range []string{"../escape.mp3", "/etc/passwd", "a/../../b.mp3"} {
		if err := store.Put(ctx, key, []byte("x"), "audio/mpeg"); err == nil {
			t.Errorf("Put accepted escaping key %q", key)
		}
		if _, err := store.Get(ctx, key); err == nil {
			t.Errorf("Get accepted escaping key %q", key)
		}
	}
}
