package middleware_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/pitstop/pkg/persistence"
	"github.com/aretw0/pitstop/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	ctx := context.Background()
	doc := []byte(`{"run_id":"run-1","customer_name":"Neha"}`)

	if err := secure.Put(ctx, "run-1", doc); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stored, err := underlying.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("underlying Get failed: %v", err)
	}
	if bytes.Contains(stored, []byte("Neha")) {
		t.Fatalf("expected customer name to be hidden, found: %s", stored)
	}
	if !bytes.Contains(stored, []byte("__encrypted__")) {
		t.Fatal("expected __encrypted__ envelope")
	}

	loaded, err := secure.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if !bytes.Equal(loaded, doc) {
		t.Errorf("expected %s, got %s", doc, loaded)
	}

	ids, err := secure.List(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "run-1" {
		t.Errorf("List passthrough failed: %v %v", ids, err)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	ctx := context.Background()

	if err := secureOld.Put(ctx, "run-1", []byte(`{"v":"old"}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get with rotated key failed: %v", err)
	}
	if string(loaded) != `{"v":"old"}` {
		t.Errorf("decryption with fallback key failed: %s", loaded)
	}

	if err := secureNew.Put(ctx, "run-1", []byte(`{"v":"new"}`)); err != nil {
		t.Fatalf("Put with new key failed: %v", err)
	}
	if _, err := secureOld.Get(ctx, "run-1"); err == nil {
		t.Error("expected failure when reading new-key document with old-key middleware")
	}
}

func TestEncryptionMiddleware_RefusesPlainDocuments(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	ctx := context.Background()
	if err := underlying.Put(ctx, "run-1", []byte(`{"run_id":"run-1"}`)); err != nil {
		t.Fatal(err)
	}

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	if _, err := secure.Get(ctx, "run-1"); err == nil {
		t.Error("expected plain document to be refused")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
