package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("absent key must report ok=false, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(value) != `{"a":1}` {
		t.Fatalf("value mismatch: %s", value)
	}

	// mutating the returned slice must not leak into the store
	value[0] = 'X'
	again, _, _ := kv.Get(ctx, "k")
	if string(again) != `{"a":1}` {
		t.Fatalf("stored value corrupted by caller mutation: %s", again)
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatal("deleted key must be absent")
	}
}

func testRedis(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFromClient(client, "fxwatcher:")
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := testRedis(t)

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("absent key must report ok=false, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(value) != "v1" {
		t.Fatalf("Get: value=%s ok=%v err=%v", value, ok, err)
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatal("deleted key must be absent")
	}
}

func TestDocumentCodecRejectsNewerVersion(t *testing.T) {
	data, err := marshalDocument(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("marshalDocument: %v", err)
	}

	var out map[string]int
	if err := unmarshalDocument(data, &out); err != nil {
		t.Fatalf("unmarshalDocument: %v", err)
	}
	if out["a"] != 1 {
		t.Fatalf("payload lost in round trip: %v", out)
	}

	newer, err := json.Marshal(envelope{Version: schemaVersion + 1, Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := unmarshalDocument(newer, &out); !errors.Is(err, ErrSchemaVersion) {
		t.Fatalf("newer version must be refused, got %v", err)
	}
}
