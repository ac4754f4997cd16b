package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/freight-batch/pkg/batch"
	"github.com/Sternrassler/freight-batch/pkg/report"
	"github.com/Sternrassler/freight-batch/pkg/tms"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis starts an in-memory Redis. The integration suite covers a
// real server.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func sampleResult(id string) *report.BatchResult {
	records := []report.Record{
		report.NormalizeTagCarrier("tag-carrier", "123", batch.Succeeded("9")),
		report.NormalizeTagCarrier("tag-carrier", "456", batch.Failed[string](tms.ErrCarrierNotFound)),
	}
	return report.NewBatchResult(id, "tag-carrier", report.FamilyUpdate, records,
		time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), 2500*time.Millisecond)
}

func TestNewRedis(t *testing.T) {
	client, _ := setupTestRedis(t)

	s := NewRedis(client, 0)
	if s.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", s.TTL(), DefaultTTL)
	}
	if s := NewRedis(client, time.Hour); s.TTL() != time.Hour {
		t.Errorf("TTL() = %v, want 1h", s.TTL())
	}
}

func TestNewRedis_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedis should panic with nil redis client")
		}
	}()
	NewRedis(nil, 0)
}

func TestRedis_SaveAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	if err := s.Save(ctx, sampleResult("abc")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !mr.Exists("batch:report:abc") {
		t.Fatal("key batch:report:abc not written")
	}
	if ttl := mr.TTL("batch:report:abc"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "abc" || got.Operation != "tag-carrier" || got.Family != report.FamilyUpdate {
		t.Errorf("Get() header = %s %s %s", got.ID, got.Operation, got.Family)
	}
	if len(got.Records) != 2 || got.Succeeded != 1 || got.Failed != 1 {
		t.Errorf("Get() records = %d (%d/%d), want 2 (1/1)", len(got.Records), got.Succeeded, got.Failed)
	}
	if rec, ok := got.Records[1].(report.UpdateRecord); !ok || rec.Message != "MC 456: Carrier not found" {
		t.Errorf("record = %#v", got.Records[1])
	}
	if got.Duration != 2500*time.Millisecond {
		t.Errorf("Duration = %v, want 2.5s", got.Duration)
	}
}

func TestRedis_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedis(client, time.Minute)
	ctx := context.Background()

	if err := s.Save(ctx, sampleResult("old")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := s.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestRedis_GetMissingAndInvalid(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedis(client, 0)
	ctx := context.Background()

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := mr.Set(Key("broken"), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Get(ctx, "broken"); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Get(broken) error = %v, want ErrInvalidEntry", err)
	}
}

func TestRedis_SaveValidation(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := NewRedis(client, 0)

	if err := s.Save(context.Background(), nil); err == nil {
		t.Error("Save(nil) error = nil, want error")
	}
	if err := s.Save(context.Background(), sampleResult("")); err == nil {
		t.Error("Save(no id) error = nil, want error")
	}
}

func TestRedis_DeleteAndPing(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedis(client, 0)
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := s.Save(ctx, sampleResult("gone")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
	if mr.Exists(Key("gone")) {
		t.Error("key still exists after Delete")
	}

	mr.Close()
	if err := s.Ping(ctx); err == nil {
		t.Error("Ping() with server down error = nil, want error")
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Key("abc"), "batch:report:abc"},
		{Key(" abc "), "batch:report:abc"},
		{ObjectKey("reports/", "check-mc", "abc"), "reports/check-mc/abc.csv"},
		{ObjectKey("", "dat-rates", "x"), "dat-rates/x.csv"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("key = %q, want %q", tt.got, tt.want)
		}
	}
}
