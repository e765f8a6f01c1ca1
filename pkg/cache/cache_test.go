package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/multilevel/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	payload := bytes.Repeat([]byte("<g class=\"cluster\"></g>"), 200)
	if err := c.Set(ctx, "artifact:1", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "artifact:1")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("Get returned different bytes")
	}

	raw, err := os.ReadFile(c.path("artifact:1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) >= len(payload) {
		t.Errorf("entry not compressed: %d bytes on disk for %d bytes of data", len(raw), len(payload))
	}

	if _, hit, _ := c.Get(ctx, "artifact:2"); hit {
		t.Error("unknown key should miss")
	}
	if err := c.Delete(ctx, "artifact:1"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:1"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "artifact:1"); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
}

func TestFileCacheConcurrentSet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Set(ctx, "artifact:shared", bytes.Repeat([]byte{byte('a' + i%4)}, 512), time.Hour)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Set: %v", err)
		}
	}

	got, hit, err := c.Get(ctx, "artifact:shared")
	if err != nil || !hit || len(got) != 512 {
		t.Fatalf("Get = %d bytes, hit %v, err %v", len(got), hit, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*", "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("x"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("y"), 0)

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should never expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	_ = os.WriteFile(path, []byte("{not json"), 0o644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v; want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Errorf("Clear() = %d, %v; want 3", n, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir still has %d entries", len(entries))
	}
}

func TestKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	svg := k.ArtifactKey("doc1", ArtifactKeyOpts{Format: "svg", Level: 0})
	dot := k.ArtifactKey("doc1", ArtifactKeyOpts{Format: "dot", Level: 0})
	lvl := k.ArtifactKey("doc1", ArtifactKeyOpts{Format: "svg", Level: 1})
	other := k.ArtifactKey("doc2", ArtifactKeyOpts{Format: "svg", Level: 0})

	seen := map[string]bool{}
	for _, key := range []string{svg, dot, lvl, other} {
		if seen[key] {
			t.Errorf("duplicate key %s", key)
		}
		seen[key] = true
		if !strings.HasPrefix(key, "artifact:") || len(key) != len("artifact:")+64 {
			t.Errorf("unexpected key shape %s", key)
		}
	}
	if svg != k.ArtifactKey("doc1", ArtifactKeyOpts{Format: "svg"}) {
		t.Error("keys should be deterministic")
	}

	scoped := NewScopedKeyer(nil, "server:")
	if got := scoped.ArtifactKey("doc1", ArtifactKeyOpts{Format: "svg"}); got != "server:"+svg {
		t.Errorf("scoped key = %s", got)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("a")) != Hash([]byte("a")) || Hash([]byte("a")) == Hash([]byte("b")) {
		t.Error("Hash must be deterministic and input-sensitive")
	}
	if len(Hash(nil)) != 64 {
		t.Error("Hash should return 64 hex characters")
	}
}

func TestRetry(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	ctx := context.Background()
	calls := 0
	err := retry(ctx, 3, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("connection reset"))
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retry = %v after %d calls", err, calls)
	}

	calls = 0
	permanent := errors.New("WRONGTYPE")
	if err := retry(ctx, 3, func() error { calls++; return permanent }); err != permanent || calls != 1 {
		t.Errorf("non-retryable error retried: %v after %d calls", err, calls)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := retry(cctx, 3, func() error { return Retryable(errors.New("timeout")) }); err != context.Canceled {
		t.Errorf("canceled retry = %v", err)
	}
}

// fakeRedis is an in-memory RedisClient.
type fakeRedis struct {
	mu       sync.Mutex
	data     map[string][]byte
	ttl      map[string]time.Duration
	failures int // Get calls that fail before succeeding
	closed   bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return redis.NewStringResult("", errors.New("i/o timeout"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), value.([]byte)...)
	f.ttl[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd { return redis.NewStatusResult("PONG", nil) }

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := NewRedisCacheWithClient(fake, "")

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("empty Get = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.data["multilevel:k"]; !ok || fake.ttl["multilevel:k"] != time.Hour {
		t.Error("Set should store under the default prefix with the ttl")
	}
	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(got) != "v" {
		t.Errorf("Get = %q, %v, %v", got, hit, err)
	}

	fake.data["other:k"] = []byte("foreign")
	n, err := c.Clear(ctx)
	if err != nil || n != 1 {
		t.Errorf("Clear() = %d, %v; want 1", n, err)
	}
	if _, ok := fake.data["other:k"]; !ok {
		t.Error("Clear must keep keys outside the prefix")
	}

	if err := c.Close(); err != nil || !fake.closed {
		t.Error("Close should close the client")
	}
}

func TestRedisCacheRetriesTransientErrors(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	ctx := context.Background()
	fake := newFakeRedis()
	fake.data["p:k"] = []byte("v")
	c := NewRedisCacheWithClient(fake, "p:")

	fake.failures = 2
	if _, hit, err := c.Get(ctx, "k"); err != nil || !hit {
		t.Errorf("Get after 2 transient failures = hit %v, err %v", hit, err)
	}

	fake.failures = 5
	if _, _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Get should fail once retries are exhausted")
	}
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	mu                sync.Mutex
	hits, misses, set int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *countingCacheHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	h.misses++
	h.mu.Unlock()
}

func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	h.set++
	h.mu.Unlock()
}

func TestInstrument(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	c := Instrument(fc, "file")

	_, _, _ = c.Get(ctx, "k")
	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _, _ = c.Get(ctx, "k")

	if hooks.hits != 1 || hooks.misses != 1 || hooks.set != 1 {
		t.Errorf("hooks = %d hits, %d misses, %d sets", hooks.hits, hooks.misses, hooks.set)
	}
}
