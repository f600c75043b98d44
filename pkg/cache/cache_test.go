package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/depstatus/pkg/observability"
)

// counter returns a fetch function that counts its calls and echoes the key.
func counter() (FetchFunc[string, string], *atomic.Int32) {
	var calls atomic.Int32
	return func(_ context.Context, key string) (string, error) {
		calls.Add(1)
		return "value-" + key, nil
	}, &calls
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fetch, calls := counter()
	c := New("test", fetch, Options{TTL: time.Minute, Capacity: 10})

	for range 2 {
		v, err := c.Get(ctx, "a")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if v != "value-a" {
			t.Errorf("Get = %q, want value-a", v)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	fetch, calls := counter()
	c := New("test", fetch, Options{TTL: 50 * time.Millisecond, Capacity: 10})

	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch called %d times after expiry, want 2", n)
	}
}

func TestCache_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	fetch, calls := counter()
	c := New("test", fetch, Options{TTL: time.Minute, Capacity: 2})

	for _, k := range []string{"a", "b", "a", "c"} {
		if _, err := c.Get(ctx, k); err != nil {
			t.Fatalf("Get(%s) error: %v", k, err)
		}
	}
	// "b" was least recently used when "c" arrived.
	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("fetch called %d times, want 3 (a kept)", n)
	}
	if _, err := c.Get(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 4 {
		t.Errorf("fetch called %d times, want 4 (b evicted)", n)
	}
}

func TestCache_CoalescesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := New("test", func(_ context.Context, key string) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}, Options{TTL: time.Minute})

	const callers = 20
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k")
			if err != nil {
				t.Errorf("Get error: %v", err)
			}
			results[i] = v
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("caller %d got %d, want 42", i, v)
		}
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	var calls atomic.Int32
	c := New("test", func(_ context.Context, key string) (string, error) {
		if calls.Add(1) == 1 {
			return "", boom
		}
		return "ok", nil
	}, Options{TTL: time.Minute})

	if _, err := c.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("first Get error = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed lookup stored an entry")
	}
	v, err := c.Get(ctx, "k")
	if err != nil || v != "ok" {
		t.Errorf("second Get = %q, %v; want ok, nil", v, err)
	}
}

func TestCache_CancelledCallerStillPopulates(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := New("test", func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		<-release
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "done", nil
	}, Options{TTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "k")
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Get error = %v, want context.Canceled", err)
	}

	close(release)
	deadline := time.Now().Add(time.Second)
	for c.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	v, err := c.Get(context.Background(), "k")
	if err != nil || v != "done" {
		t.Fatalf("Get after cancel = %q, %v; want done, nil", v, err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestCache_Purge(t *testing.T) {
	ctx := context.Background()
	fetch, calls := counter()
	c := New("test", fetch, Options{})

	_, _ = c.Get(ctx, "a")
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d", c.Len())
	}
	_, _ = c.Get(ctx, "a")
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch called %d times, want 2", n)
	}
}

type recordingHooks struct {
	observability.NoopCacheHooks
	mu                sync.Mutex
	hits, misses, set int
}

func (h *recordingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *recordingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	h.misses++
	h.mu.Unlock()
}

func (h *recordingHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	h.set++
	h.mu.Unlock()
}

func TestCache_Hooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fetch, _ := counter()
	c := New("hooked", fetch, Options{TTL: time.Minute})
	if c.Name() != "hooked" {
		t.Errorf("Name() = %q", c.Name())
	}

	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "b")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.hits != 1 || hooks.misses != 2 || hooks.set != 2 {
		t.Errorf("hits/misses/sets = %d/%d/%d, want 1/2/2", hooks.hits, hooks.misses, hooks.set)
	}
}
