package httputil

import (
	"context"
	"testing"
	"time"
)

func TestHostLimiter_Disabled(t *testing.T) {
	var nilLimiter *HostLimiter
	if err := nilLimiter.Wait(context.Background(), "crates.io"); err != nil {
		t.Errorf("nil limiter Wait error: %v", err)
	}

	l := NewHostLimiter(0, time.Second)
	start := time.Now()
	for range 100 {
		if err := l.Wait(context.Background(), "crates.io"); err != nil {
			t.Fatal(err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("disabled limiter blocked")
	}
}

func TestHostLimiter_PerHost(t *testing.T) {
	l := NewHostLimiter(1, time.Hour)
	ctx := context.Background()

	if err := l.Wait(ctx, "crates.io"); err != nil {
		t.Fatalf("first Wait error: %v", err)
	}
	// Different host, fresh bucket.
	if err := l.Wait(ctx, "github.com"); err != nil {
		t.Fatalf("other host Wait error: %v", err)
	}

	// Same host (case-insensitive) must wait an hour; give up quickly.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(short, "Crates.IO"); err == nil {
		t.Error("second Wait on the same host should have blocked")
	}
}
