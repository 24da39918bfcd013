package clock

import (
	"context"
	"testing"
	"time"
)

func TestReal_Sleep(t *testing.T) {
	start := time.Now()
	if err := (Real{}).Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("returned after %v, want at least 10ms", elapsed)
	}
}

func TestReal_Sleep_NonPositive(t *testing.T) {
	start := time.Now()
	if err := (Real{}).Sleep(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("non-positive sleep took %v", elapsed)
	}
}

func TestReal_Sleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (Real{}).Sleep(ctx, time.Hour)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
