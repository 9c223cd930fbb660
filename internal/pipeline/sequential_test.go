package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSequentialRunner_PreservesOrder(t *testing.T) {
	var calls []string
	inv := invokerFunc(func(_ context.Context, b Backend) (Result, error) {
		calls = append(calls, b.URL)
		return Result{Content: b.URL, StatusCode: 200}, nil
	})

	backends := []Backend{get("a"), get("b"), get("c"), get("d")}
	results, err := (&SequentialRunner{Invoker: inv}).Run(context.Background(), backends)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(backends) {
		t.Fatalf("expected %d results, got %d", len(backends), len(results))
	}
	for i, b := range backends {
		if results[i].Content != b.URL || calls[i] != b.URL {
			t.Fatalf("position %d: result %q call %q, want %q", i, results[i].Content, calls[i], b.URL)
		}
	}
}

func TestSequentialRunner_OneAtATime(t *testing.T) {
	var inFlight, maxInFlight int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	backends := make([]Backend, 5)
	for i := range backends {
		backends[i] = get(fmt.Sprintf("%s/%d", srv.URL, i))
	}
	results, err := (&SequentialRunner{Invoker: newTestInvoker()}).Run(context.Background(), backends)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r.Content != fmt.Sprintf("/%d", i) {
			t.Fatalf("result %d out of order: %q", i, r.Content)
		}
	}
	if atomic.LoadInt32(&maxInFlight) != 1 {
		t.Fatalf("expected at most one call in flight, saw %d", maxInFlight)
	}
}

func TestSequentialRunner_FailureStopsChainAndKeepsPrefix(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	inv := invokerFunc(func(_ context.Context, b Backend) (Result, error) {
		calls++
		if b.URL == "c" {
			return Result{}, boom
		}
		return Result{Content: b.URL, StatusCode: 200}, nil
	})

	results, err := (&SequentialRunner{Invoker: inv}).Run(context.Background(),
		[]Backend{get("a"), get("b"), get("c"), get("d")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(results) != 2 || results[0].Content != "a" || results[1].Content != "b" {
		t.Fatalf("expected results for a and b only, got %+v", results)
	}
	if calls != 3 {
		t.Fatalf("expected backends after the failure to be skipped, got %d calls", calls)
	}
}

func TestSequentialRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := invokerFunc(func(context.Context, Backend) (Result, error) {
		t.Fatalf("no backend should be called after cancellation")
		return Result{}, nil
	})

	results, err := (&SequentialRunner{Invoker: inv}).Run(ctx, []Backend{get("a")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
