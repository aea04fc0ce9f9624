package parallel

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMapPreservesInputOrder(t *testing.T) {
	items := make([]int, 10)
	for i := range items {
		items[i] = i
	}
	rng := rand.New(rand.NewSource(42))
	delays := make([]time.Duration, len(items))
	for i := range delays {
		delays[i] = time.Duration(rng.Intn(20)) * time.Millisecond
	}

	got, err := Map(context.Background(), items, 3, func(_ context.Context, i int) (string, error) {
		time.Sleep(delays[i])
		return fmt.Sprintf("q%d", i), nil
	}, nil)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}

	want := []string{"q0", "q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8", "q9"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output order mismatch (-want +got):\n%s", diff)
	}
}

func TestMapRespectsConcurrencyBound(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int64

	items := make([]int, 10)
	_, err := Map(context.Background(), items, limit, func(_ context.Context, _ int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	}, nil)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if p := peak.Load(); p > limit {
		t.Errorf("peak in-flight = %d, want <= %d", p, limit)
	}
}

func TestMapPropagatesFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	items := []int{0, 1, 2, 3, 4}
	_, err := Map(context.Background(), items, 2, func(_ context.Context, i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	}, nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestMapProgressFiresPerCompletion(t *testing.T) {
	var calls []int
	items := make([]int, 7)
	_, err := Map(context.Background(), items, 3, func(_ context.Context, i int) (int, error) {
		return i, nil
	}, func(done, total int) {
		if total != 7 {
			t.Errorf("total = %d, want 7", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(calls) != 7 {
		t.Errorf("progress fired %d times, want 7", len(calls))
	}
	if calls[len(calls)-1] != 7 {
		t.Errorf("last done = %d, want 7", calls[len(calls)-1])
	}
}

func TestMapSettleCollectsPerItemErrors(t *testing.T) {
	bad := errors.New("agent exploded")
	items := []int{0, 1, 2, 3, 4}
	var progressed atomic.Int64

	results, errs := MapSettle(context.Background(), items, 2, func(_ context.Context, i int) (int, error) {
		if i == 2 {
			return 0, bad
		}
		return i * 10, nil
	}, func(done, total int) { progressed.Add(1) })

	if len(results) != 5 || len(errs) != 5 {
		t.Fatalf("lengths = %d/%d, want 5/5", len(results), len(errs))
	}
	for i, e := range errs {
		if i == 2 {
			if !errors.Is(e, bad) {
				t.Errorf("errs[2] = %v, want %v", e, bad)
			}
			continue
		}
		if e != nil {
			t.Errorf("errs[%d] = %v, want nil", i, e)
		}
		if results[i] != i*10 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*10)
		}
	}
	// Progress covers failed items too.
	if progressed.Load() != 5 {
		t.Errorf("progress fired %d times, want 5", progressed.Load())
	}
}

func TestMapZeroLimitDefaultsToSerial(t *testing.T) {
	got, err := Map(context.Background(), []int{1, 2, 3}, 0, func(_ context.Context, i int) (int, error) {
		return i + 1, nil
	}, nil)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3, 4}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMapEmptyInput(t *testing.T) {
	got, err := Map(context.Background(), nil, 4, func(_ context.Context, i int) (int, error) {
		return i, nil
	}, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v; want empty, nil", got, err)
	}
}
