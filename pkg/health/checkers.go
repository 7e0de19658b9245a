package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck reports unhealthy when the live goroutine count exceeds
// limit. Intended as a liveness check for catching goroutine leaks.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit is %d", n, limit)
		}
		return nil
	}
}

// GCPauseCheck reports unhealthy when the most recent GC stop-the-world pause
// exceeds limit. Long pauses usually mean the heap has grown past what the
// process can collect comfortably.
func GCPauseCheck(limit time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		if len(stats.Pause) == 0 {
			return nil
		}
		// Pause[0] is the most recent pause.
		if last := stats.Pause[0]; last > limit {
			return errors.Errorf("last GC pause %s, limit is %s", last, limit)
		}
		return nil
	}
}

// HeapAllocCheck reports unhealthy when the heap's live allocation exceeds
// limit bytes.
func HeapAllocCheck(limit uint64) CheckFunc {
	return func(_ context.Context) error {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		if ms.HeapAlloc > limit {
			return errors.Errorf("heap alloc %d bytes, limit is %d", ms.HeapAlloc, limit)
		}
		return nil
	}
}
