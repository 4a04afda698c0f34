package metrics

import (
	"context"
	"runtime"
	"time"
)

// StartSystemCollector samples memory, goroutine and GC pause figures on the
// manager's refresh interval until ctx is done.
func StartSystemCollector(ctx context.Context) {
	go globalManager.collectSystem(ctx)
}

func (m *Manager) collectSystem(ctx context.Context) {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	var lastGC uint32
	for {
		m.sampleSystem(&lastGC)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Manager) sampleSystem(lastGC *uint32) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.Alloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))

	// PauseNs is a ring of the most recent 256 pauses.
	n := ms.NumGC - *lastGC
	if n > uint32(len(ms.PauseNs)) {
		n = uint32(len(ms.PauseNs))
	}
	for i := uint32(0); i < n; i++ {
		idx := (ms.NumGC - i + 255) % uint32(len(ms.PauseNs))
		m.systemGCPauseTime.Observe(float64(ms.PauseNs[idx]) / float64(time.Millisecond))
	}
	*lastGC = ms.NumGC
}
