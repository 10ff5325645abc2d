package workers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats is the latest resource sample of the running server.
type ProcessStats struct {
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryRSS  uint64    `json:"memory_rss_bytes"`
	SampledAt  time.Time `json:"sampled_at"`
}

// ProcessMonitor samples CPU and memory usage of the current process at a
// fixed interval. Readers get the last sample without touching /proc.
type ProcessMonitor struct {
	mu             sync.RWMutex
	log            *slog.Logger
	metricInterval time.Duration
	last           ProcessStats
}

func NewProcessMonitor(log *slog.Logger, metricInterval time.Duration) *ProcessMonitor {
	return &ProcessMonitor{log: log, metricInterval: metricInterval}
}

func (w *ProcessMonitor) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	w.sample(p)

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping process monitoring")
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *ProcessMonitor) sample(p *process.Process) {
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
		return
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
		return
	}
	w.mu.Lock()
	w.last = ProcessStats{PID: p.Pid, CPUPercent: cpu, MemoryRSS: mem.RSS, SampledAt: time.Now().UTC()}
	w.mu.Unlock()
}

// Stats returns the last sample; the zero value before the first one.
func (w *ProcessMonitor) Stats() ProcessStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}
