package workers

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"
)

// StatsSnapshot is what the stats worker reports on each tick.
type StatsSnapshot struct {
	Rooms      int
	Members    int
	Messages   int
	RSSBytes   uint64
	CPUPercent float64
}

// StatsWorker periodically logs room occupancy together with process metrics.
type StatsWorker struct {
	log      *slog.Logger
	stats    func() []contract.RoomStats
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, stats func() []contract.RoomStats, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, stats: stats, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info("Starting stats worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snapshot := Snapshot(w.stats())
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Warn("Failed to collect self stats", "error", err)
			}
			snapshot.RSSBytes, snapshot.CPUPercent = rss, cpu
			w.log.Info("Relay stats",
				"rooms", snapshot.Rooms,
				"members", snapshot.Members,
				"messages", snapshot.Messages,
				"rss_bytes", snapshot.RSSBytes,
				"cpu_percent", snapshot.CPUPercent)
		}
	}
}

// Snapshot sums room statistics. Process metrics are left empty.
func Snapshot(rooms []contract.RoomStats) StatsSnapshot {
	return StatsSnapshot{
		Rooms:    len(rooms),
		Members:  lo.SumBy(rooms, func(r contract.RoomStats) int { return r.Members }),
		Messages: lo.SumBy(rooms, func(r contract.RoomStats) int { return r.Messages }),
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
