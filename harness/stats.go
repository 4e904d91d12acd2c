package harness

import (
	"time"

	"github.com/pkhuong/direct-mode-fsm/internal/metrics"
)

// FrameStats is a read-only snapshot of one frame's statistics, handed
// to a [WithFrameHook] callback. The percentile fields are only
// meaningful when [WithMetrics] is enabled; otherwise they read zero.
type FrameStats struct {
	FrameIndex    int
	Notifications int
	Duration      time.Duration

	DurationP50, DurationP90, DurationP99 time.Duration
	BatchP50, BatchP90, BatchP99          float64
}

func snapshot(frameIndex, notifications int, d time.Duration, s *metrics.FrameStats) FrameStats {
	fs := FrameStats{
		FrameIndex:    frameIndex,
		Notifications: notifications,
		Duration:      d,
	}
	if s != nil {
		fs.DurationP50 = s.DurationP50()
		fs.DurationP90 = s.DurationP90()
		fs.DurationP99 = s.DurationP99()
		fs.BatchP50 = s.BatchP50()
		fs.BatchP90 = s.BatchP90()
		fs.BatchP99 = s.BatchP99()
	}
	return fs
}
