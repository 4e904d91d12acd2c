package metrics

import "time"

// FrameStats tracks streaming percentiles of per-frame wall-clock
// duration and a per-frame batch size (the poll harness passes the
// number of notifications ingested) across a poll harness's lifetime,
// without retaining any per-frame history.
type FrameStats struct {
	frames int

	durationP50 *PSquare
	durationP90 *PSquare
	durationP99 *PSquare

	batchP50 *PSquare
	batchP90 *PSquare
	batchP99 *PSquare
}

// NewFrameStats returns a ready-to-use FrameStats.
func NewFrameStats() *FrameStats {
	return &FrameStats{
		durationP50: NewPSquare(0.50),
		durationP90: NewPSquare(0.90),
		durationP99: NewPSquare(0.99),
		batchP50:    NewPSquare(0.50),
		batchP90:    NewPSquare(0.90),
		batchP99:    NewPSquare(0.99),
	}
}

// Observe records one frame's wall-clock duration and its batch size.
func (s *FrameStats) Observe(d time.Duration, stagedOut int) {
	s.frames++
	f := float64(d.Nanoseconds())
	s.durationP50.Update(f)
	s.durationP90.Update(f)
	s.durationP99.Update(f)

	b := float64(stagedOut)
	s.batchP50.Update(b)
	s.batchP90.Update(b)
	s.batchP99.Update(b)
}

// Frames returns the number of frames observed.
func (s *FrameStats) Frames() int { return s.frames }

// DurationP50/P90/P99 return estimated frame-duration percentiles.
func (s *FrameStats) DurationP50() time.Duration { return time.Duration(s.durationP50.Quantile()) }
func (s *FrameStats) DurationP90() time.Duration { return time.Duration(s.durationP90.Quantile()) }
func (s *FrameStats) DurationP99() time.Duration { return time.Duration(s.durationP99.Quantile()) }

// BatchP50/P90/P99 return estimated batch size percentiles.
func (s *FrameStats) BatchP50() float64 { return s.batchP50.Quantile() }
func (s *FrameStats) BatchP90() float64 { return s.batchP90.Quantile() }
func (s *FrameStats) BatchP99() float64 { return s.batchP99.Quantile() }
