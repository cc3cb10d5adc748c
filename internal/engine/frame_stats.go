package engine

import (
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

// FrameStats logs the frame rate at debug level once per interval.
type FrameStats struct {
	Interval float64

	elapsed float64
	frames  int
	fps     float64
}

func NewFrameStats(interval float64) *FrameStats {
	return &FrameStats{Interval: interval}
}

func (f *FrameStats) Start() {}

func (f *FrameStats) Update(deltaTime float64) {
	f.elapsed += deltaTime
	f.frames++
	if f.Interval <= 0 || f.elapsed < f.Interval {
		return
	}
	f.fps = float64(f.frames) / f.elapsed
	logger.Log.Debug("Frame stats",
		zap.Float64("fps", f.fps),
		zap.Float64("frame_ms", 1000*f.elapsed/float64(f.frames)))
	f.elapsed = 0
	f.frames = 0
}

// FPS returns the rate measured over the last full interval.
func (f *FrameStats) FPS() float64 {
	return f.fps
}
