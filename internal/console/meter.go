package console

import (
	"math"
	"time"
)

// defaultMeterWindow is how many recent frame times FrameMeter averages
// over before reporting a rate.
const defaultMeterWindow = 50

// FrameMeter is a ring buffer of recent frame durations, used by the host
// loop to report an advisory frames-per-second figure. It never affects
// timing or CPU scheduling; it only observes it.
type FrameMeter struct {
	samples []float64
	count   int
}

// NewFrameMeter returns a meter averaging over the given number of frames.
func NewFrameMeter(window int) *FrameMeter {
	if window <= 0 {
		window = defaultMeterWindow
	}
	return &FrameMeter{samples: make([]float64, window)}
}

// Record adds one frame's duration to the window.
func (m *FrameMeter) Record(d time.Duration) {
	m.samples[m.count%len(m.samples)] = d.Seconds()
	m.count++
}

// FPS returns the rounded average frames-per-second over the window, or 0
// before any frame has been recorded.
func (m *FrameMeter) FPS() int {
	avg := m.averageSeconds()
	if avg <= 0 {
		return 0
	}
	fps := int(math.Round(1.0 / avg))
	if fps < 0 {
		return 0
	}
	return fps
}

func (m *FrameMeter) averageSeconds() float64 {
	if m.count == 0 {
		return 0
	}
	n := len(m.samples)
	if m.count < n {
		n = m.count
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += m.samples[i]
	}
	return sum / float64(n)
}
