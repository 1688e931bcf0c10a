package pacer

import "time"

// Stats summarises recent pacing.
type Stats struct {
	// Frames is the number of completed steps.
	Frames uint64
	// Overruns is the number of steps that used up the whole
	// period and were followed without a wait.
	Overruns uint64
	// Average is the mean time between recent steps.
	Average time.Duration
	// FPS is the effective frame rate over the recent steps.
	FPS float64
	// Samples holds the recent step intervals, oldest first.
	Samples []time.Duration
}

// Stats returns the pacing statistics gathered so far.
func (p *Pacer) Stats() Stats {
	s := Stats{
		Frames:   p.frames,
		Overruns: p.overruns,
		Samples:  p.history.values(),
	}
	if len(s.Samples) > 0 {
		var total time.Duration
		for _, v := range s.Samples {
			total += v
		}
		s.Average = total / time.Duration(len(s.Samples))
		if s.Average > 0 {
			s.FPS = float64(time.Second) / float64(s.Average)
		}
	}
	return s
}

// ring is a fixed size buffer of durations that overwrites the
// oldest entry when full.
type ring struct {
	buf  []time.Duration
	idx  int
	full bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]time.Duration, size)}
}

func (r *ring) add(d time.Duration) {
	r.buf[r.idx] = d
	r.idx = (r.idx + 1) % len(r.buf)
	if r.idx == 0 {
		r.full = true
	}
}

func (r *ring) values() []time.Duration {
	if !r.full {
		return append([]time.Duration(nil), r.buf[:r.idx]...)
	}
	out := make([]time.Duration, 0, len(r.buf))
	out = append(out, r.buf[r.idx:]...)
	return append(out, r.buf[:r.idx]...)
}
