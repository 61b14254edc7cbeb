package synth

import (
	"math"
	"sync/atomic"
)

// Telemetry is published every statsEvery samples
const statsEvery = 512

// Stats is a snapshot of what the audio goroutine last published
type Stats struct {
	Voices   int
	Volume   float64
	Peak     float64   // max |sample| over the last window
	Held     [2]uint64 // bit p set = pitch p pressed and not released
	Sounding [2]uint64 // bit p set = pitch p audible (held or releasing)
	Samples  uint64
}

// Synth owns an Engine and feeds it from a Queue. Producers call Send from
// any goroutine; the audio goroutine calls Next or Fill.
type Synth struct {
	engine *Engine
	queue  *Queue
	rate   int
	dt     float64

	// audio goroutine only
	peak    float64
	window  int
	samples uint64

	// published for other goroutines
	voices   atomic.Int32
	volume   atomic.Uint64
	peakBits atomic.Uint64
	held     [2]atomic.Uint64
	sounding [2]atomic.Uint64
	total    atomic.Uint64
}

// New creates a Synth rendering at sampleRate samples per second
func New(cfg Config, sampleRate int) *Synth {
	s := &Synth{
		engine: NewEngine(cfg),
		queue:  NewQueue(),
		rate:   sampleRate,
		dt:     1 / float64(sampleRate),
	}
	s.publish()
	return s
}

// SampleRate returns the rate the synth advances time at
func (s *Synth) SampleRate() int {
	return s.rate
}

// SetMasterVolume sets the starting volume. Call before rendering starts.
func (s *Synth) SetMasterVolume(v float64) {
	s.engine.SetMasterVolume(v)
	s.publish()
}

// Send queues an event for the next sample
func (s *Synth) Send(ev Event) {
	s.queue.Push(ev)
}

// Next drains pending events, advances one sample period and renders
func (s *Synth) Next() float64 {
	for {
		ev, ok := s.queue.Pop()
		if !ok {
			break
		}
		s.engine.Apply(ev)
	}
	s.engine.Advance(s.dt)
	v := s.engine.Render()

	if a := math.Abs(v); a > s.peak {
		s.peak = a
	}
	s.samples++
	s.window++
	if s.window >= statsEvery {
		s.publish()
		s.window = 0
		s.peak = 0
	}
	return v
}

// Fill writes interleaved frames into buf, the same sample on every channel.
// A trailing partial frame is zeroed.
func (s *Synth) Fill(buf []float32, channels int) {
	if channels < 1 {
		channels = 1
	}
	frames := len(buf) / channels
	for f := 0; f < frames; f++ {
		v := float32(s.Next())
		frame := buf[f*channels : (f+1)*channels]
		for c := range frame {
			frame[c] = v
		}
	}
	clear(buf[frames*channels:])
}

// Stats returns the last published snapshot. Safe from any goroutine.
func (s *Synth) Stats() Stats {
	return Stats{
		Voices:   int(s.voices.Load()),
		Volume:   math.Float64frombits(s.volume.Load()),
		Peak:     math.Float64frombits(s.peakBits.Load()),
		Held:     [2]uint64{s.held[0].Load(), s.held[1].Load()},
		Sounding: [2]uint64{s.sounding[0].Load(), s.sounding[1].Load()},
		Samples:  s.total.Load(),
	}
}

// publish runs on the audio goroutine (or before it starts)
func (s *Synth) publish() {
	var held, sounding [2]uint64
	for p := range s.engine.voices {
		v := &s.engine.voices[p]
		if !v.active {
			continue
		}
		bit := uint64(1) << (p % 64)
		sounding[p/64] |= bit
		if !v.released {
			held[p/64] |= bit
		}
	}
	for i := range held {
		s.held[i].Store(held[i])
		s.sounding[i].Store(sounding[i])
	}
	s.voices.Store(int32(s.engine.Active()))
	s.volume.Store(math.Float64bits(s.engine.Volume()))
	s.peakBits.Store(math.Float64bits(s.peak))
	s.total.Store(s.samples)
}

// Pressed reports whether bit p is set in a 128-bit note mask
func Pressed(mask [2]uint64, pitch uint8) bool {
	if int(pitch) >= NumPitches {
		return false
	}
	return mask[pitch/64]&(uint64(1)<<(pitch%64)) != 0
}
