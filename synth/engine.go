package synth

import "math"

// NumPitches is the size of the pitch domain (0..127)
const NumPitches = 128

// DefaultVolume is the master volume a new engine starts with
const DefaultVolume = 0.5

// Square wave step height before envelopes
const stepLevel = 0.2

// Config holds the envelope durations in seconds. Immutable once the engine
// is built.
type Config struct {
	FadeIn  float64
	FadeOut float64
}

// DefaultConfig returns a 50ms attack and 500ms release
func DefaultConfig() Config {
	return Config{
		FadeIn:  0.05,
		FadeOut: 0.5,
	}
}

// voice is the per-pitch note state. releaseAt is only meaningful when
// released is set.
type voice struct {
	active    bool
	released  bool
	clock     float64
	releaseAt float64
}

// Engine renders a mix of square-ish tones, one voice per pitch.
//
// Engine is not safe for concurrent use. It is owned by the audio goroutine;
// other goroutines reach it through a Queue (see Synth).
type Engine struct {
	cfg    Config
	voices [NumPitches]voice
	count  int
	volume float64
}

// NewEngine creates an engine with no active notes and DefaultVolume
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		volume: DefaultVolume,
	}
}

// Apply applies one event
func (e *Engine) Apply(ev Event) {
	switch ev.Kind {
	case KindPress:
		e.Press(ev.Pitch)
	case KindRelease:
		e.Release(ev.Pitch)
	case KindSetVolume:
		e.SetVolume(ev.Level)
	}
}

// Press starts a note, replacing any state it had (retrigger).
// Pitches outside 0..127 are ignored.
func (e *Engine) Press(pitch uint8) {
	if int(pitch) >= NumPitches {
		return
	}
	v := &e.voices[pitch]
	if !v.active {
		e.count++
	}
	*v = voice{active: true}
}

// Release stamps the release time of a held note. Releasing an inactive or
// already released note does nothing.
func (e *Engine) Release(pitch uint8) {
	if int(pitch) >= NumPitches {
		return
	}
	v := &e.voices[pitch]
	if !v.active || v.released {
		return
	}
	v.released = true
	v.releaseAt = v.clock
}

// SetVolume sets master volume from a 0..127 level
func (e *Engine) SetVolume(level uint8) {
	e.volume = float64(level) / 127
}

// SetMasterVolume sets master volume directly, clamped to [0, 1]
func (e *Engine) SetMasterVolume(v float64) {
	e.volume = math.Max(0, math.Min(v, 1))
}

// Volume returns master volume in [0, 1]
func (e *Engine) Volume() float64 {
	return e.volume
}

// Active returns the number of sounding notes
func (e *Engine) Active() int {
	return e.count
}

// State reports the clock and release stamp of a pitch. ok is false when the
// pitch is not sounding.
func (e *Engine) State(pitch uint8) (clock, releaseAt float64, released, ok bool) {
	if int(pitch) >= NumPitches || !e.voices[pitch].active {
		return 0, 0, false, false
	}
	v := e.voices[pitch]
	return v.clock, v.releaseAt, v.released, true
}

// Advance moves every note's clock forward by dt seconds, then drops notes
// that finished their release.
func (e *Engine) Advance(dt float64) {
	if e.count == 0 {
		return
	}
	for p := range e.voices {
		v := &e.voices[p]
		if !v.active {
			continue
		}
		v.clock += dt
		if v.released && v.clock-v.releaseAt > e.cfg.FadeOut {
			*v = voice{}
			e.count--
		}
	}
}

// Render returns the current output sample without changing state
func (e *Engine) Render() float64 {
	if e.count == 0 {
		return 0
	}
	var sum float64
	for p := range e.voices {
		v := &e.voices[p]
		if v.active {
			sum += v.sample(uint8(p), e.cfg)
		}
	}
	return sum * e.volume / 2
}

// sample is one voice's enveloped contribution before master volume
func (v *voice) sample(pitch uint8, cfg Config) float64 {
	s := step(math.Sin(v.clock * Frequency(pitch) * 2 * math.Pi))
	s *= attack(v.clock, cfg.FadeIn)
	if v.released {
		s *= release(v.clock-v.releaseAt, cfg.FadeOut)
	}
	return s
}

// Frequency maps a pitch to Hz, equal temperament with pitch 69 at 440 Hz
func Frequency(pitch uint8) float64 {
	return 440 * math.Exp2((float64(pitch)-69)/12)
}

// step quantizes a sine value to three levels. An exact zero stays silent.
func step(s float64) float64 {
	switch {
	case s > 0:
		return stepLevel
	case s < 0:
		return -stepLevel
	}
	return 0
}

// attack ramps 0 -> 1 over fadeIn seconds
func attack(clock, fadeIn float64) float64 {
	if fadeIn <= 0 {
		return 1
	}
	return math.Min(clock/fadeIn, 1)
}

// release ramps 1 -> 0 over fadeOut seconds after the release stamp
func release(elapsed, fadeOut float64) float64 {
	if fadeOut <= 0 {
		return 0
	}
	return 1 - math.Min(elapsed/fadeOut, 1)
}
