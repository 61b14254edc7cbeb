package audio

import (
	"context"
	"time"

	"tonebox/debug"
)

// Clock drives a Renderer in real time without an output device. Samples
// are rendered and thrown away, so note state still evolves at the sample
// rate (useful for headless runs and MIDI debugging).
type Clock struct {
	renderer Renderer
	rate     int
	channels int
	period   time.Duration
	buf      []float32
	rendered int64
}

func NewClock(opts Options, r Renderer) *Clock {
	return &Clock{
		renderer: r,
		rate:     opts.SampleRate,
		channels: opts.Channels,
		period:   10 * time.Millisecond,
	}
}

// Run renders until ctx is cancelled (blocking - run in goroutine)
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.catchUp(now.Sub(start))
		}
	}
}

// catchUp renders every frame due by elapsed
func (c *Clock) catchUp(elapsed time.Duration) {
	due := int64(elapsed.Seconds() * float64(c.rate))
	frames := due - c.rendered
	if frames <= 0 {
		return
	}
	if limit := int64(c.rate); frames > limit {
		// stalled for over a second; drop the backlog rather than spin
		debug.LogEvery(10, "audio", "clock behind by %d frames", frames)
		c.rendered = due - limit
		frames = limit
	}

	n := int(frames) * c.channels
	if cap(c.buf) < n {
		c.buf = make([]float32, n)
	}
	c.renderer.Fill(c.buf[:n], c.channels)
	c.rendered += frames
}

// Rendered returns how many frames have been pulled so far
func (c *Clock) Rendered() int64 {
	return c.rendered
}
