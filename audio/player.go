package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"tonebox/debug"
)

// Renderer produces interleaved frames. Implemented by *synth.Synth.
type Renderer interface {
	Fill(buf []float32, channels int)
}

// Options describes the negotiated output stream
type Options struct {
	SampleRate int
	Channels   int
	Format     Format
	BufferSize time.Duration
}

// Player pulls frames from a Renderer whenever the device wants more data
type Player struct {
	opts     Options
	renderer Renderer
	ctx      *oto.Context
	player   *oto.Player

	// touched only by Read, which oto calls from one goroutine
	sampleBuf []float32

	started bool
	mutex   sync.Mutex // Only for setup/control operations
}

// NewPlayer opens the default output device
func NewPlayer(opts Options, r Renderer) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: opts.Channels,
		Format:       opts.Format.oto(),
		BufferSize:   opts.BufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	p := newPlayer(opts, r)
	p.ctx = ctx
	p.player = ctx.NewPlayer(p)
	debug.Log("audio", "device open: %d Hz, %d ch, %s, buffer %v", opts.SampleRate, opts.Channels, opts.Format, opts.BufferSize)
	return p, nil
}

func newPlayer(opts Options, r Renderer) *Player {
	return &Player{
		opts:     opts,
		renderer: r,
		// Pre-allocate for typical oto buffer sizes
		sampleBuf: make([]float32, 4096),
	}
}

// Read implements io.Reader for oto. Only whole frames are written.
func (p *Player) Read(b []byte) (int, error) {
	frameBytes := p.opts.Format.BytesPerSample() * p.opts.Channels
	frames := len(b) / frameBytes
	n := frames * p.opts.Channels

	// This should rarely happen after the first callback
	if len(p.sampleBuf) < n {
		p.sampleBuf = make([]float32, n)
	}
	samples := p.sampleBuf[:n]

	p.renderer.Fill(samples, p.opts.Channels)
	p.opts.Format.Encode(b, samples)
	return frames * frameBytes, nil
}

func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

func (p *Player) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}

// Close stops playback. The oto context stays alive for the process.
func (p *Player) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.started = false
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}
