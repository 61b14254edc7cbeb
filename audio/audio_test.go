package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

type rampRenderer struct {
	calls int
	next  float32
}

func (r *rampRenderer) Fill(buf []float32, channels int) {
	r.calls++
	for f := 0; f < len(buf)/channels; f++ {
		for c := 0; c < channels; c++ {
			buf[f*channels+c] = r.next
		}
		r.next += 0.25
		if r.next > 1 {
			r.next = -1
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatFloat32, FormatInt16, FormatUint8} {
		got, err := ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseFormat("f64"); err == nil {
		t.Error("ParseFormat(f64) succeeded")
	}
}

func TestEncode(t *testing.T) {
	src := []float32{0, 1, -1, 0.5, 2, -3}

	f32 := make([]byte, len(src)*4)
	FormatFloat32.Encode(f32, src)
	for i, want := range []float32{0, 1, -1, 0.5, 1, -1} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(f32[i*4:]))
		if got != want {
			t.Errorf("f32[%d] = %v, want %v", i, got, want)
		}
	}

	s16 := make([]byte, len(src)*2)
	FormatInt16.Encode(s16, src)
	for i, want := range []int16{0, 32767, -32767, 16383, 32767, -32767} {
		got := int16(binary.LittleEndian.Uint16(s16[i*2:]))
		if got != want {
			t.Errorf("s16[%d] = %v, want %v", i, got, want)
		}
	}

	u8 := make([]byte, len(src))
	FormatUint8.Encode(u8, src)
	for i, want := range []uint8{128, 255, 1, 191, 255, 1} {
		if u8[i] != want {
			t.Errorf("u8[%d] = %v, want %v", i, u8[i], want)
		}
	}
}

func TestPlayerReadWholeFrames(t *testing.T) {
	r := &rampRenderer{}
	p := newPlayer(Options{SampleRate: 48000, Channels: 2, Format: FormatInt16}, r)

	buf := make([]byte, 4*10+3) // 10 stereo s16 frames plus a partial one
	n, err := p.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 40 {
		t.Fatalf("Read() = %d bytes, want 40", n)
	}
	for f := 0; f < 10; f++ {
		l := binary.LittleEndian.Uint16(buf[f*4:])
		rr := binary.LittleEndian.Uint16(buf[f*4+2:])
		if l != rr {
			t.Fatalf("frame %d: channels differ", f)
		}
	}
}

func TestPlayerReadGrowsBuffer(t *testing.T) {
	r := &rampRenderer{}
	p := newPlayer(Options{SampleRate: 48000, Channels: 1, Format: FormatFloat32}, r)
	buf := make([]byte, 4*10000)
	if n, _ := p.Read(buf); n != len(buf) {
		t.Fatalf("Read() = %d, want %d", n, len(buf))
	}
	if p.IsStarted() {
		t.Fatal("player without a device reports started")
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

type countRenderer struct{ frames int }

func (c *countRenderer) Fill(buf []float32, channels int) {
	c.frames += len(buf) / channels
}

func TestClockCatchUp(t *testing.T) {
	r := &countRenderer{}
	c := NewClock(Options{SampleRate: 1000, Channels: 2}, r)

	c.catchUp(10 * time.Millisecond)
	c.catchUp(25 * time.Millisecond)
	c.catchUp(25 * time.Millisecond)
	if r.frames != 25 || c.Rendered() != 25 {
		t.Fatalf("rendered %d frames (%d), want 25", r.frames, c.Rendered())
	}

	// a long stall is capped at one second of audio
	c.catchUp(10 * time.Second)
	if r.frames != 25+1000 {
		t.Fatalf("rendered %d frames after stall, want %d", r.frames, 25+1000)
	}
}
