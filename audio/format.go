package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ebitengine/oto/v3"
)

// Format is the sample encoding written to the device
type Format int

const (
	FormatFloat32 Format = iota
	FormatInt16
	FormatUint8
)

// ParseFormat accepts the config names f32, s16 and u8
func ParseFormat(s string) (Format, error) {
	switch s {
	case "f32":
		return FormatFloat32, nil
	case "s16":
		return FormatInt16, nil
	case "u8":
		return FormatUint8, nil
	}
	return 0, fmt.Errorf("unknown sample format %q", s)
}

func (f Format) String() string {
	switch f {
	case FormatFloat32:
		return "f32"
	case FormatInt16:
		return "s16"
	case FormatUint8:
		return "u8"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// BytesPerSample returns the size of one channel sample
func (f Format) BytesPerSample() int {
	switch f {
	case FormatInt16:
		return 2
	case FormatUint8:
		return 1
	}
	return 4
}

func (f Format) oto() oto.Format {
	switch f {
	case FormatInt16:
		return oto.FormatSignedInt16LE
	case FormatUint8:
		return oto.FormatUnsignedInt8
	}
	return oto.FormatFloat32LE
}

// Encode converts normalized samples into little-endian bytes. dst must hold
// len(src)*BytesPerSample bytes. Values are clipped to [-1, 1].
func (f Format) Encode(dst []byte, src []float32) {
	switch f {
	case FormatFloat32:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(clip(v)))
		}
	case FormatInt16:
		for i, v := range src {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(clip(v)*math.MaxInt16)))
		}
	case FormatUint8:
		for i, v := range src {
			dst[i] = uint8(int(clip(v)*127) + 128)
		}
	}
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
