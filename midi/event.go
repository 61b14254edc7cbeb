package midi

import (
	"fmt"

	"tonebox/synth"
)

// MIDI message types (status byte high nibble)
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Omni accepts messages on every channel
const Omni = -1

// Message is a decoded MIDI frame as seen by the UI
type Message struct {
	Timestamp int32 // ms since the port was opened
	Raw       []byte
	Event     synth.Event
}

func (m Message) String() string {
	return fmt.Sprintf("%6d  % X  %s", m.Timestamp, m.Raw, m.Event)
}

// Decoder turns raw 3-byte channel messages into synth events
type Decoder struct {
	Channel int // 0-15, or Omni
}

// Decode converts a raw frame. It returns false for anything that is not a
// note on/off or control change on the configured channel.
func (d Decoder) Decode(raw []byte) (synth.Event, bool) {
	if len(raw) != 3 {
		return synth.Event{}, false
	}
	status, data1, data2 := raw[0], raw[1], raw[2]
	if status < 0x80 || data1 > 0x7F || data2 > 0x7F {
		return synth.Event{}, false
	}
	if d.Channel != Omni && int(status&0x0F) != d.Channel {
		return synth.Event{}, false
	}

	switch status & 0xF0 {
	case NoteOn:
		// velocity 0 is a note off in running status streams
		if data2 == 0 {
			return synth.Release(data1), true
		}
		return synth.Press(data1), true
	case NoteOff:
		return synth.Release(data1), true
	case CC:
		return synth.SetVolume(data2), true
	}
	return synth.Event{}, false
}
