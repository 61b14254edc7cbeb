package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"tonebox/debug"
	"tonebox/synth"
)

// Sink receives decoded events. Implemented by *synth.Synth.
type Sink interface {
	Send(ev synth.Event)
}

// Source listens on a MIDI input port and forwards note events to a Sink
type Source struct {
	id       string
	decoder  Decoder
	sink     Sink
	stopFunc func()

	msgChan chan Message
}

// NewSource creates a source that is not yet listening. Decoded messages go
// to msgs, or to a private buffered channel when msgs is nil.
func NewSource(id string, decoder Decoder, sink Sink, msgs chan Message) *Source {
	if msgs == nil {
		msgs = make(chan Message, 64)
	}
	return &Source{
		id:      id,
		decoder: decoder,
		sink:    sink,
		msgChan: msgs,
	}
}

// Open starts listening on inPort
func (s *Source) Open(inPort drivers.In) error {
	stop, err := gomidi.ListenTo(inPort, s.handle)
	if err != nil {
		return fmt.Errorf("open input %q: %w", s.id, err)
	}
	s.stopFunc = stop
	debug.Log("midi", "listening on %s (channel %d)", s.id, s.decoder.Channel)
	return nil
}

// handle runs on the driver's goroutine
func (s *Source) handle(msg gomidi.Message, timestampms int32) {
	raw := msg.Bytes()
	ev, ok := s.decoder.Decode(raw)
	if !ok {
		debug.Log("midi", "%d: ignored % X", timestampms, raw)
		return
	}
	s.sink.Send(ev)
	debug.Log("midi", "%d: % X -> %s", timestampms, raw, ev)

	m := Message{
		Timestamp: timestampms,
		Raw:       append([]byte(nil), raw...),
		Event:     ev,
	}
	select {
	case s.msgChan <- m:
	default:
	}
}

func (s *Source) ID() string {
	return s.id
}

// Messages returns decoded messages for display. Delivery is best effort:
// messages are dropped when nobody reads.
func (s *Source) Messages() <-chan Message {
	return s.msgChan
}

// Close stops listening. Events already sent stay queued in the sink.
func (s *Source) Close() error {
	if s.stopFunc != nil {
		s.stopFunc()
		s.stopFunc = nil
		debug.Log("midi", "closed %s", s.id)
	}
	return nil
}
