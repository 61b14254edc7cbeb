package synth

import "fmt"

// Kind identifies what an Event does to the engine
type Kind uint8

const (
	KindPress Kind = iota
	KindRelease
	KindSetVolume
)

// Event is a typed note event. Pitch is used by press/release, Level by
// volume changes. Both are in 0..127.
type Event struct {
	Kind  Kind
	Pitch uint8
	Level uint8
}

// Press starts (or retriggers) a note
func Press(pitch uint8) Event {
	return Event{Kind: KindPress, Pitch: pitch}
}

// Release starts the fade-out of a held note
func Release(pitch uint8) Event {
	return Event{Kind: KindRelease, Pitch: pitch}
}

// SetVolume sets master volume to level/127
func SetVolume(level uint8) Event {
	return Event{Kind: KindSetVolume, Level: level}
}

func (e Event) String() string {
	switch e.Kind {
	case KindPress:
		return fmt.Sprintf("press %d", e.Pitch)
	case KindRelease:
		return fmt.Sprintf("release %d", e.Pitch)
	case KindSetVolume:
		return fmt.Sprintf("volume %d", e.Level)
	}
	return fmt.Sprintf("event(%d)", e.Kind)
}
