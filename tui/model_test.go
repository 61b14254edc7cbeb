package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tonebox/midi"
	"tonebox/synth"
	"tonebox/theme"
)

type fakeSynth struct {
	sent  []synth.Event
	stats synth.Stats
}

func (f *fakeSynth) Send(ev synth.Event) { f.sent = append(f.sent, ev) }
func (f *fakeSynth) Stats() synth.Stats { return f.stats }
func (f *fakeSynth) SampleRate() int { return 48000 }

type fakeDevices struct {
	events   chan midi.DeviceEvent
	messages chan midi.Message
	name     string
}

func (f *fakeDevices) Events() <-chan midi.DeviceEvent { return f.events }
func (f *fakeDevices) Messages() <-chan midi.Message { return f.messages }
func (f *fakeDevices) Connected() string { return f.name }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestVolumeKeys(t *testing.T) {
	fs := &fakeSynth{stats: synth.Stats{Volume: 0.5}}
	m := NewModel(fs, nil, theme.New(nil), "test")

	next, _ := m.Update(key("+"))
	m = next.(Model)
	next, _ = m.Update(key("-"))
	m = next.(Model)
	next, _ = m.Update(key("-"))
	m = next.(Model)

	want := []synth.Event{synth.SetVolume(72), synth.SetVolume(64), synth.SetVolume(56)}
	if len(fs.sent) != len(want) {
		t.Fatalf("sent %v, want %v", fs.sent, want)
	}
	for i := range want {
		if fs.sent[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, fs.sent[i], want[i])
		}
	}
}

func TestVolumeClamps(t *testing.T) {
	fs := &fakeSynth{stats: synth.Stats{Volume: 1}}
	m := NewModel(fs, nil, theme.New(nil), "test")
	m.Update(key("+"))
	if fs.sent[0] != synth.SetVolume(127) {
		t.Fatalf("sent %v", fs.sent[0])
	}
}

func TestReleaseAll(t *testing.T) {
	fs := &fakeSynth{}
	fs.stats.Held[0] = 1<<60 | 1<<62
	fs.stats.Held[1] = 1 << (69 - 64)
	m := NewModel(fs, nil, theme.New(nil), "test")

	next, _ := m.Update(key(" "))
	m = next.(Model)
	want := []synth.Event{synth.Release(60), synth.Release(62), synth.Release(69)}
	if len(fs.sent) != 3 {
		t.Fatalf("sent %v, want %v", fs.sent, want)
	}
	for i := range want {
		if fs.sent[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, fs.sent[i], want[i])
		}
	}
	if !strings.Contains(m.View(), "released 3 notes") {
		t.Fatal("status not shown")
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(&fakeSynth{}, nil, theme.New(nil), "test")
	next, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("command is not tea.Quit")
	}
	if next.(Model).View() != "" {
		t.Fatal("view not cleared on quit")
	}
}

func TestDeviceAndMIDIMessages(t *testing.T) {
	devs := &fakeDevices{
		events:   make(chan midi.DeviceEvent, 1),
		messages: make(chan midi.Message, 1),
		name:     "USB Keys",
	}
	fs := &fakeSynth{}
	fs.stats.Held[1] = 1 << (69 - 64)
	fs.stats.Sounding = fs.stats.Held
	m := NewModel(fs, devs, theme.New(nil), "oto f32")

	next, _ := m.Update(tickMsg{})
	m = next.(Model)
	next, _ = m.Update(DeviceEventMsg(midi.DeviceEvent{Type: midi.DeviceConnected, ID: "USB Keys"}))
	m = next.(Model)
	for i := 0; i < historyLen+2; i++ {
		next, _ = m.Update(MIDIMsg(midi.Message{Timestamp: int32(i), Raw: []byte{0x90, 69, 1}, Event: synth.Press(69)}))
		m = next.(Model)
	}
	if len(m.history) != historyLen {
		t.Fatalf("history = %d, want %d", len(m.history), historyLen)
	}

	view := m.View()
	for _, want := range []string{"USB Keys", "48000 Hz", "connected USB Keys", "A4", "press 69"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestHelpLineAndStatus(t *testing.T) {
	fs := &fakeSynth{}
	devs := &fakeDevices{events: make(chan midi.DeviceEvent, 1), messages: make(chan midi.Message, 1)}
	m := NewModel(fs, devs, theme.New(nil), "oto f32")

	view := m.View()
	for _, want := range []string{"volume", "release all", "quit", "no input"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	next, _ := m.Update(DeviceEventMsg(midi.DeviceEvent{Type: midi.DeviceConnected, ID: "USB Keys"}))
	m = next.(Model)
	if !m.statusOK {
		t.Fatal("connect should be a good status")
	}
	next, _ = m.Update(DeviceEventMsg(midi.DeviceEvent{Type: midi.DeviceDisconnected, ID: "USB Keys"}))
	m = next.(Model)
	if m.statusOK || m.status != "disconnected USB Keys" {
		t.Fatalf("status = %q ok=%v", m.status, m.statusOK)
	}
}
