package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tonebox/debug"
	"tonebox/midi"
	"tonebox/synth"
	"tonebox/theme"
	"tonebox/widgets"
)

// Refresh rate for the keyboard and meter
const fps = 30

// How many recent MIDI messages are shown
const historyLen = 8

// volumeStep is the +/- increment on the 0-127 scale
const volumeStep = 8

var keyHelp = []widgets.KeySection{
	{{Key: "+/-", Desc: "volume"}, {Key: "space", Desc: "release all"}},
	{{Key: "q", Desc: "quit"}},
}

// Synth is the part of *synth.Synth the UI needs
type Synth interface {
	Send(ev synth.Event)
	Stats() synth.Stats
	SampleRate() int
}

// Devices is the part of *midi.DeviceManager the UI needs
type Devices interface {
	Events() <-chan midi.DeviceEvent
	Messages() <-chan midi.Message
	Connected() string
}

type Model struct {
	Synth   Synth
	Devices Devices
	Theme   *theme.Theme
	Output  string // audio sink description

	stats    synth.Stats
	history  []midi.Message
	status   string
	statusOK bool
	quitting bool
}

type tickMsg time.Time

type DeviceEventMsg midi.DeviceEvent

type MIDIMsg midi.Message

func NewModel(s Synth, devices Devices, th *theme.Theme, output string) Model {
	return Model{
		Synth:   s,
		Devices: devices,
		Theme:   th,
		Output:  output,
		stats:   s.Stats(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func ListenForDevices(devices Devices) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-devices.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func ListenForMIDI(devices Devices) tea.Cmd {
	return func() tea.Msg {
		return MIDIMsg(<-devices.Messages())
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.Devices != nil {
		cmds = append(cmds, ListenForDevices(m.Devices), ListenForMIDI(m.Devices))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "+", "=":
			m.nudgeVolume(volumeStep)

		case "-", "_":
			m.nudgeVolume(-volumeStep)

		case " ", "space":
			m.releaseAll()
		}

	case tickMsg:
		m.stats = m.Synth.Stats()
		return m, tick()

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		m.statusOK = event.Type == midi.DeviceConnected
		switch event.Type {
		case midi.DeviceConnected:
			m.status = "connected " + event.ID
		case midi.DeviceDisconnected:
			m.status = "disconnected " + event.ID
		case midi.DeviceError:
			m.status = fmt.Sprintf("%s: %v", event.ID, event.Err)
		}
		debug.Log("tui", "device %s %s", event.Type, event.ID)
		return m, ListenForDevices(m.Devices)

	case MIDIMsg:
		m.history = append(m.history, midi.Message(msg))
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
		return m, ListenForMIDI(m.Devices)
	}

	return m, nil
}

// nudgeVolume sends a SetVolume through the queue like a CC would
func (m *Model) nudgeVolume(delta int) {
	level := int(math.Round(m.stats.Volume*127)) + delta
	level = max(0, min(level, 127))
	m.Synth.Send(synth.SetVolume(uint8(level)))
	m.stats.Volume = float64(level) / 127
}

// releaseAll releases every held note (panic button)
func (m *Model) releaseAll() {
	held := m.Synth.Stats().Held
	n := 0
	for p := 0; p < synth.NumPitches; p++ {
		if synth.Pressed(held, uint8(p)) {
			m.Synth.Send(synth.Release(uint8(p)))
			n++
		}
	}
	m.status = fmt.Sprintf("released %d notes", n)
	m.statusOK = true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(th.FG())
	statusStyle := lipgloss.NewStyle().Foreground(th.Warning())
	if m.statusOK {
		statusStyle = statusStyle.Foreground(th.Success())
	}

	port := "no input"
	if m.Devices != nil {
		if name := m.Devices.Connected(); name != "" {
			port = name
		}
	}

	header := headerStyle.Render(fmt.Sprintf("tonebox  %s  %d Hz  %s", port, m.Synth.SampleRate(), m.Output))

	style := widgets.KeyStyle{
		Idle:          th.RGB(theme.RoleSurface),
		Held:          th.RGB(theme.RoleActive),
		Releasing:     th.RGB(theme.RoleFG),
		IdleRune:      th.Symbols.KeyIdle,
		HeldRune:      th.Symbols.KeyHeld,
		ReleasingRune: th.Symbols.KeyReleasing,
	}
	keys := widgets.RenderKeyboard(m.stats.Held, m.stats.Sounding, 1, 7, style)

	vol := widgets.RenderMeter(m.stats.Volume, 24, th.Symbols.MeterFull, th.Symbols.MeterEmpty, th.RGB(theme.RoleAccent))
	level := widgets.RenderMeter(m.stats.Peak, 24, th.Symbols.MeterFull, th.Symbols.MeterEmpty, th.RGB(theme.RoleSuccess))

	held := strings.Join(widgets.HeldNames(m.stats.Held), " ")
	if held == "" {
		held = "-"
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(keys)
	out.WriteString("\n\n")
	fmt.Fprintf(&out, "volume %s %3d%%\n", vol, int(math.Round(m.stats.Volume*100)))
	fmt.Fprintf(&out, "level  %s  voices %d\n", level, m.stats.Voices)
	fmt.Fprintf(&out, "held   %s\n\n", fgStyle.Render(held))

	for _, msg := range m.history {
		out.WriteString(dimStyle.Render(msg.String()))
		out.WriteString("\n")
	}

	if m.status != "" {
		out.WriteString(statusStyle.Render(m.status))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp(keyHelp, th.RGB(theme.RoleFG)))

	return out.String()
}
