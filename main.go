package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"tonebox/audio"
	"tonebox/config"
	"tonebox/debug"
	"tonebox/midi"
	"tonebox/synth"
	"tonebox/theme"
	"tonebox/tui"
)

type options struct {
	configPath string
	list       bool
	headless   bool
	noTUI      bool
	debug      bool
	save       bool

	// overrides, applied only when the flag was given
	port        string
	rate        int
	channels    int
	format      string
	bufferMs    int
	fadeIn      float64
	fadeOut     float64
	volume      float64
	midiChannel int
	palette     string
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("tonebox", pflag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "config file (default ~/.config/tonebox/config.json)")
	fs.BoolVarP(&o.list, "list", "l", false, "list MIDI input ports and exit")
	fs.BoolVar(&o.headless, "headless", false, "no audio device; render on a timer")
	fs.BoolVar(&o.noTUI, "no-tui", false, "plain log output instead of the terminal UI")
	fs.BoolVar(&o.debug, "debug", false, "write a debug log to ~/.config/tonebox/debug.log")
	fs.BoolVar(&o.save, "save", false, "write the effective config back to the config file")

	fs.StringVarP(&o.port, "port", "p", "", "MIDI input port: index or name substring")
	fs.IntVar(&o.rate, "rate", 0, "sample rate in Hz")
	fs.IntVar(&o.channels, "channels", 0, "output channels")
	fs.StringVar(&o.format, "format", "", "sample format: f32, s16 or u8")
	fs.IntVar(&o.bufferMs, "buffer", 0, "output buffer in milliseconds")
	fs.Float64Var(&o.fadeIn, "fade-in", 0, "attack time in seconds")
	fs.Float64Var(&o.fadeOut, "fade-out", 0, "release time in seconds")
	fs.Float64Var(&o.volume, "volume", 0, "starting volume 0-1")
	fs.IntVar(&o.midiChannel, "midi-channel", 0, "MIDI channel 0-15, -1 for all")
	fs.StringVar(&o.palette, "palette", "", "GIMP .gpl palette for the UI")
	return fs
}

func parseFlags(args []string) (*options, *pflag.FlagSet, error) {
	o := &options{}
	fs := newFlagSet(o)
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return o, fs, nil
}

// applyFlags copies explicitly set flags over the loaded config
func applyFlags(cfg *config.Config, o *options, fs *pflag.FlagSet) {
	if fs.Changed("port") {
		cfg.Port = o.port
	}
	if fs.Changed("rate") {
		cfg.SampleRate = o.rate
	}
	if fs.Changed("channels") {
		cfg.Channels = o.channels
	}
	if fs.Changed("format") {
		cfg.Format = o.format
	}
	if fs.Changed("buffer") {
		cfg.BufferMs = o.bufferMs
	}
	if fs.Changed("fade-in") {
		cfg.FadeIn = o.fadeIn
	}
	if fs.Changed("fade-out") {
		cfg.FadeOut = o.fadeOut
	}
	if fs.Changed("volume") {
		cfg.Volume = o.volume
	}
	if fs.Changed("midi-channel") {
		cfg.MIDIChannel = o.midiChannel
	}
	if fs.Changed("palette") {
		cfg.Palette = o.palette
	}
}

func loadConfig(o *options, fs *pflag.FlagSet) (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, "", err
	}
	applyFlags(cfg, o, fs)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	o, fs, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}

	if err := run(o, fs); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(o *options, fs *pflag.FlagSet) error {
	cfg, path, err := loadConfig(o, fs)
	if err != nil {
		return err
	}

	if o.debug {
		if err := debug.Enable(""); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}
	defer midi.CloseDriver()

	if o.list {
		return listPorts()
	}

	if o.save {
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("Saved %s\n", path)
	}

	palette := theme.Default()
	if cfg.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.Palette); err != nil {
			return err
		}
	}

	format, err := audio.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	audioOpts := audio.Options{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Format:     format,
		BufferSize: time.Duration(cfg.BufferMs) * time.Millisecond,
	}

	s := synth.New(cfg.EngineConfig(), cfg.SampleRate)
	s.SetMasterVolume(cfg.Volume)

	useTUI := !o.noTUI && isatty.IsTerminal(os.Stdout.Fd())
	if !useTUI && !o.debug {
		// console mode: the log is the UI
		debug.EnableWriter(os.Stdout)
		defer debug.Disable()
	}

	devices := midi.NewDeviceManager(cfg.Port, midi.Decoder{Channel: cfg.MIDIChannel}, s)
	if err := devices.Connect(); err != nil {
		return connectError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	// runs before midi.CloseDriver: the poll loop must be gone first
	defer goRun(ctx, stop, devices.Run)()

	output := fmt.Sprintf("%dch %s", cfg.Channels, format)
	if o.headless {
		clock := audio.NewClock(audioOpts, s)
		go clock.Run(ctx)
		output += " (headless)"
	} else {
		player, err := audio.NewPlayer(audioOpts, s)
		if err != nil {
			return err
		}
		defer player.Close()
		player.Start()
	}

	if !useTUI {
		return consoleLoop(ctx, devices)
	}

	m := tui.NewModel(s, devices, theme.New(palette), output)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// goRun starts fn in a goroutine. The returned func cancels fn's context and
// waits for fn to return.
func goRun(ctx context.Context, cancel context.CancelFunc, fn func(context.Context)) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func connectError(err error) error {
	if midi.IsNoPort(err) {
		return fmt.Errorf("unable to connect to midi port: %w (see --list)", err)
	}
	return fmt.Errorf("unable to connect to midi port: %w", err)
}

// consoleLoop drains UI channels until interrupted; the debug log prints them
func consoleLoop(ctx context.Context, devices *midi.DeviceManager) error {
	fmt.Printf("Connection open, reading input from '%s'... (Ctrl+C to quit)\n", devices.Connected())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-devices.Events():
			if !ok {
				return nil
			}
			fmt.Printf("port %s: %s\n", ev.Type, ev.ID)
		case <-devices.Messages():
		}
	}
}

func listPorts() error {
	ports, err := midi.ListInPorts(3 * time.Second)
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		return midi.ErrNoInputPort
	}
	fmt.Println("Available input ports:")
	for i, name := range midi.PortNames(ports) {
		fmt.Printf("%d: %s\n", i, name)
	}
	return nil
}
