package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	gomidi "gitlab.com/gomidi/midi/v2"

	"tonebox/midi"
	"tonebox/synth"
)

// discardSink drops events; the monitor prints them from Messages
type discardSink struct{}

func (discardSink) Send(synth.Event) {}

func main() {
	var channel int
	var verbose bool
	pflag.IntVarP(&channel, "channel", "c", midi.Omni, "MIDI channel 0-15, -1 for all")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "dump every raw message")
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 1 {
		usage()
		return
	}

	var err error
	switch args[0] {
	case "list":
		err = listPorts()
	case "monitor":
		want := ""
		if len(args) > 1 {
			want = args[1]
		}
		err = monitor(want, midi.Decoder{Channel: channel}, verbose)
	case "send":
		sendTest()
	default:
		usage()
	}
	midi.CloseDriver()

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List all MIDI input ports")
	fmt.Println("  monitor [port]  - Print decoded note events from a port")
	fmt.Println("  send            - Decode a few built-in messages")
	fmt.Println("")
	pflag.PrintDefaults()
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.ListInPorts(3 * time.Second)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, name := range midi.PortNames(ports) {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func monitor(want string, decoder midi.Decoder, verbose bool) error {
	in, err := midi.FindInPort(want)
	if err != nil {
		return err
	}

	src := midi.NewSource(in.String(), decoder, discardSink{}, nil)
	if err := src.Open(in); err != nil {
		return err
	}
	defer src.Close()

	fmt.Printf("Connection open, reading input from '%s'... (Ctrl+C to quit)\n", in.String())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	printMessages(os.Stdout, src.Messages(), sig, verbose)
	return nil
}

// printMessages writes one line per message until stop fires
func printMessages(w io.Writer, msgs <-chan midi.Message, stop <-chan os.Signal, verbose bool) {
	for {
		select {
		case <-stop:
			return
		case msg := <-msgs:
			fmt.Fprintln(w, msg)
			if verbose {
				spew.Fdump(w, msg)
			}
		}
	}
}

// sendTest runs the decoder over messages built with gomidi
func sendTest() {
	decoder := midi.Decoder{Channel: 0}
	for _, msg := range []gomidi.Message{
		gomidi.NoteOn(0, 69, 100),
		gomidi.NoteOn(0, 69, 0),
		gomidi.NoteOff(0, 60),
		gomidi.ControlChange(0, 7, 64),
		gomidi.Pitchbend(0, 100),
	} {
		ev, ok := decoder.Decode(msg.Bytes())
		if !ok {
			fmt.Printf("%-24s ignored\n", msg)
			continue
		}
		fmt.Printf("%-24s %s\n", msg, ev)
	}
}
