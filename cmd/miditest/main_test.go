package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"tonebox/midi"
	"tonebox/synth"
)

func TestPrintMessagesOnceEach(t *testing.T) {
	msgs := make(chan midi.Message, 2)
	stop := make(chan os.Signal, 1)

	msgs <- midi.Message{Timestamp: 1, Raw: []byte{0x90, 60, 100}, Event: synth.Press(60)}
	msgs <- midi.Message{Timestamp: 2, Raw: []byte{0x80, 60, 0}, Event: synth.Release(60)}

	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		printMessages(&out, msgs, stop, false)
		close(done)
	}()
	for len(msgs) > 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	stop <- os.Interrupt
	<-done

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if strings.Count(out.String(), "press 60") != 1 {
		t.Fatalf("press printed more than once:\n%s", out.String())
	}
}
