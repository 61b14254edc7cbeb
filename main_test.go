package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"tonebox/config"
	"tonebox/midi"
)

func TestApplyFlagsOnlyChanged(t *testing.T) {
	o, fs, err := parseFlags([]string{"--fade-out", "1.5", "-p", "keystep", "--midi-channel=-1"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	applyFlags(cfg, o, fs)

	if cfg.FadeOut != 1.5 || cfg.Port != "keystep" || cfg.MIDIChannel != -1 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	// untouched flags keep config values even though their zero value differs
	if cfg.SampleRate != 44100 || cfg.FadeIn != 0.05 || cfg.Volume != 0.5 {
		t.Fatalf("defaults overwritten: %+v", cfg)
	}
}

func TestParseFlagsHelp(t *testing.T) {
	_, fs, err := parseFlags([]string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Fatalf("err = %v, want ErrHelp", err)
	}
	if fs.Lookup("fade-in") == nil {
		t.Fatal("fade-in flag missing")
	}
}

func TestLoadConfigValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"sampleRate": 22050}`), 0644); err != nil {
		t.Fatal(err)
	}

	o, fs, _ := parseFlags([]string{"--config", path, "--channels", "1"})
	cfg, got, err := loadConfig(o, fs)
	if err != nil {
		t.Fatal(err)
	}
	if got != path || cfg.SampleRate != 22050 || cfg.Channels != 1 {
		t.Fatalf("loadConfig = %q %+v", got, cfg)
	}

	o, fs, _ = parseFlags([]string{"--config", path, "--volume", "2"})
	if _, _, err := loadConfig(o, fs); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestGoRunWaitsForReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var finished atomic.Bool
	wait := goRun(ctx, cancel, func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	wait()
	if !finished.Load() {
		t.Fatal("wait returned before fn finished")
	}
}

func TestConnectErrorHint(t *testing.T) {
	err := connectError(midi.ErrPortNotFound)
	if !errors.Is(err, midi.ErrPortNotFound) || !strings.Contains(err.Error(), "--list") {
		t.Fatalf("err = %v", err)
	}
	err = connectError(midi.ErrPortTimeout)
	if strings.Contains(err.Error(), "--list") {
		t.Fatalf("timeout should not suggest --list: %v", err)
	}
}
