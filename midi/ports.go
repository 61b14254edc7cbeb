package midi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	ErrNoInputPort  = errors.New("no input port found")
	ErrPortNotFound = errors.New("input port not found")
	ErrPortTimeout  = errors.New("timed out listing MIDI ports")
)

// Port listing can hang on CoreMIDI, so it runs with a timeout
const listTimeout = 3 * time.Second

// ListInPorts returns the available input ports
func ListInPorts(timeout time.Duration) ([]drivers.In, error) {
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(timeout):
		return nil, ErrPortTimeout
	}
}

// PortNames returns the display names of ports
func PortNames(ports []drivers.In) []string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

// SelectPort picks an index from names. An empty want picks the first port,
// a number picks by index, anything else is a case-insensitive substring.
func SelectPort(names []string, want string) (int, error) {
	if len(names) == 0 {
		return -1, ErrNoInputPort
	}
	want = strings.TrimSpace(want)
	if want == "" {
		return 0, nil
	}
	if i, err := strconv.Atoi(want); err == nil {
		if i < 0 || i >= len(names) {
			return -1, fmt.Errorf("%w: index %d of %d", ErrPortNotFound, i, len(names))
		}
		return i, nil
	}
	lower := strings.ToLower(want)
	for i, name := range names {
		if name == want {
			return i, nil
		}
	}
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), lower) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrPortNotFound, want)
}

// FindInPort lists ports and selects one with SelectPort
func FindInPort(want string) (drivers.In, error) {
	ports, err := ListInPorts(listTimeout)
	if err != nil {
		return nil, err
	}
	i, err := SelectPort(PortNames(ports), want)
	if err != nil {
		return nil, err
	}
	return ports[i], nil
}

// CloseDriver releases the MIDI driver. Call once on shutdown.
func CloseDriver() {
	gomidi.CloseDriver()
}
