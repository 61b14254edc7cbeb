package midi

import (
	"context"
	"errors"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"

	"tonebox/debug"
)

// DeviceEvent is emitted when the input port connects/disconnects
type DeviceEvent struct {
	Type DeviceEventType
	ID   string
	Err  error
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
	DeviceError
)

func (t DeviceEventType) String() string {
	switch t {
	case DeviceConnected:
		return "connected"
	case DeviceDisconnected:
		return "disconnected"
	case DeviceError:
		return "error"
	}
	return "unknown"
}

// portLister is swapped out in tests
type portLister func(timeout time.Duration) ([]drivers.In, error)

// DeviceManager keeps one input port connected to the sink, picking it up
// again when it is unplugged and plugged back in.
type DeviceManager struct {
	want     string
	decoder  Decoder
	sink     Sink
	list     portLister
	open     func(s *Source, in drivers.In) error
	pollRate time.Duration

	mu     sync.RWMutex
	source *Source

	events   chan DeviceEvent
	messages chan Message
}

// NewDeviceManager creates a manager for the port matching want (see SelectPort)
func NewDeviceManager(want string, decoder Decoder, sink Sink) *DeviceManager {
	return &DeviceManager{
		want:     want,
		decoder:  decoder,
		sink:     sink,
		list:     ListInPorts,
		open:     (*Source).Open,
		pollRate: time.Second,
		events:   make(chan DeviceEvent, 16),
		messages: make(chan Message, 64),
	}
}

// Events returns a channel of connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Messages returns decoded MIDI messages from whichever port is connected
func (dm *DeviceManager) Messages() <-chan Message {
	return dm.messages
}

// Connected returns the current port name, or "" when none is open
func (dm *DeviceManager) Connected() string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if dm.source == nil {
		return ""
	}
	return dm.source.ID()
}

// Connect does a single scan and reports whether a port is open. Use it at
// startup to fail fast when no port exists.
func (dm *DeviceManager) Connect() error {
	return dm.scan()
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	if dm.Connected() == "" {
		dm.scan()
	}

	for {
		select {
		case <-ctx.Done():
			dm.closeSource()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() error {
	ports, err := dm.list(listTimeout)
	if err != nil {
		// listing hung, keep whatever is open
		debug.Log("port", "scan: %v", err)
		return err
	}
	names := PortNames(ports)

	current := dm.Connected()
	if current != "" {
		for _, name := range names {
			if name == current {
				return nil
			}
		}
		debug.Log("port", "%s went away", current)
		dm.closeSource()
		dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: current})
	}

	i, err := SelectPort(names, dm.want)
	if err != nil {
		return err
	}

	src := NewSource(names[i], dm.decoder, dm.sink, dm.messages)
	if err := dm.open(src, ports[i]); err != nil {
		debug.Log("port", "open %s: %v", names[i], err)
		dm.emit(DeviceEvent{Type: DeviceError, ID: names[i], Err: err})
		return err
	}

	dm.mu.Lock()
	dm.source = src
	dm.mu.Unlock()

	debug.Log("port", "connected %s", names[i])
	dm.emit(DeviceEvent{Type: DeviceConnected, ID: names[i]})
	return nil
}

// emit never blocks the poll loop
func (dm *DeviceManager) emit(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
		debug.Log("port", "dropped device event %s %s", ev.Type, ev.ID)
	}
}

func (dm *DeviceManager) closeSource() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.source != nil {
		dm.source.Close()
		dm.source = nil
	}
}

// Close disconnects without waiting for Run to exit
func (dm *DeviceManager) Close() error {
	dm.closeSource()
	return nil
}

// IsNoPort reports whether err means no usable port exists
func IsNoPort(err error) bool {
	return errors.Is(err, ErrNoInputPort) || errors.Is(err, ErrPortNotFound)
}
