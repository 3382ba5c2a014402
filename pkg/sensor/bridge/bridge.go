// Package bridge talks to an illuminance sensor attached to a microcontroller
// running the serial sensor bridge firmware.
package bridge

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/golightmeter/pkg/sensor"
)

const (
	// DefaultBaudRate matches the bridge firmware UART configuration.
	DefaultBaudRate = 115200
	// DefaultTimeout bounds a single request/reply exchange. It exceeds the
	// slowest BH1750 conversion (180 ms) with headroom for the link.
	DefaultTimeout = time.Second
)

// Port is the minimal serial port surface the bridge needs.
type Port interface {
	io.ReadWriter
	io.Closer
}

// PortInfo describes an available serial port.
type PortInfo struct {
	Name        string
	Description string
}

// Sensor is a sensor.Sensor backed by the serial bridge.
type Sensor struct {
	port     string
	baudRate int
	timeout  time.Duration

	mu        sync.Mutex
	conn      Port
	rd        *bufio.Reader
	connected bool
}

// Ensure Sensor implements sensor.Sensor.
var _ sensor.Sensor = (*Sensor)(nil)

// New creates a bridge sensor on the given port. Zero values select defaults.
func New(port string, baudRate int, timeout time.Duration) *Sensor {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Sensor{
		port:     port,
		baudRate: baudRate,
		timeout:  timeout,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]PortInfo, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]PortInfo, 0, len(ports))
	for _, name := range ports {
		result = append(result, PortInfo{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port.
func (s *Sensor) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}
	if err := port.SetReadTimeout(s.timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", s.port, err)
	}

	s.attach(port)
	return nil
}

// attach uses conn as the link. Callers hold s.mu.
func (s *Sensor) attach(conn Port) {
	s.conn = conn
	s.rd = bufio.NewReader(conn)
	s.connected = true
}

// Close closes the serial port.
func (s *Sensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.connected = false
	s.rd = nil
	conn := s.conn
	s.conn = nil
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", s.port, err)
	}
	return nil
}

// IsConnected returns whether the port is open.
func (s *Sensor) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Configure selects the sensor mode on the bridge.
func (s *Sensor) Configure(mode sensor.Mode) error {
	if mode > sensor.ContinuousLowRes {
		return sensor.ErrInvalidMode
	}

	reply, err := s.exchange(sensor.CommandFor(mode))
	if err != nil {
		return err
	}
	if reply != sensor.ReplyOK {
		return fmt.Errorf("unexpected reply to mode change: %q", reply)
	}
	return nil
}

// Read requests one conversion and blocks until the bridge replies.
func (s *Sensor) Read() (sensor.Reading, error) {
	reply, err := s.exchange(sensor.CmdRead)
	if err != nil {
		return sensor.Reading{}, err
	}
	return sensor.ParseReading(reply)
}

// exchange sends a single command line and returns the trimmed reply line.
func (s *Sensor) exchange(cmd byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return "", sensor.ErrNotConnected
	}

	if _, err := s.conn.Write([]byte{cmd, '\n'}); err != nil {
		return "", fmt.Errorf("failed to send command %q: %w", cmd, err)
	}

	line, err := s.rd.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read reply to %q: %w", cmd, err)
	}
	return strings.TrimSpace(line), nil
}
