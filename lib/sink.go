package lib

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SteeringCommand is the pipeline output for one frame
type SteeringCommand struct {
	Steering  float64
	Timestamp time.Time // Capture time of the frame
}

// FormatLine renders "<group>;<timestamp-microseconds>;<steering>".
func FormatLine(group string, cmd SteeringCommand) string {
	return group + ";" +
		strconv.FormatInt(cmd.Timestamp.UnixMicro(), 10) + ";" +
		strconv.FormatFloat(cmd.Steering, 'g', -1, 64)
}

// Sink consumes steering commands
type Sink interface {
	Emit(cmd SteeringCommand) error
}

// WriterSink writes one line per command to an io.Writer
type WriterSink struct {
	Group string
	mu    sync.Mutex
	w     io.Writer
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer, group string) *WriterSink {
	return &WriterSink{Group: group, w: w}
}

func (s *WriterSink) Emit(cmd SteeringCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, FormatLine(s.Group, cmd))
	return err
}

// UDPSink sends each line as a datagram
type UDPSink struct {
	Group string
	conn  *net.UDPConn
}

// NewUDPSink creates a UDP sender for the given address
func NewUDPSink(addr, group string) (*UDPSink, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &UDPSink{Group: group, conn: conn}, nil
}

func (s *UDPSink) Emit(cmd SteeringCommand) error {
	_, err := s.conn.Write([]byte(FormatLine(s.Group, cmd)))
	return err
}

// Close releases the UDP socket
func (s *UDPSink) Close() error {
	return s.conn.Close()
}

// SerialSink forwards steering lines to a motor controller on a serial port
type SerialSink struct {
	Group    string
	port     io.WriteCloser
	portName string
	baudRate int
}

// NewSerialSink creates an unconnected serial sink
func NewSerialSink(portName string, baudRate int, group string) *SerialSink {
	return &SerialSink{
		Group:    group,
		portName: portName,
		baudRate: baudRate,
	}
}

// Connect opens the serial port
func (s *SerialSink) Connect() error {
	mode := &serial.Mode{
		BaudRate: s.baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(s.portName, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	s.port = port
	return nil
}

func (s *SerialSink) Emit(cmd SteeringCommand) error {
	if s.port == nil {
		return errors.New("serial sink not connected")
	}
	_, err := io.WriteString(s.port, FormatLine(s.Group, cmd)+"\n")
	return err
}

func (s *SerialSink) Close() error {
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}

// MultiSink fans a command out to every sink. All sinks are tried; the
// errors are joined.
type MultiSink []Sink

func (m MultiSink) Emit(cmd SteeringCommand) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
