package lib

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"conesteer/internal/log"
)

var ErrMalformedReading = errors.New("malformed sensor reading")

// SensorFeed delivers proximity readings into a SensorState until ctx is
// cancelled or the underlying transport fails.
type SensorFeed interface {
	Run(ctx context.Context, state *SensorState) error
}

// ParseReading parses "<senderStamp>,<voltage>". A semicolon is accepted as
// the separator too.
func ParseReading(line string) (stamp uint32, voltage float64, err error) {
	s := strings.TrimSpace(line)
	sep := strings.IndexAny(s, ",;")
	if sep < 0 {
		return 0, 0, fmt.Errorf("%q: %w", line, ErrMalformedReading)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s[:sep]), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: sender stamp: %w", line, ErrMalformedReading)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s[sep+1:]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: voltage: %w", line, ErrMalformedReading)
	}
	return uint32(n), v, nil
}

// applyLine stores one reading if it parses and its stamp is mapped.
func applyLine(line string, mapping SensorMapping, state *SensorState) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	stamp, voltage, err := ParseReading(line)
	if err != nil {
		log.Debug("dropping sensor reading", "error", err)
		return false
	}
	side, ok := mapping.Side(stamp)
	if !ok {
		return false
	}
	state.Update(side, voltage)
	return true
}

// UDPFeed receives readings as datagrams. Multicast addresses are joined on
// the default interface.
type UDPFeed struct {
	Addr       string
	Mapping    SensorMapping
	ReadBuffer int
}

// SessionAddr returns the multicast address used for a numbered session
func SessionAddr(cid int) string {
	return fmt.Sprintf("225.0.0.%d:12175", cid)
}

// Run listens on f.Addr until ctx is cancelled
func (f *UDPFeed) Run(ctx context.Context, state *SensorState) error {
	addr, err := net.ResolveUDPAddr("udp", f.Addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", f.Addr, err)
	}
	var conn *net.UDPConn
	if addr.IP != nil && addr.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp", nil, addr)
	} else {
		conn, err = net.ListenUDP("udp", addr)
	}
	if err != nil {
		return fmt.Errorf("listen %s: %w", f.Addr, err)
	}
	log.Info("sensor feed listening", "transport", "udp", "addr", f.Addr)
	return ServePackets(ctx, conn, f.Mapping, f.ReadBuffer, state)
}

// ServePackets reads datagrams from conn until ctx is cancelled. Each
// datagram holds one or more newline separated readings. conn is closed on
// return.
func ServePackets(ctx context.Context, conn net.PacketConn, mapping SensorMapping, bufSize int, state *SensorState) error {
	if bufSize <= 0 {
		bufSize = 2048
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	buf := make([]byte, bufSize)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Debug("sensor feed read failed", "error", err)
			continue
		}
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			applyLine(line, mapping, state)
		}
	}
}

// SerialFeed reads newline delimited readings from a serial port
type SerialFeed struct {
	Port     string
	BaudRate int
	Mapping  SensorMapping
}

// Run opens the port and reads until ctx is cancelled
func (f *SerialFeed) Run(ctx context.Context, state *SensorState) error {
	mode := &serial.Mode{
		BaudRate: f.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(f.Port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", f.Port, err)
	}
	log.Info("sensor feed listening", "transport", "serial", "port", f.Port, "baud", f.BaudRate)
	return ScanReadings(ctx, port, f.Mapping, state)
}

// ScanReadings applies every line read from r until EOF or ctx is cancelled.
// r is closed on return.
func ScanReadings(ctx context.Context, r io.ReadCloser, mapping SensorMapping, state *SensorState) error {
	stop := context.AfterFunc(ctx, func() { r.Close() })
	defer stop()
	defer r.Close()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		applyLine(scanner.Text(), mapping, state)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read sensor lines: %w", err)
	}
	return nil
}
