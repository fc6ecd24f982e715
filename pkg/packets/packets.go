// Package packets frames SUPLA data packets over a byte stream.
//
// Every packet is a proto.DataPacket envelope: start tag, version, packet
// number, call id, payload size, payload, end tag. The Stream validates
// the envelope on receive and numbers outgoing packets on send.
package packets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/supla-lite/suplad/pkg/encoding"
	"github.com/supla-lite/suplad/pkg/proto"
)

var (
	ErrStartTag = errors.New("invalid data received; incorrect start tag")
	ErrEndTag   = errors.New("invalid data received; incorrect end tag")
	ErrHeader   = errors.New("failed to decode header")
	ErrVersion  = errors.New("proto version not supported")
)

// headerSize covers the start tag through the payload size field.
const headerSize = 5 + 1 + 4 + 4 + 4

// Packet is one received call with its raw payload. Version carries the
// sender's protocol version so the server can adapt replies per peer.
type Packet struct {
	Version uint8
	CallID  proto.Call
	Data    []byte
}

// Stream frames packets over a net.Conn. Send is safe for concurrent use;
// Recv must be called from a single goroutine.
type Stream struct {
	conn       net.Conn
	r          *bufio.Reader
	minVersion uint8

	sendMu       sync.Mutex
	packetNumber uint32
}

// StreamOption customizes a Stream.
type StreamOption func(*Stream)

// WithMinVersion lowers or raises the minimum accepted protocol version.
func WithMinVersion(v uint8) StreamOption {
	return func(s *Stream) { s.minVersion = v }
}

// NewStream wraps a connection in a packet stream.
func NewStream(conn net.Conn, opts ...StreamOption) *Stream {
	s := &Stream{
		conn:       conn,
		r:          bufio.NewReader(conn),
		minVersion: proto.VersionMin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recv reads and validates the next packet. A clean remote close is
// reported as io.EOF.
func (s *Stream) Recv() (Packet, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(s.r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return Packet{}, io.EOF
		}
		return Packet{}, err
	}

	if string(header[:5]) != proto.Tag {
		return Packet{}, ErrStartTag
	}

	// tag, version, packet number, call id, payload size
	values, _, err := encoding.UnmarshalPartial(header, &proto.DataPacket{}, 5)
	if err != nil {
		return Packet{}, fmt.Errorf("%w: %v", ErrHeader, err)
	}
	version := values[1].(uint8)
	callID := values[3].(proto.Call)
	size := values[4].(int)

	if version < s.minVersion || version > proto.Version {
		return Packet{}, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	rest := make([]byte, size+len(proto.Tag))
	if _, err := io.ReadFull(s.r, rest); err != nil {
		if errors.Is(err, io.EOF) {
			return Packet{}, io.ErrUnexpectedEOF
		}
		return Packet{}, err
	}
	if string(rest[size:]) != proto.Tag {
		return Packet{}, ErrEndTag
	}

	return Packet{Version: version, CallID: callID, Data: rest[:size]}, nil
}

// Send frames and writes a single call with the given payload.
func (s *Stream) Send(callID proto.Call, data []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.packetNumber++
	packet := proto.NewDataPacket(proto.Version, s.packetNumber, callID, data)
	frame, err := encoding.Marshal(packet)
	if err != nil {
		return err
	}
	_, err = s.conn.Write(frame)
	return err
}

// SetReadDeadline bounds the next Recv.
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// Close closes the underlying connection. A blocked Recv returns
// immediately with an error.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// RemoteAddr reports the peer address.
func (s *Stream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}
