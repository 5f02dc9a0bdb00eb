package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Session with a Meshtastic node over its native framed
 *		stream protocol, via a local serial device or TCP.
 *
 * Description:	Every frame on the wire is the two start bytes 0x94
 *		0xC3, a big-endian 16 bit payload length, then a
 *		protobuf-encoded ToRadio (host to node) or FromRadio
 *		(node to host) message.  Only three fields of the
 *		ToRadio tree are needed to post a text message, so they
 *		are encoded with small varint helpers here instead of
 *		carrying generated protobuf code.
 *
 *		Serial nodes sleep their serial console; a run of 0xC3
 *		bytes wakes it before the first frame.  The node then
 *		streams config and packet traffic at us, which is read
 *		and discarded so its buffers never fill.
 *
 *----------------------------------------------------------------*/

import (
	"encoding/binary"
	"io"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/term"
)

const (
	frameStart1 = 0x94
	frameStart2 = 0xc3

	meshBroadcastAddr = 0xffffffff
	portTextMessage   = 1 // TEXT_MESSAGE_APP

	meshSerialBaud  = 115200
	meshDefaultPort = "4403"
	wakeBytes       = 32

	tcpDialTimeout = 5 * time.Second
)

// ToRadio / MeshPacket / Data field numbers from the Meshtastic
// protobuf definitions.
const (
	toRadioPacketField   = 1
	toRadioWantConfigID  = 3
	meshPacketToField    = 2
	meshPacketChannel    = 3
	meshPacketDecoded    = 4
	meshPacketIDField    = 6
	meshPacketWantAck    = 10
	dataPortnumField     = 1
	dataPayloadField     = 2
)

type meshConn struct {
	mu sync.Mutex
	rw io.ReadWriteCloser
}

// DialMesh opens the configured transport and performs the stream
// handshake.  Exactly one of the serial and TCP transports is set;
// Validate enforced that at startup.
func DialMesh(cfg *Config) (Conn, error) {
	if cfg.SerialPort != "" {
		return dialSerial(cfg.SerialPort)
	}
	return dialTCP(cfg.TCPHost)
}

func dialSerial(device string) (Conn, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, &TransportError{Op: "open " + device, Err: err}
	}
	t.SetSpeed(meshSerialBaud)

	// Wake the node's serial console before the first frame.
	var wake = make([]byte, wakeBytes)
	for i := range wake {
		wake[i] = frameStart2
	}
	if _, err := t.Write(wake); err != nil {
		t.Close()
		return nil, &TransportError{Op: "wake " + device, Err: err}
	}

	logger.Info("Connected to device via serial port", "device", device)
	return newMeshConn(t)
}

func dialTCP(host string) (Conn, error) {
	if !strings.Contains(host, ":") {
		host = net.JoinHostPort(host, meshDefaultPort)
	}

	c, err := net.DialTimeout("tcp", host, tcpDialTimeout)
	if err != nil {
		return nil, &TransportError{Op: "dial " + host, Err: err}
	}

	logger.Info("Connected to device via TCP", "host", host)
	return newMeshConn(c)
}

func newMeshConn(rw io.ReadWriteCloser) (Conn, error) {
	var m = &meshConn{rw: rw}

	// Ask for the config dump; the node will not route packets from
	// a client that never configured.
	var tr []byte
	tr = appendVarintField(tr, toRadioWantConfigID, uint64(rand.Uint32()))
	if err := m.writeFrame(tr); err != nil {
		rw.Close()
		return nil, err
	}

	// Drain node-to-host traffic.  Nothing in it is needed; exits
	// when the session closes.
	go func() {
		io.Copy(io.Discard, rw) //nolint:errcheck
	}()

	return m, nil
}

// SendText posts one broadcast text message on the given channel.
// MeshPacket.to and MeshPacket.id are fixed32 in mesh.proto; a node
// rejects the whole ToRadio if they arrive as varints.
func (m *meshConn) SendText(text string, channel int) error {
	var data []byte
	data = appendVarintField(data, dataPortnumField, portTextMessage)
	data = appendBytesField(data, dataPayloadField, []byte(text))

	var packet []byte
	packet = appendFixed32Field(packet, meshPacketToField, meshBroadcastAddr)
	packet = appendVarintField(packet, meshPacketChannel, uint64(channel))
	packet = appendBytesField(packet, meshPacketDecoded, data)
	packet = appendFixed32Field(packet, meshPacketIDField, rand.Uint32())
	packet = appendVarintField(packet, meshPacketWantAck, 1)

	var tr []byte
	tr = appendBytesField(tr, toRadioPacketField, packet)

	return m.writeFrame(tr)
}

func (m *meshConn) writeFrame(payload []byte) error {
	var frame = make([]byte, 4, 4+len(payload))
	frame[0] = frameStart1
	frame[1] = frameStart2
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(payload)))
	frame = append(frame, payload...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.rw.Write(frame); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (m *meshConn) Close() error {
	return m.rw.Close()
}

/* Minimal protobuf wire encoding: varint, fixed32, length-delimited. */

func appendUvarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendVarintField(b []byte, field int, v uint64) []byte {
	b = appendUvarint(b, uint64(field)<<3)
	return appendUvarint(b, v)
}

func appendFixed32Field(b []byte, field int, v uint32) []byte {
	b = appendUvarint(b, uint64(field)<<3|5)
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendBytesField(b []byte, field int, p []byte) []byte {
	b = appendUvarint(b, uint64(field)<<3|2)
	b = appendUvarint(b, uint64(len(p)))
	return append(b, p...)
}
