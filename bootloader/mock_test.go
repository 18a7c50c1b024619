package bootloader

import (
	"bytes"
	"fmt"
	"time"

	"github.com/moffa90/go-maestro-flash/protocol"
)

// MockTransport replays scripted device output and records everything written.
// Each Read consumes one scripted response; when the script is exhausted, Read
// behaves like a timed-out serial port and returns (0, nil).
type MockTransport struct {
	responses [][]byte
	respIdx   int

	available [][]byte
	availIdx  int

	writes  [][]byte
	flushes int
	events  []string

	reads        int
	readErr      error
	readErrAt    int
	availErr     error
	writeErr     error
	writeErrAt   int
	shortWriteAt int
	flushErr     error
	flushErrAt   int
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Read(p []byte) (int, error) {
	m.events = append(m.events, "read")
	m.reads++
	if m.readErr != nil && (m.readErrAt == 0 || m.readErrAt == m.reads) {
		return 0, m.readErr
	}

	if m.respIdx < len(m.responses) {
		resp := m.responses[m.respIdx]
		n := copy(p, resp)
		if n < len(resp) {
			m.responses[m.respIdx] = resp[n:]
		} else {
			m.respIdx++
		}
		return n, nil
	}

	return 0, nil
}

func (m *MockTransport) Write(p []byte) (int, error) {
	m.events = append(m.events, fmt.Sprintf("write:%d", len(p)))
	if m.writeErr != nil && (m.writeErrAt == 0 || m.writeErrAt == len(m.writes)+1) {
		return 0, m.writeErr
	}

	m.writes = append(m.writes, append([]byte(nil), p...))
	if m.shortWriteAt == len(m.writes) {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func (m *MockTransport) Flush() error {
	m.events = append(m.events, "flush")
	m.flushes++
	if m.flushErr != nil && (m.flushErrAt == 0 || m.flushErrAt == m.flushes) {
		return m.flushErr
	}
	return nil
}

func (m *MockTransport) ReadAvailable() ([]byte, error) {
	m.events = append(m.events, "available")
	if m.availErr != nil {
		return nil, m.availErr
	}
	if m.availIdx < len(m.available) {
		b := m.available[m.availIdx]
		m.availIdx++
		return b, nil
	}
	return nil, nil
}

func (m *MockTransport) AddResponse(b []byte) {
	m.responses = append(m.responses, b)
}

func (m *MockTransport) AddAvailable(b []byte) {
	m.available = append(m.available, b)
}

// countWrites returns how many writes equal p.
func (m *MockTransport) countWrites(p []byte) int {
	count := 0
	for _, w := range m.writes {
		if bytes.Equal(w, p) {
			count++
		}
	}
	return count
}

// newBootloaderMock scripts a well-behaved bootloader that ends with the marker
// as the last available byte.
func newBootloaderMock() *MockTransport {
	m := NewMockTransport()
	m.AddResponse(protocol.HandshakeResponse())
	m.AddResponse([]byte{protocol.AckErase})
	m.AddAvailable([]byte{protocol.CompletionMarker})
	return m
}

// fakeBootloader reacts to the host's writes the way the device does: it answers
// the handshake and erase, collects the image and offers the marker after data.
// It stays in bootloader mode after a reset.
type fakeBootloader struct {
	out      []byte
	marker   bool
	erased   bool
	received []byte
	resets   int
	flushes  int
}

func (f *fakeBootloader) Write(p []byte) (int, error) {
	switch {
	case string(p) == protocol.HandshakeToken:
		f.out = append(f.out, protocol.HandshakeResponse()...)
	case len(p) == 1 && p[0] == protocol.CmdErase && !f.erased:
		f.erased = true
		f.received = nil
		f.out = append(f.out, protocol.AckErase)
	case len(p) == 1 && p[0] == protocol.CmdReset && f.erased:
		f.erased = false
		f.resets++
	default:
		f.received = append(f.received, p...)
		f.marker = true
	}
	return len(p), nil
}

func (f *fakeBootloader) Read(p []byte) (int, error) {
	n := copy(p, f.out)
	f.out = f.out[n:]
	return n, nil
}

func (f *fakeBootloader) Flush() error {
	f.flushes++
	return nil
}

func (f *fakeBootloader) ReadAvailable() ([]byte, error) {
	if !f.marker {
		return nil, nil
	}
	f.marker = false
	return []byte{protocol.CompletionMarker}, nil
}

// MockLogger records messages per level.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Warn(msg string, kv ...interface{}) {
	l.warnMsgs = append(l.warnMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

// virtualClock records requested settle delays instead of sleeping.
type virtualClock struct {
	sleeps []time.Duration
}

func (c *virtualClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
}

func makeImage(n int) []byte {
	image := make([]byte, n)
	for i := range image {
		image[i] = byte(i % 251)
	}
	return image
}
