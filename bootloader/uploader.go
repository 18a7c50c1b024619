package bootloader

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-maestro-flash/protocol"
)

// eraseReadSize bounds the single read that collects the erase acknowledgement.
const eraseReadSize = 64

// Transport is the byte stream to a device in bootloader mode.
//
// Read blocks until data arrives or the transport's read timeout expires; a timeout
// is reported as (0, nil). Flush blocks until all previously written bytes have
// left the host. ReadAvailable returns whatever is already buffered without blocking.
type Transport interface {
	io.ReadWriter
	Flush() error
	ReadAvailable() ([]byte, error)
}

// Uploader drives the bootloader upload sequence: handshake, erase, transfer and
// finalize, strictly in that order on one transport.
//
// The protocol is not reentrant. Flash calls on one Uploader are serialized, and
// no other code may use the transport while Flash runs.
type Uploader struct {
	transport Transport
	config    Config
	mu        sync.Mutex
}

// Result describes a completed upload.
type Result struct {
	// SessionID identifies the upload in logs
	SessionID string

	// BytesSent is the number of image bytes written
	BytesSent int

	// Chunks is the number of transfer writes
	Chunks int

	// MarkerReceived is false when the completion marker was not seen
	MarkerReceived bool

	// Warnings lists non-fatal problems, such as ErrMarkerMissing
	Warnings []error

	// Elapsed is the wall time of the whole sequence, settle delays included
	Elapsed time.Duration
}

// New creates an Uploader over the given transport.
// The caller keeps ownership of the transport and must close it.
//
// Example:
//
//	port, err := serialport.Open(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	up := bootloader.New(port, bootloader.WithProgressCallback(progressFunc))
//	res, err := up.Flash(image)
func New(transport Transport, opts ...Option) *Uploader {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Uploader{
		transport: transport,
		config:    cfg,
	}
}

// Flash is a shorthand for New(transport, opts...).Flash(image).
func Flash(transport Transport, image []byte, opts ...Option) (*Result, error) {
	return New(transport, opts...).Flash(image)
}

// Flash uploads image to the bootloader:
//  1. Handshake: send "fwbootload", expect "FWBOOTLOAD"
//  2. Erase: send 's', expect 'S'
//  3. Transfer: flush, then write each chunk of at most 1000 bytes
//  4. Finalize: settle, look for '|', send '*', settle
//
// Handshake, erase and I/O failures abort the sequence and are returned as
// *HandshakeError, *EraseError, *TransferError or *FinalizeError. A missing
// completion marker only adds ErrMarkerMissing to Result.Warnings.
//
// Nothing is retried, and once started the sequence cannot be cancelled.
// The image is not modified.
func (u *Uploader) Flash(image []byte) (*Result, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := newSession(len(image))
	u.logInfo("starting upload",
		"session", s.id.String(),
		"bytes", s.total,
		"chunks", protocol.ChunkCount(s.total, protocol.ChunkSize),
	)

	if err := u.handshake(s); err != nil {
		return nil, u.abort(s, err)
	}

	if err := u.erase(s); err != nil {
		return nil, u.abort(s, err)
	}

	chunks, err := u.transfer(s, image)
	if err != nil {
		return nil, u.abort(s, err)
	}

	received, warnings, err := u.finalize(s)
	if err != nil {
		return nil, u.abort(s, err)
	}

	u.enter(s, PhaseDone)

	result := &Result{
		SessionID:      s.id.String(),
		BytesSent:      s.cursor,
		Chunks:         chunks,
		MarkerReceived: received,
		Warnings:       warnings,
		Elapsed:        s.elapsed(),
	}

	u.logInfo("upload complete",
		"session", result.SessionID,
		"bytes", result.BytesSent,
		"chunks", result.Chunks,
		"marker", result.MarkerReceived,
		"elapsed", result.Elapsed.String(),
	)

	return result, nil
}

// handshake confirms the peer is a Maestro bootloader.
func (u *Uploader) handshake(s *session) error {
	u.enter(s, PhaseHandshaking)

	expected := protocol.HandshakeResponse()
	if err := u.write(protocol.BuildHandshakeCmd()); err != nil {
		return &HandshakeError{Expected: expected, Err: fmt.Errorf("write: %w", err)}
	}

	resp, err := u.readExactly(protocol.HandshakeLength)
	if err != nil {
		return &HandshakeError{Expected: expected, Actual: resp, Err: fmt.Errorf("read: %w", err)}
	}

	if !protocol.IsHandshakeResponse(resp) {
		return &HandshakeError{Expected: expected, Actual: resp}
	}

	u.logDebug("handshake accepted", "session", s.id.String(), "response", string(resp))
	return nil
}

// erase wipes the application flash. The device answers once erase is done.
func (u *Uploader) erase(s *session) error {
	u.enter(s, PhaseErasing)

	if err := u.write(protocol.BuildEraseCmd()); err != nil {
		return &EraseError{Err: fmt.Errorf("write: %w", err)}
	}

	buf := make([]byte, eraseReadSize)
	n, err := u.transport.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return &EraseError{Actual: buf[:n], Err: fmt.Errorf("read: %w", err)}
	}

	if !protocol.IsEraseAck(buf[:n]) {
		return &EraseError{Actual: buf[:n]}
	}

	u.logDebug("erase acknowledged", "session", s.id.String())
	return nil
}

// transfer writes the image in chunks. Every write is preceded by a flush; the
// device does not acknowledge chunks.
func (u *Uploader) transfer(s *session, image []byte) (int, error) {
	u.enter(s, PhaseTransferring)

	chunks := protocol.PlanChunks(image, protocol.ChunkSize)
	for i, chunk := range chunks {
		if err := u.transport.Flush(); err != nil {
			return i, &TransferError{Offset: chunk.Offset, Total: s.total, Err: fmt.Errorf("flush: %w", err)}
		}

		if err := u.write(chunk.Data); err != nil {
			return i, &TransferError{Offset: chunk.Offset, Total: s.total, Err: fmt.Errorf("write: %w", err)}
		}

		s.advance(len(chunk.Data))

		u.reportProgress(Progress{
			Phase:       PhaseTransferring,
			Chunk:       i + 1,
			TotalChunks: len(chunks),
			BytesSent:   s.cursor,
			TotalBytes:  s.total,
			Percentage:  s.percentage(),
			ElapsedTime: s.elapsed(),
		})
	}

	return len(chunks), nil
}

// finalize checks for the completion marker and resets the device.
// A missing marker is returned as a warning, not an error.
func (u *Uploader) finalize(s *session) (bool, []error, error) {
	u.enter(s, PhaseFinalizing)
	u.settle()

	var warnings []error
	received, err := u.awaitCompletionMarker()
	if !received {
		warning := ErrMarkerMissing
		if err != nil {
			warning = fmt.Errorf("%w: %v", ErrMarkerMissing, err)
		}
		warnings = append(warnings, warning)
		u.logWarn("completion marker not received",
			"session", s.id.String(),
			"error", warning.Error(),
		)
	}

	if err := u.write(protocol.BuildResetCmd()); err != nil {
		return received, warnings, &FinalizeError{Err: err}
	}

	u.settle()
	return received, warnings, nil
}

// awaitCompletionMarker accepts the marker as the last buffered byte or, failing
// that, as the next byte read. I/O errors are returned only for diagnostics.
func (u *Uploader) awaitCompletionMarker() (bool, error) {
	available, availErr := u.transport.ReadAvailable()
	if availErr == nil && protocol.EndsWithCompletionMarker(available) {
		return true, nil
	}

	buf := make([]byte, 1)
	n, readErr := u.transport.Read(buf)
	if n == 1 && buf[0] == protocol.CompletionMarker {
		return true, nil
	}
	if errors.Is(readErr, io.EOF) {
		readErr = nil
	}

	return false, errors.Join(availErr, readErr)
}

// abort moves the session to PhaseAborted and logs the failed phase.
func (u *Uploader) abort(s *session, err error) error {
	failed := s.phase
	u.enter(s, PhaseAborted)

	u.logError("upload aborted",
		"session", s.id.String(),
		"phase", failed.String(),
		"offset", s.cursor,
		"error", err.Error(),
	)

	return err
}

func (u *Uploader) enter(s *session, phase Phase) {
	s.phase = phase
	u.logDebug("phase", "session", s.id.String(), "phase", phase.String())

	if u.config.PhaseCallback != nil {
		u.config.PhaseCallback(phase)
	}
}

func (u *Uploader) settle() {
	if u.config.SettleDelay > 0 {
		u.config.Sleep(u.config.SettleDelay)
	}
}

// write sends p in one call and treats a partial write as an error.
func (u *Uploader) write(p []byte) error {
	n, err := u.transport.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("%w: wrote %d of %d bytes", io.ErrShortWrite, n, len(p))
	}
	return nil
}

// readExactly reads up to n bytes. It stops early when a read returns no data,
// which is how the transport reports a timeout, or at EOF.
func (u *Uploader) readExactly(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0

	for got < n {
		m, err := u.transport.Read(buf[got:])
		got += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return buf[:got], err
		}
		if m == 0 {
			break
		}
	}

	return buf[:got], nil
}

// reportProgress calls the progress callback if configured.
func (u *Uploader) reportProgress(progress Progress) {
	if u.config.ProgressCallback != nil {
		u.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (u *Uploader) logDebug(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (u *Uploader) logInfo(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if a logger is configured.
func (u *Uploader) logWarn(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (u *Uploader) logError(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Error(msg, keysAndValues...)
	}
}
