package bootloader

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-maestro-flash/protocol"
)

// ErrMarkerMissing is reported as a warning when the device does not send the
// completion marker after the image. The upload is still considered complete.
var ErrMarkerMissing = errors.New("expected '|' not received")

// HandshakeError indicates the peer did not answer the handshake like a Maestro bootloader.
// Nothing has been erased when this error is returned.
type HandshakeError struct {
	Expected []byte
	Actual   []byte

	// Err is the underlying I/O error, if the exchange failed rather than mismatched
	Err error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed: expected %s, got %s: %v",
			protocol.FormatBytes(e.Expected), protocol.FormatBytes(e.Actual), e.Err)
	}
	return fmt.Sprintf("handshake mismatch: expected %s, got %s",
		protocol.FormatBytes(e.Expected), protocol.FormatBytes(e.Actual))
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// EraseError indicates the device did not acknowledge the erase command.
// The application flash may be partially erased.
type EraseError struct {
	Actual []byte
	Err    error
}

func (e *EraseError) Error() string {
	msg := fmt.Sprintf("erase failed: expected response %s, got %s",
		protocol.FormatBytes([]byte{protocol.AckErase}), protocol.FormatBytes(e.Actual))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EraseError) Unwrap() error {
	return e.Err
}

// TransferError indicates an I/O failure while sending the image.
// A new upload has to start again from offset 0.
type TransferError struct {
	// Offset is the image offset of the chunk that failed
	Offset int

	// Total is the image length
	Total int

	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed at offset %d of %d: %v", e.Offset, e.Total, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// FinalizeError indicates the reset command could not be sent after the image.
type FinalizeError struct {
	Err error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize failed: send reset %s: %v",
		protocol.FormatBytes([]byte{protocol.CmdReset}), e.Err)
}

func (e *FinalizeError) Unwrap() error {
	return e.Err
}

// IsMarkerMissing reports whether err is the missing completion marker warning.
func IsMarkerMissing(err error) bool {
	return errors.Is(err, ErrMarkerMissing)
}
