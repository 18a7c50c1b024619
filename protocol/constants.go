package protocol

import "time"

// Handshake tokens. The bootloader answers the request token with its upper-case form.
const (
	// HandshakeToken is sent to ask the device to confirm it is in bootloader mode
	HandshakeToken = "fwbootload"

	// HandshakeLength is the number of bytes read back for the handshake
	HandshakeLength = len(HandshakeToken)
)

// Single-byte commands and replies.
const (
	// CmdErase requests a full erase of the application flash
	CmdErase byte = 's'

	// AckErase is returned once the erase has completed
	AckErase byte = 'S'

	// CompletionMarker is emitted by the device after it has consumed the whole image
	CompletionMarker byte = '|'

	// CmdReset makes the device leave bootloader mode and start the application
	CmdReset byte = '*'
)

// ChunkSize is the maximum number of image bytes written in one transfer step.
// The bootloader's receive buffer is sized for it; there is no per-chunk acknowledgement.
const ChunkSize = 1000

// DefaultSettleDelay is how long the host waits after the last chunk, and again after
// the reset command, before touching the link.
const DefaultSettleDelay = 200 * time.Millisecond
