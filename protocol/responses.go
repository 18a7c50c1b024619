package protocol

import (
	"bytes"
	"fmt"
)

// HandshakeResponse returns the exact bytes a bootloader answers the handshake with.
func HandshakeResponse() []byte {
	return bytes.ToUpper([]byte(HandshakeToken))
}

// IsHandshakeResponse reports whether resp is exactly the expected handshake answer.
// Short, empty and over-long responses are all rejected.
func IsHandshakeResponse(resp []byte) bool {
	return bytes.Equal(resp, HandshakeResponse())
}

// IsEraseAck reports whether resp is exactly the single erase acknowledgement byte.
func IsEraseAck(resp []byte) bool {
	return len(resp) == 1 && resp[0] == AckErase
}

// EndsWithCompletionMarker reports whether the last byte of available is the completion marker.
// Earlier bytes are ignored; the device may emit noise before the marker.
func EndsWithCompletionMarker(available []byte) bool {
	return len(available) > 0 && available[len(available)-1] == CompletionMarker
}

// FormatBytes renders a response for diagnostics, e.g. "FWBOOTLOAD" or "\x00S".
func FormatBytes(b []byte) string {
	if len(b) == 0 {
		return "<none>"
	}
	return fmt.Sprintf("%q", b)
}
