// Package protocol holds the wire contract of the Pololu Maestro serial bootloader.
//
// The protocol has no framing, lengths or checksums. Every step is a literal byte
// sequence:
//
//	host -> device   "fwbootload"          handshake request
//	device -> host   "FWBOOTLOAD"          handshake confirmation
//	host -> device   's'                   erase application flash
//	device -> host   'S'                   erase done
//	host -> device   image, <=1000 B/write firmware payload, ascending offsets
//	device -> host   '|'                   image consumed (best effort)
//	host -> device   '*'                   leave bootloader, run application
//
// Chunks are not acknowledged. Flow control comes from the transport draining its
// output before each write, which is why ChunkSize must not be raised.
//
// # Usage
//
//	for _, c := range protocol.PlanChunks(image, protocol.ChunkSize) {
//	    // flush, then write c.Data
//	}
//
//	if !protocol.IsHandshakeResponse(resp) {
//	    return fmt.Errorf("unexpected answer %s", protocol.FormatBytes(resp))
//	}
package protocol
