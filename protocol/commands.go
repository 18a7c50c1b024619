package protocol

// BuildHandshakeCmd returns the handshake request bytes.
func BuildHandshakeCmd() []byte {
	return []byte(HandshakeToken)
}

// BuildEraseCmd returns the erase request.
func BuildEraseCmd() []byte {
	return []byte{CmdErase}
}

// BuildResetCmd returns the command that exits bootloader mode.
func BuildResetCmd() []byte {
	return []byte{CmdReset}
}

// Chunk is one transfer step: a window of the firmware image starting at Offset.
type Chunk struct {
	// Offset is the position of Data[0] within the image
	Offset int

	// Data aliases the image; it is never copied
	Data []byte
}

// End returns the offset just past the chunk.
func (c Chunk) End() int {
	return c.Offset + len(c.Data)
}

// ChunkCount returns how many chunks of at most size bytes are needed for n bytes.
func ChunkCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// PlanChunks splits image into consecutive chunks of at most size bytes in ascending
// offset order. The last chunk holds the remainder. An empty image yields no chunks.
//
// A non-positive size falls back to ChunkSize.
func PlanChunks(image []byte, size int) []Chunk {
	if size <= 0 {
		size = ChunkSize
	}

	chunks := make([]Chunk, 0, ChunkCount(len(image), size))
	for offset := 0; offset < len(image); {
		end := offset + size
		if end > len(image) {
			end = len(image)
		}
		chunks = append(chunks, Chunk{Offset: offset, Data: image[offset:end]})
		offset = end
	}

	return chunks
}
