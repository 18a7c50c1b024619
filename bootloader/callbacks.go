package bootloader

import "time"

// Progress is reported after every chunk written during the transfer phase.
type Progress struct {
	// Phase is always PhaseTransferring for chunk reports
	Phase Phase

	// Chunk is the 1-based index of the chunk just written
	Chunk int

	// TotalChunks is the number of chunks in the image
	TotalChunks int

	// BytesSent is the upload cursor: image bytes handed to the transport so far
	BytesSent int

	// TotalBytes is the image length
	TotalBytes int

	// Percentage is 100 * BytesSent / TotalBytes
	Percentage float64

	// ElapsedTime is the time since Flash was called
	ElapsedTime time.Duration
}

// ProgressCallback receives transfer progress. It runs on the uploading goroutine,
// so it must return quickly.
//
// Example:
//
//	up := bootloader.New(port,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("\r%.1f%% (%d/%d bytes)", p.Percentage, p.BytesSent, p.TotalBytes)
//	    }),
//	)
type ProgressCallback func(Progress)

// PhaseCallback is called on every state machine transition, including the
// transition to PhaseAborted.
type PhaseCallback func(Phase)

// Logger is an optional logging interface that can be provided to the uploader.
// This allows integration with any logging framework; see the logging package
// for a zap adapter.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Warn(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	up := bootloader.New(port, bootloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a non-fatal problem with optional key-value pairs
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
