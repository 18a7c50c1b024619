// Package bootloader uploads firmware to a Pololu Maestro servo controller that is
// in bootloader mode.
//
// # Overview
//
// An upload is a fixed sequence over one serial connection:
//   - Handshake: confirm the peer is the Maestro bootloader
//   - Erase: wipe the application flash
//   - Transfer: stream the image in chunks of at most 1000 bytes
//   - Finalize: check for the completion marker and reset the device
//
// Each call to Uploader.Flash runs the whole sequence with fresh state. Nothing
// survives between calls, so flashing twice behaves the same both times.
//
// # Basic Usage
//
//	// Caller opens and owns the connection
//	port, err := serialport.Open(serialport.Config{Name: "/dev/ttyACM0"}, zap.NewNop())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	img, err := firmware.Load("maestro.pgm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := bootloader.New(port).Flash(img.Data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range res.Warnings {
//	    log.Println("warning:", w)
//	}
//
// # Progress Tracking
//
//	up := bootloader.New(port,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("\r%.1f%% chunk %d/%d", p.Percentage, p.Chunk, p.TotalChunks)
//	    }),
//	    bootloader.WithPhaseCallback(func(p bootloader.Phase) {
//	        fmt.Println("phase:", p)
//	    }),
//	)
//
// # Timing
//
// The device gets a settle delay (200ms by default) after the last chunk and
// after the reset command. Chunks are not acknowledged: the transport's Flush
// provides the only flow control, so it must block until the output has drained.
//
//	up := bootloader.New(port,
//	    bootloader.WithSettleDelay(300*time.Millisecond),
//	    bootloader.WithSleeper(fakeClock.Sleep),
//	)
//
// # Error Handling
//
// Fatal errors stop the sequence immediately and are never retried:
//   - HandshakeError: wrong or missing "FWBOOTLOAD"; nothing was erased
//   - EraseError: erase not acknowledged with 'S'
//   - TransferError: flush or write failed while streaming the image
//   - FinalizeError: the reset command could not be written
//
// A missing completion marker is not fatal. Flash succeeds and Result.Warnings
// contains ErrMarkerMissing.
//
// # Hardware Independence
//
// This package does NOT open ports. Any Transport works: the serialport package
// provides one over go.bug.st/serial, and tests use scripted mocks.
package bootloader
