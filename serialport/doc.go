// Package serialport implements bootloader.Transport on top of go.bug.st/serial.
//
// The Maestro bootloader shows up as a USB CDC serial port, so the line
// settings are accepted but ignored by the device. What matters is the read
// timeout: the uploader treats a read that returns no data as "the device did
// not answer", so a port opened without a timeout would block forever on a
// silent device.
//
//	port, err := serialport.Open(serialport.Config{
//	    Name:        "/dev/ttyACM0",
//	    ReadTimeout: 5 * time.Second,
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	res, err := bootloader.Flash(port, img.Data)
package serialport
