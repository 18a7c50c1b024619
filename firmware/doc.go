// Package firmware loads Maestro firmware images.
//
// # Image Format
//
// A firmware image (usually a .pgm file shipped with the device software) is an
// opaque byte sequence. The bootloader writes it to flash verbatim, so no
// parsing or validation of its contents happens on the host.
//
// # Usage
//
// Load an image from disk:
//
//	img, err := firmware.Load("maestro.pgm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("%s: %d bytes, crc32 %08x\n", img.Path, img.Size(), img.CRC32())
//
// Read an image from any io.Reader:
//
//	img, err := firmware.Read(bytes.NewReader(data))
//
// The whole image is read into memory before an upload starts. An empty file
// is a valid image.
package firmware
