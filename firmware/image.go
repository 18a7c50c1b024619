package firmware

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// Image is a firmware image read fully into memory.
// Callers must not modify Data once the image has been handed to an uploader.
type Image struct {
	// Path is the file the image was loaded from, empty for Read
	Path string

	// Data is the raw image sent to the bootloader
	Data []byte
}

// Size returns the image length in bytes.
func (img *Image) Size() int {
	return len(img.Data)
}

// CRC32 returns the IEEE checksum of the image. It identifies the image in
// logs; the bootloader does not check it.
func (img *Image) CRC32() uint32 {
	return crc32.ChecksumIEEE(img.Data)
}

// Load reads the firmware image at path.
//
// Example:
//
//	img, err := firmware.Load("maestro.pgm")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open firmware: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := Read(f)
	if err != nil {
		return nil, err
	}
	img.Path = path

	return img, nil
}

// Read reads a firmware image from r until EOF.
func Read(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read firmware: %w", err)
	}

	return &Image{Data: data}, nil
}
