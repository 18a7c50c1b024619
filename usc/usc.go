// Package usc talks to a running Maestro servo controller over its native USB
// interface. It only implements what the flasher needs: asking the device to
// restart into its bootloader.
package usc

import (
	"errors"
	"fmt"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// VendorID is the Pololu USB vendor ID.
const VendorID gousb.ID = 0x1ffb

// Products maps Maestro product IDs to model names.
var Products = map[gousb.ID]string{
	0x0089: "Micro Maestro 6",
	0x008a: "Mini Maestro 12",
	0x008b: "Mini Maestro 18",
	0x008c: "Mini Maestro 24",
}

const (
	requestStartBootloader uint8 = 0xff

	// host to device, vendor request, device recipient
	requestTypeVendorOut = uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
)

// ErrNoDevice is returned when no Maestro is attached in normal mode.
var ErrNoDevice = errors.New("no Maestro devices connected")

// IsMaestro reports whether desc describes a Maestro in normal (non-bootloader) mode.
func IsMaestro(desc *gousb.DeviceDesc) bool {
	if desc == nil || desc.Vendor != VendorID {
		return false
	}
	_, ok := Products[desc.Product]
	return ok
}

// controller is the part of *gousb.Device used here.
type controller interface {
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
	Close() error
}

// StartBootloader asks every attached Maestro to restart into bootloader mode
// and returns how many devices accepted the request. The devices drop off the
// bus and come back as a bootloader serial port after a few seconds.
func StartBootloader(logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx := gousb.NewContext()
	defer func() {
		if err := ctx.Close(); err != nil {
			logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	devices, err := ctx.OpenDevices(IsMaestro)
	if err != nil && len(devices) == 0 {
		return 0, fmt.Errorf("failed to open USB devices: %w", err)
	}
	if err != nil {
		// Some matching devices could not be opened, usually for lack of permissions.
		logger.Warn("Some USB devices could not be opened", zap.Error(err))
	}
	if len(devices) == 0 {
		return 0, ErrNoDevice
	}

	ctrls := make([]controller, len(devices))
	for i, d := range devices {
		ctrls[i] = d
		logger.Info("Restarting Maestro into bootloader",
			zap.String("model", Products[d.Desc.Product]),
			zap.String("vid", d.Desc.Vendor.String()),
			zap.String("pid", d.Desc.Product.String()),
			zap.Int("bus", d.Desc.Bus),
			zap.Int("address", d.Desc.Address),
		)
	}

	return startAll(ctrls)
}

// startAll sends the start-bootloader request to each device and closes it.
func startAll(devices []controller) (int, error) {
	var errs []error
	started := 0

	for _, d := range devices {
		if _, err := d.Control(requestTypeVendorOut, requestStartBootloader, 0, 0, nil); err != nil {
			errs = append(errs, fmt.Errorf("error entering bootloader mode: %w", err))
		} else {
			started++
		}
		_ = d.Close()
	}

	return started, errors.Join(errs...)
}
