// Command maestro-flash uploads a firmware image to a Pololu Maestro servo
// controller in bootloader mode.
//
// Usage:
//
//	maestro-flash [flags] firmware.pgm
//
// Without --port the bootloader port is discovered by its description. With
// --reboot a running Maestro is first restarted into its bootloader over USB.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/moffa90/go-maestro-flash/bootloader"
	"github.com/moffa90/go-maestro-flash/config"
	"github.com/moffa90/go-maestro-flash/discovery"
	"github.com/moffa90/go-maestro-flash/firmware"
	"github.com/moffa90/go-maestro-flash/logging"
	"github.com/moffa90/go-maestro-flash/serialport"
	"github.com/moffa90/go-maestro-flash/usc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := config.Flags()
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: maestro-flash [flags] firmware.pgm\n\nFlags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	fmt.Fprintln(stdout, "Pololu Maestro firmware upgrade utility")
	fmt.Fprintln(stdout)

	if flags.NArg() != 1 {
		flags.Usage()
		return 1
	}

	cfg, err := config.Load(flags)
	if err != nil {
		newReporter(stderr).failure(err)
		return 1
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		newReporter(stderr).failure(err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	rep := newReporter(stdout)
	if err := flash(cfg, flags.Arg(0), logger, rep, stdout); err != nil {
		logger.Error("Firmware upgrade failed", zap.Error(err))
		rep.failure(err)
		return 1
	}

	return 0
}

func flash(cfg *config.Config, path string, logger *zap.Logger, rep *reporter, stdout io.Writer) error {
	img, err := firmware.Load(path)
	if err != nil {
		return err
	}
	logger.Info("Firmware loaded",
		zap.String("path", img.Path),
		zap.Int("bytes", img.Size()),
		zap.String("crc32", fmt.Sprintf("%08x", img.CRC32())),
	)

	if cfg.Reboot.Enabled {
		fmt.Fprintln(stdout, "Restarting bootloader...")
		n, err := usc.StartBootloader(logger)
		if err != nil && n == 0 {
			return err
		}
		if err != nil {
			logger.Warn("Some devices did not restart", zap.Error(err))
		}
		time.Sleep(cfg.Reboot.Wait)
	}

	serialCfg := cfg.Serial
	if serialCfg.Name == "" {
		info, err := discovery.Find(logger, cfg.Discovery.Match...)
		if err != nil {
			return err
		}
		serialCfg.Name = info.Name
		fmt.Fprintf(stdout, "Found %s\n", info)
	}

	port, err := serialport.Open(serialCfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()

	res, err := bootloader.Flash(port, img.Data,
		bootloader.WithSettleDelay(cfg.Upload.SettleDelay),
		bootloader.WithPhaseCallback(rep.phase),
		bootloader.WithProgressCallback(rep.progress),
		bootloader.WithLogger(logging.Bootloader(logger)),
	)
	if err != nil {
		return err
	}

	rep.result(res)
	return nil
}
