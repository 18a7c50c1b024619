package serialport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Default line settings. The bootloader ignores them but the OS driver wants a mode.
const (
	DefaultBaudRate    = 115200
	DefaultDataBits    = 8
	DefaultReadTimeout = 5 * time.Second
)

// availableChunk is the buffer size used while draining buffered input.
const availableChunk = 256

// ErrClosed is returned by operations on a closed Port.
var ErrClosed = errors.New("serial port closed")

// Config describes the serial connection.
type Config struct {
	Name        string        `mapstructure:"port"`
	BaudRate    int           `mapstructure:"baud_rate"`
	DataBits    int           `mapstructure:"data_bits"`
	StopBits    int           `mapstructure:"stop_bits"`
	Parity      string        `mapstructure:"parity"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

func (c Config) mode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate <= 0 {
		mode.BaudRate = DefaultBaudRate
	}
	if mode.DataBits <= 0 {
		mode.DataBits = DefaultDataBits
	}
	if c.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch c.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	return mode
}

// Port is an open serial connection to a device in bootloader mode.
type Port struct {
	name        string
	port        serial.Port
	readTimeout time.Duration
	logger      *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Open opens the named port and applies the read timeout.
// A nil logger disables logging.
func Open(cfg Config, logger *zap.Logger) (*Port, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("port is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := cfg.mode()
	sp, err := serial.Open(cfg.Name, mode)
	if err != nil {
		logger.Error("Failed to open serial port",
			zap.Error(err),
			zap.String("port", cfg.Name),
		)
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Name, err)
	}

	p, err := newPort(cfg.Name, sp, cfg.ReadTimeout, logger)
	if err != nil {
		_ = sp.Close()
		return nil, err
	}

	logger.Info("Serial port opened",
		zap.String("port", cfg.Name),
		zap.Int("baud_rate", mode.BaudRate),
		zap.Duration("read_timeout", p.readTimeout),
	)

	return p, nil
}

func newPort(name string, sp serial.Port, readTimeout time.Duration, logger *zap.Logger) (*Port, error) {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	if err := sp.SetReadTimeout(readTimeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &Port{
		name:        name,
		port:        sp,
		readTimeout: readTimeout,
		logger:      logger.With(zap.String("port", name)),
	}, nil
}

// Name returns the OS name of the port.
func (p *Port) Name() string {
	return p.name
}

// Read reads up to len(b) bytes. It returns (0, nil) when the read timeout
// expires with no data.
func (p *Port) Read(b []byte) (int, error) {
	if p.isClosed() {
		return 0, ErrClosed
	}

	n, err := p.port.Read(b)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, err
		}
		p.logger.Error("Failed to read from serial port", zap.Error(err))
		return n, fmt.Errorf("failed to read from serial port: %w", err)
	}

	p.logger.Debug("Data read from serial port",
		zap.Int("bytes_read", n),
		zap.Binary("data", b[:n]),
	)
	return n, nil
}

// Write writes b in one call. A partial write is reported as io.ErrShortWrite.
func (p *Port) Write(b []byte) (int, error) {
	if p.isClosed() {
		return 0, ErrClosed
	}

	n, err := p.port.Write(b)
	if err != nil {
		p.logger.Error("Failed to write to serial port",
			zap.Error(err),
			zap.Int("bytes_to_write", len(b)),
		)
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}

	if n != len(b) {
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes: %w", n, len(b), io.ErrShortWrite)
	}

	p.logger.Debug("Data written to serial port", zap.Int("bytes_written", n))
	return n, nil
}

// Flush blocks until everything written so far has been transmitted.
func (p *Port) Flush() error {
	if p.isClosed() {
		return ErrClosed
	}

	if err := p.port.Drain(); err != nil {
		return fmt.Errorf("failed to drain serial port: %w", err)
	}
	return nil
}

// ReadAvailable returns the bytes already received without waiting for more.
// The configured read timeout is restored before returning.
func (p *Port) ReadAvailable() (out []byte, err error) {
	if p.isClosed() {
		return nil, ErrClosed
	}

	if err := p.port.SetReadTimeout(0); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	defer func() {
		if restoreErr := p.port.SetReadTimeout(p.readTimeout); restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore read timeout: %w", restoreErr)
		}
	}()

	buf := make([]byte, availableChunk)
	for {
		n, readErr := p.port.Read(buf)
		out = append(out, buf[:n]...)
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return out, fmt.Errorf("failed to read from serial port: %w", readErr)
		}
		if n == 0 {
			break
		}
	}

	p.logger.Debug("Buffered data read from serial port",
		zap.Int("bytes_read", len(out)),
		zap.Binary("data", out),
	)
	return out, nil
}

// Close closes the port. Closing twice is a no-op.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.port.Close(); err != nil {
		p.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	p.logger.Info("Serial port closed")
	return nil
}

func (p *Port) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
