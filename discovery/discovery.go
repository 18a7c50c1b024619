// Package discovery finds Maestro bootloader serial ports.
//
// A Maestro in bootloader mode enumerates as a USB CDC port whose product
// string contains "Bootloader". Matching is a plain substring test on that
// descriptor, so Filter and SelectOne are pure and can be tested without
// hardware.
package discovery

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// DefaultMatch is the descriptor substring of a Maestro in bootloader mode.
var DefaultMatch = []string{"Bootloader"}

// ErrNoDevice is returned when no port matches.
var ErrNoDevice = errors.New("no Maestro devices in bootloader mode connected")

// AmbiguousError is returned when more than one port matches.
type AmbiguousError struct {
	Ports []PortInfo
}

func (e *AmbiguousError) Error() string {
	names := make([]string, len(e.Ports))
	for i, p := range e.Ports {
		names[i] = p.Name
	}
	return fmt.Sprintf("more than one Maestro device in bootloader mode connected: %s",
		strings.Join(names, ", "))
}

// PortInfo describes one serial port.
type PortInfo struct {
	Name         string
	Product      string
	VID          string
	PID          string
	SerialNumber string
	IsUSB        bool
}

// Descriptor returns the human readable port description used for matching.
// Ports without a product string are described by their name.
func (p PortInfo) Descriptor() string {
	if p.Product != "" {
		return p.Product
	}
	return p.Name
}

func (p PortInfo) String() string {
	if p.VID != "" {
		return fmt.Sprintf("%s (%s, %s:%s)", p.Name, p.Descriptor(), p.VID, p.PID)
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Descriptor())
}

// listPorts is replaced in tests.
var listPorts = enumerator.GetDetailedPortsList

// List returns every serial port known to the OS, sorted by name.
func List() ([]PortInfo, error) {
	details, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		ports = append(ports, PortInfo{
			Name:         d.Name,
			Product:      d.Product,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			IsUSB:        d.IsUSB,
		})
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

// Matches reports whether the port descriptor contains every substring in match.
// Matching is case sensitive.
func Matches(p PortInfo, match ...string) bool {
	desc := p.Descriptor()
	for _, m := range match {
		if !strings.Contains(desc, m) {
			return false
		}
	}
	return true
}

// Filter returns the ports whose descriptor contains every substring in match,
// in their original order.
func Filter(ports []PortInfo, match ...string) []PortInfo {
	var out []PortInfo
	for _, p := range ports {
		if Matches(p, match...) {
			out = append(out, p)
		}
	}
	return out
}

// SelectOne returns the only port in ports. It fails with ErrNoDevice when
// ports is empty and *AmbiguousError when there is more than one.
func SelectOne(ports []PortInfo) (PortInfo, error) {
	switch len(ports) {
	case 0:
		return PortInfo{}, ErrNoDevice
	case 1:
		return ports[0], nil
	default:
		return PortInfo{}, &AmbiguousError{Ports: ports}
	}
}

// Find lists the ports, keeps those matching match and selects exactly one.
// DefaultMatch is used when match is empty.
func Find(logger *zap.Logger, match ...string) (PortInfo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(match) == 0 {
		match = DefaultMatch
	}

	ports, err := List()
	if err != nil {
		return PortInfo{}, err
	}

	for _, p := range ports {
		logger.Debug("Found serial port",
			zap.String("port", p.Name),
			zap.String("product", p.Product),
			zap.String("vid", p.VID),
			zap.String("pid", p.PID),
		)
	}

	candidates := Filter(ports, match...)
	logger.Info("Serial port scan completed",
		zap.Int("ports", len(ports)),
		zap.Int("matches", len(candidates)),
		zap.Strings("match", match),
	)

	return SelectOne(candidates)
}
