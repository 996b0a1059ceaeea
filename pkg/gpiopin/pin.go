// Package gpiopin adapts periph.io GPIO pins to the executor's PinReader.
package gpiopin

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"buttonexec/pkg/executor"
)

// Pin is a periph.io-backed button input. The executor polls it; no edge
// interrupts are configured.
type Pin struct {
	pin gpio.PinIO
}

// Open looks up a pin by name (e.g. "GPIO20") and configures it as an input
// with the given pull. periph's host driver must be initialized first
// (host.Init in the main program).
func Open(name string, pull gpio.Pull) (*Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpiopin: no pin named %q", name)
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpiopin: configuring %s as input: %w", name, err)
	}
	return &Pin{pin: p}, nil
}

func (p *Pin) Read() executor.Level {
	if p.pin.Read() == gpio.High {
		return executor.High
	}
	return executor.Low
}

func (p *Pin) Name() string { return p.pin.Name() }

// ParsePull maps a config string to a gpio.Pull. The empty string means no
// pull resistor.
func ParsePull(s string) (gpio.Pull, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "float":
		return gpio.Float, nil
	case "up":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	default:
		return gpio.PullNoChange, fmt.Errorf("gpiopin: unknown pull %q (want up, down or none)", s)
	}
}
