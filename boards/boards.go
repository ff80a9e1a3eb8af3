package boards

import (
	"fmt"

	"github.com/ehay64/softrng/pkg"
)

// PinMux applies a single pin/function assignment. Platform code
// implements it over the port controller registers.
type PinMux interface {
	SetFunction(pin uint16, function uint32) error
}

// PinConfig is one entry of a board's pin assignment table.
type PinConfig struct {
	Pin      uint16 // Port-encoded pin number
	Function uint32 // Alternate-function selector, including speed bits
}

// Board is a named static pin assignment table.
type Board struct {
	Name string
	Pins []PinConfig
}

// Apply walks the table once, assigning every pin. It stops at the first
// failure; a partially applied table leaves the board misconfigured, so
// callers should treat an error as fatal for peripheral bring-up.
func (b *Board) Apply(mux PinMux) error {
	for _, pc := range b.Pins {
		if err := mux.SetFunction(pc.Pin, pc.Function); err != nil {
			return fmt.Errorf("board %s: pin 0x%03x: %w", b.Name, pc.Pin, err)
		}
	}
	pkg.LogDebug(pkg.ComponentBoards, "pin table applied",
		"board", b.Name, "pins", len(b.Pins))
	return nil
}

// Lookup returns the table for a supported board name.
func Lookup(name string) (*Board, error) {
	for _, b := range supported {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: board %q", pkg.ErrNotSupported, name)
}

// Pin encodings follow port*16+pin; function selectors carry the
// alternate-function index in the low byte and pad-speed bits above.
const (
	speedVeryHigh = 0x300
)

func pin(port byte, n uint16) uint16 {
	return uint16(port-'A')*16 + n
}

// supported lists the boards this build knows how to configure.
var supported = []*Board{
	{
		// SPI1/SPI2 signal routing for the entropy shield header.
		Name: "nucleo_f091rc",
		Pins: []PinConfig{
			{pin('A', 5), 0},  // SPI1_SCK
			{pin('A', 6), 0},  // SPI1_MISO
			{pin('A', 7), 0},  // SPI1_MOSI
			{pin('B', 13), 0}, // SPI2_SCK
			{pin('B', 14), 0}, // SPI2_MISO
			{pin('B', 15), 0}, // SPI2_MOSI
		},
	},
	{
		// SPI4/SPI5 routing; MISO pads run at very high speed.
		Name: "stm32mp157c_dk2",
		Pins: []PinConfig{
			{pin('E', 12), 5},                 // SPI4_SCK
			{pin('E', 13), 5 | speedVeryHigh}, // SPI4_MISO
			{pin('E', 14), 5},                 // SPI4_MOSI
			{pin('F', 7), 5},                  // SPI5_SCK
			{pin('F', 8), 5 | speedVeryHigh},  // SPI5_MISO
			{pin('F', 9), 5},                  // SPI5_MOSI
		},
	},
}
