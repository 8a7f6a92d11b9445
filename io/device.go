// Package io provides the devices attached to the CHIP-8 core.
// It includes the byte addressable memory store (Ram), the ROM image
// loader (Rom), the 64x32 monochrome frame buffer (Display), and a
// terminal renderer for the frame buffer (Terminal).
package io

// Memory defines the byte addressable store the CPU fetches from.
type Memory interface {
	// LoadByte reads the byte at address.
	LoadByte(address uint16) byte
	// StoreByte writes value at address.
	StoreByte(address uint16, value byte)
}

// Frame defines the display boundary of the CPU.
type Frame interface {
	// Clear turns off every pixel.
	Clear()
	// Draw XORs an 8 pixel wide sprite, one byte per row, MSB first,
	// at (x, y). Returns true if any lit pixel was turned off.
	Draw(x, y uint8, rows []byte) (collision bool)
}
