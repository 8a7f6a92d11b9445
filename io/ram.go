package io

import (
	"fmt"
	"iter"
	"maps"
)

const (
	MEMORY_SIZE   = 0x1000                      // Size of the address space.
	ADDRESS_MASK  = MEMORY_SIZE - 1             // Mask applied to every address.
	PROGRAM_START = 0x200                       // Load address of programs.
	PROGRAM_LIMIT = MEMORY_SIZE - PROGRAM_START // Largest program image.
)

var _ram_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%#x", MEMORY_SIZE),
	"PROGRAM_START": fmt.Sprintf("%#x", PROGRAM_START),
}

// Ram is the 4KiB memory store. Addresses wrap at MEMORY_SIZE.
type Ram struct {
	Data [MEMORY_SIZE]byte
}

var _ Memory = (*Ram)(nil)

// Defines returns an iter of defines for the memory map.
func (ram *Ram) Defines() iter.Seq2[string, string] {
	return maps.All(_ram_defines)
}

// Reset zeroes the memory.
func (ram *Ram) Reset() {
	clear(ram.Data[:])
}

// LoadByte reads the byte at address.
func (ram *Ram) LoadByte(address uint16) byte {
	return ram.Data[address&ADDRESS_MASK]
}

// StoreByte writes the byte at address.
func (ram *Ram) StoreByte(address uint16, value byte) {
	ram.Data[address&ADDRESS_MASK] = value
}
