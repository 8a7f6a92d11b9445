package io

import (
	"io"
)

// Rom is a raw program image, in load order.
type Rom struct {
	Data []byte
}

// ReadRom reads a program image from in.
func ReadRom(in io.Reader) (rom *Rom, err error) {
	data, err := io.ReadAll(io.LimitReader(in, PROGRAM_LIMIT+1))
	if err != nil {
		return
	}

	switch {
	case len(data) == 0:
		err = ErrRomEmpty
		return
	case len(data) > PROGRAM_LIMIT:
		err = ErrRomTooLarge
		return
	}

	rom = &Rom{Data: data}
	return
}

// Load copies the image into mem at PROGRAM_START.
func (rom *Rom) Load(mem Memory) {
	for n, value := range rom.Data {
		mem.StoreByte(PROGRAM_START+uint16(n), value)
	}
}
