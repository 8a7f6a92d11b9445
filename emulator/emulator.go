// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

const (
	RUN_LIMIT = 1_000_000 // Default instruction limit for Run.
)

var _emulator_defines = map[string]string{
	"RUN_LIMIT": fmt.Sprintf("%v", RUN_LIMIT),
}

// Emulator state. CPU + memory + display.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Assembled listing, takes precedence over Rom.
	Rom      *io.Rom      // Raw program image.

	Ram     io.Ram     // Main memory.
	Display io.Display // Frame buffer.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Cpu = cpu.NewCpu(&emu.Ram)
	emu.Cpu.Frame = &emu.Display

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Ram.Defines(),
		emu.Display.Defines(),
	)
}

// Reset clears memory and the display, loads the program and resets the CPU.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Ram.Reset()
	emu.Display.Clear()
	emu.Display.Dirty = false

	rom := emu.Rom
	if emu.Program != nil && len(emu.Program.Opcodes) != 0 {
		rom = &io.Rom{Data: emu.Program.Binary()}
	}

	if rom != nil {
		if len(rom.Data) > io.PROGRAM_LIMIT {
			err = io.ErrRomTooLarge
			return
		}
		rom.Load(&emu.Ram)
		if emu.Verbose {
			log.Printf("emulator: loaded %d bytes", len(rom.Data))
		}
	}

	emu.Cpu.Reset()

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Code returns the instruction at the program counter.
func (emu *Emulator) Code() cpu.Code {
	code, _ := emu.Cpu.FetchCode()
	return code
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick executes a single instruction. A halt reports done, along with
// an ErrRuntime wrapping cpu.ErrHalt.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalt{}) {
		done = true
	}

	return
}

// Run executes instructions until an error, or until limit instructions
// have run. A limit of zero or less runs without limit.
func (emu *Emulator) Run(limit int) (steps int, err error) {
	for limit <= 0 || steps < limit {
		_, err = emu.Tick()
		if err != nil {
			return
		}
		steps++
	}

	return
}
