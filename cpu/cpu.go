package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"
	"strings"

	"github.com/ezrec/chip8/io"
)

// Memory is the store instructions and sprites are read from.
type Memory io.Memory

// Frame is the display that receives clear and draw requests.
type Frame io.Frame

// Random is a source of random values for the rnd instruction.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	Uint32() uint32
}

const (
	MEMORY_SIZE      = io.MEMORY_SIZE   // Size of the address space.
	PROGRAM_START    = io.PROGRAM_START // Initial program counter.
	INSTRUCTION_SIZE = 2                // Bytes per instruction word.
	REGISTER_COUNT   = 16               // Size of the register bank.
	FLAG_REGISTER    = REG_VF           // Carry, borrow and collision flag.
)

var _cpu_defines = map[string]string{
	"INSTRUCTION_SIZE": fmt.Sprintf("%v", INSTRUCTION_SIZE),
	"FLAG":             FLAG_REGISTER.String(),
}

// Cpu is the execution context of the CHIP-8 core.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory Memory // Instruction and sprite memory.
	Frame  Frame  // Display, may be nil.
	Random Random // Random source, nil for the global generator.

	Pc       uint16                // Current program counter.
	I        uint16                // Index register.
	Register [REGISTER_COUNT]uint8 // Register bank.
	Stack    Stack                 // Return address stack.

	Ticks int // Executed instruction counter.
}

// NewCpu creates a reset CPU fetching from mem.
func NewCpu(mem Memory) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: mem,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears the registers, index register and stack.
// - Zeros the tick counter.
// - Sets PC to PROGRAM_START.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.Ticks = 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	var text strings.Builder

	fmt.Fprintf(&text, "% 5s: %03X\n", "pc", cpu.Pc)
	fmt.Fprintf(&text, "% 5s: %04X\n", "i", cpu.I)
	for n, value := range cpu.Register {
		fmt.Fprintf(&text, "% 5s: %02X\n", CodeReg(n).String(), value)
	}
	if top, ok := cpu.Stack.Peek(); ok {
		fmt.Fprintf(&text, "% 5s: %03X (%v)\n", "stack", top, cpu.Stack.Depth())
	} else {
		fmt.Fprintf(&text, "% 5s: ---\n", "stack")
	}

	return text.String()
}

// Reg returns the value of a register.
func (cpu *Cpu) Reg(x CodeReg) uint8 {
	if x >= REGISTER_COUNT {
		panic(ErrRegisterInvalid)
	}
	return cpu.Register[x]
}

// SetReg sets the value of a register.
func (cpu *Cpu) SetReg(x CodeReg, value uint8) {
	if x >= REGISTER_COUNT {
		panic(ErrRegisterInvalid)
	}
	cpu.Register[x] = value
}

// setFlag writes vf as 1 or 0.
func (cpu *Cpu) setFlag(set bool) {
	var value uint8
	if set {
		value = 1
	}
	cpu.SetReg(FLAG_REGISTER, value)
}

// randomByte returns the next random byte.
func (cpu *Cpu) randomByte() uint8 {
	if cpu.Random == nil {
		return uint8(rand.Uint32())
	}
	return uint8(cpu.Random.Uint32())
}

// FetchCode reads the instruction word at PC.
// A zero word is reported as ErrHalt.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	hi := cpu.Memory.LoadByte(cpu.Pc)
	lo := cpu.Memory.LoadByte(cpu.Pc + 1)

	code = Code(uint16(hi)<<8 | uint16(lo))
	if code == 0 {
		err = ErrHalt{Pc: cpu.Pc}
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)

	return
}

// Execute executes a single decoded instruction located at PC.
// On error the program counter is left on the failing instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	if cpu.Verbose {
		log.Printf("%03x: %04x %v", cpu.Pc, uint16(code), code)
	}

	next_pc, err := classTable[code.Class()](cpu, code)
	if err != nil {
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks += 1

	return
}
