package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and
// generated bytes. Instructions carry Codes, db/dw directives carry Data.
type Opcode struct {
	LineNo    int
	Addr      int
	Words     []string
	Codes     []Code
	Data      []byte
	LinkLabel string
}

// Size returns the number of bytes the opcode occupies.
func (op *Opcode) Size() int {
	return len(op.Codes)*INSTRUCTION_SIZE + len(op.Data)
}

// Bytes returns the opcode as stored in memory.
func (op *Opcode) Bytes() (data []byte) {
	for _, code := range op.Codes {
		data = append(data, byte(code>>8), byte(code))
	}
	data = append(data, op.Data...)
	return
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the opcode covering an address.
type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the opcode.
}

func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+op.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the memory image starting at PROGRAM_START.
func (prog *Program) Binary() (bins []byte) {
	for _, op := range prog.Opcodes {
		offset := op.Addr - PROGRAM_START
		end := offset + op.Size()
		if end > len(bins) {
			bins = append(bins, make([]byte, end-len(bins))...)
		}
		copy(bins[offset:end], op.Bytes())
	}

	return
}

// Codes iterates over the instructions by address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			addr := uint16(op.Addr)
			for n, code := range op.Codes {
				if !yield(addr+uint16(n*INSTRUCTION_SIZE), code) {
					return
				}
			}
		}
	}
}
