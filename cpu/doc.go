// Package cpu implements the CHIP-8 execution core and its assembler.
//
// The CPU consists of a program counter (PC) starting at 0x200, sixteen
// 8-bit registers (v0-vf), a 16-bit index register (I), and a growable
// call stack. Register vf doubles as the carry, borrow, shift-out and
// sprite collision flag.
//
// Each Tick fetches the big-endian instruction word at PC from a Memory,
// dispatches on the top nibble (and on a sub-selector for the 0x0, 0x8 and
// 0xF classes), and moves PC to the address each instruction selects.
// A fetched word of 0x0000 stops execution with ErrHalt; undefined words
// stop it with ErrUnknownOpcode.
//
// The assembler provides a mnemonic language for the instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
