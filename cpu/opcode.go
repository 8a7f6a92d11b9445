package cpu

import (
	"fmt"
)

// CodeClass is the opcode family, the top nibble of an instruction word.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	OP_SYS     = CodeClass(0x0) // sys
	OP_JP      = CodeClass(0x1) // jp
	OP_CALL    = CodeClass(0x2) // call
	OP_SE      = CodeClass(0x3) // se
	OP_SNE     = CodeClass(0x4) // sne
	OP_SE_REG  = CodeClass(0x5) // se.reg
	OP_LD      = CodeClass(0x6) // ld
	OP_ADD     = CodeClass(0x7) // add
	OP_ALU     = CodeClass(0x8) // alu
	OP_SNE_REG = CodeClass(0x9) // sne.reg
	OP_LD_I    = CodeClass(0xa) // ld.i
	OP_JP_V0   = CodeClass(0xb) // jp.v0
	OP_RND     = CodeClass(0xc) // rnd
	OP_DRW     = CodeClass(0xd) // drw
	OP_KEY     = CodeClass(0xe) // key
	OP_MISC    = CodeClass(0xf) // misc
)

// CodeAluOp is the register-register operation of the OP_ALU class.
type CodeAluOp int

//go:generate go tool stringer -linecomment -type=CodeAluOp
const (
	ALU_OP_LD   = CodeAluOp(0x0) // ld
	ALU_OP_OR   = CodeAluOp(0x1) // or
	ALU_OP_AND  = CodeAluOp(0x2) // and
	ALU_OP_XOR  = CodeAluOp(0x3) // xor
	ALU_OP_ADD  = CodeAluOp(0x4) // add
	ALU_OP_SUB  = CodeAluOp(0x5) // sub
	ALU_OP_SHR  = CodeAluOp(0x6) // shr
	ALU_OP_SUBN = CodeAluOp(0x7) // subn
	ALU_OP_SHL  = CodeAluOp(0xe) // shl
)

// Sub-selectors (low byte) of the OP_SYS class.
const (
	SYS_CLS = 0xe0
	SYS_RET = 0xee
)

// Sub-selectors (low byte) of the OP_MISC class.
const (
	MISC_ADD_I = 0x1e
)

// CodeReg is a register index.
type CodeReg uint8

//go:generate go tool stringer -linecomment -type=CodeReg
const (
	REG_V0 = CodeReg(0x0) // v0
	REG_V1 = CodeReg(0x1) // v1
	REG_V2 = CodeReg(0x2) // v2
	REG_V3 = CodeReg(0x3) // v3
	REG_V4 = CodeReg(0x4) // v4
	REG_V5 = CodeReg(0x5) // v5
	REG_V6 = CodeReg(0x6) // v6
	REG_V7 = CodeReg(0x7) // v7
	REG_V8 = CodeReg(0x8) // v8
	REG_V9 = CodeReg(0x9) // v9
	REG_VA = CodeReg(0xa) // va
	REG_VB = CodeReg(0xb) // vb
	REG_VC = CodeReg(0xc) // vc
	REG_VD = CodeReg(0xd) // vd
	REG_VE = CodeReg(0xe) // ve
	REG_VF = CodeReg(0xf) // vf
)

// Code is a single big-endian instruction word.
type Code uint16

// MakeCode creates an instruction from four nibbles.
func MakeCode(class CodeClass, x, y CodeReg, n uint8) Code {
	return Code((uint16(class)&0xf)<<12 | (uint16(x)&0xf)<<8 | (uint16(y)&0xf)<<4 | uint16(n)&0xf)
}

// MakeCodeNN creates an instruction with a register and an 8-bit immediate.
func MakeCodeNN(class CodeClass, x CodeReg, nn uint8) Code {
	return Code((uint16(class)&0xf)<<12 | (uint16(x)&0xf)<<8 | uint16(nn))
}

// MakeCodeNNN creates an instruction with a 12-bit address.
func MakeCodeNNN(class CodeClass, nnn uint16) Code {
	return Code((uint16(class)&0xf)<<12 | nnn&0xfff)
}

// MakeCodeAlu creates an OP_ALU instruction.
func MakeCodeAlu(op CodeAluOp, x, y CodeReg) Code {
	return MakeCode(OP_ALU, x, y, uint8(op))
}

// Class returns bits 15-12.
func (code Code) Class() CodeClass {
	return CodeClass((code >> 12) & 0xf)
}

// X returns bits 11-8.
func (code Code) X() CodeReg {
	return CodeReg((code >> 8) & 0xf)
}

// Y returns bits 7-4.
func (code Code) Y() CodeReg {
	return CodeReg((code >> 4) & 0xf)
}

// N returns bits 3-0.
func (code Code) N() uint8 {
	return uint8(code & 0xf)
}

// NN returns bits 7-0.
func (code Code) NN() uint8 {
	return uint8(code & 0xff)
}

// NNN returns bits 11-0.
func (code Code) NNN() uint16 {
	return uint16(code & 0xfff)
}

// Decode returns every field of the instruction word.
func (code Code) Decode() (class CodeClass, x, y CodeReg, n, nn uint8, nnn uint16) {
	return code.Class(), code.X(), code.Y(), code.N(), code.NN(), code.NNN()
}

// String returns the assembly language representation of this instruction.
// Words without a defined meaning are shown as data.
func (code Code) String() (out string) {
	class, x, y, n, nn, nnn := code.Decode()

	switch class {
	case OP_SYS:
		switch nn {
		case SYS_CLS:
			return "cls"
		case SYS_RET:
			return "ret"
		}
	case OP_JP:
		return fmt.Sprintf("jp $%03X", nnn)
	case OP_CALL:
		return fmt.Sprintf("call $%03X", nnn)
	case OP_SE:
		return fmt.Sprintf("se %v, $%02X", x, nn)
	case OP_SNE:
		return fmt.Sprintf("sne %v, $%02X", x, nn)
	case OP_SE_REG:
		return fmt.Sprintf("se %v, %v", x, y)
	case OP_LD:
		return fmt.Sprintf("ld %v, $%02X", x, nn)
	case OP_ADD:
		return fmt.Sprintf("add %v, $%02X", x, nn)
	case OP_ALU:
		op := CodeAluOp(n)
		if aluTable[op] != nil {
			return fmt.Sprintf("%v %v, %v", op, x, y)
		}
	case OP_SNE_REG:
		return fmt.Sprintf("sne %v, %v", x, y)
	case OP_LD_I:
		return fmt.Sprintf("ld i, $%03X", nnn)
	case OP_JP_V0:
		return fmt.Sprintf("jp v0, $%03X", nnn)
	case OP_RND:
		return fmt.Sprintf("rnd %v, $%02X", x, nn)
	case OP_DRW:
		return fmt.Sprintf("drw %v, %v, $%X", x, y, n)
	case OP_MISC:
		switch nn {
		case MISC_ADD_I:
			return fmt.Sprintf("add i, %v", x)
		}
	}

	return fmt.Sprintf("dw $%04X", uint16(code))
}
