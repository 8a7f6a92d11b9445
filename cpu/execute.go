package cpu

import (
	"log"
)

// handler executes one instruction and returns the next program counter.
type handler func(cpu *Cpu, code Code) (next_pc uint16, err error)

// classTable dispatches on the top nibble of the instruction word.
// OP_SYS, OP_ALU and OP_MISC dispatch again on a sub-selector.
var classTable = [16]handler{
	OP_SYS:     (*Cpu).execSys,
	OP_JP:      (*Cpu).opJp,
	OP_CALL:    (*Cpu).opCall,
	OP_SE:      (*Cpu).opSe,
	OP_SNE:     (*Cpu).opSne,
	OP_SE_REG:  (*Cpu).opSeReg,
	OP_LD:      (*Cpu).opLd,
	OP_ADD:     (*Cpu).opAdd,
	OP_ALU:     (*Cpu).execAlu,
	OP_SNE_REG: (*Cpu).opSneReg,
	OP_LD_I:    (*Cpu).opLdI,
	OP_JP_V0:   (*Cpu).opJpV0,
	OP_RND:     (*Cpu).opRnd,
	OP_DRW:     (*Cpu).opDrw,
	OP_KEY:     (*Cpu).opUnknown,
	OP_MISC:    (*Cpu).execMisc,
}

// sysTable dispatches OP_SYS on the low byte.
var sysTable = map[uint8]handler{
	SYS_CLS: (*Cpu).opCls,
	SYS_RET: (*Cpu).opRet,
}

// aluTable dispatches OP_ALU on the low nibble.
var aluTable = [16]handler{
	ALU_OP_LD:   (*Cpu).aluLd,
	ALU_OP_OR:   (*Cpu).aluOr,
	ALU_OP_AND:  (*Cpu).aluAnd,
	ALU_OP_XOR:  (*Cpu).aluXor,
	ALU_OP_ADD:  (*Cpu).aluAdd,
	ALU_OP_SUB:  (*Cpu).aluSub,
	ALU_OP_SHR:  (*Cpu).aluShr,
	ALU_OP_SUBN: (*Cpu).aluSubn,
	ALU_OP_SHL:  (*Cpu).aluShl,
}

// miscTable dispatches OP_MISC on the low byte.
var miscTable = map[uint8]handler{
	MISC_ADD_I: (*Cpu).opAddI,
}

// next returns the address of the following instruction.
func (cpu *Cpu) next() uint16 {
	return cpu.Pc + INSTRUCTION_SIZE
}

// skipIf returns the address after the following instruction if cond holds.
func (cpu *Cpu) skipIf(cond bool) uint16 {
	if cond {
		return cpu.Pc + 2*INSTRUCTION_SIZE
	}
	return cpu.next()
}

func (cpu *Cpu) opUnknown(code Code) (uint16, error) {
	return cpu.Pc, ErrUnknownOpcode{Word: uint16(code), Pc: cpu.Pc}
}

func (cpu *Cpu) execSys(code Code) (uint16, error) {
	op, ok := sysTable[code.NN()]
	if !ok {
		return cpu.opUnknown(code)
	}
	return op(cpu, code)
}

func (cpu *Cpu) execAlu(code Code) (uint16, error) {
	op := aluTable[code.N()]
	if op == nil {
		return cpu.opUnknown(code)
	}
	return op(cpu, code)
}

func (cpu *Cpu) execMisc(code Code) (uint16, error) {
	op, ok := miscTable[code.NN()]
	if !ok {
		return cpu.opUnknown(code)
	}
	return op(cpu, code)
}

// 00E0: clear the display.
func (cpu *Cpu) opCls(code Code) (uint16, error) {
	if cpu.Frame != nil {
		cpu.Frame.Clear()
	}
	return cpu.next(), nil
}

// 00EE: return from subroutine. An empty stack leaves PC in place.
func (cpu *Cpu) opRet(code Code) (uint16, error) {
	addr, ok := cpu.Stack.Pop()
	if !ok {
		if cpu.Verbose {
			log.Printf("%03x: return with empty stack", cpu.Pc)
		}
		return cpu.Pc, nil
	}
	return addr, nil
}

// 1nnn: jump.
func (cpu *Cpu) opJp(code Code) (uint16, error) {
	return code.NNN(), nil
}

// 2nnn: call subroutine.
func (cpu *Cpu) opCall(code Code) (uint16, error) {
	cpu.Stack.Push(cpu.next())
	return code.NNN(), nil
}

// 3xnn: skip if vx == nn.
func (cpu *Cpu) opSe(code Code) (uint16, error) {
	return cpu.skipIf(cpu.Reg(code.X()) == code.NN()), nil
}

// 4xnn: skip if vx != nn.
func (cpu *Cpu) opSne(code Code) (uint16, error) {
	return cpu.skipIf(cpu.Reg(code.X()) != code.NN()), nil
}

// 5xy0: skip if vx == vy.
func (cpu *Cpu) opSeReg(code Code) (uint16, error) {
	return cpu.skipIf(cpu.Reg(code.X()) == cpu.Reg(code.Y())), nil
}

// 6xnn: vx = nn.
func (cpu *Cpu) opLd(code Code) (uint16, error) {
	cpu.SetReg(code.X(), code.NN())
	return cpu.next(), nil
}

// 7xnn: vx += nn, vf untouched.
func (cpu *Cpu) opAdd(code Code) (uint16, error) {
	x := code.X()
	cpu.SetReg(x, cpu.Reg(x)+code.NN())
	return cpu.next(), nil
}

// 9xy0: skip if vx != vy.
func (cpu *Cpu) opSneReg(code Code) (uint16, error) {
	return cpu.skipIf(cpu.Reg(code.X()) != cpu.Reg(code.Y())), nil
}

// Annn: i = nnn.
func (cpu *Cpu) opLdI(code Code) (uint16, error) {
	cpu.I = code.NNN()
	return cpu.next(), nil
}

// Bnnn: jump to v0 + nnn.
func (cpu *Cpu) opJpV0(code Code) (uint16, error) {
	return uint16(cpu.Reg(REG_V0)) + code.NNN(), nil
}

// Cxnn: vx = random & nn.
func (cpu *Cpu) opRnd(code Code) (uint16, error) {
	cpu.SetReg(code.X(), cpu.randomByte()&code.NN())
	return cpu.next(), nil
}

// Dxyn: draw n sprite rows from [i] at (vx, vy), vf = collision.
func (cpu *Cpu) opDrw(code Code) (uint16, error) {
	rows := make([]byte, code.N())
	for n := range rows {
		rows[n] = cpu.Memory.LoadByte(cpu.I + uint16(n))
	}

	var collision bool
	if cpu.Frame != nil {
		collision = cpu.Frame.Draw(cpu.Reg(code.X()), cpu.Reg(code.Y()), rows)
	}
	cpu.setFlag(collision)

	return cpu.next(), nil
}

// Fx1E: i += vx, vf untouched.
func (cpu *Cpu) opAddI(code Code) (uint16, error) {
	cpu.I += uint16(cpu.Reg(code.X()))
	return cpu.next(), nil
}

// 8xy0: vx = vy.
func (cpu *Cpu) aluLd(code Code) (uint16, error) {
	cpu.SetReg(code.X(), cpu.Reg(code.Y()))
	return cpu.next(), nil
}

// 8xy1: vx |= vy.
func (cpu *Cpu) aluOr(code Code) (uint16, error) {
	x := code.X()
	cpu.SetReg(x, cpu.Reg(x)|cpu.Reg(code.Y()))
	return cpu.next(), nil
}

// 8xy2: vx &= vy.
func (cpu *Cpu) aluAnd(code Code) (uint16, error) {
	x := code.X()
	cpu.SetReg(x, cpu.Reg(x)&cpu.Reg(code.Y()))
	return cpu.next(), nil
}

// 8xy3: vx ^= vy.
func (cpu *Cpu) aluXor(code Code) (uint16, error) {
	x := code.X()
	cpu.SetReg(x, cpu.Reg(x)^cpu.Reg(code.Y()))
	return cpu.next(), nil
}

// 8xy4: vx += vy, vf = carry.
func (cpu *Cpu) aluAdd(code Code) (uint16, error) {
	x := code.X()
	sum := uint16(cpu.Reg(x)) + uint16(cpu.Reg(code.Y()))
	cpu.SetReg(x, uint8(sum))
	cpu.setFlag(sum > 0xff)
	return cpu.next(), nil
}

// 8xy5: vx -= vy, vf = not borrow.
func (cpu *Cpu) aluSub(code Code) (uint16, error) {
	x := code.X()
	a, b := cpu.Reg(x), cpu.Reg(code.Y())
	cpu.SetReg(x, a-b)
	cpu.setFlag(a >= b)
	return cpu.next(), nil
}

// 8xy6: vx >>= 1, vf = bit shifted out.
func (cpu *Cpu) aluShr(code Code) (uint16, error) {
	x := code.X()
	value := cpu.Reg(x)
	cpu.SetReg(x, value>>1)
	cpu.setFlag(value&0x01 != 0)
	return cpu.next(), nil
}

// 8xy7: vx = vy - vx, vf = not borrow.
func (cpu *Cpu) aluSubn(code Code) (uint16, error) {
	x := code.X()
	a, b := cpu.Reg(x), cpu.Reg(code.Y())
	cpu.SetReg(x, b-a)
	cpu.setFlag(b >= a)
	return cpu.next(), nil
}

// 8xyE: vx <<= 1, vf = bit shifted out.
func (cpu *Cpu) aluShl(code Code) (uint16, error) {
	x := code.X()
	value := cpu.Reg(x)
	cpu.SetReg(x, value<<1)
	cpu.setFlag(value&0x80 != 0)
	return cpu.next(), nil
}
