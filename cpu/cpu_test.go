package cpu

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/chip8/io"
)

// newTestCpu returns a CPU with program loaded at PROGRAM_START.
func newTestCpu(program ...byte) (cpu *Cpu, ram *io.Ram, disp *io.Display) {
	ram = &io.Ram{}
	disp = &io.Display{}

	rom := &io.Rom{Data: program}
	rom.Load(ram)

	cpu = NewCpu(ram)
	cpu.Frame = disp

	return
}

func TestCpu(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()

	assert.False(cpu.Verbose)
	assert.Equal(uint16(PROGRAM_START), cpu.Pc)
	assert.Equal(uint16(0), cpu.I)
	assert.Equal([REGISTER_COUNT]uint8{}, cpu.Register)
	assert.True(cpu.Stack.Empty())
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	cpu.Pc = 0x300
	cpu.I = 0x123
	cpu.Register[4] = 9
	cpu.Stack.Push(0x202)
	cpu.Ticks = 5

	cpu.Reset()
	assert.Equal(uint16(PROGRAM_START), cpu.Pc)
	assert.Equal(uint16(0), cpu.I)
	assert.Equal(uint8(0), cpu.Register[4])
	assert.True(cpu.Stack.Empty())
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_LoadAddHalt(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu(0x60, 0x05, 0x70, 0x03, 0x00, 0x00)

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())
	assert.Equal(uint8(8), cpu.Register[0])
	assert.Equal(uint16(0x204), cpu.Pc)

	err := cpu.Tick()
	assert.Equal(ErrHalt{Pc: 0x204}, err)
	assert.ErrorIs(err, ErrHalt{})
	assert.False(errors.Is(err, ErrUnknownOpcode{}))
	assert.Equal(uint16(0x204), cpu.Pc)
	assert.Equal(2, cpu.Ticks)
}

func TestCpu_CallReturn(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu(0x22, 0x04, 0x12, 0x02, 0x00, 0xee)

	assert.NoError(cpu.Tick())
	assert.Equal(uint16(0x204), cpu.Pc)
	assert.Equal([]uint16{0x202}, cpu.Stack.Data)

	assert.NoError(cpu.Tick())
	assert.Equal(uint16(0x202), cpu.Pc)
	assert.True(cpu.Stack.Empty())

	assert.NoError(cpu.Tick())
	assert.Equal(uint16(0x202), cpu.Pc)
}

func TestCpu_CallReturnRoundTrip(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		pc     uint16
		target uint16
	}{
		{0x200, 0x204},
		{0x200, 0xffe},
		{0x3fe, 0x200},
		{0xffc, 0x208},
		{0x456, 0x456},
	}

	for _, entry := range table {
		cpu, _, _ := newTestCpu()
		cpu.Pc = entry.pc

		assert.NoError(cpu.Execute(MakeCodeNNN(OP_CALL, entry.target)))
		assert.Equal(entry.target, cpu.Pc)

		assert.NoError(cpu.Execute(Code(0x00ee)))
		assert.Equal(entry.pc+2, cpu.Pc, "%#x -> %#x", entry.pc, entry.target)
		assert.True(cpu.Stack.Empty())
	}
}

func TestCpu_ReturnEmptyStack(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	cpu.Pc = 0x2a0

	assert.NoError(cpu.Execute(Code(0x00ee)))
	assert.Equal(uint16(0x2a0), cpu.Pc)
	assert.Equal(1, cpu.Ticks)
}

func TestCpu_UnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	table := []uint16{
		0xe000, 0xe09e, 0xe0a1, // key input, not implemented
		0x0123, 0x00e1, 0x0000, // sys
		0x8008, 0x800f, 0x8ab9, // alu
		0xf007, 0xf033, 0xf065, // misc, except fx1e
	}

	for _, word := range table {
		cpu, _, _ := newTestCpu()
		cpu.Pc = 0x246
		cpu.Register[0xf] = 0x5a

		err := cpu.Execute(Code(word))
		assert.Equal(ErrUnknownOpcode{Word: word, Pc: 0x246}, err, "%04x", word)
		assert.ErrorIs(err, ErrUnknownOpcode{})

		var unknown ErrUnknownOpcode
		if assert.True(errors.As(err, &unknown)) {
			assert.Equal(word, unknown.Word)
			assert.Equal(uint16(0x246), unknown.Pc)
		}

		assert.Equal(uint16(0x246), cpu.Pc)
		assert.Equal(uint8(0x5a), cpu.Register[0xf])
		assert.Equal(0, cpu.Ticks)
	}
}

func TestCpu_UnknownOpcodeFetched(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu(0x60, 0x01, 0xe0, 0x00)

	assert.NoError(cpu.Tick())
	err := cpu.Tick()
	assert.Equal(ErrUnknownOpcode{Word: 0xe000, Pc: 0x202}, err)
	assert.False(errors.Is(err, ErrHalt{}))
}

func TestCpu_AddImmediate(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	for a := range 256 {
		for nn := range 256 {
			cpu.Pc = PROGRAM_START
			cpu.Register[3] = uint8(a)
			cpu.Register[0xf] = 0x77
			require.NoError(t, cpu.Execute(MakeCodeNN(OP_ADD, REG_V3, uint8(nn))))
			assert.Equal(uint8((a+nn)&0xff), cpu.Register[3])
			assert.Equal(uint8(0x77), cpu.Register[0xf])
			assert.Equal(uint16(PROGRAM_START+2), cpu.Pc)
		}
	}
}

func TestCpu_AluAdd(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	for a := range 256 {
		for b := range 256 {
			cpu.Register[1] = uint8(a)
			cpu.Register[2] = uint8(b)
			require.NoError(t, cpu.Execute(MakeCodeAlu(ALU_OP_ADD, REG_V1, REG_V2)))

			carry := uint8(0)
			if a+b > 0xff {
				carry = 1
			}
			assert.Equal(uint8((a+b)&0xff), cpu.Register[1])
			assert.Equal(carry, cpu.Register[0xf])
		}
	}
}

func TestCpu_AluSub(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	for a := range 256 {
		for b := range 256 {
			cpu.Register[1] = uint8(a)
			cpu.Register[2] = uint8(b)
			require.NoError(t, cpu.Execute(MakeCodeAlu(ALU_OP_SUB, REG_V1, REG_V2)))

			flag := uint8(1)
			if a < b {
				flag = 0
			}
			assert.Equal(uint8(a-b), cpu.Register[1])
			assert.Equal(flag, cpu.Register[0xf], "%#x - %#x", a, b)

			cpu.Register[1] = uint8(a)
			cpu.Register[2] = uint8(b)
			require.NoError(t, cpu.Execute(MakeCodeAlu(ALU_OP_SUBN, REG_V1, REG_V2)))

			flag = uint8(1)
			if b < a {
				flag = 0
			}
			assert.Equal(uint8(b-a), cpu.Register[1])
			assert.Equal(flag, cpu.Register[0xf], "%#x - %#x", b, a)
		}
	}
}

func TestCpu_AluSubBoundary(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		op   CodeAluOp
		x, y uint8
		out  uint8
		flag uint8
	}{
		{ALU_OP_SUB, 0x00, 0x80, 0x80, 0},
		{ALU_OP_SUB, 0x80, 0x00, 0x80, 1},
		{ALU_OP_SUB, 0x00, 0x00, 0x00, 1},
		{ALU_OP_SUB, 0xff, 0xff, 0x00, 1},
		{ALU_OP_SUB, 0x00, 0xff, 0x01, 0},
		{ALU_OP_SUB, 0xff, 0x00, 0xff, 1},
		{ALU_OP_SUB, 0x7f, 0x80, 0xff, 0},
		{ALU_OP_SUBN, 0x80, 0x00, 0x80, 0},
		{ALU_OP_SUBN, 0x00, 0x80, 0x80, 1},
		{ALU_OP_SUBN, 0xff, 0x00, 0x01, 0},
		{ALU_OP_SUBN, 0x00, 0xff, 0xff, 1},
	}

	for _, entry := range table {
		cpu, _, _ := newTestCpu()
		cpu.Register[5] = entry.x
		cpu.Register[6] = entry.y
		assert.NoError(cpu.Execute(MakeCodeAlu(entry.op, REG_V5, REG_V6)))
		assert.Equal(entry.out, cpu.Register[5], "%v %#x %#x", entry.op, entry.x, entry.y)
		assert.Equal(entry.flag, cpu.Register[0xf], "%v %#x %#x", entry.op, entry.x, entry.y)
	}
}

func TestCpu_AluShift(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	for value := range 256 {
		cpu.Register[7] = uint8(value)
		require.NoError(t, cpu.Execute(MakeCodeAlu(ALU_OP_SHR, REG_V7, REG_V0)))
		assert.Equal(uint8(value>>1), cpu.Register[7])
		assert.Equal(uint8(value&1), cpu.Register[0xf])

		cpu.Register[7] = uint8(value)
		require.NoError(t, cpu.Execute(MakeCodeAlu(ALU_OP_SHL, REG_V7, REG_V0)))
		assert.Equal(uint8(value<<1), cpu.Register[7])
		assert.Equal(uint8(value>>7), cpu.Register[0xf])
	}
}

func TestCpu_AluLogic(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		op  CodeAluOp
		out uint8
	}{
		{ALU_OP_LD, 0x3c},
		{ALU_OP_OR, 0xfc},
		{ALU_OP_AND, 0x0c},
		{ALU_OP_XOR, 0xf0},
	}

	for _, entry := range table {
		cpu, _, _ := newTestCpu()
		cpu.Register[0xa] = 0xcc
		cpu.Register[0xb] = 0x3c
		cpu.Register[0xf] = 0x42
		assert.NoError(cpu.Execute(MakeCodeAlu(entry.op, REG_VA, REG_VB)))
		assert.Equal(entry.out, cpu.Register[0xa], entry.op.String())
		assert.Equal(uint8(0x3c), cpu.Register[0xb], entry.op.String())
		assert.Equal(uint8(0x42), cpu.Register[0xf], entry.op.String())
		assert.Equal(uint16(PROGRAM_START+2), cpu.Pc, entry.op.String())
	}
}

func TestCpu_FlagAsDestination(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name string
		code Code
		vf   uint8
		vy   uint8
		flag uint8
	}{
		{"add carry", MakeCodeAlu(ALU_OP_ADD, REG_VF, REG_V1), 0xff, 0x02, 1},
		{"add", MakeCodeAlu(ALU_OP_ADD, REG_VF, REG_V1), 0x10, 0x02, 0},
		{"sub", MakeCodeAlu(ALU_OP_SUB, REG_VF, REG_V1), 0x10, 0x02, 1},
		{"sub borrow", MakeCodeAlu(ALU_OP_SUB, REG_VF, REG_V1), 0x01, 0x02, 0},
		{"shr", MakeCodeAlu(ALU_OP_SHR, REG_VF, REG_V1), 0x03, 0x00, 1},
		{"shl", MakeCodeAlu(ALU_OP_SHL, REG_VF, REG_V1), 0x40, 0x00, 0},
	}

	for _, entry := range table {
		cpu, _, _ := newTestCpu()
		cpu.Register[0xf] = entry.vf
		cpu.Register[0x1] = entry.vy
		assert.NoError(cpu.Execute(entry.code), entry.name)
		assert.Equal(entry.flag, cpu.Register[0xf], entry.name)
	}
}

func TestCpu_Skip(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name string
		code Code
		vx   uint8
		vy   uint8
		skip bool
	}{
		{"se equal", MakeCodeNN(OP_SE, REG_V1, 0x12), 0x12, 0, true},
		{"se differ", MakeCodeNN(OP_SE, REG_V1, 0x12), 0x13, 0, false},
		{"se zero", MakeCodeNN(OP_SE, REG_V1, 0x00), 0x00, 0, true},
		{"se max", MakeCodeNN(OP_SE, REG_V1, 0xff), 0xff, 0, true},
		{"sne equal", MakeCodeNN(OP_SNE, REG_V1, 0x12), 0x12, 0, false},
		{"sne differ", MakeCodeNN(OP_SNE, REG_V1, 0x12), 0x13, 0, true},
		{"sne max", MakeCodeNN(OP_SNE, REG_V1, 0xff), 0x00, 0, true},
		{"se.reg equal", MakeCode(OP_SE_REG, REG_V1, REG_V2, 0), 0x80, 0x80, true},
		{"se.reg differ", MakeCode(OP_SE_REG, REG_V1, REG_V2, 0), 0x80, 0x81, false},
		{"sne.reg equal", MakeCode(OP_SNE_REG, REG_V1, REG_V2, 0), 0x80, 0x80, false},
		{"sne.reg differ", MakeCode(OP_SNE_REG, REG_V1, REG_V2, 0), 0x00, 0xff, true},
	}

	for _, entry := range table {
		cpu, _, _ := newTestCpu()
		cpu.Pc = 0x300
		cpu.Register[1] = entry.vx
		cpu.Register[2] = entry.vy
		assert.NoError(cpu.Execute(entry.code), entry.name)

		expected := uint16(0x302)
		if entry.skip {
			expected = 0x304
		}
		assert.Equal(expected, cpu.Pc, entry.name)
	}
}

func TestCpu_Jump(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	assert.NoError(cpu.Execute(MakeCodeNNN(OP_JP, 0xabc)))
	assert.Equal(uint16(0xabc), cpu.Pc)

	cpu.Register[0] = 0xff
	assert.NoError(cpu.Execute(MakeCodeNNN(OP_JP_V0, 0xf01)))
	assert.Equal(uint16(0x1000), cpu.Pc)

	cpu.Register[0] = 0x04
	assert.NoError(cpu.Execute(MakeCodeNNN(OP_JP_V0, 0x300)))
	assert.Equal(uint16(0x304), cpu.Pc)
	assert.True(cpu.Stack.Empty())
}

func TestCpu_Index(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	cpu.Register[0xf] = 0x33

	assert.NoError(cpu.Execute(MakeCodeNNN(OP_LD_I, 0xffe)))
	assert.Equal(uint16(0xffe), cpu.I)
	assert.Equal(uint16(0x202), cpu.Pc)

	cpu.Register[4] = 0x05
	assert.NoError(cpu.Execute(MakeCodeNN(OP_MISC, REG_V4, MISC_ADD_I)))
	assert.Equal(uint16(0x1003), cpu.I)
	assert.Equal(uint8(0x33), cpu.Register[0xf])
	assert.Equal(uint16(0x204), cpu.Pc)

	cpu.I = 0xffff
	cpu.Register[4] = 0x02
	assert.NoError(cpu.Execute(MakeCodeNN(OP_MISC, REG_V4, MISC_ADD_I)))
	assert.Equal(uint16(0x0001), cpu.I)
}

func TestCpu_Random(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	cpu.Random = rand.New(rand.NewPCG(1, 2))
	expected := rand.New(rand.NewPCG(1, 2))

	for _, nn := range []uint8{0xff, 0x0f, 0x81, 0x00, 0xff} {
		assert.NoError(cpu.Execute(MakeCodeNN(OP_RND, REG_V9, nn)))
		assert.Equal(uint8(expected.Uint32())&nn, cpu.Register[9])
	}

	cpu.Random = nil
	for range 64 {
		assert.NoError(cpu.Execute(MakeCodeNN(OP_RND, REG_V9, 0x3c)))
		assert.Equal(uint8(0), cpu.Register[9]&^0x3c)
	}
}

func TestCpu_Draw(t *testing.T) {
	assert := assert.New(t)

	cpu, ram, disp := newTestCpu()
	ram.StoreByte(0x300, 0xf0)
	ram.StoreByte(0x301, 0x90)
	ram.StoreByte(0x302, 0xff)
	cpu.I = 0x300
	cpu.Register[1] = 8
	cpu.Register[2] = 4
	cpu.Register[0xf] = 0x55

	code := MakeCode(OP_DRW, REG_V1, REG_V2, 2)
	assert.NoError(cpu.Execute(code))
	assert.Equal(uint8(0), cpu.Register[0xf])
	assert.Equal(6, disp.Lit())
	assert.True(disp.Pixel(8, 4))
	assert.True(disp.Pixel(11, 5))
	assert.False(disp.Pixel(8, 6))
	assert.Equal(uint16(0x300), cpu.I)
	assert.Equal(uint16(0x202), cpu.Pc)

	assert.NoError(cpu.Execute(code))
	assert.Equal(uint8(1), cpu.Register[0xf])
	assert.Equal(0, disp.Lit())

	assert.NoError(cpu.Execute(MakeCode(OP_DRW, REG_V1, REG_V2, 0)))
	assert.Equal(uint8(0), cpu.Register[0xf])
}

func TestCpu_DrawHeadless(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	cpu.Frame = nil
	cpu.Register[0xf] = 1

	assert.NoError(cpu.Execute(MakeCode(OP_DRW, REG_V1, REG_V2, 5)))
	assert.Equal(uint8(0), cpu.Register[0xf])
	assert.NoError(cpu.Execute(Code(0x00e0)))
	assert.Equal(uint16(0x204), cpu.Pc)
}

func TestCpu_Clear(t *testing.T) {
	assert := assert.New(t)

	cpu, _, disp := newTestCpu()
	disp.Draw(0, 0, []byte{0xff})

	assert.NoError(cpu.Execute(Code(0x00e0)))
	assert.Equal(0, disp.Lit())
	assert.Equal(uint16(0x202), cpu.Pc)
}

func TestCpu_Registers(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	for n := range REGISTER_COUNT {
		cpu.SetReg(CodeReg(n), uint8(n*3))
	}
	for n := range REGISTER_COUNT {
		assert.Equal(uint8(n*3), cpu.Reg(CodeReg(n)))
	}

	assert.PanicsWithValue(ErrRegisterInvalid, func() { cpu.Reg(16) })
	assert.PanicsWithValue(ErrRegisterInvalid, func() { cpu.SetReg(0xff, 1) })
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu, _, _ := newTestCpu()
	cpu.Register[0xa] = 0x5c
	text := cpu.String()
	assert.Contains(text, "   pc: 200\n")
	assert.Contains(text, "   va: 5C\n")
	assert.Contains(text, "stack: ---\n")

	cpu.Stack.Push(0x202)
	assert.Contains(cpu.String(), "stack: 202 (1)\n")
	assert.Equal(1+1+REGISTER_COUNT+1, strings.Count(cpu.String(), "\n"))
}
