package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Addr: 0x200, Words: []string{"ld", "v0", "0x10"},
				Codes: []Code{MakeCodeNN(OP_LD, REG_V0, 0x10)}},
			{LineNo: 2, Addr: 0x202, Words: []string{"ld", "v1", "0x20"},
				Codes: []Code{MakeCodeNN(OP_LD, REG_V1, 0x20)}},
			{LineNo: 3, Addr: 0x204, Words: []string{"db", "1", "2", "3"},
				Data: []byte{1, 2, 3}},
			{LineNo: 4, Addr: 0x207, Words: []string{"add", "v0", "v1"},
				Codes: []Code{MakeCodeAlu(ALU_OP_ADD, REG_V0, REG_V1)}},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0x200)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x203)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0x206)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.Opcode.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(0x207)
	assert.NotNil(dbg.Opcode)
	assert.Equal(4, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	dbg := prog.Debug(0x1ff)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x209)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	assert.Equal([]byte{
		0x60, 0x10,
		0x61, 0x20,
		0x01, 0x02, 0x03,
		0x80, 0x14,
	}, prog.Binary())

	assert.Nil((&Program{}).Binary())
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	var addrs []uint16
	var codes []Code
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint16{0x200, 0x202, 0x207}, addrs)
	assert.Equal([]Code{0x6010, 0x6120, 0x8014}, codes)
}

func TestProgram_Codes_EarlyReturn(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	count := 0
	for range prog.Codes() {
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(2, count)
}

func TestProgram_Codes_Empty(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{}

	count := 0
	for range prog.Codes() {
		count++
	}

	assert.Equal(0, count)
}

func TestProgram_Integration_ParseAndDebug(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	source := strings.Join([]string{
		"; sprite drawing",
		"ld i, glyph",
		"drw v0, v1, 2",
		"glyph: db $C0, $C0",
	}, "\n")

	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal([]byte{0xa2, 0x04, 0xd0, 0x12, 0xc0, 0xc0}, prog.Binary())

	dbg := prog.Debug(0x202)
	if assert.NotNil(dbg.Opcode) {
		assert.Equal(3, dbg.LineNo)
		assert.Equal("drw v0, v1, $2", dbg.Codes[0].String())
	}

	dbg = prog.Debug(0x205)
	if assert.NotNil(dbg.Opcode) {
		assert.Equal(4, dbg.LineNo)
		assert.Equal(1, dbg.Index)
	}
}
