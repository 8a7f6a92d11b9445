// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":           "0",
	"INSTRUCTION_SIZE": fmt.Sprintf("%v", INSTRUCTION_SIZE),
	"PROGRAM_START":    fmt.Sprintf("%#x", PROGRAM_START),
	"MEMORY_SIZE":      fmt.Sprintf("%#x", MEMORY_SIZE),
}

// Assembler is a single pass macro assembler for CHIP-8 programs.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Count of macro expansions, for unique '@' labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// PredefineAll adds every equate in defines.
func (asm *Assembler) PredefineAll(defines iter.Seq2[string, string]) {
	for equ, value := range defines {
		asm.Predefine(equ, value)
	}
}

// regMap is a map of register names to register indexes.
var regMap = map[string]CodeReg{
	"v0": REG_V0,
	"v1": REG_V1,
	"v2": REG_V2,
	"v3": REG_V3,
	"v4": REG_V4,
	"v5": REG_V5,
	"v6": REG_V6,
	"v7": REG_V7,
	"v8": REG_V8,
	"v9": REG_V9,
	"va": REG_VA,
	"vb": REG_VB,
	"vc": REG_VC,
	"vd": REG_VD,
	"ve": REG_VE,
	"vf": REG_VF,
}

// aluMap maps register-register ALU mnemonics.
var aluMap = map[string]CodeAluOp{
	"or":   ALU_OP_OR,
	"and":  ALU_OP_AND,
	"xor":  ALU_OP_XOR,
	"sub":  ALU_OP_SUB,
	"subn": ALU_OP_SUBN,
}

// shiftMap maps shift mnemonics.
var shiftMap = map[string]CodeAluOp{
	"shr": ALU_OP_SHR,
	"shl": ALU_OP_SHL,
}

var (
	labelRe = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`) // Words usable as labels.
	charRe  = regexp.MustCompile(`'\\?[^']'`)                  // 'c' literals.
	parenRe = regexp.MustCompile(`\$\([^\$]*\)`)               // $(expr) expressions.
)

// isRegister returns true if the word names a V register.
func isRegister(word string) (ok bool) {
	_, ok = regMap[strings.ToLower(word)]
	return
}

// register returns the register index of a word.
func register(word string) (reg CodeReg, err error) {
	reg, ok := regMap[strings.ToLower(word)]
	if !ok {
		err = ErrParseRegister(word)
	}
	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	negate := false
	text := word
	if strings.HasPrefix(text, "-") {
		negate = true
		text = text[1:]
	}

	var v64 int64
	if strings.HasPrefix(text, "$") {
		v64, err = strconv.ParseInt(text[1:], 16, 32)
	} else {
		v64, err = strconv.ParseInt(text, 0, 32)
	}
	if err != nil || len(text) == 0 {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	if negate {
		value = -value
	}

	return
}

// rangeOf returns the value of a word, checked against [-(limit+1)/2, limit].
// Negative values are encoded as two's complement in the field width.
func (asm *Assembler) rangeOf(word string, limit int) (value int, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value > limit || value < -(limit+1)/2 {
		err = ErrValueRange
		return
	}

	value &= limit

	return
}

// addressOf returns a 12-bit address, or a label to link later.
func (asm *Assembler) addressOf(word string) (addr uint16, label string, err error) {
	value, err := asm.rangeOf(word, 0xfff)
	if err == nil {
		addr = uint16(value)
		return
	}

	if _, is_num := err.(ErrParseNumber); is_num && labelRe.MatchString(word) {
		label = word
		err = nil
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var val int
		val, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(val)
	}
	err = nil

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// splitWords breaks a line into words on spaces, tabs and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRe.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		prefix := fmt.Sprintf("%v_%v_", name, asm.expansions)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", prefix)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the address of the next opcode.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := &asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + last.Size()
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.expansions = 0
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = splitWords(strings.Join(words[2:], " "))
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if asm.currentAddr() > MEMORY_SIZE {
		err = ErrValueRange
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno, line = op.LineNo, strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			lineno, line = op.LineNo, strings.Join(op.Words, " ")
			err = ErrValueRange
			return
		}
		if len(op.Codes) != 1 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		op.Codes[0] = MakeCodeNNN(op.Codes[0].Class(), uint16(addr))
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// argCount verifies the number of operands.
func argCount(args []string, least, most int) (err error) {
	switch {
	case len(args) < least:
		err = ErrOpcodeValueMissing
	case len(args) > most:
		err = ErrOpcodeExtraArgs
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || (len(codes) == 0 && len(data) == 0) {
			return
		}
		opcode := Opcode{
			LineNo:    lineno,
			Addr:      asm.currentAddr(),
			Words:     initial_words,
			Codes:     codes,
			Data:      data,
			LinkLabel: label,
		}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	// byteArg parses args[1] as an immediate byte.
	byteArg := func() (nn uint8, err error) {
		value, err := asm.rangeOf(args[1], 0xff)
		nn = uint8(value)
		return
	}

	switch mnemonic {
	case "cls":
		if err = argCount(args, 0, 0); err != nil {
			return
		}
		codes = append(codes, MakeCodeNN(OP_SYS, REG_V0, SYS_CLS))
	case "ret":
		if err = argCount(args, 0, 0); err != nil {
			return
		}
		codes = append(codes, MakeCodeNN(OP_SYS, REG_V0, SYS_RET))
	case "jp":
		if err = argCount(args, 1, 2); err != nil {
			return
		}
		class := OP_JP
		if len(args) == 2 {
			if strings.ToLower(args[0]) != "v0" {
				err = ErrParseRegister(args[0])
				return
			}
			class = OP_JP_V0
			args = args[1:]
		}
		var addr uint16
		addr, label, err = asm.addressOf(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeNNN(class, addr))
	case "call":
		if err = argCount(args, 1, 1); err != nil {
			return
		}
		var addr uint16
		addr, label, err = asm.addressOf(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeNNN(OP_CALL, addr))
	case "se", "sne", "ld", "add":
		if err = argCount(args, 2, 2); err != nil {
			return
		}

		// Index register forms.
		if strings.ToLower(args[0]) == "i" {
			switch mnemonic {
			case "ld":
				var addr uint16
				addr, label, err = asm.addressOf(args[1])
				if err != nil {
					return
				}
				codes = append(codes, MakeCodeNNN(OP_LD_I, addr))
			case "add":
				var x CodeReg
				x, err = register(args[1])
				if err != nil {
					return
				}
				codes = append(codes, MakeCodeNN(OP_MISC, x, MISC_ADD_I))
			default:
				err = ErrInstructionInvalid
			}
			return
		}

		var x CodeReg
		x, err = register(args[0])
		if err != nil {
			return
		}

		if isRegister(args[1]) {
			y, _ := register(args[1])
			switch mnemonic {
			case "se":
				codes = append(codes, MakeCode(OP_SE_REG, x, y, 0))
			case "sne":
				codes = append(codes, MakeCode(OP_SNE_REG, x, y, 0))
			case "ld":
				codes = append(codes, MakeCodeAlu(ALU_OP_LD, x, y))
			case "add":
				codes = append(codes, MakeCodeAlu(ALU_OP_ADD, x, y))
			}
			return
		}

		var nn uint8
		nn, err = byteArg()
		if err != nil {
			return
		}
		class := map[string]CodeClass{
			"se":  OP_SE,
			"sne": OP_SNE,
			"ld":  OP_LD,
			"add": OP_ADD,
		}[mnemonic]
		codes = append(codes, MakeCodeNN(class, x, nn))
	case "or", "and", "xor", "sub", "subn":
		if err = argCount(args, 2, 2); err != nil {
			return
		}
		var x, y CodeReg
		if x, err = register(args[0]); err != nil {
			return
		}
		if y, err = register(args[1]); err != nil {
			return
		}
		codes = append(codes, MakeCodeAlu(aluMap[mnemonic], x, y))
	case "shr", "shl":
		if err = argCount(args, 1, 2); err != nil {
			return
		}
		var x, y CodeReg
		if x, err = register(args[0]); err != nil {
			return
		}
		y = x
		if len(args) == 2 {
			if y, err = register(args[1]); err != nil {
				return
			}
		}
		codes = append(codes, MakeCodeAlu(shiftMap[mnemonic], x, y))
	case "rnd":
		if err = argCount(args, 2, 2); err != nil {
			return
		}
		var x CodeReg
		if x, err = register(args[0]); err != nil {
			return
		}
		var nn uint8
		if nn, err = byteArg(); err != nil {
			return
		}
		codes = append(codes, MakeCodeNN(OP_RND, x, nn))
	case "drw":
		if err = argCount(args, 3, 3); err != nil {
			return
		}
		var x, y CodeReg
		if x, err = register(args[0]); err != nil {
			return
		}
		if y, err = register(args[1]); err != nil {
			return
		}
		var n int
		if n, err = asm.rangeOf(args[2], 0xf); err != nil {
			return
		}
		codes = append(codes, MakeCode(OP_DRW, x, y, uint8(n)))
	case "db":
		if err = argCount(args, 1, len(args)); err != nil {
			return
		}
		for _, arg := range args {
			var value int
			if value, err = asm.rangeOf(arg, 0xff); err != nil {
				return
			}
			data = append(data, byte(value))
		}
	case "dw":
		if err = argCount(args, 1, len(args)); err != nil {
			return
		}
		for _, arg := range args {
			var value int
			if value, err = asm.rangeOf(arg, 0xffff); err != nil {
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
