package isa

import (
	"fmt"
	"strings"

	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/memory"
)

// Opcode is an instruction operation.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_HALT = Opcode(0)  // halt
	OP_NOP  = Opcode(1)  // nop
	OP_MOV  = Opcode(2)  // mov
	OP_LDI  = Opcode(3)  // ldi
	OP_ADD  = Opcode(4)  // add
	OP_SUB  = Opcode(5)  // sub
	OP_MUL  = Opcode(6)  // mul
	OP_DIVU = Opcode(7)  // divu
	OP_DIVS = Opcode(8)  // divs
	OP_REMU = Opcode(9)  // remu
	OP_REMS = Opcode(10) // rems
	OP_AND  = Opcode(11) // and
	OP_OR   = Opcode(12) // or
	OP_XOR  = Opcode(13) // xor
	OP_SHL  = Opcode(14) // shl
	OP_SHR  = Opcode(15) // shr
	OP_SAR  = Opcode(16) // sar
	OP_NOT  = Opcode(17) // not
	OP_NEG  = Opcode(18) // neg
	OP_SEXT = Opcode(19) // sext
	OP_EQ   = Opcode(20) // eq
	OP_NE   = Opcode(21) // ne
	OP_LTU  = Opcode(22) // ltu
	OP_LTS  = Opcode(23) // lts
	OP_LEU  = Opcode(24) // leu
	OP_LES  = Opcode(25) // les
	OP_JMP  = Opcode(26) // jmp
	OP_JZ   = Opcode(27) // jz
	OP_JNZ  = Opcode(28) // jnz
	OP_JMPR = Opcode(29) // jmpr
)

// OP_LIMIT is one past the last opcode.
const OP_LIMIT = OP_JMPR + 1

// Form is the operand layout of an opcode.
type Form int

const (
	FORM_NONE       = Form(0) // op
	FORM_DST        = Form(1) // op dst
	FORM_DST_SRC    = Form(2) // op dst src
	FORM_DST_IMM    = Form(3) // op dst imm
	FORM_TARGET     = Form(4) // op target
	FORM_SRC_TARGET = Form(5) // op src target
	FORM_SRC        = Form(6) // op src
)

var _forms = [OP_LIMIT]Form{
	OP_HALT: FORM_NONE,
	OP_NOP:  FORM_NONE,
	OP_MOV:  FORM_DST_SRC,
	OP_LDI:  FORM_DST_IMM,
	OP_ADD:  FORM_DST_SRC,
	OP_SUB:  FORM_DST_SRC,
	OP_MUL:  FORM_DST_SRC,
	OP_DIVU: FORM_DST_SRC,
	OP_DIVS: FORM_DST_SRC,
	OP_REMU: FORM_DST_SRC,
	OP_REMS: FORM_DST_SRC,
	OP_AND:  FORM_DST_SRC,
	OP_OR:   FORM_DST_SRC,
	OP_XOR:  FORM_DST_SRC,
	OP_SHL:  FORM_DST_SRC,
	OP_SHR:  FORM_DST_SRC,
	OP_SAR:  FORM_DST_SRC,
	OP_NOT:  FORM_DST,
	OP_NEG:  FORM_DST,
	OP_SEXT: FORM_DST_SRC,
	OP_EQ:   FORM_DST_SRC,
	OP_NE:   FORM_DST_SRC,
	OP_LTU:  FORM_DST_SRC,
	OP_LTS:  FORM_DST_SRC,
	OP_LEU:  FORM_DST_SRC,
	OP_LES:  FORM_DST_SRC,
	OP_JMP:  FORM_TARGET,
	OP_JZ:   FORM_SRC_TARGET,
	OP_JNZ:  FORM_SRC_TARGET,
	OP_JMPR: FORM_SRC,
}

// Valid returns true for opcodes with an instruction.
func (op Opcode) Valid() bool {
	return op >= 0 && op < OP_LIMIT
}

// Form returns the operand layout of the opcode. Opcodes without an
// instruction have no operands.
func (op Opcode) Form() Form {
	if !op.Valid() {
		return FORM_NONE
	}
	return _forms[op]
}

// Sized returns true if the width of the instruction affects its result.
// Unsized instructions are encoded with width 1.
func (op Opcode) Sized() bool {
	switch op {
	case OP_HALT, OP_NOP, OP_JMP, OP_JMPR:
		return false
	}
	return true
}

// Operands returns the number of operand words of the form.
func (form Form) Operands() int {
	switch form {
	case FORM_DST_SRC:
		return 2
	case FORM_DST, FORM_DST_IMM, FORM_SRC_TARGET, FORM_SRC:
		return 1
	}
	return 0
}

// Immediate returns true if the form carries a width sized immediate.
func (form Form) Immediate() bool {
	return form == FORM_DST_IMM
}

// Target returns true if the form carries an 8 byte jump target.
func (form Form) Target() bool {
	return form == FORM_TARGET || form == FORM_SRC_TARGET
}

// Encoding layout sizes, in bytes.
const (
	OPCODE_SIZE  = 1
	OPERAND_SIZE = 4
	TARGET_SIZE  = 8
)

// widthCode maps a width to the low two bits of the opcode byte.
func widthCode(width memory.Width) (code uint8) {
	switch width {
	case memory.W1:
		code = 0
	case memory.W2:
		code = 1
	case memory.W4:
		code = 2
	case memory.W8:
		code = 3
	}
	return
}

// Code is a decoded instruction.
type Code struct {
	Op        Opcode        // Operation.
	Width     memory.Width  // Width of the operands.
	Operands  []cpu.Operand // Destination first, then source.
	Immediate uint64        // ldi value, or jump target.
}

var _ cpu.Instruction = Code{}

// MakeCode creates an instruction without immediate or target.
func MakeCode(op Opcode, width memory.Width, operands ...cpu.Operand) Code {
	if !op.Sized() {
		width = memory.W1
	}
	return Code{Op: op, Width: width, Operands: operands}
}

// MakeCodeHalt creates a halt instruction.
func MakeCodeHalt() Code {
	return MakeCode(OP_HALT, memory.W1)
}

// MakeCodeLdi creates a load immediate instruction.
func MakeCodeLdi(width memory.Width, dst cpu.Operand, value uint64) Code {
	return Code{Op: OP_LDI, Width: width, Operands: []cpu.Operand{dst}, Immediate: value & width.Mask()}
}

// MakeCodeJump creates a jump instruction; operands are the jz/jnz source.
func MakeCodeJump(op Opcode, width memory.Width, target uint64, operands ...cpu.Operand) Code {
	code := MakeCode(op, width, operands...)
	code.Immediate = target
	return code
}

// OpcodeByte returns the first byte of the encoding.
func (code Code) OpcodeByte() uint8 {
	return uint8(code.Op)<<2 | widthCode(code.Width)
}

// Size returns the encoded width of the instruction in bytes.
func (code Code) Size() (size uint64) {
	form := code.Op.Form()

	size = OPCODE_SIZE + OPERAND_SIZE*uint64(form.Operands())
	if form.Immediate() {
		size += uint64(code.Width)
	}
	if form.Target() {
		size += TARGET_SIZE
	}

	return
}

// Bytes returns the encoding of the instruction.
func (code Code) Bytes() (data []byte, err error) {
	if !code.Op.Valid() {
		err = ErrOpcodeUnknown
		return
	}
	if !code.Width.Valid() {
		err = memory.ErrWidth
		return
	}

	form := code.Op.Form()
	if len(code.Operands) != form.Operands() {
		err = ErrOperandCount
		return
	}

	data = make([]byte, 0, code.Size())
	data = append(data, code.OpcodeByte())
	for _, op := range code.Operands {
		var word uint32
		word, err = op.Pack()
		if err != nil {
			return
		}
		data = appendCell(data, memory.U32(word))
	}
	if form.Immediate() {
		data = appendCell(data, memory.MakeCell(code.Width, code.Immediate))
	}
	if form.Target() {
		data = appendCell(data, memory.U64(code.Immediate))
	}

	return
}

// appendCell appends the little-endian bytes of a cell.
func appendCell(data []byte, cell memory.Cell) []byte {
	value := cell.Uint64()
	for range int(cell.Width()) {
		data = append(data, uint8(value))
		value >>= 8
	}
	return data
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	words := []string{code.Op.String()}
	if code.Op.Sized() {
		words[0] = fmt.Sprintf("%v.%d", code.Op, int(code.Width))
	}

	for _, op := range code.Operands {
		words = append(words, op.String())
	}

	form := code.Op.Form()
	if form.Immediate() || form.Target() {
		words = append(words, fmt.Sprintf("%#x", code.Immediate))
	}

	return strings.Join(words, " ")
}
