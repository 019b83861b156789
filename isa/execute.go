package isa

import (
	"errors"

	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/memory"
)

// Execute applies the instruction to the CPU, and returns the next program
// counter.
func (code Code) Execute(cp *cpu.Cpu) (next uint64, err error) {
	next = cp.Pc + code.Size()

	switch code.Op {
	case OP_HALT:
		err = cpu.ErrHalt
	case OP_NOP:
		// pass
	case OP_MOV:
		var val memory.Cell
		val, err = code.src(cp)
		if err != nil {
			return
		}
		err = code.setDst(cp, val)
	case OP_LDI:
		err = code.setDst(cp, memory.MakeCell(code.Width, code.Immediate))
	case OP_ADD, OP_SUB, OP_MUL, OP_DIVU, OP_DIVS, OP_REMU, OP_REMS,
		OP_AND, OP_OR, OP_XOR, OP_SHL, OP_SHR, OP_SAR,
		OP_EQ, OP_NE, OP_LTU, OP_LTS, OP_LEU, OP_LES:
		var input, val, output memory.Cell
		input, err = code.dst(cp)
		if err != nil {
			return
		}
		val, err = code.src(cp)
		if err != nil {
			return
		}
		output, err = doAlu(code.Op, input, val)
		if err != nil {
			return
		}
		err = code.setDst(cp, output)
	case OP_NOT, OP_NEG:
		var input memory.Cell
		input, err = code.dst(cp)
		if err != nil {
			return
		}
		output := ^input.Uint64()
		if code.Op == OP_NEG {
			output++
		}
		err = code.setDst(cp, memory.MakeCell(code.Width, output))
	case OP_SEXT:
		var val memory.Cell
		val, err = code.src(cp)
		if err != nil {
			return
		}
		err = code.setDst(cp, memory.U64(uint64(val.Int64())))
	case OP_JMP:
		next = code.Immediate
	case OP_JZ, OP_JNZ:
		var val memory.Cell
		val, err = cp.Read(code.Width, code.Operands[0])
		if err != nil {
			err = errors.Join(ErrSrc, err)
			return
		}
		if (val.Uint64() == 0) == (code.Op == OP_JZ) {
			next = code.Immediate
		}
	case OP_JMPR:
		var val memory.Cell
		val, err = cp.Read(memory.W8, code.Operands[0])
		if err != nil {
			err = errors.Join(ErrTarget, err)
			return
		}
		next = val.Uint64()
	default:
		err = &cpu.ErrOpcode{Pc: cp.Pc, Opcode: code.OpcodeByte()}
	}

	return
}

// dst reads the destination operand.
func (code Code) dst(cp *cpu.Cpu) (val memory.Cell, err error) {
	val, err = cp.Read(code.Width, code.Operands[0])
	if err != nil {
		err = errors.Join(ErrDst, err)
	}
	return
}

// src reads the source operand, which is always the last operand.
func (code Code) src(cp *cpu.Cpu) (val memory.Cell, err error) {
	val, err = cp.Read(code.Width, code.Operands[len(code.Operands)-1])
	if err != nil {
		err = errors.Join(ErrSrc, err)
	}
	return
}

// setDst writes the destination operand.
func (code Code) setDst(cp *cpu.Cpu, val memory.Cell) (err error) {
	err = cp.Write(val, code.Operands[0])
	if err != nil {
		err = errors.Join(ErrDst, err)
	}
	return
}

// doAlu performs the requested two operand operation at the width of input.
func doAlu(op Opcode, input memory.Cell, value memory.Cell) (output memory.Cell, err error) {
	width := input.Width()
	a, b := input.Uint64(), value.Uint64()
	sa, sb := input.Int64(), value.Int64()

	var out uint64
	switch op {
	case OP_ADD:
		out = a + b
	case OP_SUB:
		out = a - b
	case OP_MUL:
		out = a * b
	case OP_DIVU, OP_REMU, OP_DIVS, OP_REMS:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		switch op {
		case OP_DIVU:
			out = a / b
		case OP_REMU:
			out = a % b
		case OP_DIVS:
			out = uint64(sa / sb)
		case OP_REMS:
			out = uint64(sa % sb)
		}
	case OP_AND:
		out = a & b
	case OP_OR:
		out = a | b
	case OP_XOR:
		out = a ^ b
	case OP_SHL:
		out = a << (b % uint64(width.Bits()))
	case OP_SHR:
		out = a >> (b % uint64(width.Bits()))
	case OP_SAR:
		out = uint64(sa >> (b % uint64(width.Bits())))
	case OP_EQ:
		out = flag(a == b)
	case OP_NE:
		out = flag(a != b)
	case OP_LTU:
		out = flag(a < b)
	case OP_LTS:
		out = flag(sa < sb)
	case OP_LEU:
		out = flag(a <= b)
	case OP_LES:
		out = flag(sa <= sb)
	}

	output = memory.MakeCell(width, out)
	return
}

func flag(cond bool) uint64 {
	if cond {
		return 1
	}
	return 0
}
