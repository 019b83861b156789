package isa

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/memory"
)

var _isa_defines = map[string]string{
	"WORD":         fmt.Sprintf("%d", int(memory.W8)),
	"OPCODE_SIZE":  fmt.Sprintf("%d", OPCODE_SIZE),
	"OPERAND_SIZE": fmt.Sprintf("%d", OPERAND_SIZE),
	"TARGET_SIZE":  fmt.Sprintf("%d", TARGET_SIZE),
}

// Isa is the reference instruction catalog.
type Isa struct{}

var _ cpu.Isa = Isa{}

// Decode the instruction at pc.
func (Isa) Decode(bank *memory.Bank, pc uint64) (insn cpu.Instruction, err error) {
	code, err := DecodeCode(bank, pc)
	if err != nil {
		return
	}

	insn = code
	return
}

// DecodeCode decodes the instruction at pc into its concrete form.
func DecodeCode(bank *memory.Bank, pc uint64) (code Code, err error) {
	first, err := bank.Read(memory.W1, pc)
	if err != nil {
		return
	}

	b := uint8(first.Uint64())
	op := Opcode(b >> 2)
	if !op.Valid() {
		err = &cpu.ErrOpcode{Pc: pc, Opcode: b}
		return
	}

	code = Code{Op: op, Width: memory.Widths[b&3]}
	if !op.Sized() {
		code.Width = memory.W1
	}

	form := op.Form()
	addr := pc + OPCODE_SIZE
	for range form.Operands() {
		var word memory.Cell
		word, err = bank.Read(memory.W4, addr)
		if err != nil {
			return
		}
		code.Operands = append(code.Operands, cpu.UnpackOperand(uint32(word.Uint64())))
		addr += OPERAND_SIZE
	}

	var imm memory.Cell
	switch {
	case form.Immediate():
		imm, err = bank.Read(code.Width, addr)
	case form.Target():
		imm, err = bank.Read(memory.W8, addr)
	}
	if err != nil {
		return
	}
	code.Immediate = imm.Uint64()

	return
}

// Defines returns the catalog constants offered to the assembler.
func (Isa) Defines() iter.Seq2[string, string] {
	return maps.All(_isa_defines)
}
