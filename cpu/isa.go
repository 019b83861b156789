package cpu

import (
	"github.com/ezrec/cvm/memory"
)

// Isa decodes instructions from memory. The CPU is generic over the
// instruction catalog; an Isa is the only thing that knows the encoding.
type Isa interface {
	// Decode the instruction at pc. A byte pattern with no instruction
	// fails with ErrInvalidOpcode.
	Decode(bank *memory.Bank, pc uint64) (insn Instruction, err error)
}

// Instruction is a decoded instruction: an opcode and its operands.
type Instruction interface {
	// Size returns the encoded width of the instruction in bytes.
	Size() uint64
	// Execute applies the instruction to the CPU state and returns the
	// next program counter. ErrHalt stops the CPU normally; any other
	// error faults it.
	Execute(cpu *Cpu) (next uint64, err error)
	// String returns the assembly form of the instruction.
	String() string
}
