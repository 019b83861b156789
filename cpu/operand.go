package cpu

import (
	"fmt"
)

// Packed operand word layout.
const (
	OPERAND_REGISTER   = uint32(1 << 31)              // Operand names a register.
	OPERAND_INDIRECT   = uint32(1 << 30)              // Operand follows one pointer.
	OPERAND_INDEX_MASK = uint32(OPERAND_INDIRECT - 1) // Register or memory index.
)

// Operand is a reference to a register or a memory location, optionally
// through one level of pointer indirection. It holds no value; it is
// resolved against the current machine state at access time.
type Operand struct {
	index    uint64
	register bool
	indirect bool
}

// MakeOperand creates an operand descriptor.
func MakeOperand(index uint64, register bool, indirect bool) Operand {
	return Operand{index: index, register: register, indirect: indirect}
}

// Reg is register index.
func Reg(index uint64) Operand { return MakeOperand(index, true, false) }

// RegIndirect is the memory addressed by register index.
func RegIndirect(index uint64) Operand { return MakeOperand(index, true, true) }

// Mem is memory at address.
func Mem(address uint64) Operand { return MakeOperand(address, false, false) }

// MemIndirect is the memory addressed by the pointer stored at address.
func MemIndirect(address uint64) Operand { return MakeOperand(address, false, true) }

// Index returns the register number or memory address.
func (op Operand) Index() uint64 {
	return op.index
}

// Register returns true if the operand names a register.
func (op Operand) Register() bool {
	return op.register
}

// Indirect returns true if the operand follows a pointer.
func (op Operand) Indirect() bool {
	return op.indirect
}

// Pack returns the 32-bit encoding of the operand.
func (op Operand) Pack() (word uint32, err error) {
	if op.index > uint64(OPERAND_INDEX_MASK) {
		err = ErrOperandIndex
		return
	}

	word = uint32(op.index)
	if op.register {
		word |= OPERAND_REGISTER
	}
	if op.indirect {
		word |= OPERAND_INDIRECT
	}

	return
}

// UnpackOperand decodes a 32-bit operand word.
func UnpackOperand(word uint32) Operand {
	return Operand{
		index:    uint64(word & OPERAND_INDEX_MASK),
		register: (word & OPERAND_REGISTER) != 0,
		indirect: (word & OPERAND_INDIRECT) != 0,
	}
}

// String returns the assembly form of the operand.
func (op Operand) String() (text string) {
	if op.register {
		text = fmt.Sprintf("r%d", op.index)
	} else {
		text = fmt.Sprintf("%#x", op.index)
	}

	if op.indirect {
		text = "[" + text + "]"
	}

	return
}

// Location is a resolved operand: a register, or a memory address.
type Location struct {
	Register bool
	Index    uint64
}

func (loc Location) String() string {
	if loc.Register {
		return fmt.Sprintf("r%d", loc.Index)
	}
	return fmt.Sprintf("@%#x", loc.Index)
}
