package cpu

import (
	"iter"
)

// Registers is the register file: a fixed count of 64-bit raw values.
type Registers struct {
	value []uint64
}

// NewRegisters creates a zeroed register file.
func NewRegisters(count uint) *Registers {
	return &Registers{
		value: make([]uint64, count),
	}
}

// Count returns the number of registers.
func (regs *Registers) Count() uint64 {
	return uint64(len(regs.value))
}

func (regs *Registers) check(index uint64) (err error) {
	if index >= regs.Count() {
		err = &ErrRegister{Index: index, Count: regs.Count()}
	}
	return
}

// Read returns the value of a register.
func (regs *Registers) Read(index uint64) (value uint64, err error) {
	err = regs.check(index)
	if err != nil {
		return
	}

	value = regs.value[index]
	return
}

// Write replaces the value of a register.
func (regs *Registers) Write(index uint64, value uint64) (err error) {
	err = regs.check(index)
	if err != nil {
		return
	}

	regs.value[index] = value
	return
}

// Reset zeros all registers.
func (regs *Registers) Reset() {
	clear(regs.value)
}

// All iterates over the register indexes and values.
func (regs *Registers) All() iter.Seq2[uint64, uint64] {
	return func(yield func(index uint64, value uint64) bool) {
		for n, value := range regs.value {
			if !yield(uint64(n), value) {
				return
			}
		}
	}
}
