package cpu

import (
	"errors"

	"github.com/ezrec/cvm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalt            = errors.New(f("halt"))
	ErrInvalidRegister = errors.New(f("register invalid"))
	ErrInvalidOpcode   = errors.New(f("opcode invalid"))
	ErrOperandIndex    = errors.New(f("operand index too large"))

	// Configuration errors
	ErrConfig    = errors.New(f("config invalid"))
	ErrIsaAbsent = errors.New(f("no instruction set"))
)

// ErrRegister is a register access beyond the register file.
type ErrRegister struct {
	Index uint64 // Requested register.
	Count uint64 // Registers in the file.
}

func (err *ErrRegister) Error() string {
	return f("register %d of %d", err.Index, err.Count)
}

func (err *ErrRegister) Unwrap() error {
	return ErrInvalidRegister
}

// ErrOpcode is an instruction byte pattern with no instruction.
type ErrOpcode struct {
	Pc     uint64 // Address of the instruction.
	Opcode uint8  // Offending opcode byte.
}

func (err *ErrOpcode) Error() string {
	return f("bad opcode 0x%02x at %#x", err.Opcode, err.Pc)
}

func (err *ErrOpcode) Unwrap() error {
	return ErrInvalidOpcode
}

// ErrFault records the program counter of the instruction that faulted.
type ErrFault struct {
	Pc  uint64
	Err error
}

func (err *ErrFault) Error() string {
	return f("fault at pc %#x: %v", err.Pc, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}
