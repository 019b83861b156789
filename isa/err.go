package isa

import (
	"errors"

	"github.com/ezrec/cvm/translate"
)

var f = translate.From

var (
	// Execution errors
	ErrDivideByZero = errors.New(f("divide by zero"))
	ErrDst          = errors.New(f("dst"))
	ErrSrc          = errors.New(f("src"))
	ErrTarget       = errors.New(f("target"))

	// Encoding errors
	ErrOpcodeUnknown = errors.New(f("opcode unknown"))
	ErrOperandCount  = errors.New(f("operand count mismatch"))
)
