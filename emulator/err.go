package emulator

import (
	"errors"

	"github.com/ezrec/cvm/memory"
	"github.com/ezrec/cvm/translate"
)

var f = translate.From

var (
	ErrExpect = errors.New(f("expectation failed"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint64
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return err.Err.Error()
	}
	return f("line %d: %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrMismatch is a memory cell that does not hold the expected value.
type ErrMismatch struct {
	Address  uint64
	Width    memory.Width
	Expected uint64
	Actual   uint64
}

func (err *ErrMismatch) Error() string {
	return f("%v at %#x is %#x, expected %#x", err.Width, err.Address, err.Actual, err.Expected)
}

func (err *ErrMismatch) Unwrap() error {
	return ErrExpect
}
