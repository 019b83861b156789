package memory

import (
	"errors"

	"github.com/ezrec/cvm/translate"
)

var f = translate.From

var (
	// Memory bank errors
	ErrOutOfBounds = errors.New(f("out of bounds"))
	ErrWidth       = errors.New(f("width invalid"))
	ErrBankSize    = errors.New(f("bank size invalid"))
)

// ErrAccess describes a bank access that does not fit in the bank.
type ErrAccess struct {
	Address uint64 // First byte of the access.
	Width   Width  // Bytes touched by the access.
	Size    uint64 // Size of the bank.
}

func (err *ErrAccess) Error() string {
	return f("%d byte access at %#x exceeds bank of %#x bytes", int(err.Width), err.Address, err.Size)
}

func (err *ErrAccess) Unwrap() error {
	return ErrOutOfBounds
}
