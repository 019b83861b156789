// Package memory implements the typed cells and the byte addressed memory
// bank of the virtual CPU.
//
// Cells are stored little-endian. Every access is bounds checked against the
// bank size fixed at construction; there is no wraparound and no resizing.
package memory

import (
	"errors"
	"io"
)

const (
	MAX_EXPONENT = 40 // Largest bank, 1 TiB.
)

// Bank is a fixed size, byte addressable, bounds checked memory.
type Bank struct {
	data []byte
}

// NewBank creates a zeroed bank of (1 << exponent) bytes.
func NewBank(exponent uint) (bank *Bank, err error) {
	if exponent > MAX_EXPONENT {
		err = errors.Join(ErrBankSize, errors.New(f("exponent %d above %d", exponent, MAX_EXPONENT)))
		return
	}

	bank = &Bank{
		data: make([]byte, uint64(1)<<exponent),
	}

	return
}

// Size returns the bank size in bytes.
func (bank *Bank) Size() uint64 {
	return uint64(len(bank.data))
}

// Reset zeros the bank.
func (bank *Bank) Reset() {
	clear(bank.data)
}

// check verifies that [address, address+width) lies within the bank.
func (bank *Bank) check(address uint64, width Width) (err error) {
	size := bank.Size()
	if uint64(width) > size || address > size-uint64(width) {
		err = &ErrAccess{Address: address, Width: width, Size: size}
	}
	return
}

// Read returns the cell of the given width stored at address.
func (bank *Bank) Read(width Width, address uint64) (cell Cell, err error) {
	if !width.Valid() {
		err = ErrWidth
		return
	}

	err = bank.check(address, width)
	if err != nil {
		return
	}

	cell = cellOf(width, bank.data[address:address+uint64(width)])
	return
}

// Write stores the raw bytes of the cell at address.
func (bank *Bank) Write(cell Cell, address uint64) (err error) {
	width := cell.Width()
	if !width.Valid() {
		err = ErrWidth
		return
	}

	err = bank.check(address, width)
	if err != nil {
		return
	}

	cell.put(bank.data[address : address+uint64(width)])
	return
}

// Bytes returns a copy of length bytes starting at address.
func (bank *Bank) Bytes(address uint64, length uint64) (data []byte, err error) {
	size := bank.Size()
	if length > size || address > size-length {
		err = &ErrAccess{Address: address, Width: Width(length), Size: size}
		return
	}

	data = make([]byte, length)
	copy(data, bank.data[address:address+length])
	return
}

// Load fills the bank from address 0 with the contents of r.
// A stream that does not fit in the bank fails with ErrOutOfBounds.
func (bank *Bank) Load(r io.Reader) (n int, err error) {
	n, err = io.ReadFull(r, bank.data)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		err = nil
		return
	case err != nil:
		return
	}

	// The bank is full; anything left over does not fit.
	var extra [1]byte
	more, _ := io.ReadFull(r, extra[:])
	if more != 0 {
		err = &ErrAccess{Address: bank.Size(), Width: W1, Size: bank.Size()}
	}

	return
}
