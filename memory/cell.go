package memory

import (
	"encoding/binary"
	"fmt"
)

// Width is the size in bytes of a typed cell.
type Width int

const (
	W1 = Width(1) // 8-bit cell
	W2 = Width(2) // 16-bit cell
	W4 = Width(4) // 32-bit cell
	W8 = Width(8) // 64-bit cell
)

// Widths lists every valid width, narrowest first.
var Widths = [...]Width{W1, W2, W4, W8}

// Valid returns true for the four cell widths.
func (w Width) Valid() bool {
	switch w {
	case W1, W2, W4, W8:
		return true
	}
	return false
}

// Bits returns the width in bits.
func (w Width) Bits() uint {
	return uint(w) * 8
}

// Mask returns the all-ones value of the width.
func (w Width) Mask() uint64 {
	if w == W8 {
		return ^uint64(0)
	}
	return (uint64(1) << w.Bits()) - 1
}

func (w Width) String() string {
	return fmt.Sprintf("u%d", w.Bits())
}

// Cell is a width tagged raw value, used for register and memory contents.
// The payload always holds the raw bit pattern of the width; signed values
// are a reinterpretation of the same bits.
type Cell struct {
	width Width
	raw   uint64
}

// MakeCell creates a cell of the given width, truncating raw to fit.
func MakeCell(width Width, raw uint64) Cell {
	if !width.Valid() {
		panic(fmt.Sprintf("invalid cell width %d", int(width)))
	}
	return Cell{width: width, raw: raw & width.Mask()}
}

// U8 creates a 1 byte cell.
func U8(value uint8) Cell { return Cell{width: W1, raw: uint64(value)} }

// U16 creates a 2 byte cell.
func U16(value uint16) Cell { return Cell{width: W2, raw: uint64(value)} }

// U32 creates a 4 byte cell.
func U32(value uint32) Cell { return Cell{width: W4, raw: uint64(value)} }

// U64 creates an 8 byte cell.
func U64(value uint64) Cell { return Cell{width: W8, raw: value} }

// Width returns the number of bytes the cell occupies.
func (c Cell) Width() Width {
	return c.width
}

// Uint64 returns the raw bits, zero extended.
func (c Cell) Uint64() uint64 {
	return c.raw
}

// Int64 returns the raw bits as a two's complement value, sign extended.
func (c Cell) Int64() int64 {
	shift := 64 - c.width.Bits()
	return int64(c.raw<<shift) >> shift
}

// Resize returns the cell truncated or zero extended to another width.
func (c Cell) Resize(width Width) Cell {
	return MakeCell(width, c.raw)
}

func (c Cell) String() string {
	return fmt.Sprintf("%v:%#x", c.width, c.raw)
}

// put stores the little-endian bytes of the cell in buf.
func (c Cell) put(buf []byte) {
	switch c.width {
	case W1:
		buf[0] = uint8(c.raw)
	case W2:
		binary.LittleEndian.PutUint16(buf, uint16(c.raw))
	case W4:
		binary.LittleEndian.PutUint32(buf, uint32(c.raw))
	case W8:
		binary.LittleEndian.PutUint64(buf, c.raw)
	}
}

// cellOf reads a little-endian cell of width from buf.
func cellOf(width Width, buf []byte) (c Cell) {
	c.width = width
	switch width {
	case W1:
		c.raw = uint64(buf[0])
	case W2:
		c.raw = uint64(binary.LittleEndian.Uint16(buf))
	case W4:
		c.raw = uint64(binary.LittleEndian.Uint32(buf))
	case W8:
		c.raw = binary.LittleEndian.Uint64(buf)
	}
	return
}
