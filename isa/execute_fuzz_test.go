package isa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/cvm/memory"
)

func shl(input uint64, rot uint64, width memory.Width) uint64 {
	rot %= uint64(width.Bits())
	return (input << rot) & width.Mask()
}

func shr(input uint64, rot uint64, width memory.Width) uint64 {
	rot %= uint64(width.Bits())
	return (input & width.Mask()) >> rot
}

func FuzzAlu(f *testing.F) {
	for _, width := range memory.Widths {
		f.Add(uint8(OP_ADD), uint8(width), uint64(0), uint64(0))
		f.Add(uint8(OP_DIVS), uint8(width), ^uint64(0), uint64(1))
		f.Add(uint8(OP_SAR), uint8(width), width.Mask(), uint64(width.Bits()+1))
	}

	f.Fuzz(func(t *testing.T, opcode uint8, size uint8, a uint64, b uint64) {
		assert := assert.New(t)

		op := Opcode(opcode % uint8(OP_LIMIT))
		width := memory.Width(size)
		if !width.Valid() || op.Form() != FORM_DST_SRC || op == OP_MOV || op == OP_SEXT {
			t.Skip()
		}

		input := memory.MakeCell(width, a)
		value := memory.MakeCell(width, b)

		out, err := doAlu(op, input, value)
		if errors.Is(err, ErrDivideByZero) {
			assert.Equal(uint64(0), value.Uint64())
			return
		}
		if !assert.NoError(err) {
			return
		}

		// Results never escape their width.
		assert.Equal(width, out.Width())
		assert.Equal(out.Uint64(), out.Uint64()&width.Mask())

		a, b = input.Uint64(), value.Uint64()
		switch op {
		case OP_ADD:
			sub, _ := doAlu(OP_SUB, out, value)
			assert.Equal(a, sub.Uint64())
		case OP_DIVU:
			rem, _ := doAlu(OP_REMU, input, value)
			assert.Equal(a, (out.Uint64()*b+rem.Uint64())&width.Mask())
			assert.Less(rem.Uint64(), b)
		case OP_DIVS:
			rem, _ := doAlu(OP_REMS, input, value)
			assert.Equal(a, (out.Uint64()*b+rem.Uint64())&width.Mask())
		case OP_SHL:
			assert.Equal(shl(a, b, width), out.Uint64())
		case OP_SHR:
			assert.Equal(shr(a, b, width), out.Uint64())
		case OP_EQ, OP_NE, OP_LTU, OP_LTS, OP_LEU, OP_LES:
			assert.LessOrEqual(out.Uint64(), uint64(1))
		}
	})
}
