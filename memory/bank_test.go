package memory

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBank(t *testing.T) {
	assert := assert.New(t)

	bank, err := NewBank(10)
	assert.NoError(err)
	assert.Equal(uint64(1024), bank.Size())

	bank, err = NewBank(0)
	assert.NoError(err)
	assert.Equal(uint64(1), bank.Size())

	_, err = NewBank(MAX_EXPONENT + 1)
	assert.ErrorIs(err, ErrBankSize)
}

func TestBank_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	bank, err := NewBank(10)
	require.NoError(t, err)

	table := []Cell{
		U8(math.MaxUint8),
		U16(math.MaxUint16),
		U32(math.MaxUint32),
		U64(math.MaxUint64),
		U8(0),
		U16(0),
		U32(0),
		U64(0),
		U8(math.MaxInt8),
		U16(math.MaxInt16),
		U32(math.MaxInt32),
		U64(math.MaxInt64),
		MakeCell(W1, 1<<7),
		MakeCell(W2, 1<<15),
		MakeCell(W4, 1<<31),
		MakeCell(W8, 1<<63),
	}

	for _, address := range []uint64{0, 1, 7, 512, 1016} {
		for _, cell := range table {
			err = bank.Write(cell, address)
			assert.NoError(err, "%v @ %d", cell, address)
			read, err := bank.Read(cell.Width(), address)
			assert.NoError(err)
			assert.Equal(cell, read, "%v @ %d", cell, address)
			assert.Equal(cell.Int64(), read.Int64())
		}
	}
}

func TestBank_LittleEndian(t *testing.T) {
	assert := assert.New(t)

	bank, err := NewBank(4)
	require.NoError(t, err)

	assert.NoError(bank.Write(U32(0x11223344), 4))
	data, err := bank.Bytes(4, 4)
	assert.NoError(err)
	assert.Equal([]byte{0x44, 0x33, 0x22, 0x11}, data)

	cell, err := bank.Read(W2, 5)
	assert.NoError(err)
	assert.Equal(U16(0x2233), cell)

	// Narrow writes only touch their own bytes.
	assert.NoError(bank.Write(U8(0xaa), 6))
	cell, err = bank.Read(W4, 4)
	assert.NoError(err)
	assert.Equal(U32(0x11aa3344), cell)
}

func TestBank_Bounds(t *testing.T) {
	assert := assert.New(t)

	bank, err := NewBank(16)
	require.NoError(t, err)
	size := bank.Size()
	assert.Equal(uint64(65536), size)

	for _, width := range Widths {
		last := size - uint64(width)

		_, err = bank.Read(width, last)
		assert.NoError(err, "%v", width)
		assert.NoError(bank.Write(MakeCell(width, 1), last), "%v", width)

		for _, address := range []uint64{last + 1, size, size + 100, math.MaxUint64 - 2, math.MaxUint64} {
			_, err = bank.Read(width, address)
			assert.ErrorIs(err, ErrOutOfBounds, "%v @ %#x", width, address)
			err = bank.Write(MakeCell(width, 1), address)
			assert.ErrorIs(err, ErrOutOfBounds, "%v @ %#x", width, address)
		}
	}

	// Writing an 8 byte cell at the final byte faults.
	err = bank.Write(U64(100), 65535)
	assert.ErrorIs(err, ErrOutOfBounds)
	var access *ErrAccess
	assert.True(errors.As(err, &access))
	assert.Equal(uint64(65535), access.Address)
	assert.Equal(W8, access.Width)
	assert.Equal(uint64(65536), access.Size)
}

func TestBank_Width(t *testing.T) {
	assert := assert.New(t)

	bank, err := NewBank(4)
	require.NoError(t, err)

	_, err = bank.Read(Width(3), 0)
	assert.ErrorIs(err, ErrWidth)
	assert.ErrorIs(bank.Write(Cell{}, 0), ErrWidth)
}

// stallReader returns (0, nil) before every byte it reads.
type stallReader struct {
	data    []byte
	stalled bool
}

func (sr *stallReader) Read(p []byte) (n int, err error) {
	if len(sr.data) == 0 {
		err = io.EOF
		return
	}
	if !sr.stalled {
		sr.stalled = true
		return
	}
	sr.stalled = false

	n = copy(p[:1], sr.data)
	sr.data = sr.data[n:]
	return
}

func TestBank_Load(t *testing.T) {
	assert := assert.New(t)

	bank, err := NewBank(3)
	require.NoError(t, err)

	n, err := bank.Load(bytes.NewReader([]byte{1, 2, 3}))
	assert.NoError(err)
	assert.Equal(3, n)
	cell, err := bank.Read(W4, 0)
	assert.NoError(err)
	assert.Equal(U32(0x030201), cell)

	bank.Reset()
	n, err = bank.Load(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.NoError(err)
	assert.Equal(8, n)

	bank.Reset()
	_, err = bank.Load(bytes.NewReader(make([]byte, 9)))
	assert.ErrorIs(err, ErrOutOfBounds)

	// Readers may return no bytes and no error before the overflow.
	bank.Reset()
	_, err = bank.Load(&stallReader{data: make([]byte, 9)})
	assert.ErrorIs(err, ErrOutOfBounds)

	bank.Reset()
	n, err = bank.Load(bytes.NewReader(nil))
	assert.NoError(err)
	assert.Equal(0, n)
}

func TestBank_Bytes(t *testing.T) {
	assert := assert.New(t)

	bank, err := NewBank(4)
	require.NoError(t, err)

	data, err := bank.Bytes(0, 16)
	assert.NoError(err)
	assert.Len(data, 16)

	// A copy, not a view.
	data[0] = 0xff
	cell, _ := bank.Read(W1, 0)
	assert.Equal(U8(0), cell)

	_, err = bank.Bytes(8, 9)
	assert.ErrorIs(err, ErrOutOfBounds)
}

func FuzzBank(f *testing.F) {
	f.Add(uint64(0), uint8(0), uint64(0))
	f.Add(uint64(1020), uint8(3), uint64(math.MaxUint64))
	f.Add(uint64(1023), uint8(1), uint64(0x8000))
	f.Add(uint64(math.MaxUint64), uint8(2), uint64(1))

	f.Fuzz(func(t *testing.T, address uint64, wcode uint8, value uint64) {
		assert := assert.New(t)

		bank, err := NewBank(10)
		require.NoError(t, err)

		width := Widths[wcode&3]
		cell := MakeCell(width, value)

		err = bank.Write(cell, address)
		fits := address < bank.Size() && address+uint64(width) <= bank.Size()
		if !fits {
			assert.ErrorIs(err, ErrOutOfBounds)
			return
		}
		assert.NoError(err)

		read, err := bank.Read(width, address)
		assert.NoError(err)
		assert.Equal(cell, read)
	})
}
