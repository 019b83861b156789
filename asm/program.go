package asm

import (
	"iter"

	"github.com/ezrec/cvm/isa"
	"github.com/ezrec/cvm/memory"
)

// Link is a label reference resolved once the whole source has been read.
type Link struct {
	Label string       // Label to resolve.
	Code  int          // Index into Codes, or -1 for Data.
	Field int          // Operand index, -1 for the immediate, or the Data offset.
	Width memory.Width // Width of a Data field.
}

// Opcode represents a line of assembled source with its address and
// generated instructions or data.
type Opcode struct {
	LineNo int        // Source line number.
	Pc     uint64     // Address of the first byte.
	Words  []string   // Source words, after expansion.
	Codes  []isa.Code // Generated instructions.
	Data   []byte     // Raw bytes from data directives.
	Links  []Link     // Label references to patch.
}

// Size returns the number of bytes the opcode occupies.
func (op *Opcode) Size() (size uint64) {
	for _, code := range op.Codes {
		size += code.Size()
	}
	size += uint64(len(op.Data))
	return
}

// Bytes returns the encoding of the opcode.
func (op *Opcode) Bytes() (data []byte, err error) {
	for _, code := range op.Codes {
		var enc []byte
		enc, err = code.Bytes()
		if err != nil {
			return
		}
		data = append(data, enc...)
	}
	data = append(data, op.Data...)
	return
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the source of an address.
type Debug struct {
	*Opcode
	Offset uint64 // Offset of the address into the opcode.
}

// Debug returns the opcode containing pc, or a Debug with a nil Opcode.
func (prog *Program) Debug(pc uint64) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if pc >= op.Pc && pc < op.Pc+op.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Offset: pc - op.Pc,
			}
			break
		}
	}

	return
}

// Size returns the number of bytes in the program image.
func (prog *Program) Size() uint64 {
	if len(prog.Opcodes) == 0 {
		return 0
	}

	last := &prog.Opcodes[len(prog.Opcodes)-1]
	return last.Pc + last.Size()
}

// Binary returns the memory image of the program, starting at address 0.
func (prog *Program) Binary() (data []byte, err error) {
	data = make([]byte, 0, prog.Size())
	for n := range prog.Opcodes {
		var enc []byte
		enc, err = prog.Opcodes[n].Bytes()
		if err != nil {
			err = &ErrSyntax{LineNo: prog.Opcodes[n].LineNo, Err: err}
			return
		}
		data = append(data, enc...)
	}

	return
}

// Codes iterates over every instruction and its address.
func (prog *Program) Codes() iter.Seq2[uint64, isa.Code] {
	return func(yield func(pc uint64, code isa.Code) bool) {
		for _, op := range prog.Opcodes {
			pc := op.Pc
			for _, code := range op.Codes {
				if !yield(pc, code) {
					return
				}
				pc += code.Size()
			}
		}
	}
}
