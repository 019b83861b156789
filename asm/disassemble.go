package asm

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"

	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/memory"
)

// Disassemble writes a listing of the instructions in a program image.
// Bytes that do not decode are listed as .data.1 and skipped.
func Disassemble(w io.Writer, set cpu.Isa, data []byte) (err error) {
	if len(data) == 0 {
		return
	}

	bank, err := memory.NewBank(uint(bits.Len64(uint64(len(data) - 1))))
	if err != nil {
		return
	}

	_, err = bank.Load(bytes.NewReader(data))
	if err != nil {
		return
	}

	for pc := uint64(0); pc < uint64(len(data)); {
		insn, derr := set.Decode(bank, pc)
		if derr != nil || pc+insn.Size() > uint64(len(data)) {
			_, err = fmt.Fprintf(w, "%04x: .data.1 0x%02x\n", pc, data[pc])
			pc++
		} else {
			_, err = fmt.Fprintf(w, "%04x: %v\n", pc, insn)
			pc += insn.Size()
		}
		if err != nil {
			return
		}
	}

	return
}
