// Package isa is the reference instruction catalog of the virtual CPU.
//
// Every instruction begins with an opcode byte, (op << 2) | wcode, where
// wcode 0..3 selects an operand width of 1, 2, 4 or 8 bytes. Operands follow
// as 4 byte packed cpu.Operand words, then the ldi immediate (width bytes)
// or the jump target (8 bytes). All fields are little-endian.
//
// The zero byte decodes as halt, so execution that runs into zeroed memory
// stops normally.
package isa
