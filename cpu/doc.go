// Package cpu implements the execution core of the virtual CPU.
//
// The CPU consists of a program counter, a register file of 64-bit registers
// (count fixed at construction), and a little-endian memory bank of
// (1 << exponent) bytes. Instruction operands are register or memory
// references, either direct or through one pointer hop, resolved against the
// current state at access time.
//
// The CPU does not know any instruction encoding. An Isa decodes the
// instruction at the program counter, and the decoded Instruction applies
// its effect and chooses the next program counter. The CPU runs until an
// instruction halts it or any access faults.
package cpu
