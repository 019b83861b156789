package cpu

import (
	"errors"
	"fmt"
	"io"
	"iter"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/cvm/memory"
)

// Cpu is the simulation context of the virtual CPU. It owns its register
// file, memory bank and program counter; nothing is shared between CPUs.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Pc       uint64       // Current program counter.
	Register *Registers   // Register file.
	Memory   *memory.Bank // Memory bank.
	Isa      Isa          // Instruction decoder.

	State State // Running, halted or faulted.
	Fault error // Fault that stopped the CPU, if any.
	Ticks int   // Instructions executed.

	config Config
}

// NewCpu creates a CPU sized by config, decoding with isa.
func NewCpu(config Config, isa Isa) (cpu *Cpu, err error) {
	if isa == nil {
		err = errors.Join(ErrConfig, ErrIsaAbsent)
		return
	}

	err = config.Validate()
	if err != nil {
		return
	}

	bank, err := memory.NewBank(config.MemoryExponent)
	if err != nil {
		err = errors.Join(ErrConfig, err)
		return
	}

	cpu = &Cpu{
		Pc:       0,
		Register: NewRegisters(config.RegisterCount),
		Memory:   bank,
		Isa:      isa,
		State:    STATE_RUNNING,
		config:   config,
	}

	return
}

// Config returns the configuration the CPU was created with.
func (cpu *Cpu) Config() Config {
	return cpu.config
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return cpu.config.Defines()
}

// Reset the CPU state.
// - Clears the registers and memory.
// - Sets the program counter to 0.
// - Zeros the tick counter and returns to running.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Register.Reset()
	cpu.Memory.Reset()
	cpu.Pc = 0
	cpu.State = STATE_RUNNING
	cpu.Fault = nil
	cpu.Ticks = 0
}

// LoadProgram writes the program bytes into memory starting at address 0.
func (cpu *Cpu) LoadProgram(r io.Reader) (n int, err error) {
	n, err = cpu.Memory.Load(r)
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", n)
	}

	return
}

// Resolve an operand to its final register or memory location.
//
//	register, direct:   the register itself
//	register, indirect: memory at the address held in the register
//	memory, direct:     memory at the operand index
//	memory, indirect:   memory at the 8 byte pointer stored at the operand index
func (cpu *Cpu) Resolve(op Operand) (loc Location, err error) {
	switch {
	case op.Register() && !op.Indirect():
		err = cpu.Register.check(op.Index())
		loc = Location{Register: true, Index: op.Index()}
	case op.Register() && op.Indirect():
		var ptr uint64
		ptr, err = cpu.Register.Read(op.Index())
		loc = Location{Index: ptr}
	case op.Indirect():
		var ptr memory.Cell
		ptr, err = cpu.Memory.Read(memory.W8, op.Index())
		loc = Location{Index: ptr.Uint64()}
	default:
		loc = Location{Index: op.Index()}
	}

	return
}

// Read a cell of the given width through an operand. Registers are
// truncated to the width.
func (cpu *Cpu) Read(width memory.Width, op Operand) (cell memory.Cell, err error) {
	loc, err := cpu.Resolve(op)
	if err != nil {
		return
	}

	if loc.Register {
		var value uint64
		value, err = cpu.Register.Read(loc.Index)
		if err != nil {
			return
		}
		cell = memory.MakeCell(width, value)
		return
	}

	cell, err = cpu.Memory.Read(width, loc.Index)
	return
}

// Write a cell through an operand. Registers receive the cell zero
// extended.
func (cpu *Cpu) Write(cell memory.Cell, op Operand) (err error) {
	loc, err := cpu.Resolve(op)
	if err != nil {
		return
	}

	if loc.Register {
		err = cpu.Register.Write(loc.Index, cell.Uint64())
		return
	}

	err = cpu.Memory.Write(cell, loc.Index)
	return
}

// Fetch decodes the instruction at the program counter.
func (cpu *Cpu) Fetch() (insn Instruction, err error) {
	insn, err = cpu.Isa.Decode(cpu.Memory, cpu.Pc)
	return
}

// fault stops the CPU with an error.
func (cpu *Cpu) fault(err error) error {
	cpu.State = STATE_FAULTED
	cpu.Fault = &ErrFault{Pc: cpu.Pc, Err: err}

	if cpu.Verbose {
		log.Printf("cpu: %v", cpu.Fault)
	}

	return cpu.Fault
}

// Tick executes a single fetch, decode and execute cycle.
// Returns ErrHalt once the CPU has halted, or the fault that stopped it.
func (cpu *Cpu) Tick() (err error) {
	switch cpu.State {
	case STATE_HALTED:
		return ErrHalt
	case STATE_FAULTED:
		return cpu.Fault
	}

	insn, err := cpu.Fetch()
	if err != nil {
		return cpu.fault(err)
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", cpu.Pc, insn)
	}

	next, err := insn.Execute(cpu)
	if errors.Is(err, ErrHalt) {
		cpu.Ticks++
		cpu.State = STATE_HALTED
		if cpu.Verbose {
			log.Printf("cpu: halt after %d ticks", cpu.Ticks)
		}
		return ErrHalt
	}
	if err != nil {
		return cpu.fault(err)
	}

	cpu.Pc = next
	cpu.Ticks++

	return
}

// Run ticks the CPU until it halts or faults.
// Returns nil on halt, or the fault.
func (cpu *Cpu) Run() (err error) {
	for {
		err = cpu.Tick()
		if errors.Is(err, ErrHalt) {
			return nil
		}
		if err != nil {
			return
		}
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %04X_%04X_%04X_%04X\n", "pc",
		(cpu.Pc>>48)&0xffff, (cpu.Pc>>32)&0xffff, (cpu.Pc>>16)&0xffff, cpu.Pc&0xffff)
	text += fmt.Sprintf("% 5s: %v\n", "state", cpu.State)
	text += fmt.Sprintf("% 5s: %d\n", "ticks", cpu.Ticks)
	for n, val := range cpu.Register.All() {
		reg := fmt.Sprintf("r%d", n)
		text += fmt.Sprintf("% 5s: %04X_%04X_%04X_%04X\n", reg,
			(val>>48)&0xffff, (val>>32)&0xffff, (val>>16)&0xffff, val&0xffff)
	}
	if cpu.Fault != nil {
		text += fmt.Sprintf("% 5s: %v\n", "fault", cpu.Fault)
	}

	return
}
