// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/cvm/asm"
	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/internal"
	"github.com/ezrec/cvm/isa"
	"github.com/ezrec/cvm/memory"
)

const (
	PROGRAM_BASE = 0 // Programs load at address 0, where execution starts.
)

var _emulator_defines = map[string]string{
	"PROGRAM_BASE": fmt.Sprintf("%v", PROGRAM_BASE),
}

// Emulator state. CPU + reference instruction set + program listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *asm.Program // Reference to the currently loaded program listing.

	image []byte // Program image reloaded on Reset.
}

// NewEmulator creates a new emulator sized by config.
func NewEmulator(config cpu.Config) (emu *Emulator, err error) {
	cp, err := cpu.NewCpu(config, isa.Isa{})
	if err != nil {
		return
	}

	emu = &Emulator{
		Cpu:     cp,
		Program: &asm.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Merge(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		isa.Isa{}.Defines(),
	)
}

// Assemble assembles source text, and loads the resulting program.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	assembler := &asm.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		assembler.Predefine(key, value)
	}

	prog, err := assembler.Parse(input)
	if err != nil {
		return
	}

	err = emu.Load(prog)
	return
}

// Load loads an assembled program.
func (emu *Emulator) Load(prog *asm.Program) (err error) {
	image, err := prog.Binary()
	if err != nil {
		return
	}

	err = emu.LoadImage(bytes.NewReader(image))
	if err != nil {
		return
	}

	emu.Program = prog
	return
}

// LoadImage loads a raw program image, with no listing.
func (emu *Emulator) LoadImage(input io.Reader) (err error) {
	image, err := io.ReadAll(input)
	if err != nil {
		return
	}

	emu.image = image
	emu.Program = &asm.Program{}

	err = emu.Reset()
	if err != nil {
		emu.image = nil
	}

	return
}

// Reset the CPU, and reload the program image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	_, err = emu.Cpu.LoadProgram(bytes.NewReader(emu.image))
	return
}

// LineNo returns the current line number for the executing opcode, or 0
// when there is no listing for it.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
// Returns done once the CPU has halted or faulted.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	if emu.Verbose && lineno != 0 {
		log.Printf("line %d", lineno)
	}

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalt) {
		err = nil
		done = true
		return
	}

	done = emu.Cpu.State.Terminal()
	return
}

// Run ticks until the CPU halts or faults.
func (emu *Emulator) Run() (err error) {
	start := time.Now()
	ticks := emu.Cpu.Ticks

	for done := false; !done; {
		done, err = emu.Tick()
	}

	log.Debugf("run took %v for %d ticks", time.Since(start), emu.Cpu.Ticks-ticks)

	return
}

// Expect compares the cell of width at address with expected, truncated to
// width.
func (emu *Emulator) Expect(address uint64, width memory.Width, expected uint64) (err error) {
	if !width.Valid() {
		err = memory.ErrWidth
		return
	}

	cell, err := emu.Memory.Read(width, address)
	if err != nil {
		return
	}

	expected &= width.Mask()
	if cell.Uint64() != expected {
		err = &ErrMismatch{Address: address, Width: width, Expected: expected, Actual: cell.Uint64()}
		return
	}

	return
}
