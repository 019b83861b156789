package emulator

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/cvm/asm"
	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/isa"
	"github.com/ezrec/cvm/memory"
)

func newTestEmulator(t *testing.T, program []string) *Emulator {
	emu, err := NewEmulator(cpu.DefaultConfig())
	require.NoError(t, err)

	err = emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	return emu
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(cpu.DefaultConfig())
	assert.NoError(err)
	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.NotNil(emu.Program)
	assert.Equal(0, emu.LineNo())

	_, err = NewEmulator(cpu.Config{MemoryExponent: memory.MAX_EXPONENT + 1, RegisterCount: 1})
	assert.ErrorIs(err, cpu.ErrConfig)

	// An empty image is zeroed memory, which halts.
	assert.NoError(emu.Reset())
	assert.NoError(emu.Run())
	assert.Equal(cpu.STATE_HALTED, emu.Cpu.State)
	assert.Equal(uint64(0), emu.Cpu.Pc)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(cpu.Config{MemoryExponent: 12, RegisterCount: 4})
	require.NoError(t, err)

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("0x1000", defines["MEMORY_SIZE"])
	assert.Equal("4", defines["REGISTER_COUNT"])
	assert.Equal("8", defines["WORD"])
	assert.Equal("0", defines["PROGRAM_BASE"])

	// Defines are visible to assembled programs.
	err = emu.Assemble(strings.NewReader(strings.Join([]string{
		"ldi r1 $(MEMORY_SIZE - WORD)",
		"ldi r0 REGISTER_COUNT",
		"mov [r1] r0",
		"halt",
	}, "\n")))
	require.NoError(t, err)

	assert.NoError(emu.Run())
	assert.NoError(emu.Expect(0xff8, memory.W8, 4))
}

func TestEmulator_Scenarios(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		address uint64
		width   memory.Width
		value   uint64
	}){
		{"memory direct", []string{
			"ldi r0 100",
			"mov 0x200 r0",
			"mov r1 0x200",
			"mov 0x208 r1",
			"halt",
		}, 0x208, memory.W8, 100},
		{"register direct", []string{
			"ldi r0 100",
			"mov 0x200 r0",
			"halt",
		}, 0x200, memory.W8, 100},
		{"register indirect", []string{
			"ldi r0 0x300",
			"ldi r1 100",
			"mov [r0] r1",
			"mov r2 [r0]",
			"mov 0x308 r2",
			"halt",
		}, 0x308, memory.W8, 100},
		{"memory indirect", []string{
			"ldi r0 0x400",
			"mov 0x100 r0",
			"ldi r1 100",
			"mov [0x100] r1",
			"halt",
		}, 0x400, memory.W8, 100},
		{"narrow store", []string{
			"ldi r0 0x1234",
			"mov.1 0x100 r0",
			"halt",
		}, 0x100, memory.W2, 0x34},
		{"negative", []string{
			"ldi.2 r0 -1",
			"mov.2 0x100 r0",
			"halt",
		}, 0x100, memory.W2, ^uint64(0)},
		{"sign extend", []string{
			"ldi.1 r0 -2",
			"sext.1 r1 r0",
			"mov 0x100 r1",
			"halt",
		}, 0x100, memory.W8, ^uint64(1)},
	}

	for _, entry := range table {
		emu := newTestEmulator(t, entry.program)
		assert.NoError(emu.Run(), entry.name)
		assert.Equal(cpu.STATE_HALTED, emu.Cpu.State, entry.name)
		assert.NoError(emu.Expect(entry.address, entry.width, entry.value), entry.name)
	}
}

func TestEmulator_Loop(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, []string{
		".equ N 10",
		"ldi r0 0",
		"ldi r1 N",
		"ldi r2 1",
		"loop: add r0 r1",
		"sub r1 r2",
		"jnz r1 loop",
		"mov result r0",
		"halt",
		".org 0x100",
		"result: .data.8 0",
	})

	assert.NoError(emu.Run())
	assert.NoError(emu.Expect(0x100, memory.W8, 55))
	assert.Equal(35, emu.Cpu.Ticks)
}

func TestEmulator_Tick(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"ldi r0 7",
		"nop",
		"; comment",
		"mov 0x80 r0",
		"halt",
	}
	emu := newTestEmulator(t, program)

	lines := []int{}
	for {
		lines = append(lines, emu.LineNo())
		done, err := emu.Tick()
		assert.NoError(err)
		if done {
			break
		}
	}
	assert.Equal([]int{1, 2, 4, 5}, lines)

	// Halted stays halted.
	done, err := emu.Tick()
	assert.True(done)
	assert.NoError(err)
	assert.Equal(4, emu.Cpu.Ticks)
}

func TestEmulator_Reset(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, []string{
		"mov r0 counter",
		"ldi r1 1",
		"add r0 r1",
		"mov counter r0",
		"halt",
		"counter: .data.8 41",
	})
	assert.NoError(emu.Run())
	address := emu.Program.Opcodes[5].Pc
	assert.NoError(emu.Expect(address, memory.W8, 42))

	// The program image is restored.
	assert.NoError(emu.Reset())
	assert.Equal(cpu.STATE_RUNNING, emu.Cpu.State)
	assert.NoError(emu.Expect(address, memory.W8, 41))

	assert.NoError(emu.Run())
	assert.NoError(emu.Expect(address, memory.W8, 42))
}

func TestEmulator_LoadImage(t *testing.T) {
	assert := assert.New(t)

	assembler := &asm.Assembler{}
	prog, err := assembler.Parse(strings.NewReader("ldi.4 r3 0xdeadbeef\nmov.4 0x40 r3\nhalt\n"))
	require.NoError(t, err)

	image, err := prog.Binary()
	require.NoError(t, err)

	emu, err := NewEmulator(cpu.DefaultConfig())
	require.NoError(t, err)

	assert.NoError(emu.LoadImage(bytes.NewReader(image)))
	assert.Equal(0, emu.LineNo())
	assert.NoError(emu.Run())
	assert.NoError(emu.Expect(0x40, memory.W4, 0xdeadbeef))

	// Image too large for the bank.
	small, err := NewEmulator(cpu.Config{MemoryExponent: 4, RegisterCount: 1})
	require.NoError(t, err)
	err = small.LoadImage(bytes.NewReader(make([]byte, 17)))
	assert.ErrorIs(err, memory.ErrOutOfBounds)
}

func TestEmulator_Expect(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, []string{
		"ldi.2 r0 -1",
		"mov.2 0x100 r0",
		"halt",
	})
	require.NoError(t, emu.Run())

	assert.NoError(emu.Expect(0x100, memory.W2, 0xffff))
	assert.NoError(emu.Expect(0x100, memory.W2, ^uint64(0)))
	assert.NoError(emu.Expect(0x100, memory.W1, 0xff))
	assert.NoError(emu.Expect(0x100, memory.W4, 0xffff))

	err := emu.Expect(0x100, memory.W2, 0xfffe)
	assert.ErrorIs(err, ErrExpect)
	var mm *ErrMismatch
	if assert.ErrorAs(err, &mm) {
		assert.Equal(&ErrMismatch{Address: 0x100, Width: memory.W2, Expected: 0xfffe, Actual: 0xffff}, mm)
	}

	assert.ErrorIs(emu.Expect(0xffff, memory.W2, 0), memory.ErrOutOfBounds)
	assert.ErrorIs(emu.Expect(0, memory.Width(3), 0), memory.ErrWidth)
}

func TestEmulator_Faults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		program []string
		lineno  int
		err     error
	}){
		{[]string{"nop", "mov r10 r0", "halt"}, 2, cpu.ErrInvalidRegister},
		{[]string{"ldi r1 0xffff", "mov [r1] r0", "halt"}, 2, memory.ErrOutOfBounds},
		{[]string{"ldi r0 1", "; nothing", "divu r0 r1", "halt"}, 3, isa.ErrDivideByZero},
		{[]string{"jmp bad", "halt", "bad: .data.1 0xfc"}, 3, cpu.ErrInvalidOpcode},
	}

	for _, entry := range table {
		here := strings.Join(entry.program, "; ")
		emu := newTestEmulator(t, entry.program)

		err := emu.Run()
		assert.ErrorIs(err, entry.err, here)
		assert.Equal(cpu.STATE_FAULTED, emu.Cpu.State, here)

		var rt *ErrRuntime
		if assert.True(errors.As(err, &rt), here) {
			assert.Equal(entry.lineno, rt.LineNo, here)
			assert.Equal(emu.Cpu.Pc, rt.Pc, here)
		}

		// Line first, then the pc once.
		assert.True(strings.HasPrefix(err.Error(), fmt.Sprintf("line %d: ", entry.lineno)), err.Error())
		assert.Equal(1, strings.Count(err.Error(), "pc "), err.Error())
	}
}

func TestEmulator_Verbose(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(cpu.DefaultConfig())
	require.NoError(t, err)
	emu.Verbose = true

	assert.NoError(emu.Assemble(strings.NewReader("nop\nhalt\n")))
	assert.NoError(emu.Run())
	assert.True(emu.Cpu.Verbose)
}
