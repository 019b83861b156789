package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ezrec/cvm/cpu"
	"github.com/ezrec/cvm/emulator"
	"github.com/ezrec/cvm/translate"
)

const (
	EXIT_OK       = 0 // Program halted, expectation met.
	EXIT_MISMATCH = 1 // Expectation not met.
	EXIT_USAGE    = 2 // Bad usage, or I/O failure.
	EXIT_ASSEMBLY = 3 // Assembly error.
	EXIT_FAULT    = 4 // Runtime fault.
)

const (
	DUMP_ROWS  = 16 // Rows of memory in a dump.
	DUMP_WIDTH = 80 // Terminal width when it cannot be determined.
)

// Get an expected flag, or exit if an error arises.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(EXIT_USAGE)
	}

	return r
}

// Get an expected unsigned flag, or exit if an error arises.
func getUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(EXIT_USAGE)
	}

	return r
}

// Get an expected string flag, or exit if an error arises.
func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(EXIT_USAGE)
	}

	return r
}

// newEmulator applies the persistent flags, and creates an emulator.
func newEmulator(cmd *cobra.Command) (emu *emulator.Emulator, code int) {
	verbose := getFlag(cmd, "verbose")
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	if lang := getString(cmd, "lang"); lang != "" {
		err := translate.SetLanguage(lang)
		if err != nil {
			log.Errorf("--lang %v: %v", lang, err)
			code = EXIT_USAGE
			return
		}
	}

	config := cpu.Config{
		MemoryExponent: getUint(cmd, "mem_size"),
		RegisterCount:  getUint(cmd, "num_regs"),
	}

	emu, err := emulator.NewEmulator(config)
	if err != nil {
		log.Error(err)
		code = EXIT_USAGE
		return
	}

	emu.Verbose = verbose

	return
}

// isSource returns true if the file is assembly source.
func isSource(filename string) bool {
	switch filepath.Ext(filename) {
	case ".s", ".asm":
		return true
	}

	return false
}

// loadFile assembles or loads a program file into the emulator.
func loadFile(emu *emulator.Emulator, filename string) (code int) {
	inf, err := os.Open(filename)
	if err != nil {
		log.Error(err)
		code = EXIT_USAGE
		return
	}
	defer inf.Close()

	if isSource(filename) {
		err = emu.Assemble(inf)
		if err != nil {
			log.Errorf("%v: %v", filename, err)
			code = EXIT_ASSEMBLY
		}
		return
	}

	err = emu.LoadImage(inf)
	if err != nil {
		log.Errorf("%v: %v", filename, err)
		code = EXIT_USAGE
	}

	return
}

// runFile loads and runs a program until it halts or faults.
func runFile(cmd *cobra.Command, filename string) (emu *emulator.Emulator, code int) {
	emu, code = newEmulator(cmd)
	if code != EXIT_OK {
		return
	}

	code = loadFile(emu, filename)
	if code != EXIT_OK {
		return
	}

	err := emu.Run()

	if getFlag(cmd, "dump") {
		dump(cmd.OutOrStdout(), emu, terminalWidth())
	}

	if err != nil {
		log.Errorf("%v: %v", filename, err)
		code = EXIT_FAULT
	}

	return
}

// terminalWidth returns the width of the controlling terminal, if any.
func terminalWidth() int {
	if term.IsTerminal(0) {
		width, _, err := term.GetSize(0)
		if err == nil && width > 0 {
			return width
		}
	}

	return DUMP_WIDTH
}

// dump writes the CPU state, and a window of memory sized to the terminal.
func dump(w io.Writer, emu *emulator.Emulator, width int) {
	fmt.Fprint(w, emu.Cpu.String())

	// "0000: " then "xx " per byte.
	columns := 8
	for columns*2*3+6 <= width && columns < 32 {
		columns *= 2
	}

	size := emu.Memory.Size()
	for row := uint64(0); row < DUMP_ROWS; row++ {
		base := row * uint64(columns)
		if base >= size {
			break
		}

		data, err := emu.Memory.Bytes(base, min(uint64(columns), size-base))
		if err != nil {
			break
		}

		line := fmt.Sprintf("%04x:", base)
		for _, b := range data {
			line += fmt.Sprintf(" %02x", b)
		}
		fmt.Fprintln(w, line)
	}
}
