package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ezrec/cvm/emulator"
	"github.com/ezrec/cvm/memory"
)

var testCmd = &cobra.Command{
	Use:   "test [flags] program_file",
	Short: "run a program, and check a cell of memory.",
	Long: `Run a program until it halts, then compare the memory cell at the
	given index against an expected value. Exits with 1 on a mismatch.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(EXIT_USAGE)
		}

		os.Exit(testFile(cmd, args[0]))
	},
}

// parseValue accepts unsigned or negative decimal, or 0x prefixed hex.
func parseValue(text string) (value uint64, err error) {
	if strings.HasPrefix(text, "-") {
		var signed int64
		signed, err = strconv.ParseInt(text, 10, 64)
		value = uint64(signed)
		return
	}

	value, err = strconv.ParseUint(text, 0, 64)
	return
}

func testFile(cmd *cobra.Command, filename string) (code int) {
	err := cmd.ValidateRequiredFlags()
	if err != nil {
		log.Error(err)
		code = EXIT_USAGE
		return
	}

	index := getString(cmd, "index")
	address, err := parseValue(index)
	if err != nil {
		log.Errorf("--index %v: %v", index, err)
		code = EXIT_USAGE
		return
	}

	width := memory.Width(getUint(cmd, "size"))
	if !width.Valid() {
		log.Errorf("--size %d: %v", int(width), memory.ErrWidth)
		code = EXIT_USAGE
		return
	}

	text := getString(cmd, "value")
	value, err := parseValue(text)
	if err != nil {
		log.Errorf("--value %v: %v", text, err)
		code = EXIT_USAGE
		return
	}

	emu, code := runFile(cmd, filename)
	if code != EXIT_OK {
		return
	}

	err = emu.Expect(address, width, value)
	var mismatch *emulator.ErrMismatch
	switch {
	case errors.As(err, &mismatch):
		log.Errorf("%v: %v", filename, err)
		code = EXIT_MISMATCH
	case err != nil:
		log.Errorf("%v: %v", filename, err)
		code = EXIT_USAGE
	}

	return
}

func init() {
	testCmd.Flags().StringP("index", "d", "", "memory index to check")
	testCmd.Flags().UintP("size", "s", uint(memory.W2), "width of the cell in bytes")
	testCmd.Flags().StringP("value", "v", "", "expected value")
	testCmd.MarkFlagRequired("index")
	testCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(testCmd)
}
