package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ezrec/cvm/asm"
	"github.com/ezrec/cvm/emulator"
	"github.com/ezrec/cvm/isa"
)

var asmCmd = &cobra.Command{
	Use:   "asm [flags] source_file",
	Short: "assemble a program to a raw image.",
	Long: `Assemble a program to a raw program image, which can be given to
	run or test. With --disassemble, list the image instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(EXIT_USAGE)
		}

		os.Exit(asmFile(cmd, args[0]))
	},
}

func asmFile(cmd *cobra.Command, filename string) (code int) {
	emu, code := newEmulator(cmd)
	if code != EXIT_OK {
		return
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		log.Error(err)
		code = EXIT_USAGE
		return
	}

	if getFlag(cmd, "disassemble") {
		if isSource(filename) {
			data, code = assemble(emu, filename, data)
			if code != EXIT_OK {
				return
			}
		}

		err = asm.Disassemble(cmd.OutOrStdout(), isa.Isa{}, data)
		if err != nil {
			log.Error(err)
			code = EXIT_USAGE
		}
		return
	}

	data, code = assemble(emu, filename, data)
	if code != EXIT_OK {
		return
	}

	var out io.Writer = cmd.OutOrStdout()
	if output := getString(cmd, "output"); output != "" && output != "-" {
		ouf, err := os.Create(output)
		if err != nil {
			log.Error(err)
			code = EXIT_USAGE
			return
		}
		defer ouf.Close()
		out = ouf
	}

	_, err = out.Write(data)
	if err != nil {
		log.Error(err)
		code = EXIT_USAGE
	}

	return
}

// assemble source text to a program image, with the emulator's defines.
func assemble(emu *emulator.Emulator, filename string, source []byte) (data []byte, code int) {
	assembler := &asm.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		assembler.Predefine(key, value)
	}

	prog, err := assembler.Parse(bytes.NewReader(source))
	if err == nil {
		data, err = prog.Binary()
	}
	if err != nil {
		log.Errorf("%v: %v", filename, err)
		code = EXIT_ASSEMBLY
	}

	return
}

func init() {
	asmCmd.Flags().StringP("output", "o", "", "output file, or - for stdout")
	asmCmd.Flags().BoolP("disassemble", "d", false, "list the program image")
	rootCmd.AddCommand(asmCmd)
}
