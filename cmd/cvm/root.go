package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/ezrec/cvm/cpu"
)

// Version is filled in by the linker, but not when installing via "go install".
var Version string

var rootCmd = &cobra.Command{
	Use:   "cvm",
	Short: "A virtual CPU for checking compiler output.",
	Long: `A virtual CPU with a flat little-endian memory bank and a register
	file. Programs are run until they halt, and the memory they leave behind
	can be compared against expected values.`,
	Run: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "version") {
			fmt.Fprintln(cmd.OutOrStdout(), version())
			return
		}

		fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
		os.Exit(EXIT_USAGE)
	},
}

func version() (text string) {
	text = "cvm "
	if Version != "" {
		text += Version
	} else if info, ok := debug.ReadBuildInfo(); ok {
		text += info.Main.Version
	} else {
		text += "(unknown version)"
	}

	return
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(EXIT_USAGE)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "report version of this executable")
	rootCmd.PersistentFlags().UintP("mem_size", "m", cpu.DEFAULT_MEMORY_EXPONENT, "memory size, as a power of two")
	rootCmd.PersistentFlags().UintP("num_regs", "n", cpu.DEFAULT_REGISTER_COUNT, "number of registers")
	rootCmd.PersistentFlags().Bool("verbose", false, "trace execution")
	rootCmd.PersistentFlags().Bool("dump", false, "print CPU state and memory after the run")
	rootCmd.PersistentFlags().String("lang", "", "language for diagnostics")
}
